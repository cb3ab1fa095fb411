package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/api/handlers"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

const (
	sweepJobName = "overdue-case-sweep"
	sweepLockTTL = 10 * time.Minute
	sweepTimeout = 5 * time.Minute
)

// OverdueSweeper scans Ongoing cases past the overdue threshold on a
// schedule, so a case nobody views still produces its overdue notification.
// It shares the over45Notified guard with the on-read path, so between the
// two at most one notification is ever emitted per case.
type OverdueSweeper struct {
	Cases      databases.CaseDatabase
	Locks      databases.SchedulerLockDatabase
	Notifier   *handlers.CaseNotifier
	InstanceID string
}

// Start registers the nightly sweep and starts the cron runner. The returned
// cron is stopped by the caller on shutdown.
func (s *OverdueSweeper) Start() (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc("0 1 * * *", s.Sweep)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}
	c.Start()
	zap.S().Infow("overdue case sweep scheduled", "schedule", "0 1 * * *", "instance", s.InstanceID)
	return c, nil
}

// Sweep runs one pass. The mongo-backed lock keeps multiple portal instances
// from double-notifying; losing the lock race is a normal, silent outcome.
func (s *OverdueSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	acquired, err := s.Locks.TryAcquireLock(ctx, sweepJobName, s.InstanceID, sweepLockTTL)
	if err != nil {
		zap.S().Errorw("failed to acquire sweep lock", "error", err)
		return
	}
	if !acquired {
		zap.S().Debugw("overdue sweep lock held elsewhere, skipping", "instance", s.InstanceID)
		return
	}
	defer func() {
		if err := s.Locks.ReleaseLock(ctx, sweepJobName, s.InstanceID); err != nil {
			zap.S().Warnw("failed to release sweep lock", "error", err)
		}
	}()

	cutoff := primitive.NewDateTimeFromTime(
		time.Now().AddDate(0, 0, -models.OverdueThresholdDays))

	cases, err := s.Cases.Find(ctx, bson.M{
		"case.status":         models.StatusOngoing,
		"case.over45Notified": false,
		"case.ongoingSince":   bson.M{"$lte": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to query overdue cases", "error", err)
		return
	}

	notified := 0
	for idx := range cases {
		caseDoc := cases[idx]

		// The filter re-checks the guard so a concurrent on-read
		// notification cannot race this one into a duplicate.
		res, err := s.Cases.UpdateOne(ctx,
			bson.M{"_id": caseDoc.ID, "case.over45Notified": false},
			bson.M{"$set": bson.M{"case.over45Notified": true}},
		)
		if err != nil {
			zap.S().Errorw("failed to flag overdue case", "caseRef", caseDoc.Details.CaseID, "error", err)
			continue
		}
		if res.ModifiedCount == 0 {
			continue
		}

		if s.Notifier != nil {
			s.Notifier.Notify(ctx, &caseDoc, models.NotificationOverdue45Days,
				fmt.Sprintf("Your case %s has been ongoing for over %d days. The barangay office has been alerted.",
					caseDoc.Details.CaseID, models.OverdueThresholdDays))
		}
		notified++
	}

	zap.S().Infow("overdue case sweep complete",
		"scanned", len(cases),
		"notified", notified,
	)
}
