package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/barangayportal/barangay-portal-api/api/handlers"
	"github.com/barangayportal/barangay-portal-api/api/scheduler"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/databases/mocks"
	"github.com/barangayportal/barangay-portal-api/models"
)

type fakeLocks struct {
	acquired bool
	released bool
}

func (f *fakeLocks) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	return f.acquired, nil
}

func (f *fakeLocks) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	f.released = true
	return nil
}

func overdueFindResult(cases []models.Case) databases.CursorHelper {
	cursor := &mocks.CursorHelper{}
	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Case)
		*arg = cases
	})
	cursor.On("Close", mock.Anything).Return(nil)
	return cursor
}

func TestOverdueSweeper_NotifiesUnflaggedCases(t *testing.T) {
	cID := primitive.NewObjectID()
	ongoingSince := primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -50))
	overdue := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:       "C-0099",
			Status:       models.StatusOngoing,
			ReportedBy:   "maria",
			OngoingSince: &ongoingSince,
		},
	}

	db := &mocks.DatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	caseConn.On("Find", mock.Anything, mock.Anything).
		Return(overdueFindResult([]models.Case{overdue}), nil)
	caseConn.On("UpdateOne", mock.Anything,
		bson.M{"_id": cID, "case.over45Notified": false}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	var notified models.CaseNotification
	notifConn.On("InsertOne", mock.Anything, mock.Anything).
		Return("inserted-id", nil).
		Run(func(args mock.Arguments) {
			notified = args.Get(1).(models.CaseNotification)
		})

	db.On("Collection", "cases").Return(caseConn)
	db.On("Collection", "casenotifications").Return(notifConn)

	locks := &fakeLocks{acquired: true}
	s := &scheduler.OverdueSweeper{
		Cases:      databases.NewCaseDatabase(db),
		Locks:      locks,
		Notifier:   &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
		InstanceID: "test-instance",
	}

	s.Sweep()

	assert.True(t, locks.released)
	assert.Equal(t, models.NotificationOverdue45Days, notified.Details.Type)
	assert.Equal(t, "maria", notified.Details.User.Username)
	notifConn.AssertNumberOfCalls(t, "InsertOne", 1)
}

func TestOverdueSweeper_LosesRaceToOnReadPath(t *testing.T) {
	cID := primitive.NewObjectID()
	ongoingSince := primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -50))
	overdue := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:       "C-0100",
			Status:       models.StatusOngoing,
			ReportedBy:   "maria",
			OngoingSince: &ongoingSince,
		},
	}

	db := &mocks.DatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	caseConn.On("Find", mock.Anything, mock.Anything).
		Return(overdueFindResult([]models.Case{overdue}), nil)
	// the guard filter did not match: someone else flipped the flag first
	caseConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0, ModifiedCount: 0}, nil)

	db.On("Collection", "cases").Return(caseConn)
	db.On("Collection", "casenotifications").Return(notifConn)

	s := &scheduler.OverdueSweeper{
		Cases:      databases.NewCaseDatabase(db),
		Locks:      &fakeLocks{acquired: true},
		Notifier:   &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
		InstanceID: "test-instance",
	}

	s.Sweep()

	notifConn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestOverdueSweeper_SkipsWhenLockHeldElsewhere(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	caseConn := &mocks.CollectionHelper{}
	db.On("Collection", "cases").Return(caseConn)

	s := &scheduler.OverdueSweeper{
		Cases:      databases.NewCaseDatabase(db),
		Locks:      &fakeLocks{acquired: false},
		InstanceID: "test-instance",
	}

	s.Sweep()

	caseConn.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}
