package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockCollectionName = "schedulerlocks"

// SchedulerLockDatabase provides a coarse distributed lock so a scheduled
// job runs on only one instance at a time.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock claims the named lock for instanceID unless another live
// instance holds it. A lock whose expiresAt has passed is treated as free.
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": jobName,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)}},
			{"holder": instanceID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"holder":     instanceID,
			"acquiredAt": primitive.NewDateTimeFromTime(now),
			"expiresAt":  primitive.NewDateTimeFromTime(now.Add(ttl)),
		},
	}
	// Upsert: a missing lock document inserts atomically; a held, unexpired
	// lock matches nothing and the insert trips the _id unique index.
	res, err := s.db.Collection(schedulerLockCollectionName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.MatchedCount > 0 || res.UpsertedID != nil, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	_, err := s.db.Collection(schedulerLockCollectionName).DeleteOne(ctx, bson.M{
		"_id":    jobName,
		"holder": instanceID,
	})
	return err
}
