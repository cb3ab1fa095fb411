package databases

// go generate: mockery --name ActivityLogDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const activityLogCollectionName = "activitylogs"

// ActivityLogDatabase contains the methods to use with the activity log
// database. The log is append-only; there is deliberately no update or
// delete here.
type ActivityLogDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ActivityLog, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
}

type activityLogDatabase struct {
	db DatabaseHelper
}

// NewActivityLogDatabase initializes a new instance of activity log database with the provided db connection
func NewActivityLogDatabase(db DatabaseHelper) ActivityLogDatabase {
	return &activityLogDatabase{
		db: db,
	}
}

func (a *activityLogDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	curr, err := a.db.Collection(activityLogCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &logs)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (a *activityLogDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return a.db.Collection(activityLogCollectionName).CountDocuments(ctx, filter, opts...)
}

func (a *activityLogDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return a.db.Collection(activityLogCollectionName).InsertOne(ctx, document, opts...)
}
