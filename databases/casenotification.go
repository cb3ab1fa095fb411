package databases

// go generate: mockery --name CaseNotificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const caseNotificationCollectionName = "casenotifications"

// CaseNotificationDatabase contains the methods to use with the case notification database
type CaseNotificationDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseNotification, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type caseNotificationDatabase struct {
	db DatabaseHelper
}

// NewCaseNotificationDatabase initializes a new instance of case notification database with the provided db connection
func NewCaseNotificationDatabase(db DatabaseHelper) CaseNotificationDatabase {
	return &caseNotificationDatabase{
		db: db,
	}
}

func (c *caseNotificationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseNotification, error) {
	var notifications []models.CaseNotification
	curr, err := c.db.Collection(caseNotificationCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &notifications)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *caseNotificationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseNotificationCollectionName).CountDocuments(ctx, filter, opts...)
}

func (c *caseNotificationDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return c.db.Collection(caseNotificationCollectionName).InsertOne(ctx, document, opts...)
}

func (c *caseNotificationDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(caseNotificationCollectionName).UpdateMany(ctx, filter, update, opts...)
}

func (c *caseNotificationDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return c.db.Collection(caseNotificationCollectionName).DeleteOne(ctx, filter, opts...)
}
