package databases

// go generate: mockery --name AnnouncementDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const announcementCollectionName = "announcements"

// AnnouncementDatabase contains the methods to use with the announcement database
type AnnouncementDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Announcement, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Announcement, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type announcementDatabase struct {
	db DatabaseHelper
}

// NewAnnouncementDatabase initializes a new instance of announcement database with the provided db connection
func NewAnnouncementDatabase(db DatabaseHelper) AnnouncementDatabase {
	return &announcementDatabase{
		db: db,
	}
}

func (a *announcementDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Announcement, error) {
	announcement := &models.Announcement{}
	err := a.db.Collection(announcementCollectionName).FindOne(ctx, filter, opts...).Decode(&announcement)
	if err != nil {
		return nil, err
	}
	return announcement, nil
}

func (a *announcementDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Announcement, error) {
	var announcements []models.Announcement
	curr, err := a.db.Collection(announcementCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &announcements)
	if err != nil {
		return nil, err
	}
	return announcements, nil
}

func (a *announcementDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return a.db.Collection(announcementCollectionName).CountDocuments(ctx, filter, opts...)
}

func (a *announcementDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return a.db.Collection(announcementCollectionName).InsertOne(ctx, document, opts...)
}

func (a *announcementDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return a.db.Collection(announcementCollectionName).DeleteOne(ctx, filter, opts...)
}
