package databases

// go generate: mockery --name DocumentRequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const documentRequestCollectionName = "documentrequests"

// DocumentRequestDatabase contains the methods to use with the document request database
type DocumentRequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.DocumentRequest, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.DocumentRequest, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type documentRequestDatabase struct {
	db DatabaseHelper
}

// NewDocumentRequestDatabase initializes a new instance of document request database with the provided db connection
func NewDocumentRequestDatabase(db DatabaseHelper) DocumentRequestDatabase {
	return &documentRequestDatabase{
		db: db,
	}
}

func (d *documentRequestDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.DocumentRequest, error) {
	request := &models.DocumentRequest{}
	err := d.db.Collection(documentRequestCollectionName).FindOne(ctx, filter, opts...).Decode(&request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (d *documentRequestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.DocumentRequest, error) {
	var requests []models.DocumentRequest
	curr, err := d.db.Collection(documentRequestCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &requests)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (d *documentRequestDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return d.db.Collection(documentRequestCollectionName).CountDocuments(ctx, filter, opts...)
}

func (d *documentRequestDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return d.db.Collection(documentRequestCollectionName).InsertOne(ctx, document, opts...)
}

func (d *documentRequestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return d.db.Collection(documentRequestCollectionName).UpdateOne(ctx, filter, update, opts...)
}
