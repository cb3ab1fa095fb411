package databases

// go generate: mockery --name HealthRecordDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const healthRecordCollectionName = "healthrecords"

// HealthRecordDatabase contains the methods to use with the health record database
type HealthRecordDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.HealthRecord, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.HealthRecord, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type healthRecordDatabase struct {
	db DatabaseHelper
}

// NewHealthRecordDatabase initializes a new instance of health record database with the provided db connection
func NewHealthRecordDatabase(db DatabaseHelper) HealthRecordDatabase {
	return &healthRecordDatabase{
		db: db,
	}
}

func (h *healthRecordDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.HealthRecord, error) {
	record := &models.HealthRecord{}
	err := h.db.Collection(healthRecordCollectionName).FindOne(ctx, filter, opts...).Decode(&record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (h *healthRecordDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.HealthRecord, error) {
	var records []models.HealthRecord
	curr, err := h.db.Collection(healthRecordCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &records)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (h *healthRecordDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return h.db.Collection(healthRecordCollectionName).CountDocuments(ctx, filter, opts...)
}

func (h *healthRecordDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return h.db.Collection(healthRecordCollectionName).InsertOne(ctx, document, opts...)
}

func (h *healthRecordDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return h.db.Collection(healthRecordCollectionName).DeleteOne(ctx, filter, opts...)
}
