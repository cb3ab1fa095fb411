package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const incidentCollectionName = "incidents"

// IncidentDatabase contains the methods to use with the disaster incident database
type IncidentDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Incident, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (i *incidentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Incident, error) {
	incident := &models.Incident{}
	err := i.db.Collection(incidentCollectionName).FindOne(ctx, filter, opts...).Decode(&incident)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (i *incidentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error) {
	var incidents []models.Incident
	curr, err := i.db.Collection(incidentCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &incidents)
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (i *incidentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return i.db.Collection(incidentCollectionName).CountDocuments(ctx, filter, opts...)
}

func (i *incidentDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return i.db.Collection(incidentCollectionName).InsertOne(ctx, document, opts...)
}

func (i *incidentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return i.db.Collection(incidentCollectionName).UpdateOne(ctx, filter, update, opts...)
}
