package databases

// go generate: mockery --name CounterDatabase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangayportal/barangay-portal-api/models"
)

const counterCollectionName = "counters"

// CaseIDPrefix is the prefix stamped on generated case ids
const CaseIDPrefix = "C-"

// CounterDatabase allocates values from the named atomic sequences
type CounterDatabase interface {
	NextSequence(ctx context.Context, name, prefix string) (*models.Counter, error)
}

type counterDatabase struct {
	db DatabaseHelper
}

// NewCounterDatabase initializes a new instance of counter database with the provided db connection
func NewCounterDatabase(db DatabaseHelper) CounterDatabase {
	return &counterDatabase{
		db: db,
	}
}

// NextSequence atomically increments and returns the named counter. The
// upsert only sets the prefix on insert; seq is touched exclusively through
// $inc so two concurrent first calls cannot both initialize it.
func (c *counterDatabase) NextSequence(ctx context.Context, name, prefix string) (*models.Counter, error) {
	counter := &models.Counter{}
	err := c.db.Collection(counterCollectionName).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{
			"$inc":         bson.M{"seq": 1},
			"$setOnInsert": bson.M{"prefix": prefix},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Should not happen with ReturnDocument(After) upsert semantics,
		// but the allocation must still produce an id.
		return &models.Counter{ID: name, Seq: 1, Prefix: prefix}, nil
	}
	if err != nil {
		return nil, err
	}
	if counter.Prefix == "" {
		counter.Prefix = prefix
	}
	return counter, nil
}

// NextCaseID allocates the next human-readable case id, e.g. "C-0001".
func NextCaseID(ctx context.Context, db CounterDatabase) (string, error) {
	counter, err := db.NextSequence(ctx, "case", CaseIDPrefix)
	if err != nil {
		return "", err
	}
	return FormatCaseID(counter.Prefix, counter.Seq), nil
}

// FormatCaseID zero-pads the sequence to 4 digits and widens naturally once
// the sequence passes 9999 (C-0001 ... C-9999, C-10000).
func FormatCaseID(prefix string, seq int64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
