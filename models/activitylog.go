package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ActivityLog holds the structure for the activitylogs collection in mongo.
// Entries are append-only; nothing in the portal updates or deletes them.
type ActivityLog struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details ActivityLogDetails `json:"activity" bson:"activity"`
	Version int32              `json:"__v" bson:"__v"`
}

// ActivityLogDetails holds the structure for the inner activity log details
type ActivityLogDetails struct {
	Module   string `json:"module" bson:"module"` // "cases", "health", "disaster", "documents", "community"
	Action   string `json:"action" bson:"action"`
	TargetID string `json:"targetId,omitempty" bson:"targetId,omitempty"`
	Actor    string `json:"actor" bson:"actor"`
	Detail   string `json:"detail,omitempty" bson:"detail,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
