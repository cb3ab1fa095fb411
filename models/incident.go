package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Disaster incident statuses
const (
	IncidentActive    = "active"
	IncidentResponded = "responded"
	IncidentClosed    = "closed"
)

// Incident holds the structure for the incidents collection in mongo
type Incident struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details IncidentDetails    `json:"incident" bson:"incident"`
	Version int32              `json:"__v" bson:"__v"`
}

// IncidentDetails holds the structure for the inner incident details
type IncidentDetails struct {
	IncidentType string `json:"incidentType" bson:"incidentType"` // "flood", "fire", "typhoon", "earthquake", "other"
	Severity     string `json:"severity" bson:"severity"`         // "minor", "moderate", "severe"
	Location     string `json:"location" bson:"location"`
	Description  string `json:"description" bson:"description"`

	Status      string `json:"status" bson:"status"`
	ReportedBy  string `json:"reportedBy" bson:"reportedBy"`
	RespondedBy string `json:"respondedBy,omitempty" bson:"respondedBy,omitempty"`

	RespondedAt *primitive.DateTime `json:"respondedAt,omitempty" bson:"respondedAt,omitempty"`
	ClosedAt    *primitive.DateTime `json:"closedAt,omitempty" bson:"closedAt,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
