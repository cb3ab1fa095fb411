package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Document request statuses
const (
	DocumentPending  = "pending"
	DocumentPaid     = "paid"
	DocumentReady    = "ready"
	DocumentReleased = "released"
)

// DocumentRequest holds the structure for the documentrequests collection in mongo
type DocumentRequest struct {
	ID      primitive.ObjectID     `json:"_id" bson:"_id"`
	Details DocumentRequestDetails `json:"documentRequest" bson:"documentRequest"`
	Version int32                  `json:"__v" bson:"__v"`
}

// DocumentRequestDetails holds the structure for the inner document request details
type DocumentRequestDetails struct {
	DocumentType string `json:"documentType" bson:"documentType"` // "barangay-clearance", "business-permit", "indigency", "residency"
	Purpose      string `json:"purpose" bson:"purpose"`
	FeeCents     int64  `json:"feeCents" bson:"feeCents"`

	Status      string `json:"status" bson:"status"`
	RequestedBy string `json:"requestedBy" bson:"requestedBy"`
	ReleasedBy  string `json:"releasedBy,omitempty" bson:"releasedBy,omitempty"`

	// Stripe checkout session backing the fee payment, when one was opened
	CheckoutSessionID string `json:"checkoutSessionId,omitempty" bson:"checkoutSessionId,omitempty"`

	PaidAt     *primitive.DateTime `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	ReleasedAt *primitive.DateTime `json:"releasedAt,omitempty" bson:"releasedAt,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
