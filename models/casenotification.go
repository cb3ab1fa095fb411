package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification types emitted by the case lifecycle
const (
	NotificationStatusChange     = "STATUS_CHANGE"
	NotificationHearingScheduled = "HEARING_SCHEDULED"
	NotificationPatawagCreated   = "PATAWAG_CREATED"
	NotificationCancelled        = "CANCELLED"
	NotificationOverdue45Days    = "OVERDUE_45_DAYS"
)

// CaseNotification holds the structure for the casenotifications collection in mongo
type CaseNotification struct {
	ID      primitive.ObjectID      `json:"_id" bson:"_id"`
	Details CaseNotificationDetails `json:"notification" bson:"notification"`
	Version int32                   `json:"__v" bson:"__v"`
}

// CaseNotificationDetails holds the structure for the inner notification details
type CaseNotificationDetails struct {
	// CaseID references the case document; the notification is owned by the
	// recipient, not the case.
	CaseID  string `json:"caseId" bson:"caseId"`
	CaseRef string `json:"caseRef" bson:"caseRef"` // denormalized display id, e.g. "C-0001"

	Type    string `json:"type" bson:"type"`
	Message string `json:"message" bson:"message"`

	User NotificationRecipient `json:"user" bson:"user"`

	Read      bool                `json:"read" bson:"read"`
	ReadAt    *primitive.DateTime `json:"readAt,omitempty" bson:"readAt,omitempty"`
	CreatedAt primitive.DateTime  `json:"createdAt" bson:"createdAt"`
}

// NotificationRecipient identifies the single user a notification targets
type NotificationRecipient struct {
	Username string `json:"username" bson:"username"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
}
