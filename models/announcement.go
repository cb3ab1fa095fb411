package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Announcement holds the structure for the announcements collection in mongo
type Announcement struct {
	ID      primitive.ObjectID  `json:"_id" bson:"_id"`
	Details AnnouncementDetails `json:"announcement" bson:"announcement"`
	Version int32               `json:"__v" bson:"__v"`
}

// AnnouncementDetails holds the structure for the inner announcement details
type AnnouncementDetails struct {
	Title    string `json:"title" bson:"title"`
	Body     string `json:"body" bson:"body"`
	Category string `json:"category,omitempty" bson:"category,omitempty"` // "advisory", "event", "ordinance"
	PostedBy string `json:"postedBy" bson:"postedBy"`
	Pinned   bool   `json:"pinned" bson:"pinned"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
