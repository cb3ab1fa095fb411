package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Roles recognized by the portal
const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user details
type UserDetails struct {
	Username string `json:"username" bson:"username"`
	Password string `json:"-" bson:"password"` // bcrypt hash, never serialized
	Name     string `json:"name" bson:"name"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	Address  string `json:"address,omitempty" bson:"address,omitempty"`
	Contact  string `json:"contact,omitempty" bson:"contact,omitempty"`
	Role     string `json:"role" bson:"role"` // "admin" or "resident"

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
