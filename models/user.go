package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email      string   `json:"email" bson:"email"`
	Name       string   `json:"name" bson:"name"`
	Username   string   `json:"username" bson:"username"`
	Password   string   `json:"password" bson:"password"`
	Phone      string   `json:"phone" bson:"phone"`
	NationalID string   `json:"nationalID" bson:"nationalID"`
	Roles      []string `json:"roles" bson:"roles"`

	// Three-strike tracking for the complaint workflow
	InvalidComplaintsCount int  `json:"invalidComplaintsCount" bson:"invalidComplaintsCount"`
	BlockedFromComplaints  bool `json:"blockedFromComplaints" bson:"blockedFromComplaints"`

	// Flags maintained by the suspect workflow
	IsSuspect  bool `json:"isSuspect" bson:"isSuspect"`
	IsCriminal bool `json:"isCriminal" bson:"isCriminal"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
