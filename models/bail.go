package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// BailStatus is the payment state of a bail
type BailStatus string

// Bail states
const (
	BailPending   BailStatus = "pending"
	BailPaid      BailStatus = "paid"
	BailCancelled BailStatus = "cancelled"
)

// Bail holds the structure for the bails collection in mongo. At most one
// pending bail may exist per suspect at a time.
type Bail struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details BailDetails        `json:"bail" bson:"bail"`
	Version int32              `json:"__v" bson:"__v"`
}

// BailDetails holds the structure for the inner bail structure as defined in
// the bails collection in mongo
type BailDetails struct {
	SuspectID primitive.ObjectID `json:"suspectID" bson:"suspectID"`
	Status    BailStatus         `json:"status" bson:"status"`

	Amount     int64 `json:"amount" bson:"amount"`
	FineAmount int64 `json:"fineAmount" bson:"fineAmount"`

	CreatedBy string `json:"createdBy" bson:"createdBy"`

	// Track token issued by the external payment gateway
	PaymentTrackID string             `json:"paymentTrackID" bson:"paymentTrackID"`
	PaidAt         primitive.DateTime `json:"paidAt" bson:"paidAt"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
