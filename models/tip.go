package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// TipStatus is the review state of a citizen tip
type TipStatus string

// Tip states
const (
	TipSubmitted         TipStatus = "submitted"
	TipOfficerReview     TipStatus = "officer_review"
	TipOfficerRejected   TipStatus = "officer_rejected"
	TipDetectiveReview   TipStatus = "detective_review"
	TipDetectiveRejected TipStatus = "detective_rejected"
	TipApproved          TipStatus = "approved"
	TipRewardClaimed     TipStatus = "reward_claimed"
)

// Tip holds the structure for the tips collection in mongo
type Tip struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details TipDetails         `json:"tip" bson:"tip"`
	Version int32              `json:"__v" bson:"__v"`
}

// TipDetails holds the structure for the inner tip structure as defined in
// the tips collection in mongo
type TipDetails struct {
	Status TipStatus `json:"status" bson:"status"`

	SubmittedBy string `json:"submittedBy" bson:"submittedBy"`

	// What the tip is about; either may be zero
	CaseID    primitive.ObjectID `json:"caseID,omitempty" bson:"caseID,omitempty"`
	SuspectID primitive.ObjectID `json:"suspectID,omitempty" bson:"suspectID,omitempty"`

	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	ReviewedByOfficer   string             `json:"reviewedByOfficer" bson:"reviewedByOfficer"`
	OfficerReviewDate   primitive.DateTime `json:"officerReviewDate" bson:"officerReviewDate"`
	OfficerNotes        string             `json:"officerNotes" bson:"officerNotes"`
	ReviewedByDetective string             `json:"reviewedByDetective" bson:"reviewedByDetective"`
	DetectiveReviewDate primitive.DateTime `json:"detectiveReviewDate" bson:"detectiveReviewDate"`
	DetectiveNotes      string             `json:"detectiveNotes" bson:"detectiveNotes"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// RewardCode is the claimable token generated when a tip is approved. The
// code is unique across all reward codes.
type RewardCode struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details RewardCodeDetails  `json:"rewardCode" bson:"rewardCode"`
	Version int32              `json:"__v" bson:"__v"`
}

// RewardCodeDetails holds the inner reward code structure
type RewardCodeDetails struct {
	Code   string             `json:"code" bson:"code"`
	TipID  primitive.ObjectID `json:"tipID" bson:"tipID"`
	Amount int64              `json:"amount" bson:"amount"`

	Claimed          bool               `json:"claimed" bson:"claimed"`
	ClaimedAt        primitive.DateTime `json:"claimedAt" bson:"claimedAt"`
	ClaimedByOfficer string             `json:"claimedByOfficer" bson:"claimedByOfficer"`

	ExpiresAt primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
