package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SuspectStatus is the workflow state of a suspect
type SuspectStatus string

// Suspect workflow states
const (
	SuspectIdentified         SuspectStatus = "identified"
	SuspectUnderInvestigation SuspectStatus = "under_investigation"
	SuspectUnderPursuit       SuspectStatus = "under_pursuit"
	SuspectMostWanted         SuspectStatus = "most_wanted"
	SuspectArrested           SuspectStatus = "arrested"
	SuspectCleared            SuspectStatus = "cleared"
	SuspectConvicted          SuspectStatus = "convicted"
	SuspectReleasedOnBail     SuspectStatus = "released_on_bail"
)

// Suspect holds the structure for the suspects collection in mongo
type Suspect struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details SuspectDetails     `json:"suspect" bson:"suspect"`
	Version int32              `json:"__v" bson:"__v"`
}

// SuspectDetails holds the structure for the inner suspect structure as
// defined in the suspects collection in mongo
type SuspectDetails struct {
	Status SuspectStatus `json:"status" bson:"status"`

	FullName          string `json:"fullName" bson:"fullName"`
	Aliases           string `json:"aliases" bson:"aliases"`
	Description       string `json:"description" bson:"description"`
	LastKnownLocation string `json:"lastKnownLocation" bson:"lastKnownLocation"`

	// Linked user account, empty when the suspect has no account
	UserID string `json:"userID" bson:"userID"`

	// WantedSince is stamped exactly once, on entering pursuit
	WantedSince primitive.DateTime `json:"wantedSince" bson:"wantedSince"`
	ArrestedAt  primitive.DateTime `json:"arrestedAt" bson:"arrestedAt"`

	// Guilt scores are 1-10, zero means not yet scored
	DetectiveGuiltScore int `json:"detectiveGuiltScore" bson:"detectiveGuiltScore"`
	SergeantGuiltScore  int `json:"sergeantGuiltScore" bson:"sergeantGuiltScore"`

	// Free-text decisions, presence means the decision was made
	CaptainDecision string `json:"captainDecision" bson:"captainDecision"`
	ChiefDecision   string `json:"chiefDecision" bson:"chiefDecision"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// CaseSuspectRole tags how a suspect relates to a case
type CaseSuspectRole string

// Case-suspect link roles
const (
	RolePrimary              CaseSuspectRole = "primary"
	RoleAccomplice           CaseSuspectRole = "accomplice"
	RoleWitnessTurnedSuspect CaseSuspectRole = "witness_turned"
	RolePersonOfInterest     CaseSuspectRole = "poi"
)

// CaseSuspect links a case to a suspect with role information
type CaseSuspect struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID    primitive.ObjectID `json:"caseID" bson:"caseID"`
	SuspectID primitive.ObjectID `json:"suspectID" bson:"suspectID"`
	Role      CaseSuspectRole    `json:"role" bson:"role"`
	Notes     string             `json:"notes" bson:"notes"`
	AddedBy   string             `json:"addedBy" bson:"addedBy"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Interrogation records one interrogation session of a suspect
type Interrogation struct {
	ID      primitive.ObjectID   `json:"_id" bson:"_id"`
	Details InterrogationDetails `json:"interrogation" bson:"interrogation"`
	Version int32                `json:"__v" bson:"__v"`
}

// InterrogationDetails holds the inner interrogation structure
type InterrogationDetails struct {
	SuspectID     primitive.ObjectID `json:"suspectID" bson:"suspectID"`
	CaseID        primitive.ObjectID `json:"caseID" bson:"caseID"`
	ConductedBy   string             `json:"conductedBy" bson:"conductedBy"`
	StartedAt     primitive.DateTime `json:"startedAt" bson:"startedAt"`
	EndedAt       primitive.DateTime `json:"endedAt" bson:"endedAt"`
	Location      string             `json:"location" bson:"location"`
	Transcription string             `json:"transcription" bson:"transcription"`
	Notes         string             `json:"notes" bson:"notes"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
