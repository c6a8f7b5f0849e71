package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// EvidenceType classifies a piece of evidence
type EvidenceType string

// Evidence types
const (
	EvidenceTestimony  EvidenceType = "testimony"
	EvidenceBiological EvidenceType = "biological"
	EvidenceVehicle    EvidenceType = "vehicle"
	EvidenceIDDocument EvidenceType = "id_document"
	EvidenceOther      EvidenceType = "other"
)

// Valid reports whether t is a known evidence type
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceTestimony, EvidenceBiological, EvidenceVehicle, EvidenceIDDocument, EvidenceOther:
		return true
	}
	return false
}

// EvidenceStatus tracks the review state of a piece of evidence
type EvidenceStatus string

// Evidence review states
const (
	EvidencePending    EvidenceStatus = "pending"
	EvidenceProcessing EvidenceStatus = "processing"
	EvidenceVerified   EvidenceStatus = "verified"
	EvidenceRejected   EvidenceStatus = "rejected"
)

// Settled reports whether the review of this evidence is final
func (s EvidenceStatus) Settled() bool {
	return s == EvidenceVerified || s == EvidenceRejected
}

// Evidence holds the bson structure of one evidence record
type Evidence struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details EvidenceDetails    `json:"evidence" bson:"evidence"`
	Version int32              `json:"__v" bson:"__v"`
}

// EvidenceDetails holds the inner evidence structure. Metadata carries the
// type-specific fields, e.g. plate or serialNumber for vehicle evidence.
type EvidenceDetails struct {
	CaseID        primitive.ObjectID `json:"caseID" bson:"caseID"`
	Type          EvidenceType       `json:"type" bson:"type"`
	Status        EvidenceStatus     `json:"status" bson:"status"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description" bson:"description"`
	LocationFound string             `json:"locationFound" bson:"locationFound"`
	CollectedBy   string             `json:"collectedBy" bson:"collectedBy"`
	CollectedAt   primitive.DateTime `json:"collectedAt" bson:"collectedAt"`
	Metadata      map[string]string  `json:"metadata" bson:"metadata"`

	LabResult         string             `json:"labResult" bson:"labResult"`
	VerifiedBy        string             `json:"verifiedBy" bson:"verifiedBy"`
	VerifiedAt        primitive.DateTime `json:"verifiedAt" bson:"verifiedAt"`
	VerificationNotes string             `json:"verificationNotes" bson:"verificationNotes"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Testimony holds the bson structure of a witness statement backing a
// testimony-typed evidence record
type Testimony struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details TestimonyDetails   `json:"testimony" bson:"testimony"`
	Version int32              `json:"__v" bson:"__v"`
}

// TestimonyDetails holds the inner testimony structure
type TestimonyDetails struct {
	EvidenceID    primitive.ObjectID `json:"evidenceID" bson:"evidenceID"`
	CaseID        primitive.ObjectID `json:"caseID" bson:"caseID"`
	WitnessName   string             `json:"witnessName" bson:"witnessName"`
	WitnessUserID string             `json:"witnessUserID" bson:"witnessUserID"`
	Transcription string             `json:"transcription" bson:"transcription"`
	RecordedAt    primitive.DateTime `json:"recordedAt" bson:"recordedAt"`
	Interviewer   string             `json:"interviewer" bson:"interviewer"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
