package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CaseStatus is the workflow state of an investigation case
type CaseStatus string

// Case workflow states
const (
	CaseCreated           CaseStatus = "created"
	CasePendingApproval   CaseStatus = "pending_approval"
	CaseInvestigation     CaseStatus = "investigation"
	CaseSuspectIdentified CaseStatus = "suspect_identified"
	CaseInterrogation     CaseStatus = "interrogation"
	CasePendingCaptain    CaseStatus = "pending_captain"
	CasePendingChief      CaseStatus = "pending_chief"
	CaseTrial             CaseStatus = "trial"
	CaseClosedSolved      CaseStatus = "closed_solved"
	CaseClosedUnsolved    CaseStatus = "closed_unsolved"
)

// Closed reports whether the status is one of the two terminal closed states
func (s CaseStatus) Closed() bool {
	return s == CaseClosedSolved || s == CaseClosedUnsolved
}

// CaseOrigin describes how the case was initiated
type CaseOrigin string

// Case origins
const (
	OriginComplaint  CaseOrigin = "complaint"
	OriginCrimeScene CaseOrigin = "crime_scene"
)

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case structure as defined in
// the cases collection in mongo
type CaseDetails struct {
	CaseNumber string     `json:"caseNumber" bson:"caseNumber"`
	Status     CaseStatus `json:"status" bson:"status"`
	Origin     CaseOrigin `json:"origin" bson:"origin"`

	// Back-reference to the originating complaint, zero for crime scene cases
	OriginComplaintID primitive.ObjectID `json:"originComplaintID,omitempty" bson:"originComplaintID,omitempty"`

	Title         string        `json:"title" bson:"title"`
	Summary       string        `json:"summary" bson:"summary"`
	CrimeSeverity CrimeSeverity `json:"crimeSeverity" bson:"crimeSeverity"`

	CreatedBy     string   `json:"createdBy" bson:"createdBy"`
	ApprovedBy    string   `json:"approvedBy" bson:"approvedBy"`
	LeadDetective string   `json:"leadDetective" bson:"leadDetective"`
	OfficerIDs    []string `json:"officerIDs" bson:"officerIDs"`

	CrimeSceneTime     primitive.DateTime `json:"crimeSceneTime" bson:"crimeSceneTime"`
	CrimeSceneLocation string             `json:"crimeSceneLocation" bson:"crimeSceneLocation"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// CaseHistory holds one entry of the case transition audit log. Entries are
// append-only and never rewritten.
type CaseHistory struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID     primitive.ObjectID `json:"caseID" bson:"caseID"`
	FromStatus CaseStatus         `json:"fromStatus" bson:"fromStatus"`
	ToStatus   CaseStatus         `json:"toStatus" bson:"toStatus"`
	ChangedBy  string             `json:"changedBy" bson:"changedBy"`
	Notes      string             `json:"notes" bson:"notes"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// CrimeSceneWitness is a witness recorded at the crime scene of a case
type CrimeSceneWitness struct {
	ID      primitive.ObjectID       `json:"_id" bson:"_id"`
	Details CrimeSceneWitnessDetails `json:"witness" bson:"witness"`
	Version int32                    `json:"__v" bson:"__v"`
}

// CrimeSceneWitnessDetails holds the inner witness structure
type CrimeSceneWitnessDetails struct {
	CaseID     primitive.ObjectID `json:"caseID" bson:"caseID"`
	FullName   string             `json:"fullName" bson:"fullName"`
	Phone      string             `json:"phone" bson:"phone"`
	NationalID string             `json:"nationalID" bson:"nationalID"`
	Notes      string             `json:"notes" bson:"notes"`
	UserID     string             `json:"userID" bson:"userID"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
