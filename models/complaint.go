package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ComplaintStatus is the workflow state of a citizen complaint
type ComplaintStatus string

// Complaint workflow states
const (
	ComplaintDraft                 ComplaintStatus = "draft"
	ComplaintSubmitted             ComplaintStatus = "submitted"
	ComplaintCadetReview           ComplaintStatus = "cadet_review"
	ComplaintReturnedToComplainant ComplaintStatus = "returned"
	ComplaintOfficerReview         ComplaintStatus = "officer_review"
	ComplaintReturnedToCadet       ComplaintStatus = "returned_to_cadet"
	ComplaintApproved              ComplaintStatus = "approved"
	ComplaintRejected              ComplaintStatus = "rejected"
	ComplaintInvalidated           ComplaintStatus = "invalidated"
)

// Complaint holds the structure for the complaints collection in mongo
type Complaint struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details ComplaintDetails   `json:"complaint" bson:"complaint"`
	Version int32              `json:"__v" bson:"__v"`
}

// ComplaintDetails holds the structure for the inner complaint structure as
// defined in the complaints collection in mongo
type ComplaintDetails struct {
	Status ComplaintStatus `json:"status" bson:"status"`

	Title         string        `json:"title" bson:"title"`
	Description   string        `json:"description" bson:"description"`
	Location      string        `json:"location" bson:"location"`
	CrimeSeverity CrimeSeverity `json:"crimeSeverity" bson:"crimeSeverity"`

	CreatedBy       string   `json:"createdBy" bson:"createdBy"`
	ComplainantIDs  []string `json:"complainantIDs" bson:"complainantIDs"`
	AssignedCadet   string   `json:"assignedCadet" bson:"assignedCadet"`
	AssignedOfficer string   `json:"assignedOfficer" bson:"assignedOfficer"`

	RejectionCount       int    `json:"rejectionCount" bson:"rejectionCount"`
	LastRejectionMessage string `json:"lastRejectionMessage" bson:"lastRejectionMessage"`

	IncidentDate primitive.DateTime `json:"incidentDate" bson:"incidentDate"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt    primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ComplaintHistory holds one entry of the complaint transition audit log
type ComplaintHistory struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	ComplaintID primitive.ObjectID `json:"complaintID" bson:"complaintID"`
	FromStatus  ComplaintStatus    `json:"fromStatus" bson:"fromStatus"`
	ToStatus    ComplaintStatus    `json:"toStatus" bson:"toStatus"`
	ChangedBy   string             `json:"changedBy" bson:"changedBy"`
	Message     string             `json:"message" bson:"message"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
