package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Verdict is the outcome of a trial
type Verdict string

// Possible trial verdicts
const (
	VerdictGuilty    Verdict = "guilty"
	VerdictNotGuilty Verdict = "not_guilty"
	VerdictDismissed Verdict = "dismissed"
	VerdictMistrial  Verdict = "mistrial"
)

// Trial holds the structure for the trials collection in mongo. A trial is
// one-to-one with a case.
type Trial struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details TrialDetails       `json:"trial" bson:"trial"`
	Version int32              `json:"__v" bson:"__v"`
}

// TrialDetails holds the structure for the inner trial structure as defined
// in the trials collection in mongo
type TrialDetails struct {
	CaseID  primitive.ObjectID `json:"caseID" bson:"caseID"`
	JudgeID string             `json:"judgeID" bson:"judgeID"`

	ScheduledDate primitive.DateTime `json:"scheduledDate" bson:"scheduledDate"`
	StartedAt     primitive.DateTime `json:"startedAt" bson:"startedAt"`
	EndedAt       primitive.DateTime `json:"endedAt" bson:"endedAt"`

	// Verdict is set exactly once; empty means no verdict yet
	Verdict      Verdict            `json:"verdict" bson:"verdict"`
	VerdictDate  primitive.DateTime `json:"verdictDate" bson:"verdictDate"`
	VerdictNotes string             `json:"verdictNotes" bson:"verdictNotes"`

	CourtName string `json:"courtName" bson:"courtName"`
	CourtRoom string `json:"courtRoom" bson:"courtRoom"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Sentence holds one sentence issued for a convicted suspect
type Sentence struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details SentenceDetails    `json:"sentence" bson:"sentence"`
	Version int32              `json:"__v" bson:"__v"`
}

// SentenceDetails holds the inner sentence structure
type SentenceDetails struct {
	TrialID   primitive.ObjectID `json:"trialID" bson:"trialID"`
	SuspectID primitive.ObjectID `json:"suspectID" bson:"suspectID"`
	IssuedBy  string             `json:"issuedBy" bson:"issuedBy"`

	Title        string `json:"title" bson:"title"`
	Description  string `json:"description" bson:"description"`
	DurationDays int    `json:"durationDays" bson:"durationDays"`
	FineAmount   int64  `json:"fineAmount" bson:"fineAmount"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
