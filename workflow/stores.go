package workflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/models"
)

// The workflow core talks to persistence through these narrow interfaces.
// The databases package implements them over mongo; tests implement them in
// memory. Get returns ErrNotFound (possibly wrapped) for missing entities.

// UserStore looks up and updates user accounts (role set, blocked flag,
// suspect/criminal flags).
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	PutUser(ctx context.Context, u *models.User) error
}

// ComplaintStore persists complaints and their append-only history
type ComplaintStore interface {
	GetComplaint(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	PutComplaint(ctx context.Context, c *models.Complaint) error
	AppendComplaintHistory(ctx context.Context, h models.ComplaintHistory) error
}

// CaseStore persists cases, their append-only history, and crime scene
// witnesses.
type CaseStore interface {
	GetCase(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	PutCase(ctx context.Context, c *models.Case) error
	AppendCaseHistory(ctx context.Context, h models.CaseHistory) error
	ListCaseHistory(ctx context.Context, caseID primitive.ObjectID) ([]models.CaseHistory, error)
	AddWitness(ctx context.Context, w models.CrimeSceneWitness) error
	ListWitnesses(ctx context.Context, caseID primitive.ObjectID) ([]models.CrimeSceneWitness, error)
}

// SuspectStore persists suspects and the case-suspect links
type SuspectStore interface {
	GetSuspect(ctx context.Context, id primitive.ObjectID) (*models.Suspect, error)
	PutSuspect(ctx context.Context, s *models.Suspect) error
	ListSuspectsByStatus(ctx context.Context, statuses ...models.SuspectStatus) ([]models.Suspect, error)

	LinksByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.CaseSuspect, error)
	LinksBySuspect(ctx context.Context, suspectID primitive.ObjectID) ([]models.CaseSuspect, error)
	AddLink(ctx context.Context, link models.CaseSuspect) error

	AddInterrogation(ctx context.Context, in models.Interrogation) error
	ListInterrogationsByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Interrogation, error)
}

// EvidenceStore persists evidence records and the testimony details backing
// testimony-typed evidence.
type EvidenceStore interface {
	GetEvidence(ctx context.Context, id primitive.ObjectID) (*models.Evidence, error)
	PutEvidence(ctx context.Context, e *models.Evidence) error
	ListEvidenceByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Evidence, error)

	AddTestimony(ctx context.Context, tm models.Testimony) error
	ListTestimoniesByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Testimony, error)
}

// TrialStore persists trials and sentences. GetTrialByCase returns
// ErrNotFound when the case has no trial yet.
type TrialStore interface {
	GetTrial(ctx context.Context, id primitive.ObjectID) (*models.Trial, error)
	GetTrialByCase(ctx context.Context, caseID primitive.ObjectID) (*models.Trial, error)
	PutTrial(ctx context.Context, t *models.Trial) error
	AddSentence(ctx context.Context, s models.Sentence) error
}

// BailStore persists bails. PendingBySuspect returns nil, nil when the
// suspect has no pending bail; GetBailByTrackID correlates a gateway
// callback back to its bail.
type BailStore interface {
	GetBail(ctx context.Context, id primitive.ObjectID) (*models.Bail, error)
	GetBailByTrackID(ctx context.Context, trackID string) (*models.Bail, error)
	PutBail(ctx context.Context, b *models.Bail) error
	PendingBySuspect(ctx context.Context, suspectID primitive.ObjectID) (*models.Bail, error)
}

// TipStore persists tips and reward codes
type TipStore interface {
	GetTip(ctx context.Context, id primitive.ObjectID) (*models.Tip, error)
	PutTip(ctx context.Context, t *models.Tip) error
	GetRewardCode(ctx context.Context, code string) (*models.RewardCode, error)
	PutRewardCode(ctx context.Context, rc *models.RewardCode) error
}

// PaymentGateway is the external payment collaborator. RequestPayment
// returns an opaque track token correlating the payment session to a bail;
// VerifyPayment reports whether the session completed. Both carry the
// caller's context so gateway calls run under a bounded timeout.
type PaymentGateway interface {
	RequestPayment(ctx context.Context, amount int64, callbackRef string) (trackID string, err error)
	VerifyPayment(ctx context.Context, trackID string) (bool, error)
}
