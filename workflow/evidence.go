package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

// AddEvidence records one piece of evidence against an open case. Any sworn
// rank may collect evidence; the record starts its review in PENDING.
func (s *Service) AddEvidence(ctx context.Context, actor Actor, in models.EvidenceDetails) (*models.Evidence, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, errors.Wrapf(ErrPreconditionFailed, "evidence type %q unknown", in.Type)
	}
	if in.Type == models.EvidenceVehicle {
		if err := validateVehicleEvidence(in.Metadata); err != nil {
			return nil, err
		}
	}
	c, err := s.cases.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Details.Status.Closed() {
		return nil, errors.Wrapf(ErrInvalidTransition, "case: cannot collect evidence from %q", c.Details.Status)
	}

	now := s.stamp()
	in.Status = models.EvidencePending
	in.CollectedBy = actor.ID
	if in.CollectedAt == 0 {
		in.CollectedAt = now
	}
	in.CreatedAt = now
	in.UpdatedAt = now
	ev := models.Evidence{
		ID:      primitive.NewObjectID(),
		Details: in,
	}
	if err := s.evidence.PutEvidence(ctx, &ev); err != nil {
		return nil, err
	}
	zap.S().Infow("evidence collected",
		"evidenceID", ev.ID.Hex(), "caseID", in.CaseID.Hex(), "type", in.Type)
	return &ev, nil
}

// validateVehicleEvidence enforces plate XOR serial number on the metadata
// of vehicle evidence.
func validateVehicleEvidence(metadata map[string]string) error {
	plate := strings.TrimSpace(metadata["plate"])
	serial := strings.TrimSpace(metadata["serialNumber"])
	if plate != "" && serial != "" {
		return errors.Wrap(ErrPreconditionFailed, "vehicle evidence carries either a plate or a serial number, not both")
	}
	if plate == "" && serial == "" {
		return errors.Wrap(ErrPreconditionFailed, "vehicle evidence needs a plate or a serial number")
	}
	return nil
}

// TestimonyInput carries the fields of a witness statement recorded as
// evidence.
type TestimonyInput struct {
	Title         string
	Description   string
	LocationFound string
	WitnessName   string
	WitnessUserID string
	Transcription string
	RecordedAt    time.Time
}

// AddTestimonyEvidence records a witness statement as a testimony-typed
// evidence record plus its transcription detail in one unit. The acting
// user becomes the interviewer.
func (s *Service) AddTestimonyEvidence(ctx context.Context, actor Actor, caseID primitive.ObjectID, in TestimonyInput) (*models.Evidence, *models.Testimony, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(in.Transcription) == "" {
		return nil, nil, errors.Wrap(ErrPreconditionFailed, "testimony needs a transcription")
	}
	if in.WitnessUserID != "" {
		if _, err := s.users.GetUser(ctx, in.WitnessUserID); err != nil {
			return nil, nil, err
		}
	}

	ev, err := s.AddEvidence(ctx, actor, models.EvidenceDetails{
		CaseID:        caseID,
		Type:          models.EvidenceTestimony,
		Title:         in.Title,
		Description:   in.Description,
		LocationFound: in.LocationFound,
	})
	if err != nil {
		return nil, nil, err
	}

	tm := models.Testimony{
		ID: primitive.NewObjectID(),
		Details: models.TestimonyDetails{
			EvidenceID:    ev.ID,
			CaseID:        caseID,
			WitnessName:   in.WitnessName,
			WitnessUserID: in.WitnessUserID,
			Transcription: in.Transcription,
			Interviewer:   actor.ID,
			CreatedAt:     s.stamp(),
		},
	}
	if !in.RecordedAt.IsZero() {
		tm.Details.RecordedAt = primitive.NewDateTimeFromTime(in.RecordedAt)
	}
	if err := s.evidence.AddTestimony(ctx, tm); err != nil {
		return nil, nil, err
	}
	return ev, &tm, nil
}

// VerifyEvidence settles the review of a pending or processing evidence
// record. A settled record reports ErrAlreadyProcessed on a repeat verify.
func (s *Service) VerifyEvidence(ctx context.Context, actor Actor, evidenceID primitive.ObjectID, approve bool, notes string) (*models.Evidence, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("evidence:" + evidenceID.Hex())
	defer unlock()

	ev, err := s.evidence.GetEvidence(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if ev.Details.Status.Settled() {
		return ev, errors.Wrapf(ErrAlreadyProcessed, "evidence %s is already %s", evidenceID.Hex(), ev.Details.Status)
	}

	now := s.stamp()
	if approve {
		ev.Details.Status = models.EvidenceVerified
	} else {
		ev.Details.Status = models.EvidenceRejected
	}
	ev.Details.VerifiedBy = actor.ID
	ev.Details.VerifiedAt = now
	ev.Details.VerificationNotes = notes
	ev.Details.UpdatedAt = now
	if err := s.evidence.PutEvidence(ctx, ev); err != nil {
		return nil, err
	}
	zap.S().Infow("evidence review settled",
		"evidenceID", evidenceID.Hex(), "status", ev.Details.Status, "verifiedBy", actor.ID)
	return ev, nil
}

// AddEvidenceLabResult attaches a lab finding to biological evidence and
// marks it PROCESSING until the review settles.
func (s *Service) AddEvidenceLabResult(ctx context.Context, actor Actor, evidenceID primitive.ObjectID, result string) (*models.Evidence, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result) == "" {
		return nil, errors.Wrap(ErrPreconditionFailed, "lab result must not be empty")
	}

	unlock := s.locks.lock("evidence:" + evidenceID.Hex())
	defer unlock()

	ev, err := s.evidence.GetEvidence(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if ev.Details.Type != models.EvidenceBiological {
		return nil, errors.Wrapf(ErrPreconditionFailed, "lab results apply to biological evidence, not %q", ev.Details.Type)
	}
	if ev.Details.Status.Settled() {
		return ev, errors.Wrapf(ErrAlreadyProcessed, "evidence %s is already %s", evidenceID.Hex(), ev.Details.Status)
	}

	ev.Details.LabResult = result
	ev.Details.Status = models.EvidenceProcessing
	ev.Details.UpdatedAt = s.stamp()
	if err := s.evidence.PutEvidence(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListCaseEvidence returns the evidence records of a case.
func (s *Service) ListCaseEvidence(ctx context.Context, caseID primitive.ObjectID) ([]models.Evidence, error) {
	return s.evidence.ListEvidenceByCase(ctx, caseID)
}

// ListCaseTestimonies returns the testimony statements recorded on a case.
func (s *Service) ListCaseTestimonies(ctx context.Context, caseID primitive.ObjectID) ([]models.Testimony, error) {
	return s.evidence.ListTestimoniesByCase(ctx, caseID)
}
