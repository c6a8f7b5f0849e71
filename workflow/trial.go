package workflow

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

func validVerdict(v models.Verdict) bool {
	switch v {
	case models.VerdictGuilty, models.VerdictNotGuilty, models.VerdictDismissed, models.VerdictMistrial:
		return true
	}
	return false
}

// ScheduleTrialInput carries the scheduling fields of a new trial.
type ScheduleTrialInput struct {
	CaseID        primitive.ObjectID
	JudgeID       string
	ScheduledDate time.Time
	CourtName     string
	CourtRoom     string
}

// ScheduleTrial opens the one trial of a case that has been sent to trial.
func (s *Service) ScheduleTrial(ctx context.Context, actor Actor, in ScheduleTrialInput) (*models.Trial, error) {
	if err := requireRole(actor, RoleCaptain, RoleChief, RoleJudge); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("case:" + in.CaseID.Hex())
	defer unlock()

	c, err := s.cases.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Details.Status != models.CaseTrial {
		return nil, errors.Wrapf(ErrInvalidTransition, "case: cannot schedule trial from %q", c.Details.Status)
	}
	judge, err := s.users.GetUser(ctx, in.JudgeID)
	if err != nil {
		return nil, err
	}
	if !(Actor{ID: judge.ID, Roles: judge.Details.Roles}).HasRole(RoleJudge) {
		return nil, errors.Wrapf(ErrPreconditionFailed, "user %s is not a judge", in.JudgeID)
	}
	if _, err := s.trials.GetTrialByCase(ctx, in.CaseID); err == nil {
		return nil, errors.Wrapf(ErrDuplicatePending, "case %s already has a trial", in.CaseID.Hex())
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.stamp()
	t := &models.Trial{
		ID: primitive.NewObjectID(),
		Details: models.TrialDetails{
			CaseID:        in.CaseID,
			JudgeID:       in.JudgeID,
			ScheduledDate: primitive.NewDateTimeFromTime(in.ScheduledDate),
			CourtName:     in.CourtName,
			CourtRoom:     in.CourtRoom,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	if err := s.trials.PutTrial(ctx, t); err != nil {
		return nil, err
	}
	zap.S().Infow("trial scheduled",
		"trialID", t.ID.Hex(), "caseID", in.CaseID.Hex(), "judgeID", in.JudgeID)
	return t, nil
}

// StartTrial stamps the session start. Assigned judge only.
func (s *Service) StartTrial(ctx context.Context, actor Actor, trialID primitive.ObjectID) (*models.Trial, error) {
	if err := requireRole(actor, RoleJudge); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("trial:" + trialID.Hex())
	defer unlock()

	t, err := s.trials.GetTrial(ctx, trialID)
	if err != nil {
		return nil, err
	}
	if t.Details.JudgeID != actor.ID {
		return nil, errors.Wrapf(ErrForbidden, "trial %s belongs to judge %s", trialID.Hex(), t.Details.JudgeID)
	}
	if t.Details.StartedAt != 0 {
		return nil, errors.Wrapf(ErrAlreadyProcessed, "trial %s already started", trialID.Hex())
	}
	now := s.stamp()
	t.Details.StartedAt = now
	t.Details.UpdatedAt = now
	if err := s.trials.PutTrial(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// IssueVerdict records the verdict exactly once, ends the trial, and closes
// the case as solved within the same unit of work. A guilty verdict
// converts every arrested linked suspect through the case-close cascade.
func (s *Service) IssueVerdict(ctx context.Context, actor Actor, trialID primitive.ObjectID, verdict models.Verdict, notes string) (*models.Trial, *models.Case, []SubTransition, error) {
	if err := requireRole(actor, RoleJudge); err != nil {
		return nil, nil, nil, err
	}
	if !validVerdict(verdict) {
		return nil, nil, nil, errors.Wrapf(ErrPreconditionFailed, "unknown verdict %q", verdict)
	}

	unlock := s.locks.lock("trial:" + trialID.Hex())

	t, err := s.trials.GetTrial(ctx, trialID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	if t.Details.JudgeID != actor.ID {
		unlock()
		return nil, nil, nil, errors.Wrapf(ErrForbidden, "trial %s belongs to judge %s", trialID.Hex(), t.Details.JudgeID)
	}
	if t.Details.Verdict != "" {
		unlock()
		return nil, nil, nil, errors.Wrapf(ErrAlreadyProcessed, "trial %s verdict already issued", trialID.Hex())
	}

	now := s.stamp()
	t.Details.Verdict = verdict
	t.Details.VerdictDate = now
	t.Details.VerdictNotes = notes
	t.Details.EndedAt = now
	t.Details.UpdatedAt = now
	if err := s.trials.PutTrial(ctx, t); err != nil {
		unlock()
		return nil, nil, nil, err
	}
	unlock()

	c, cascade, err := s.CloseCaseSolved(ctx, actor, t.Details.CaseID)
	if err != nil {
		return nil, nil, nil, err
	}
	zap.S().Infow("verdict issued",
		"trialID", trialID.Hex(), "caseID", t.Details.CaseID.Hex(), "verdict", verdict)
	return t, c, cascade, nil
}

// SentenceInput carries the sentencing fields for one convicted suspect.
type SentenceInput struct {
	SuspectID    primitive.ObjectID
	Title        string
	Description  string
	DurationDays int
	FineAmount   int64
}

// AddSentence records a sentence against a convicted suspect of a trial
// that ended in a guilty verdict.
func (s *Service) AddSentence(ctx context.Context, actor Actor, trialID primitive.ObjectID, in SentenceInput) (*models.Sentence, error) {
	if err := requireRole(actor, RoleJudge); err != nil {
		return nil, err
	}

	t, err := s.trials.GetTrial(ctx, trialID)
	if err != nil {
		return nil, err
	}
	if t.Details.JudgeID != actor.ID {
		return nil, errors.Wrapf(ErrForbidden, "trial %s belongs to judge %s", trialID.Hex(), t.Details.JudgeID)
	}
	if t.Details.Verdict != models.VerdictGuilty {
		return nil, errors.Wrapf(ErrPreconditionFailed, "trial %s has no guilty verdict", trialID.Hex())
	}
	links, err := s.suspects.LinksByCase(ctx, t.Details.CaseID)
	if err != nil {
		return nil, err
	}
	linked := false
	for _, l := range links {
		if l.SuspectID == in.SuspectID {
			linked = true
			break
		}
	}
	if !linked {
		return nil, errors.Wrapf(ErrPreconditionFailed,
			"suspect %s is not linked to case %s", in.SuspectID.Hex(), t.Details.CaseID.Hex())
	}

	sent := models.Sentence{
		ID: primitive.NewObjectID(),
		Details: models.SentenceDetails{
			TrialID:      trialID,
			SuspectID:    in.SuspectID,
			IssuedBy:     actor.ID,
			Title:        in.Title,
			Description:  in.Description,
			DurationDays: in.DurationDays,
			FineAmount:   in.FineAmount,
			CreatedAt:    s.stamp(),
		},
	}
	if err := s.trials.AddSentence(ctx, sent); err != nil {
		return nil, err
	}
	return &sent, nil
}
