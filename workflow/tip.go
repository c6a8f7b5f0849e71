package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

const (
	// baseRewardAmount is paid for approved tips with no usable link.
	baseRewardAmount int64 = 5_000_000

	// rewardCodeTTL is how long an issued reward code stays claimable.
	rewardCodeTTL = 90 * 24 * time.Hour
)

// Transition names of the tip machine
const (
	TransTipStartOfficerReview = "start_officer_review"
	TransTipOfficerApprove     = "officer_approve"
	TransTipOfficerReject      = "officer_reject"
	TransTipDetectiveApprove   = "detective_approve"
	TransTipDetectiveReject    = "detective_reject"
	TransTipClaimReward        = "claim_reward"
)

var tipMachine = NewMachine("tip",
	Edge{
		Name:    TransTipStartOfficerReview,
		Sources: []Status{Status(models.TipSubmitted)},
		Target:  Status(models.TipOfficerReview),
	},
	Edge{
		Name:    TransTipOfficerApprove,
		Sources: []Status{Status(models.TipOfficerReview)},
		Target:  Status(models.TipDetectiveReview),
	},
	Edge{
		Name:    TransTipOfficerReject,
		Sources: []Status{Status(models.TipOfficerReview)},
		Target:  Status(models.TipOfficerRejected),
	},
	Edge{
		Name:    TransTipDetectiveApprove,
		Sources: []Status{Status(models.TipDetectiveReview)},
		Target:  Status(models.TipApproved),
	},
	Edge{
		Name:    TransTipDetectiveReject,
		Sources: []Status{Status(models.TipDetectiveReview)},
		Target:  Status(models.TipDetectiveRejected),
	},
	Edge{
		Name:    TransTipClaimReward,
		Sources: []Status{Status(models.TipApproved)},
		Target:  Status(models.TipRewardClaimed),
	},
)

// newRewardCode generates the short unambiguous claim token.
func newRewardCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:12])
}

// SubmitTipInput carries the citizen-supplied fields of a new tip.
type SubmitTipInput struct {
	Title       string
	Description string
	CaseID      primitive.ObjectID
	SuspectID   primitive.ObjectID
}

// SubmitTip files a new tip from the acting citizen.
func (s *Service) SubmitTip(ctx context.Context, actor Actor, in SubmitTipInput) (*models.Tip, error) {
	if _, err := s.users.GetUser(ctx, actor.ID); err != nil {
		return nil, err
	}
	if !in.CaseID.IsZero() {
		if _, err := s.cases.GetCase(ctx, in.CaseID); err != nil {
			return nil, err
		}
	}
	if !in.SuspectID.IsZero() {
		if _, err := s.suspects.GetSuspect(ctx, in.SuspectID); err != nil {
			return nil, err
		}
	}
	now := s.stamp()
	t := &models.Tip{
		ID: primitive.NewObjectID(),
		Details: models.TipDetails{
			Status:      models.TipSubmitted,
			SubmittedBy: actor.ID,
			CaseID:      in.CaseID,
			SuspectID:   in.SuspectID,
			Title:       in.Title,
			Description: in.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	if err := s.tips.PutTip(ctx, t); err != nil {
		return nil, err
	}
	zap.S().Debugw("tip submitted", "tipID", t.ID.Hex(), "submittedBy", actor.ID)
	return t, nil
}

// StartTipOfficerReview claims a submitted tip for the acting officer.
func (s *Service) StartTipOfficerReview(ctx context.Context, actor Actor, tipID primitive.ObjectID) (*models.Tip, error) {
	if err := requireRole(actor, RoleOfficer, RolePatrolOfficer); err != nil {
		return nil, err
	}
	return s.stepTip(ctx, tipID, TransTipStartOfficerReview, func(t *models.Tip) {
		t.Details.ReviewedByOfficer = actor.ID
		t.Details.OfficerReviewDate = s.stamp()
	})
}

// OfficerApproveTip forwards a reviewed tip to a detective.
func (s *Service) OfficerApproveTip(ctx context.Context, actor Actor, tipID primitive.ObjectID, notes string) (*models.Tip, error) {
	if err := requireRole(actor, RoleOfficer, RolePatrolOfficer); err != nil {
		return nil, err
	}
	return s.stepTip(ctx, tipID, TransTipOfficerApprove, func(t *models.Tip) {
		t.Details.ReviewedByOfficer = actor.ID
		t.Details.OfficerReviewDate = s.stamp()
		t.Details.OfficerNotes = notes
	})
}

// OfficerRejectTip terminates a tip at officer review.
func (s *Service) OfficerRejectTip(ctx context.Context, actor Actor, tipID primitive.ObjectID, notes string) (*models.Tip, error) {
	if err := requireRole(actor, RoleOfficer, RolePatrolOfficer); err != nil {
		return nil, err
	}
	return s.stepTip(ctx, tipID, TransTipOfficerReject, func(t *models.Tip) {
		t.Details.ReviewedByOfficer = actor.ID
		t.Details.OfficerReviewDate = s.stamp()
		t.Details.OfficerNotes = notes
	})
}

// DetectiveRejectTip terminates a tip at detective review.
func (s *Service) DetectiveRejectTip(ctx context.Context, actor Actor, tipID primitive.ObjectID, notes string) (*models.Tip, error) {
	if err := requireRole(actor, RoleDetective); err != nil {
		return nil, err
	}
	return s.stepTip(ctx, tipID, TransTipDetectiveReject, func(t *models.Tip) {
		t.Details.ReviewedByDetective = actor.ID
		t.Details.DetectiveReviewDate = s.stamp()
		t.Details.DetectiveNotes = notes
	})
}

// DetectiveApproveTip accepts a tip and issues its reward code. The amount
// comes from the linked suspect's posted reward when one exists, else from
// the linked case's severity, else the base amount.
func (s *Service) DetectiveApproveTip(ctx context.Context, actor Actor, tipID primitive.ObjectID, notes string) (*models.Tip, *models.RewardCode, error) {
	if err := requireRole(actor, RoleDetective); err != nil {
		return nil, nil, err
	}

	unlock := s.locks.lock("tip:" + tipID.Hex())
	defer unlock()

	t, err := s.tips.GetTip(ctx, tipID)
	if err != nil {
		return nil, nil, err
	}
	from := t.Details.Status
	target, err := tipMachine.Step(Status(from), TransTipDetectiveApprove)
	if err != nil {
		return nil, nil, err
	}
	amount, err := s.rewardForTip(ctx, t)
	if err != nil {
		return nil, nil, err
	}

	now := s.stamp()
	t.Details.Status = models.TipStatus(target)
	t.Details.ReviewedByDetective = actor.ID
	t.Details.DetectiveReviewDate = now
	t.Details.DetectiveNotes = notes
	t.Details.UpdatedAt = now
	if err := s.tips.PutTip(ctx, t); err != nil {
		return nil, nil, err
	}

	rc := &models.RewardCode{
		ID: primitive.NewObjectID(),
		Details: models.RewardCodeDetails{
			Code:      newRewardCode(),
			TipID:     t.ID,
			Amount:    amount,
			ExpiresAt: primitive.NewDateTimeFromTime(s.now().Add(rewardCodeTTL)),
			CreatedAt: now,
		},
	}
	if err := s.tips.PutRewardCode(ctx, rc); err != nil {
		return nil, nil, err
	}
	zap.S().Infow("tip approved",
		"tipID", tipID.Hex(), "code", rc.Details.Code, "amount", amount)
	return t, rc, nil
}

// rewardForTip computes the reward amount for an approved tip.
func (s *Service) rewardForTip(ctx context.Context, t *models.Tip) (int64, error) {
	if !t.Details.SuspectID.IsZero() {
		profile, err := s.GetSuspectProfile(ctx, t.Details.SuspectID)
		if err != nil {
			return 0, err
		}
		if profile.RewardAmount > 0 {
			return profile.RewardAmount, nil
		}
	}
	if !t.Details.CaseID.IsZero() {
		c, err := s.cases.GetCase(ctx, t.Details.CaseID)
		if err != nil {
			return 0, err
		}
		return baseRewardAmount * int64(c.Details.CrimeSeverity.Value()), nil
	}
	return baseRewardAmount, nil
}

// LookupReward returns the code and amount for a submitter checking their
// reward. The caller-supplied national id must match the tip submitter's.
func (s *Service) LookupReward(ctx context.Context, nationalID, code string) (*models.RewardCode, error) {
	rc, err := s.tips.GetRewardCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.matchSubmitter(ctx, rc, nationalID); err != nil {
		return nil, err
	}
	return rc, nil
}

// ClaimReward pays out a reward code at the station. The claim verifies
// the submitter's identity, the code's claimed flag and its expiry, then
// flags the code and advances the tip as one unit. A repeated claim
// reports ErrAlreadyProcessed without reapplying side effects.
func (s *Service) ClaimReward(ctx context.Context, actor Actor, nationalID, code string) (*models.RewardCode, *models.Tip, error) {
	if err := requireRole(actor, RoleOfficer, RolePatrolOfficer, RoleCadet); err != nil {
		return nil, nil, err
	}

	unlock := s.locks.lock("reward:" + code)
	defer unlock()

	rc, err := s.tips.GetRewardCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if rc.Details.Claimed {
		return rc, nil, errors.Wrapf(ErrAlreadyProcessed, "reward code %s is already claimed", code)
	}
	if err := s.matchSubmitter(ctx, rc, nationalID); err != nil {
		return nil, nil, err
	}
	if rc.Details.ExpiresAt != 0 && rc.Details.ExpiresAt.Time().Before(s.now()) {
		return nil, nil, errors.Wrapf(ErrNotEligible, "reward code %s expired", code)
	}

	t, err := s.tips.GetTip(ctx, rc.Details.TipID)
	if err != nil {
		return nil, nil, err
	}
	from := t.Details.Status
	target, err := tipMachine.Step(Status(from), TransTipClaimReward)
	if err != nil {
		return nil, nil, err
	}

	now := s.stamp()
	rc.Details.Claimed = true
	rc.Details.ClaimedAt = now
	rc.Details.ClaimedByOfficer = actor.ID
	if err := s.tips.PutRewardCode(ctx, rc); err != nil {
		return nil, nil, err
	}
	t.Details.Status = models.TipStatus(target)
	t.Details.UpdatedAt = now
	if err := s.tips.PutTip(ctx, t); err != nil {
		return nil, nil, err
	}
	zap.S().Infow("reward claimed",
		"code", code, "tipID", t.ID.Hex(), "amount", rc.Details.Amount, "processedBy", actor.ID)
	return rc, t, nil
}

// matchSubmitter checks the caller-supplied national id against the tip
// submitter's account.
func (s *Service) matchSubmitter(ctx context.Context, rc *models.RewardCode, nationalID string) error {
	t, err := s.tips.GetTip(ctx, rc.Details.TipID)
	if err != nil {
		return err
	}
	u, err := s.users.GetUser(ctx, t.Details.SubmittedBy)
	if err != nil {
		return err
	}
	if nationalID == "" || u.Details.NationalID != nationalID {
		return errors.Wrap(ErrForbidden, "national id does not match the tip submitter")
	}
	return nil
}

// stepTip runs one simple tip transition under the entity lock.
func (s *Service) stepTip(ctx context.Context, tipID primitive.ObjectID, transition string, mutate func(*models.Tip)) (*models.Tip, error) {
	unlock := s.locks.lock("tip:" + tipID.Hex())
	defer unlock()

	t, err := s.tips.GetTip(ctx, tipID)
	if err != nil {
		return nil, err
	}
	from := t.Details.Status
	target, err := tipMachine.Step(Status(from), transition)
	if err != nil {
		return nil, err
	}
	t.Details.Status = models.TipStatus(target)
	if mutate != nil {
		mutate(t)
	}
	t.Details.UpdatedAt = s.stamp()
	if err := s.tips.PutTip(ctx, t); err != nil {
		return nil, err
	}
	zap.S().Debugw("tip transition",
		"tipID", tipID.Hex(), "transition", transition, "from", from, "to", t.Details.Status)
	return t, nil
}
