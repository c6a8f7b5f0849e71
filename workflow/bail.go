package workflow

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

// minBailTotal is the smallest amount+fine the payment gateway accepts.
const minBailTotal int64 = 100_000

// ErrPaymentNotVerified means the gateway reported the payment session as
// not completed; the bail stays pending and the confirm may be retried.
var ErrPaymentNotVerified = errors.Wrap(ErrExternalService, "payment not verified")

// bailSeverityValue is the suspect's peak danger value across every linked
// case, closed ones included, since a convict's case has already closed.
func (s *Service) bailSeverityValue(ctx context.Context, suspectID primitive.ObjectID) (int, error) {
	facts, err := s.caseFactsFor(ctx, suspectID)
	if err != nil {
		return 0, err
	}
	return MaxCrimeSeverity(facts), nil
}

// bailEligible applies the eligibility predicate evaluated at creation time
// only: arrested suspects with mid-tier danger may post bail, convicts only
// at the lowest danger tier.
func bailEligible(status models.SuspectStatus, severityValue int) bool {
	switch status {
	case models.SuspectArrested:
		return severityValue == 1 || severityValue == 2
	case models.SuspectConvicted:
		return severityValue == 1
	default:
		return false
	}
}

// CreateBail opens a pending bail for an eligible suspect. Only a sergeant
// may open one; at most one pending bail may exist per suspect.
func (s *Service) CreateBail(ctx context.Context, actor Actor, suspectID primitive.ObjectID, amount, fineAmount int64) (*models.Bail, error) {
	if err := requireRole(actor, RoleSergeant); err != nil {
		return nil, err
	}
	if amount <= 0 || fineAmount < 0 {
		return nil, errors.Wrap(ErrPreconditionFailed, "bail amounts must be positive")
	}

	unlock := s.locks.lock("bail:suspect:" + suspectID.Hex())
	defer unlock()

	sp, err := s.suspects.GetSuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	sev, err := s.bailSeverityValue(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	if !bailEligible(sp.Details.Status, sev) {
		return nil, errors.Wrapf(ErrNotEligible,
			"suspect %s status %q severity value %d", suspectID.Hex(), sp.Details.Status, sev)
	}
	pending, err := s.bails.PendingBySuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, errors.Wrapf(ErrDuplicatePending, "suspect %s already has pending bail %s",
			suspectID.Hex(), pending.ID.Hex())
	}

	now := s.stamp()
	b := &models.Bail{
		ID: primitive.NewObjectID(),
		Details: models.BailDetails{
			SuspectID:  suspectID,
			Status:     models.BailPending,
			Amount:     amount,
			FineAmount: fineAmount,
			CreatedBy:  actor.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	if err := s.bails.PutBail(ctx, b); err != nil {
		return nil, err
	}
	zap.S().Infow("bail created",
		"bailID", b.ID.Hex(), "suspectID", suspectID.Hex(), "total", amount+fineAmount)
	return b, nil
}

// InitiateBailPayment requests a payment session from the gateway for a
// pending bail and persists the returned track token. The gateway call
// happens outside the bail lock; a gateway failure leaves the bail pending
// and the operation retryable.
func (s *Service) InitiateBailPayment(ctx context.Context, actor Actor, bailID primitive.ObjectID, callbackRef string) (*models.Bail, string, error) {
	unlock := s.locks.lock("bail:" + bailID.Hex())
	b, err := s.bails.GetBail(ctx, bailID)
	if err != nil {
		unlock()
		return nil, "", err
	}
	if b.Details.Status != models.BailPending {
		unlock()
		return nil, "", errors.Wrapf(ErrInvalidTransition, "bail: cannot initiate payment from %q", b.Details.Status)
	}
	total := b.Details.Amount + b.Details.FineAmount
	if total < minBailTotal {
		unlock()
		return nil, "", errors.Wrapf(ErrPreconditionFailed, "bail total %d below minimum %d", total, minBailTotal)
	}
	unlock()

	trackID, err := s.gateway.RequestPayment(ctx, total, callbackRef)
	if err != nil {
		return nil, "", errors.Wrapf(ErrExternalService, "payment request for bail %s: %v", bailID.Hex(), err)
	}

	unlock = s.locks.lock("bail:" + bailID.Hex())
	defer unlock()
	b, err = s.bails.GetBail(ctx, bailID)
	if err != nil {
		return nil, "", err
	}
	if b.Details.Status != models.BailPending {
		return nil, "", errors.Wrapf(ErrInvalidTransition, "bail: cannot initiate payment from %q", b.Details.Status)
	}
	b.Details.PaymentTrackID = trackID
	b.Details.UpdatedAt = s.stamp()
	if err := s.bails.PutBail(ctx, b); err != nil {
		return nil, "", err
	}
	zap.S().Infow("bail payment initiated", "bailID", bailID.Hex(), "trackID", trackID)
	return b, trackID, nil
}

// ConfirmBailPayment handles the gateway callback for a track token. The
// payment is verified against the gateway before any mutation; on verified
// success the bail turns PAID and the suspect is released on bail as one
// unit. A repeated confirm of a paid bail reports ErrAlreadyProcessed
// without touching the suspect or paid_at again.
func (s *Service) ConfirmBailPayment(ctx context.Context, trackID string) (*models.Bail, []SubTransition, error) {
	b, err := s.bails.GetBailByTrackID(ctx, trackID)
	if err != nil {
		return nil, nil, err
	}
	if b.Details.Status == models.BailPaid {
		return b, nil, errors.Wrapf(ErrAlreadyProcessed, "bail %s is already paid", b.ID.Hex())
	}
	if b.Details.Status != models.BailPending {
		return nil, nil, errors.Wrapf(ErrInvalidTransition, "bail: cannot confirm payment from %q", b.Details.Status)
	}

	// Verify outside the critical section
	verified, err := s.gateway.VerifyPayment(ctx, trackID)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrExternalService, "payment verify for bail %s: %v", b.ID.Hex(), err)
	}
	if !verified {
		return nil, nil, errors.Wrapf(ErrPaymentNotVerified, "bail %s track %s", b.ID.Hex(), trackID)
	}

	unlock := s.locks.lock("bail:" + b.ID.Hex())
	defer unlock()

	b, err = s.bails.GetBail(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}
	// Re-evaluate under the lock: the bail may have been paid or cancelled
	// while the gateway call was in flight.
	if b.Details.Status == models.BailPaid {
		return b, nil, errors.Wrapf(ErrAlreadyProcessed, "bail %s is already paid", b.ID.Hex())
	}
	if b.Details.Status != models.BailPending {
		return nil, nil, errors.Wrapf(ErrInvalidTransition, "bail: cannot confirm payment from %q", b.Details.Status)
	}

	suspectUnlock := s.locks.lock("suspect:" + b.Details.SuspectID.Hex())
	defer suspectUnlock()

	sp, err := s.suspects.GetSuspect(ctx, b.Details.SuspectID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := suspectMachine.Step(Status(sp.Details.Status), TransSuspectReleaseOnBail); err != nil {
		return nil, nil, err
	}

	now := s.stamp()
	b.Details.Status = models.BailPaid
	b.Details.PaidAt = now
	b.Details.UpdatedAt = now
	if err := s.bails.PutBail(ctx, b); err != nil {
		return nil, nil, err
	}
	sub, err := s.applySuspectEdge(ctx, sp, TransSuspectReleaseOnBail)
	if err != nil {
		return nil, nil, err
	}
	zap.S().Infow("bail paid",
		"bailID", b.ID.Hex(), "suspectID", b.Details.SuspectID.Hex(), "trackID", trackID)
	return b, []SubTransition{sub}, nil
}

// CancelBail cancels a pending bail. Creator or any sworn rank.
func (s *Service) CancelBail(ctx context.Context, actor Actor, bailID primitive.ObjectID) (*models.Bail, error) {
	unlock := s.locks.lock("bail:" + bailID.Hex())
	defer unlock()

	b, err := s.bails.GetBail(ctx, bailID)
	if err != nil {
		return nil, err
	}
	if actor.ID != b.Details.CreatedBy && !actor.HasAnyRole(PoliceRanks...) {
		return nil, errors.Wrapf(ErrForbidden, "actor %s cannot cancel bail %s", actor.ID, bailID.Hex())
	}
	if b.Details.Status != models.BailPending {
		return nil, errors.Wrapf(ErrInvalidTransition, "bail: cannot cancel from %q", b.Details.Status)
	}
	b.Details.Status = models.BailCancelled
	b.Details.UpdatedAt = s.stamp()
	if err := s.bails.PutBail(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
