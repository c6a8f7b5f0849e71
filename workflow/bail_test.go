package workflow

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/models"
)

func convictSuspect(t *testing.T, m *memStore, suspectID primitive.ObjectID) {
	t.Helper()
	sp, err := m.GetSuspect(context.Background(), suspectID)
	require.NoError(t, err)
	sp.Details.Status = models.SuspectConvicted
	require.NoError(t, m.PutSuspect(context.Background(), sp))
}

func TestCreateBailRequiresSergeant(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)

	_, err := svc.CreateBail(ctx, citizen, sp.ID, 80_000, 40_000)
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = svc.CreateBail(ctx, officer, sp.ID, 80_000, 40_000)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestCreateBailArrestedMidTier(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(context.Background(), sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)
	assert.Equal(t, models.BailPending, b.Details.Status)
	assert.Equal(t, sergeant.ID, b.Details.CreatedBy)
}

func TestCreateBailArrestedHighDanger(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, sp := caseAtInterrogation(t, svc, models.SeverityCritical)
	_, err := svc.CreateBail(context.Background(), sergeant, sp.ID, 80_000, 40_000)
	assert.True(t, errors.Is(err, ErrNotEligible))
}

func TestCreateBailConvicted(t *testing.T) {
	svc, m, _, _ := newTestService()

	// a convict on a mid-tier case stays in custody
	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	convictSuspect(t, m, sp.ID)
	_, err := svc.CreateBail(context.Background(), sergeant, sp.ID, 80_000, 40_000)
	assert.True(t, errors.Is(err, ErrNotEligible))

	// the lowest danger tier may still post bail after conviction
	_, sp2 := caseAtInterrogation(t, svc, models.SeverityLevel3)
	convictSuspect(t, m, sp2.ID)
	b, err := svc.CreateBail(context.Background(), sergeant, sp2.ID, 80_000, 40_000)
	require.NoError(t, err)
	assert.Equal(t, models.BailPending, b.Details.Status)
}

func TestCreateBailDuplicatePending(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	_, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)

	_, err = svc.CreateBail(ctx, sergeant, sp.ID, 90_000, 20_000)
	assert.True(t, errors.Is(err, ErrDuplicatePending))
}

func TestInitiateBailPaymentBelowMinimum(t *testing.T) {
	svc, _, gw, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 50_000, 10_000)
	require.NoError(t, err)

	_, _, err = svc.InitiateBailPayment(ctx, citizen, b.ID, "callback-1")
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
	assert.Zero(t, gw.requests)
}

func TestInitiateBailPaymentPersistsTrack(t *testing.T) {
	svc, m, gw, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)

	b, trackID, err := svc.InitiateBailPayment(ctx, citizen, b.ID, "callback-1")
	require.NoError(t, err)
	assert.Equal(t, "track-1", trackID)
	assert.Equal(t, 1, gw.requests)

	got, err := m.GetBail(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "track-1", got.Details.PaymentTrackID)
	assert.Equal(t, models.BailPending, got.Details.Status)
}

func TestConfirmBailPaymentReleasesSuspect(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)
	_, _, err = svc.InitiateBailPayment(ctx, citizen, b.ID, "callback-1")
	require.NoError(t, err)

	paid, cascade, err := svc.ConfirmBailPayment(ctx, "track-1")
	require.NoError(t, err)
	assert.Equal(t, models.BailPaid, paid.Details.Status)
	assert.NotZero(t, paid.Details.PaidAt)
	require.Len(t, cascade, 1)
	assert.Equal(t, TransSuspectReleaseOnBail, cascade[0].Transition)

	released, err := m.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectReleasedOnBail, released.Details.Status)
}

func TestConfirmBailPaymentReplay(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)
	_, _, err = svc.InitiateBailPayment(ctx, citizen, b.ID, "callback-1")
	require.NoError(t, err)
	_, _, err = svc.ConfirmBailPayment(ctx, "track-1")
	require.NoError(t, err)

	replay, cascade, err := svc.ConfirmBailPayment(ctx, "track-1")
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
	assert.Empty(t, cascade)
	require.NotNil(t, replay)
	assert.Equal(t, models.BailPaid, replay.Details.Status)
}

func TestConfirmBailPaymentNotVerified(t *testing.T) {
	svc, m, gw, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)
	_, _, err = svc.InitiateBailPayment(ctx, citizen, b.ID, "callback-1")
	require.NoError(t, err)

	gw.verified = false
	_, _, err = svc.ConfirmBailPayment(ctx, "track-1")
	assert.True(t, errors.Is(err, ErrPaymentNotVerified))
	assert.True(t, errors.Is(err, ErrExternalService))

	// a failed verify leaves the bail and suspect untouched
	got, err := m.GetBail(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BailPending, got.Details.Status)
	still, err := m.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectArrested, still.Details.Status)
}

func TestConfirmBailPaymentCancelledDuringVerify(t *testing.T) {
	svc, m, gw, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)
	_, _, err = svc.InitiateBailPayment(ctx, citizen, b.ID, "callback-1")
	require.NoError(t, err)

	// a cancel lands while the gateway verify is in flight; the confirm
	// must not resurrect the cancelled bail
	gw.onVerify = func() {
		_, cancelErr := svc.CancelBail(ctx, sergeant, b.ID)
		require.NoError(t, cancelErr)
	}

	_, _, err = svc.ConfirmBailPayment(ctx, "track-1")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	got, err := m.GetBail(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BailCancelled, got.Details.Status)
	assert.Zero(t, got.Details.PaidAt)
	still, err := m.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectArrested, still.Details.Status)
}

func TestConfirmBailPaymentUnknownTrack(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, _, err := svc.ConfirmBailPayment(context.Background(), "no-such-track")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCancelBail(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	b, err := svc.CreateBail(ctx, sergeant, sp.ID, 80_000, 40_000)
	require.NoError(t, err)

	// only the creator or a sworn rank may cancel
	_, err = svc.CancelBail(ctx, citizen2, b.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	b, err = svc.CancelBail(ctx, sergeant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BailCancelled, b.Details.Status)

	_, err = svc.CancelBail(ctx, sergeant, b.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}
