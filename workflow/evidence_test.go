package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsaivi/police-department-api/models"
)

func addEvidence(t *testing.T, svc *Service, actor Actor, in models.EvidenceDetails) *models.Evidence {
	t.Helper()
	ev, err := svc.AddEvidence(context.Background(), actor, in)
	require.NoError(t, err)
	return ev
}

func TestAddEvidence(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	ev := addEvidence(t, svc, officer, models.EvidenceDetails{
		CaseID:        c.ID,
		Type:          models.EvidenceOther,
		Title:         "burnt accelerant can",
		Description:   "found near the loading dock",
		LocationFound: "loading dock",
	})

	assert.Equal(t, models.EvidencePending, ev.Details.Status)
	assert.Equal(t, officer.ID, ev.Details.CollectedBy)
	assert.NotZero(t, ev.Details.CollectedAt)

	listed, err := svc.ListCaseEvidence(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, ev.ID, listed[0].ID)
}

func TestAddEvidenceGuards(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)

	_, err := svc.AddEvidence(ctx, citizen, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceOther, Title: "x",
	})
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = svc.AddEvidence(ctx, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: "rumor", Title: "x",
	})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestAddEvidenceToClosedCase(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, _ := caseAtInterrogation(t, svc, models.SeverityLevel2)
	_, _, err := svc.CloseCaseUnsolved(ctx, captain, c.ID)
	require.NoError(t, err)

	_, err = svc.AddEvidence(ctx, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceOther, Title: "late find",
	})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestVehicleEvidencePlateXorSerial(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)

	_, err := svc.AddEvidence(ctx, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceVehicle, Title: "getaway car",
		Metadata: map[string]string{"plate": "12B345", "serialNumber": "VIN-9"},
	})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	_, err = svc.AddEvidence(ctx, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceVehicle, Title: "getaway car",
	})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	ev := addEvidence(t, svc, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceVehicle, Title: "getaway car",
		Metadata: map[string]string{"plate": "12B345"},
	})
	assert.Equal(t, models.EvidencePending, ev.Details.Status)
}

func TestAddTestimonyEvidence(t *testing.T) {
	svc, _, _, clock := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)

	_, _, err := svc.AddTestimonyEvidence(ctx, detective, c.ID, TestimonyInput{
		Title: "night guard statement",
	})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	_, _, err = svc.AddTestimonyEvidence(ctx, detective, c.ID, TestimonyInput{
		Title:         "night guard statement",
		WitnessUserID: "u-nobody",
		Transcription: "I saw two figures by the dock",
	})
	assert.True(t, errors.Is(err, ErrNotFound))

	ev, tm, err := svc.AddTestimonyEvidence(ctx, detective, c.ID, TestimonyInput{
		Title:         "night guard statement",
		WitnessName:   "Ramin Azad",
		WitnessUserID: citizen2.ID,
		Transcription: "I saw two figures by the dock",
		RecordedAt:    clock.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceTestimony, ev.Details.Type)
	assert.Equal(t, ev.ID, tm.Details.EvidenceID)
	assert.Equal(t, detective.ID, tm.Details.Interviewer)

	testimonies, err := svc.ListCaseTestimonies(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, testimonies, 1)
	assert.Equal(t, "Ramin Azad", testimonies[0].Details.WitnessName)
}

func TestVerifyEvidence(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	ev := addEvidence(t, svc, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceOther, Title: "burnt accelerant can",
	})

	// review is a superior call, not the collector's
	_, err := svc.VerifyEvidence(ctx, officer, ev.ID, true, "")
	assert.True(t, errors.Is(err, ErrForbidden))

	verified, err := svc.VerifyEvidence(ctx, detective, ev.ID, true, "matches the accelerant residue")
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceVerified, verified.Details.Status)
	assert.Equal(t, detective.ID, verified.Details.VerifiedBy)
	assert.NotZero(t, verified.Details.VerifiedAt)

	// a settled review never flips
	again, err := svc.VerifyEvidence(ctx, sergeant, ev.ID, false, "")
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
	require.NotNil(t, again)
	assert.Equal(t, models.EvidenceVerified, again.Details.Status)

	rejected := addEvidence(t, svc, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceOther, Title: "unrelated receipt",
	})
	r, err := svc.VerifyEvidence(ctx, sergeant, rejected.ID, false, "no link to the scene")
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceRejected, r.Details.Status)
}

func TestAddLabResult(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)

	other := addEvidence(t, svc, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceOther, Title: "burnt accelerant can",
	})
	_, err := svc.AddEvidenceLabResult(ctx, officer, other.ID, "positive for gasoline")
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	bio := addEvidence(t, svc, officer, models.EvidenceDetails{
		CaseID: c.ID, Type: models.EvidenceBiological, Title: "blood sample",
	})
	_, err = svc.AddEvidenceLabResult(ctx, officer, bio.ID, "  ")
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	processed, err := svc.AddEvidenceLabResult(ctx, officer, bio.ID, "type O negative, partial match")
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceProcessing, processed.Details.Status)
	assert.Equal(t, "type O negative, partial match", processed.Details.LabResult)

	// processing records can still settle
	verified, err := svc.VerifyEvidence(ctx, detective, bio.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceVerified, verified.Details.Status)

	_, err = svc.AddEvidenceLabResult(ctx, officer, bio.ID, "second pass")
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
}
