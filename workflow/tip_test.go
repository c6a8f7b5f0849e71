package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/models"
)

func submitTip(t *testing.T, svc *Service, by Actor, caseID, suspectID primitive.ObjectID) *models.Tip {
	t.Helper()
	tip, err := svc.SubmitTip(context.Background(), by, SubmitTipInput{
		Title:       "saw the suspect downtown",
		Description: "near the old mill around midnight",
		CaseID:      caseID,
		SuspectID:   suspectID,
	})
	require.NoError(t, err)
	return tip
}

// tipApproved walks a tip through both review stages and returns the issued
// reward code.
func tipApproved(t *testing.T, svc *Service, by Actor, caseID, suspectID primitive.ObjectID) (*models.Tip, *models.RewardCode) {
	t.Helper()
	ctx := context.Background()
	tip := submitTip(t, svc, by, caseID, suspectID)
	_, err := svc.StartTipOfficerReview(ctx, officer, tip.ID)
	require.NoError(t, err)
	_, err = svc.OfficerApproveTip(ctx, officer, tip.ID, "credible")
	require.NoError(t, err)
	tip, rc, err := svc.DetectiveApproveTip(ctx, detective, tip.ID, "matches the timeline")
	require.NoError(t, err)
	assert.Equal(t, models.TipApproved, tip.Details.Status)
	return tip, rc
}

func TestTipReviewPipeline(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	tip := submitTip(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)
	assert.Equal(t, models.TipSubmitted, tip.Details.Status)

	// review is for officers, not the submitter
	_, err := svc.StartTipOfficerReview(ctx, citizen, tip.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	tip, err = svc.StartTipOfficerReview(ctx, officer, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TipOfficerReview, tip.Details.Status)
	assert.Equal(t, officer.ID, tip.Details.ReviewedByOfficer)

	// detective approval is gated on officer approval first
	_, _, err = svc.DetectiveApproveTip(ctx, detective, tip.ID, "")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	tip, err = svc.OfficerApproveTip(ctx, officer, tip.ID, "worth a look")
	require.NoError(t, err)
	assert.Equal(t, models.TipDetectiveReview, tip.Details.Status)

	_, _, err = svc.DetectiveApproveTip(ctx, officer, tip.ID, "")
	assert.True(t, errors.Is(err, ErrForbidden))

	tip, rc, err := svc.DetectiveApproveTip(ctx, detective, tip.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.TipApproved, tip.Details.Status)
	assert.Len(t, rc.Details.Code, 12)
	assert.Equal(t, baseRewardAmount, rc.Details.Amount)
}

func TestTipRejectPaths(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	tip := submitTip(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)
	_, err := svc.StartTipOfficerReview(ctx, officer, tip.ID)
	require.NoError(t, err)
	tip, err = svc.OfficerRejectTip(ctx, officer, tip.ID, "nothing actionable")
	require.NoError(t, err)
	assert.Equal(t, models.TipOfficerRejected, tip.Details.Status)

	tip2 := submitTip(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)
	_, err = svc.StartTipOfficerReview(ctx, officer, tip2.ID)
	require.NoError(t, err)
	_, err = svc.OfficerApproveTip(ctx, officer, tip2.ID, "")
	require.NoError(t, err)
	tip2, err = svc.DetectiveRejectTip(ctx, detective, tip2.ID, "alibi checks out")
	require.NoError(t, err)
	assert.Equal(t, models.TipDetectiveRejected, tip2.Details.Status)
}

func TestTipRewardFromCaseSeverity(t *testing.T) {
	svc, _, _, clock := newTestService()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	_, rc := tipApproved(t, svc, citizen, c.ID, primitive.NilObjectID)
	assert.Equal(t, int64(10_000_000), rc.Details.Amount)
	assert.True(t, rc.Details.ExpiresAt.Time().Equal(clock.Now().Add(rewardCodeTTL)))
}

func TestTipRewardFromSuspectProfile(t *testing.T) {
	svc, _, _, clock := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	_, err := svc.StartInvestigation(ctx, captain, c.ID, detective.ID)
	require.NoError(t, err)
	sp := newSuspect(t, svc, "")
	_, err = svc.AddSuspectToCase(ctx, detective, c.ID, sp.ID, models.RolePrimary, "")
	require.NoError(t, err)
	_, _, err = svc.MarkSuspectIdentified(ctx, detective, c.ID)
	require.NoError(t, err)
	_, err = svc.StartSuspectPursuit(ctx, detective, sp.ID)
	require.NoError(t, err)

	// 10 days on the run against a danger-2 open case
	clock.Advance(10 * 24 * time.Hour)

	_, rc := tipApproved(t, svc, citizen, primitive.NilObjectID, sp.ID)
	assert.Equal(t, int64(20)*rewardPerRankPoint, rc.Details.Amount)
}

func TestTipRewardFallsBackToBase(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, rc := tipApproved(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)
	assert.Equal(t, baseRewardAmount, rc.Details.Amount)
}

func TestClaimReward(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, rc := tipApproved(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)

	// a citizen cannot process claims at the station
	_, _, err := svc.ClaimReward(ctx, citizen, "nid-u-citizen", rc.Details.Code)
	assert.True(t, errors.Is(err, ErrForbidden))

	// the claimant must be the tip submitter
	_, _, err = svc.ClaimReward(ctx, cadet, "nid-u-citizen2", rc.Details.Code)
	assert.True(t, errors.Is(err, ErrForbidden))

	claimed, tip, err := svc.ClaimReward(ctx, cadet, "nid-u-citizen", rc.Details.Code)
	require.NoError(t, err)
	assert.True(t, claimed.Details.Claimed)
	assert.Equal(t, cadet.ID, claimed.Details.ClaimedByOfficer)
	assert.Equal(t, models.TipRewardClaimed, tip.Details.Status)

	replay, _, err := svc.ClaimReward(ctx, cadet, "nid-u-citizen", rc.Details.Code)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
	require.NotNil(t, replay)
	assert.True(t, replay.Details.Claimed)
}

func TestClaimRewardExpired(t *testing.T) {
	svc, _, _, clock := newTestService()

	_, rc := tipApproved(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)
	clock.Advance(rewardCodeTTL + time.Hour)

	_, _, err := svc.ClaimReward(context.Background(), officer, "nid-u-citizen", rc.Details.Code)
	assert.True(t, errors.Is(err, ErrNotEligible))
}

func TestLookupReward(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, rc := tipApproved(t, svc, citizen, primitive.NilObjectID, primitive.NilObjectID)

	got, err := svc.LookupReward(ctx, "nid-u-citizen", rc.Details.Code)
	require.NoError(t, err)
	assert.Equal(t, rc.Details.Amount, got.Details.Amount)

	_, err = svc.LookupReward(ctx, "nid-u-citizen2", rc.Details.Code)
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = svc.LookupReward(ctx, "nid-u-citizen", "NOPE")
	assert.True(t, errors.Is(err, ErrNotFound))
}
