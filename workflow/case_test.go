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

func registerCase(t *testing.T, svc *Service, actor Actor, severity models.CrimeSeverity) *models.Case {
	t.Helper()
	c, err := svc.RegisterCrimeSceneCase(context.Background(), actor, RegisterCrimeSceneInput{
		Title:              "warehouse arson",
		Summary:            "fire set at the riverside warehouse",
		CrimeSeverity:      severity,
		CrimeSceneTime:     time.Date(2025, 5, 28, 23, 0, 0, 0, time.UTC),
		CrimeSceneLocation: "riverside warehouse",
	})
	require.NoError(t, err)
	return c
}

func newSuspect(t *testing.T, svc *Service, userID string) *models.Suspect {
	t.Helper()
	sp, err := svc.CreateSuspect(context.Background(), detective, CreateSuspectInput{
		FullName: "John Doe",
		UserID:   userID,
	})
	require.NoError(t, err)
	return sp
}

// caseAtInterrogation builds a crime scene case with one linked suspect and
// walks it to INTERROGATION; the suspect ends up ARRESTED.
func caseAtInterrogation(t *testing.T, svc *Service, severity models.CrimeSeverity) (*models.Case, *models.Suspect) {
	t.Helper()
	ctx := context.Background()

	c := registerCase(t, svc, chief, severity)
	c, err := svc.StartInvestigation(ctx, captain, c.ID, detective.ID)
	require.NoError(t, err)

	sp := newSuspect(t, svc, "")
	_, err = svc.AddSuspectToCase(ctx, detective, c.ID, sp.ID, models.RolePrimary, "")
	require.NoError(t, err)

	c, cascade, err := svc.MarkSuspectIdentified(ctx, detective, c.ID)
	require.NoError(t, err)
	require.Len(t, cascade, 1)
	assert.Equal(t, TransSuspectStartInvestigation, cascade[0].Transition)

	c, cascade, err = svc.StartInterrogation(ctx, sergeant, c.ID)
	require.NoError(t, err)
	require.Len(t, cascade, 1)
	assert.Equal(t, TransSuspectArrest, cascade[0].Transition)

	sp2, err := svc.suspects.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectArrested, sp2.Details.Status)
	return c, sp2
}

func TestCrimeSceneApprovalFlow(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, officer, models.SeverityLevel2)
	assert.Empty(t, c.Details.ApprovedBy)

	c, err := svc.SubmitCaseForApproval(ctx, officer, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CasePendingApproval, c.Details.Status)

	c, err = svc.ApproveCase(ctx, sergeant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseCreated, c.Details.Status)
	assert.Equal(t, sergeant.ID, c.Details.ApprovedBy)

	// an approved case never queues again
	_, err = svc.SubmitCaseForApproval(ctx, officer, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestChiefRegistrationSkipsApproval(t *testing.T) {
	svc, _, _, _ := newTestService()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	assert.Equal(t, chief.ID, c.Details.ApprovedBy)

	_, err := svc.SubmitCaseForApproval(context.Background(), officer, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestComplaintOriginCaseNeverQueuesForApproval(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := complaintAtOfficerReview(t, svc, citizen)
	_, cs, err := svc.ApproveComplaint(ctx, officer, c.ID)
	require.NoError(t, err)

	_, err = svc.SubmitCaseForApproval(ctx, officer, cs.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
	assert.True(t, errors.Is(err, ErrInvalidOrigin))
}

func TestStartInvestigationRequiresDetective(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	_, err := svc.StartInvestigation(ctx, captain, c.ID, officer.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	c, err = svc.StartInvestigation(ctx, captain, c.ID, detective.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseInvestigation, c.Details.Status)
	assert.Equal(t, detective.ID, c.Details.LeadDetective)
	assert.Contains(t, c.Details.OfficerIDs, detective.ID)
}

func TestMarkSuspectIdentifiedNeedsLinkedSuspects(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	_, err := svc.StartInvestigation(ctx, captain, c.ID, detective.ID)
	require.NoError(t, err)

	_, _, err = svc.MarkSuspectIdentified(ctx, detective, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestStartInterrogationArrestsAtLargeSuspects(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	_, err := svc.StartInvestigation(ctx, captain, c.ID, detective.ID)
	require.NoError(t, err)

	sp1 := newSuspect(t, svc, "")
	sp2 := newSuspect(t, svc, "")
	_, err = svc.AddSuspectToCase(ctx, detective, c.ID, sp1.ID, models.RolePrimary, "")
	require.NoError(t, err)
	_, err = svc.AddSuspectToCase(ctx, detective, c.ID, sp2.ID, models.RoleAccomplice, "")
	require.NoError(t, err)

	_, _, err = svc.MarkSuspectIdentified(ctx, detective, c.ID)
	require.NoError(t, err)

	// one suspect goes on the run before the interrogation
	_, err = svc.StartSuspectPursuit(ctx, detective, sp1.ID)
	require.NoError(t, err)

	_, cascade, err := svc.StartInterrogation(ctx, sergeant, c.ID)
	require.NoError(t, err)
	assert.Len(t, cascade, 2)
	for _, sub := range cascade {
		assert.Equal(t, TransSuspectArrest, sub.Transition)
	}
}

func TestSubmitToCaptainRequiresBothScores(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)

	_, err := svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	_, err = svc.SetDetectiveGuiltScore(ctx, detective, sp.ID, 8)
	require.NoError(t, err)

	// one score is not enough
	_, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	_, err = svc.SetSergeantGuiltScore(ctx, sergeant, sp.ID, 7)
	require.NoError(t, err)

	c, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CasePendingCaptain, c.Details.Status)
}

func TestEscalateToChiefOnlyForCritical(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	_, err := svc.SetDetectiveGuiltScore(ctx, detective, sp.ID, 8)
	require.NoError(t, err)
	_, err = svc.SetSergeantGuiltScore(ctx, sergeant, sp.ID, 7)
	require.NoError(t, err)
	_, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	require.NoError(t, err)

	_, err = svc.EscalateCaseToChief(ctx, captain, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
	assert.True(t, errors.Is(err, ErrEscalationNotRequired))
}

func TestCriticalCaseGoesThroughChief(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtInterrogation(t, svc, models.SeverityCritical)
	_, err := svc.SetDetectiveGuiltScore(ctx, detective, sp.ID, 9)
	require.NoError(t, err)
	_, err = svc.SetSergeantGuiltScore(ctx, sergeant, sp.ID, 9)
	require.NoError(t, err)
	c, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	require.NoError(t, err)

	// escalation needs the captain's decision on every suspect
	_, err = svc.EscalateCaseToChief(ctx, captain, c.ID)
	assert.True(t, errors.Is(err, ErrDecisionIncomplete))

	_, err = svc.SetCaptainDecision(ctx, captain, sp.ID, "prosecute")
	require.NoError(t, err)
	c, err = svc.EscalateCaseToChief(ctx, captain, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CasePendingChief, c.Details.Status)

	// trial needs the chief's decision on a critical case
	_, err = svc.SendCaseToTrial(ctx, chief, c.ID)
	assert.True(t, errors.Is(err, ErrDecisionIncomplete))

	_, err = svc.SetChiefDecision(ctx, chief, sp.ID, "proceed to trial")
	require.NoError(t, err)
	c, err = svc.SendCaseToTrial(ctx, chief, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseTrial, c.Details.Status)
}

func TestSendToTrialWithCaptainDecision(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	_, err := svc.SetDetectiveGuiltScore(ctx, detective, sp.ID, 6)
	require.NoError(t, err)
	_, err = svc.SetSergeantGuiltScore(ctx, sergeant, sp.ID, 5)
	require.NoError(t, err)
	c, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	require.NoError(t, err)

	_, err = svc.SendCaseToTrial(ctx, captain, c.ID)
	assert.True(t, errors.Is(err, ErrDecisionIncomplete))

	_, err = svc.SetCaptainDecision(ctx, captain, sp.ID, "prosecute")
	require.NoError(t, err)
	c, err = svc.SendCaseToTrial(ctx, captain, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseTrial, c.Details.Status)
}

func TestCloseUnsolvedClearsEarlySuspects(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	c := registerCase(t, svc, chief, models.SeverityLevel2)
	_, err := svc.StartInvestigation(ctx, captain, c.ID, detective.ID)
	require.NoError(t, err)

	sp := newSuspect(t, svc, "")
	_, err = svc.AddSuspectToCase(ctx, detective, c.ID, sp.ID, models.RolePrimary, "")
	require.NoError(t, err)
	_, _, err = svc.MarkSuspectIdentified(ctx, detective, c.ID)
	require.NoError(t, err)

	// back to investigation, then abandon
	c2, err := svc.ReturnCaseToInvestigation(ctx, sergeant, c.ID, "insufficient evidence")
	require.NoError(t, err)
	assert.Equal(t, models.CaseInvestigation, c2.Details.Status)

	c2, cascade, err := svc.CloseCaseUnsolved(ctx, sergeant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseClosedUnsolved, c2.Details.Status)
	require.Len(t, cascade, 1)
	assert.Equal(t, TransSuspectClear, cascade[0].Transition)

	got, err := m.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectCleared, got.Details.Status)
}

func TestCloseSolvedNeedsVerdict(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	_, err := svc.SetDetectiveGuiltScore(ctx, detective, sp.ID, 6)
	require.NoError(t, err)
	_, err = svc.SetSergeantGuiltScore(ctx, sergeant, sp.ID, 5)
	require.NoError(t, err)
	_, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	require.NoError(t, err)
	_, err = svc.SetCaptainDecision(ctx, captain, sp.ID, "prosecute")
	require.NoError(t, err)
	_, err = svc.SendCaseToTrial(ctx, captain, c.ID)
	require.NoError(t, err)

	// no trial scheduled yet
	_, _, err = svc.CloseCaseSolved(ctx, captain, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestRegisterCrimeSceneRequiresSwornRank(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.RegisterCrimeSceneCase(context.Background(), citizen, RegisterCrimeSceneInput{
		Title: "fake", CrimeSeverity: models.SeverityLevel3,
	})
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestWitnessesOnlyOnCrimeSceneCases(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := complaintAtOfficerReview(t, svc, citizen)
	_, cs, err := svc.ApproveComplaint(ctx, officer, c.ID)
	require.NoError(t, err)

	_, err = svc.AddCrimeSceneWitness(ctx, officer, cs.ID, models.CrimeSceneWitnessDetails{
		FullName: "Jane Roe", Notes: "saw nothing",
	})
	assert.True(t, errors.Is(err, ErrInvalidOrigin))

	scene := registerCase(t, svc, officer, models.SeverityLevel2)
	w, err := svc.AddCrimeSceneWitness(ctx, officer, scene.ID, models.CrimeSceneWitnessDetails{
		FullName: "Jane Roe", Notes: "heard glass breaking",
	})
	require.NoError(t, err)
	assert.Equal(t, scene.ID, w.Details.CaseID)

	listed, err := svc.cases.ListWitnesses(ctx, scene.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
