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

// caseAtTrial walks a mid-tier case to TRIAL with one arrested suspect.
func caseAtTrial(t *testing.T, svc *Service) (*models.Case, *models.Suspect) {
	t.Helper()
	ctx := context.Background()

	c, sp := caseAtInterrogation(t, svc, models.SeverityLevel2)
	_, err := svc.SetDetectiveGuiltScore(ctx, detective, sp.ID, 8)
	require.NoError(t, err)
	_, err = svc.SetSergeantGuiltScore(ctx, sergeant, sp.ID, 7)
	require.NoError(t, err)
	_, err = svc.SubmitCaseToCaptain(ctx, detective, c.ID)
	require.NoError(t, err)
	_, err = svc.SetCaptainDecision(ctx, captain, sp.ID, "prosecute")
	require.NoError(t, err)
	c, err = svc.SendCaseToTrial(ctx, captain, c.ID)
	require.NoError(t, err)
	return c, sp
}

func scheduleTrial(t *testing.T, svc *Service, c *models.Case) *models.Trial {
	t.Helper()
	tr, err := svc.ScheduleTrial(context.Background(), captain, ScheduleTrialInput{
		CaseID:        c.ID,
		JudgeID:       judge.ID,
		ScheduledDate: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
		CourtName:     "central district court",
		CourtRoom:     "3B",
	})
	require.NoError(t, err)
	return tr
}

func TestScheduleTrialGuards(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, _ := caseAtInterrogation(t, svc, models.SeverityLevel2)

	// the case has not been sent to trial yet
	_, err := svc.ScheduleTrial(ctx, captain, ScheduleTrialInput{CaseID: c.ID, JudgeID: judge.ID})
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	c2, _ := caseAtTrial(t, svc)

	// the assigned judge must actually hold the judge role
	_, err = svc.ScheduleTrial(ctx, captain, ScheduleTrialInput{CaseID: c2.ID, JudgeID: officer.ID})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	scheduleTrial(t, svc, c2)
	_, err = svc.ScheduleTrial(ctx, chief, ScheduleTrialInput{CaseID: c2.ID, JudgeID: judge.ID})
	assert.True(t, errors.Is(err, ErrDuplicatePending))
}

func TestStartTrial(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, _ := caseAtTrial(t, svc)
	tr := scheduleTrial(t, svc, c)

	// only the assigned judge opens the session
	_, err := svc.StartTrial(ctx, captain, tr.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	tr, err = svc.StartTrial(ctx, judge, tr.ID)
	require.NoError(t, err)
	assert.NotZero(t, tr.Details.StartedAt)

	_, err = svc.StartTrial(ctx, judge, tr.ID)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
}

func TestIssueVerdictGuilty(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtTrial(t, svc)
	tr := scheduleTrial(t, svc, c)
	_, err := svc.StartTrial(ctx, judge, tr.ID)
	require.NoError(t, err)

	tr, closed, cascade, err := svc.IssueVerdict(ctx, judge, tr.ID, models.VerdictGuilty, "overwhelming evidence")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictGuilty, tr.Details.Verdict)
	assert.Equal(t, models.CaseClosedSolved, closed.Details.Status)
	require.Len(t, cascade, 1)
	assert.Equal(t, TransSuspectConvict, cascade[0].Transition)

	convicted, err := m.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectConvicted, convicted.Details.Status)

	_, _, _, err = svc.IssueVerdict(ctx, judge, tr.ID, models.VerdictGuilty, "")
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))
}

func TestIssueVerdictNotGuiltyLeavesSuspect(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtTrial(t, svc)
	tr := scheduleTrial(t, svc, c)

	_, closed, cascade, err := svc.IssueVerdict(ctx, judge, tr.ID, models.VerdictNotGuilty, "")
	require.NoError(t, err)
	assert.Equal(t, models.CaseClosedSolved, closed.Details.Status)
	assert.Empty(t, cascade)

	still, err := m.GetSuspect(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SuspectArrested, still.Details.Status)
}

func TestIssueVerdictGuards(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, _ := caseAtTrial(t, svc)
	tr := scheduleTrial(t, svc, c)

	_, _, _, err := svc.IssueVerdict(ctx, judge, tr.ID, models.Verdict("maybe"), "")
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	_, _, _, err = svc.IssueVerdict(ctx, captain, tr.ID, models.VerdictGuilty, "")
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestAddSentence(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c, sp := caseAtTrial(t, svc)
	tr := scheduleTrial(t, svc, c)

	// sentencing needs a guilty verdict first
	_, err := svc.AddSentence(ctx, judge, tr.ID, SentenceInput{SuspectID: sp.ID, Title: "armed robbery"})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	_, _, _, err = svc.IssueVerdict(ctx, judge, tr.ID, models.VerdictGuilty, "")
	require.NoError(t, err)

	sent, err := svc.AddSentence(ctx, judge, tr.ID, SentenceInput{
		SuspectID:    sp.ID,
		Title:        "armed robbery",
		DurationDays: 365 * 4,
		FineAmount:   50_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, judge.ID, sent.Details.IssuedBy)
	assert.Equal(t, tr.ID, sent.Details.TrialID)

	// an unknown suspect cannot be sentenced on this trial
	stray := newSuspect(t, svc, "")
	_, err = svc.AddSentence(ctx, judge, tr.ID, SentenceInput{SuspectID: stray.ID, Title: "loitering"})
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}
