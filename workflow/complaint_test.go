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

func fileComplaint(t *testing.T, svc *Service, actor Actor) *models.Complaint {
	t.Helper()
	c, err := svc.CreateComplaint(context.Background(), actor, CreateComplaintInput{
		Title:         "stolen bicycle",
		Description:   "bicycle stolen from the market square",
		Location:      "market square",
		CrimeSeverity: models.SeverityLevel3,
		IncidentDate:  time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return c
}

// walks a complaint up to officer review
func complaintAtOfficerReview(t *testing.T, svc *Service, creator Actor) *models.Complaint {
	t.Helper()
	ctx := context.Background()
	c := fileComplaint(t, svc, creator)
	_, err := svc.SubmitComplaint(ctx, creator, c.ID)
	require.NoError(t, err)
	_, err = svc.AssignComplaintToCadet(ctx, cadet, c.ID)
	require.NoError(t, err)
	c, err = svc.EscalateComplaintToOfficer(ctx, cadet, c.ID, officer.ID)
	require.NoError(t, err)
	return c
}

func TestComplaintLifecycleToApproval(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	c := complaintAtOfficerReview(t, svc, citizen)
	assert.Equal(t, models.ComplaintOfficerReview, c.Details.Status)
	assert.Equal(t, officer.ID, c.Details.AssignedOfficer)

	c, cs, err := svc.ApproveComplaint(ctx, officer, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintApproved, c.Details.Status)

	// the case inherits the complaint and points back at it
	assert.Equal(t, models.CaseCreated, cs.Details.Status)
	assert.Equal(t, models.OriginComplaint, cs.Details.Origin)
	assert.Equal(t, c.ID, cs.Details.OriginComplaintID)
	assert.Equal(t, c.Details.Title, cs.Details.Title)
	assert.Equal(t, c.Details.CrimeSeverity, cs.Details.CrimeSeverity)
	assert.NotEmpty(t, cs.Details.CaseNumber)

	stored, err := m.GetCase(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseCreated, stored.Details.Status)
}

func TestComplaintSubmitByStranger(t *testing.T) {
	svc, _, _, _ := newTestService()
	c := fileComplaint(t, svc, citizen)

	_, err := svc.SubmitComplaint(context.Background(), citizen2, c.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestComplaintAssignRequiresCadet(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	c := fileComplaint(t, svc, citizen)
	_, err := svc.SubmitComplaint(ctx, citizen, c.ID)
	require.NoError(t, err)

	_, err = svc.AssignComplaintToCadet(ctx, citizen, c.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestComplaintApproveFromDraft(t *testing.T) {
	svc, _, _, _ := newTestService()
	c := fileComplaint(t, svc, citizen)

	_, _, err := svc.ApproveComplaint(context.Background(), officer, c.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestComplaintThreeStrikesBlocksSubmitter(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	returnOnce := func(c *models.Complaint) *models.Complaint {
		_, err := svc.SubmitComplaint(ctx, citizen, c.ID)
		require.NoError(t, err)
		_, err = svc.AssignComplaintToCadet(ctx, cadet, c.ID)
		require.NoError(t, err)
		c, cascade, err := svc.ReturnComplaintToComplainant(ctx, cadet, c.ID, "incomplete")
		require.NoError(t, err)
		require.Len(t, cascade, 1)
		assert.Equal(t, citizen.ID, cascade[0].EntityID)
		return c
	}

	c := fileComplaint(t, svc, citizen)
	c = returnOnce(c)
	u, err := m.GetUser(ctx, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Details.InvalidComplaintsCount)
	assert.False(t, u.Details.BlockedFromComplaints)

	// resubmit and take two more strikes
	for i := 0; i < 2; i++ {
		_, err = svc.ResubmitComplaint(ctx, citizen, c.ID)
		require.NoError(t, err)
		_, err = svc.AssignComplaintToCadet(ctx, cadet, c.ID)
		require.NoError(t, err)
		var cascade []SubTransition
		c, cascade, err = svc.ReturnComplaintToComplainant(ctx, cadet, c.ID, "still incomplete")
		require.NoError(t, err)
		require.Len(t, cascade, 1)
	}

	u, err = m.GetUser(ctx, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, u.Details.InvalidComplaintsCount)
	assert.True(t, u.Details.BlockedFromComplaints)
	assert.Equal(t, 3, c.Details.RejectionCount)

	// blocked users cannot file
	_, err = svc.CreateComplaint(ctx, citizen, CreateComplaintInput{
		Title: "another", CrimeSeverity: models.SeverityLevel3,
	})
	assert.True(t, errors.Is(err, ErrBlockedSubmitter))

	// the exhausted complaint can now be invalidated
	c, err = svc.InvalidateComplaint(ctx, cadet, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintInvalidated, c.Details.Status)
}

func TestComplaintInvalidateNeedsThreeRejections(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := fileComplaint(t, svc, citizen)
	_, err := svc.SubmitComplaint(ctx, citizen, c.ID)
	require.NoError(t, err)
	_, err = svc.AssignComplaintToCadet(ctx, cadet, c.ID)
	require.NoError(t, err)
	_, _, err = svc.ReturnComplaintToComplainant(ctx, cadet, c.ID, "incomplete")
	require.NoError(t, err)

	_, err = svc.InvalidateComplaint(ctx, cadet, c.ID)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}

func TestComplaintAddComplainant(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := fileComplaint(t, svc, citizen)
	c, err := svc.AddComplainant(ctx, citizen, c.ID, citizen2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{citizen.ID, citizen2.ID}, c.Details.ComplainantIDs)

	// joining twice is a no-op
	c, err = svc.AddComplainant(ctx, citizen, c.ID, citizen2.ID)
	require.NoError(t, err)
	assert.Len(t, c.Details.ComplainantIDs, 2)

	// only the creator may add
	_, err = svc.AddComplainant(ctx, citizen2, c.ID, cadet.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	// every complainant takes the strike on return
	_, err = svc.SubmitComplaint(ctx, citizen, c.ID)
	require.NoError(t, err)
	_, err = svc.AssignComplaintToCadet(ctx, cadet, c.ID)
	require.NoError(t, err)
	_, cascade, err := svc.ReturnComplaintToComplainant(ctx, cadet, c.ID, "no evidence")
	require.NoError(t, err)
	assert.Len(t, cascade, 2)
}

func TestComplaintReturnToCadetAndReapprove(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	c := complaintAtOfficerReview(t, svc, citizen)
	c, err := svc.ReturnComplaintToCadet(ctx, officer, c.ID, "attach the statement")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintReturnedToCadet, c.Details.Status)
	assert.Equal(t, "attach the statement", c.Details.LastRejectionMessage)

	c, err = svc.EscalateComplaintToOfficer(ctx, cadet, c.ID, officer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintOfficerReview, c.Details.Status)

	c, err = svc.RejectComplaint(ctx, officer, c.ID, "unfounded")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintRejected, c.Details.Status)
}

func TestComplaintHistoryAppends(t *testing.T) {
	svc, m, _, _ := newTestService()
	ctx := context.Background()

	c := fileComplaint(t, svc, citizen)
	_, err := svc.SubmitComplaint(ctx, citizen, c.ID)
	require.NoError(t, err)
	_, err = svc.AssignComplaintToCadet(ctx, cadet, c.ID)
	require.NoError(t, err)

	require.Len(t, m.complaintHistory, 2)
	assert.Equal(t, models.ComplaintDraft, m.complaintHistory[0].FromStatus)
	assert.Equal(t, models.ComplaintSubmitted, m.complaintHistory[0].ToStatus)
	assert.Equal(t, citizen.ID, m.complaintHistory[0].ChangedBy)
	assert.Equal(t, models.ComplaintCadetReview, m.complaintHistory[1].ToStatus)
	assert.Equal(t, cadet.ID, m.complaintHistory[1].ChangedBy)
}
