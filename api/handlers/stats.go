package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/parsaivi/police-department-api/api"
	"github.com/parsaivi/police-department-api/config"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/models"
)

// Stats exported for testing purposes
type Stats struct {
	ComplaintDB databases.ComplaintDatabase
	CaseDB      databases.CaseDatabase
	SuspectDB   databases.SuspectDatabase
	TipDB       databases.TipDatabase
	BailDB      databases.BailDatabase
}

// StatsHandler returns department-wide workload counters: complaints and
// cases per status, suspects per status, paid bails and approved tips.
func (s Stats) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaintStatuses := []models.ComplaintStatus{
		models.ComplaintDraft, models.ComplaintSubmitted, models.ComplaintCadetReview,
		models.ComplaintReturnedToComplainant, models.ComplaintOfficerReview,
		models.ComplaintReturnedToCadet, models.ComplaintApproved,
		models.ComplaintRejected, models.ComplaintInvalidated,
	}
	complaints := map[string]int64{}
	for _, st := range complaintStatuses {
		n, err := s.ComplaintDB.CountDocuments(ctx, bson.M{"complaint.status": st})
		if err != nil {
			config.ErrorStatus("failed to count complaints", http.StatusInternalServerError, w, err)
			return
		}
		complaints[string(st)] = n
	}

	caseStatuses := []models.CaseStatus{
		models.CaseCreated, models.CasePendingApproval, models.CaseInvestigation,
		models.CaseSuspectIdentified, models.CaseInterrogation,
		models.CasePendingCaptain, models.CasePendingChief, models.CaseTrial,
		models.CaseClosedSolved, models.CaseClosedUnsolved,
	}
	cases := map[string]int64{}
	for _, st := range caseStatuses {
		n, err := s.CaseDB.CountDocuments(ctx, bson.M{"case.status": st})
		if err != nil {
			config.ErrorStatus("failed to count cases", http.StatusInternalServerError, w, err)
			return
		}
		cases[string(st)] = n
	}

	suspectStatuses := []models.SuspectStatus{
		models.SuspectIdentified, models.SuspectUnderInvestigation,
		models.SuspectUnderPursuit, models.SuspectMostWanted,
		models.SuspectArrested, models.SuspectCleared,
		models.SuspectConvicted, models.SuspectReleasedOnBail,
	}
	suspects := map[string]int64{}
	for _, st := range suspectStatuses {
		n, err := s.SuspectDB.CountDocuments(ctx, bson.M{"suspect.status": st})
		if err != nil {
			config.ErrorStatus("failed to count suspects", http.StatusInternalServerError, w, err)
			return
		}
		suspects[string(st)] = n
	}

	paidBails, err := s.BailDB.CountDocuments(ctx, bson.M{"bail.status": models.BailPaid})
	if err != nil {
		config.ErrorStatus("failed to count bails", http.StatusInternalServerError, w, err)
		return
	}
	approvedTips, err := s.TipDB.CountDocuments(ctx, bson.M{"tip.status": bson.M{
		"$in": []models.TipStatus{models.TipApproved, models.TipRewardClaimed},
	}})
	if err != nil {
		config.ErrorStatus("failed to count tips", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"complaints":   complaints,
		"cases":        cases,
		"suspects":     suspects,
		"paidBails":    paidBails,
		"approvedTips": approvedTips,
	})
}
