package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/api"
	"github.com/parsaivi/police-department-api/config"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/models"
	"github.com/parsaivi/police-department-api/workflow"
)

// Trial exported for testing purposes
type Trial struct {
	DB      databases.TrialDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type scheduleTrialRequest struct {
	CaseID        string    `json:"caseID"`
	JudgeID       string    `json:"judgeID"`
	ScheduledDate time.Time `json:"scheduledDate"`
	CourtName     string    `json:"courtName"`
	CourtRoom     string    `json:"courtRoom"`
}

// ScheduleTrialHandler opens the one trial of a case sent to trial
func (t Trial) ScheduleTrialHandler(w http.ResponseWriter, r *http.Request) {
	var req scheduleTrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	cID, err := primitive.ObjectIDFromHex(req.CaseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, t.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	trial, err := t.Service.ScheduleTrial(ctx, actor, workflow.ScheduleTrialInput{
		CaseID:        cID,
		JudgeID:       req.JudgeID,
		ScheduledDate: req.ScheduledDate,
		CourtName:     req.CourtName,
		CourtRoom:     req.CourtRoom,
	})
	if err != nil {
		workflowError("failed to schedule trial", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trial)
}

// TrialByIDHandler returns a trial by ID
func (t Trial) TrialByIDHandler(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["trial_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := t.DB.GetTrial(ctx, tID)
	if err != nil {
		workflowError("failed to get trial by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// TrialByCaseHandler returns the trial of a case
func (t Trial) TrialByCaseHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := t.DB.GetTrialByCase(ctx, cID)
	if err != nil {
		workflowError("failed to get trial by case", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// StartTrialHandler begins a scheduled trial
func (t Trial) StartTrialHandler(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["trial_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, t.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	trial, err := t.Service.StartTrial(ctx, actor, tID)
	if err != nil {
		workflowError("failed to start trial", w, err)
		return
	}
	writeJSON(w, http.StatusOK, trial)
}

// IssueVerdictHandler records the verdict; a verdict also closes the case
func (t Trial) IssueVerdictHandler(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["trial_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Verdict models.Verdict `json:"verdict"`
		Notes   string         `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, t.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	trial, closedCase, cascade, err := t.Service.IssueVerdict(ctx, actor, tID, req.Verdict, req.Notes)
	if err != nil {
		workflowError("failed to issue verdict", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trial":   trial,
		"case":    closedCase,
		"cascade": cascade,
	})
}

// AddSentenceHandler records a sentence for a convicted suspect
func (t Trial) AddSentenceHandler(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["trial_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		SuspectID    string `json:"suspectID"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		DurationDays int    `json:"durationDays"`
		FineAmount   int64  `json:"fineAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	sID, err := primitive.ObjectIDFromHex(req.SuspectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, t.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	sentence, err := t.Service.AddSentence(ctx, actor, tID, workflow.SentenceInput{
		SuspectID:    sID,
		Title:        req.Title,
		Description:  req.Description,
		DurationDays: req.DurationDays,
		FineAmount:   req.FineAmount,
	})
	if err != nil {
		workflowError("failed to add sentence", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sentence)
}

// SentencesHandler lists the sentences issued under a trial
func (t Trial) SentencesHandler(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["trial_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sentences, err := t.DB.ListSentencesByTrial(ctx, tID)
	if err != nil {
		workflowError("failed to get sentences", w, err)
		return
	}
	if len(sentences) == 0 {
		sentences = []models.Sentence{}
	}
	writeJSON(w, http.StatusOK, sentences)
}
