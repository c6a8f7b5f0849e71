package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/api"
	"github.com/parsaivi/police-department-api/config"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/models"
	"github.com/parsaivi/police-department-api/workflow"
)

// Case exported for testing purposes
type Case struct {
	DB      databases.CaseDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type registerCrimeSceneRequest struct {
	Title              string               `json:"title"`
	Summary            string               `json:"summary"`
	CrimeSeverity      models.CrimeSeverity `json:"crimeSeverity"`
	CrimeSceneTime     time.Time            `json:"crimeSceneTime"`
	CrimeSceneLocation string               `json:"crimeSceneLocation"`
}

// RegisterCrimeSceneHandler opens a crime-scene-origin case
func (c Case) RegisterCrimeSceneHandler(w http.ResponseWriter, r *http.Request) {
	var req registerCrimeSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	newCase, err := c.Service.RegisterCrimeSceneCase(ctx, actor, workflow.RegisterCrimeSceneInput{
		Title:              req.Title,
		Summary:            req.Summary,
		CrimeSeverity:      req.CrimeSeverity,
		CrimeSceneTime:     req.CrimeSceneTime,
		CrimeSceneLocation: req.CrimeSceneLocation,
	})
	if err != nil {
		workflowError("failed to register crime scene case", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCase)
}

// CasesHandler returns cases, optionally filtered by status or origin
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["case.status"] = status
	}
	if origin := r.URL.Query().Get("origin"); origin != "" {
		filter["case.origin"] = origin
	}

	dbResp, err := c.DB.Find(ctx, filter, options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1}))
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.GetCase(ctx, cID)
	if err != nil {
		workflowError("failed to get case by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// CaseHistoryHandler returns the transition audit log of a case
func (c Case) CaseHistoryHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	history, err := c.DB.ListCaseHistory(ctx, cID)
	if err != nil {
		workflowError("failed to get case history", w, err)
		return
	}
	if len(history) == 0 {
		history = []models.CaseHistory{}
	}
	writeJSON(w, http.StatusOK, history)
}

// CaseReportHandler returns the assembled case report for command staff
func (c Case) CaseReportHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	report, err := c.Service.BuildCaseReport(ctx, actor, cID)
	if err != nil {
		workflowError("failed to build case report", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SubmitForApprovalHandler submits a crime scene case for superior approval
func (c Case) SubmitForApprovalHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to submit case for approval",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.SubmitCaseForApproval(ctx, actor, id)
		})
}

// ApproveCaseHandler approves a pending crime scene case
func (c Case) ApproveCaseHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to approve case",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.ApproveCase(ctx, actor, id)
		})
}

// StartInvestigationHandler assigns the lead detective and starts the
// investigation
func (c Case) StartInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		DetectiveID string `json:"detectiveID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	updated, err := c.Service.StartInvestigation(ctx, actor, cID, req.DetectiveID)
	if err != nil {
		workflowError("failed to start investigation", w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AssignOfficerHandler adds an officer to the case team
func (c Case) AssignOfficerHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		OfficerID string `json:"officerID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	updated, err := c.Service.AssignOfficerToCase(ctx, actor, cID, req.OfficerID)
	if err != nil {
		workflowError("failed to assign officer", w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AddWitnessHandler records a crime scene witness on the case
func (c Case) AddWitnessHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var details models.CrimeSceneWitnessDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	details.CaseID = cID

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	witness, err := c.Service.AddCrimeSceneWitness(ctx, actor, cID, details)
	if err != nil {
		workflowError("failed to add witness", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, witness)
}

// WitnessesHandler lists the witnesses of a case
func (c Case) WitnessesHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	witnesses, err := c.DB.ListWitnesses(ctx, cID)
	if err != nil {
		workflowError("failed to get witnesses", w, err)
		return
	}
	if len(witnesses) == 0 {
		witnesses = []models.CrimeSceneWitness{}
	}
	writeJSON(w, http.StatusOK, witnesses)
}

// MarkSuspectIdentifiedHandler moves the case forward once a suspect is linked
func (c Case) MarkSuspectIdentifiedHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to mark suspect identified",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			updated, cascade, err := c.Service.MarkSuspectIdentified(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"case": updated, "cascade": cascade}, nil
		})
}

// StartInterrogationHandler begins the interrogation stage, arresting all
// at-large linked suspects
func (c Case) StartInterrogationHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to start interrogation",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			updated, cascade, err := c.Service.StartInterrogation(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"case": updated, "cascade": cascade}, nil
		})
}

// ReturnToInvestigationHandler sends an interrogation-stage case back
func (c Case) ReturnToInvestigationHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to return case to investigation",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error) {
			return c.Service.ReturnCaseToInvestigation(ctx, actor, id, notes)
		})
}

// RecordInterrogationHandler records one interrogation session
func (c Case) RecordInterrogationHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var details models.InterrogationDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	details.CaseID = cID

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	session, err := c.Service.RecordInterrogation(ctx, actor, details)
	if err != nil {
		workflowError("failed to record interrogation", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// InterrogationsHandler lists the interrogation sessions of a case
func (c Case) InterrogationsHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sessions, err := c.Service.ListInterrogations(ctx, cID)
	if err != nil {
		workflowError("failed to get interrogations", w, err)
		return
	}
	if len(sessions) == 0 {
		sessions = []models.Interrogation{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// SubmitToCaptainHandler submits a fully scored case for the captain
func (c Case) SubmitToCaptainHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to submit case to captain",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.SubmitCaseToCaptain(ctx, actor, id)
		})
}

// EscalateToChiefHandler escalates a decided critical case to the chief
func (c Case) EscalateToChiefHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to escalate case to chief",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.EscalateCaseToChief(ctx, actor, id)
		})
}

// SendToTrialHandler moves a decided case to the trial stage
func (c Case) SendToTrialHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to send case to trial",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.SendCaseToTrial(ctx, actor, id)
		})
}

// CloseSolvedHandler closes a tried case as solved
func (c Case) CloseSolvedHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to close case as solved",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			updated, cascade, err := c.Service.CloseCaseSolved(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"case": updated, "cascade": cascade}, nil
		})
}

// CloseUnsolvedHandler closes a case as unsolved, clearing open suspects
func (c Case) CloseUnsolvedHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to close case as unsolved",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			updated, cascade, err := c.Service.CloseCaseUnsolved(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"case": updated, "cascade": cascade}, nil
		})
}

// transition factors the shared decode/load/step/respond shape of the case
// transition endpoints. The request body may carry notes.
func (c Case) transition(w http.ResponseWriter, r *http.Request, failMsg string,
	step func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error)) {

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	resp, err := step(ctx, actor, cID, req.Notes)
	if err != nil {
		workflowError(failMsg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
