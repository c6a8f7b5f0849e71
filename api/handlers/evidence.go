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

// Evidence exported for testing purposes
type Evidence struct {
	DB      databases.EvidenceDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type addEvidenceRequest struct {
	Type          models.EvidenceType `json:"type"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	LocationFound string              `json:"locationFound"`
	Metadata      map[string]string   `json:"metadata"`
}

// AddEvidenceHandler records one piece of evidence against a case
func (e Evidence) AddEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req addEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, e.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	ev, err := e.Service.AddEvidence(ctx, actor, models.EvidenceDetails{
		CaseID:        cID,
		Type:          req.Type,
		Title:         req.Title,
		Description:   req.Description,
		LocationFound: req.LocationFound,
		Metadata:      req.Metadata,
	})
	if err != nil {
		workflowError("failed to add evidence", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// EvidenceByCaseHandler lists the evidence records of a case
func (e Evidence) EvidenceByCaseHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	evidence, err := e.DB.ListEvidenceByCase(ctx, cID)
	if err != nil {
		workflowError("failed to get evidence", w, err)
		return
	}
	if len(evidence) == 0 {
		evidence = []models.Evidence{}
	}
	writeJSON(w, http.StatusOK, evidence)
}

// EvidenceByIDHandler returns one evidence record by ID
func (e Evidence) EvidenceByIDHandler(w http.ResponseWriter, r *http.Request) {
	eID, err := primitive.ObjectIDFromHex(mux.Vars(r)["evidence_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ev, err := e.DB.GetEvidence(ctx, eID)
	if err != nil {
		workflowError("failed to get evidence by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type addTestimonyRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	LocationFound string    `json:"locationFound"`
	WitnessName   string    `json:"witnessName"`
	WitnessUserID string    `json:"witnessUserID"`
	Transcription string    `json:"transcription"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// AddTestimonyHandler records a witness statement as testimony evidence
func (e Evidence) AddTestimonyHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req addTestimonyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, e.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	ev, tm, err := e.Service.AddTestimonyEvidence(ctx, actor, cID, workflow.TestimonyInput{
		Title:         req.Title,
		Description:   req.Description,
		LocationFound: req.LocationFound,
		WitnessName:   req.WitnessName,
		WitnessUserID: req.WitnessUserID,
		Transcription: req.Transcription,
		RecordedAt:    req.RecordedAt,
	})
	if err != nil {
		workflowError("failed to add testimony", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"evidence": ev, "testimony": tm})
}

// TestimoniesHandler lists the testimony statements of a case
func (e Evidence) TestimoniesHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	testimonies, err := e.DB.ListTestimoniesByCase(ctx, cID)
	if err != nil {
		workflowError("failed to get testimonies", w, err)
		return
	}
	if len(testimonies) == 0 {
		testimonies = []models.Testimony{}
	}
	writeJSON(w, http.StatusOK, testimonies)
}

// VerifyEvidenceHandler settles the review of an evidence record
func (e Evidence) VerifyEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	eID, err := primitive.ObjectIDFromHex(mux.Vars(r)["evidence_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Notes   string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, e.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	ev, err := e.Service.VerifyEvidence(ctx, actor, eID, req.Approve, req.Notes)
	if err != nil {
		workflowError("failed to verify evidence", w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// AddLabResultHandler attaches a lab finding to biological evidence
func (e Evidence) AddLabResultHandler(w http.ResponseWriter, r *http.Request) {
	eID, err := primitive.ObjectIDFromHex(mux.Vars(r)["evidence_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		LabResult string `json:"labResult"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, e.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	ev, err := e.Service.AddEvidenceLabResult(ctx, actor, eID, req.LabResult)
	if err != nil {
		workflowError("failed to add lab result", w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
