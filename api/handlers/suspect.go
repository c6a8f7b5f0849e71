package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

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

// Suspect exported for testing purposes
type Suspect struct {
	DB      databases.SuspectDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type createSuspectRequest struct {
	FullName          string `json:"fullName"`
	Aliases           string `json:"aliases"`
	Description       string `json:"description"`
	LastKnownLocation string `json:"lastKnownLocation"`
	UserID            string `json:"userID"`
}

// CreateSuspectHandler registers a new suspect
func (s Suspect) CreateSuspectHandler(w http.ResponseWriter, r *http.Request) {
	var req createSuspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, s.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	suspect, err := s.Service.CreateSuspect(ctx, actor, workflow.CreateSuspectInput{
		FullName:          req.FullName,
		Aliases:           req.Aliases,
		Description:       req.Description,
		LastKnownLocation: req.LastKnownLocation,
		UserID:            req.UserID,
	})
	if err != nil {
		workflowError("failed to create suspect", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, suspect)
}

// SuspectsHandler returns suspects, optionally filtered by status
func (s Suspect) SuspectsHandler(w http.ResponseWriter, r *http.Request) {
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
		filter["suspect.status"] = status
	}

	dbResp, err := s.DB.Find(ctx, filter, options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1}))
	if err != nil {
		config.ErrorStatus("failed to get suspects", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Suspect{}
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// SuspectByIDHandler returns a suspect by ID
func (s Suspect) SuspectByIDHandler(w http.ResponseWriter, r *http.Request) {
	sID, err := primitive.ObjectIDFromHex(mux.Vars(r)["suspect_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := s.DB.GetSuspect(ctx, sID)
	if err != nil {
		workflowError("failed to get suspect by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// SuspectProfileHandler returns the suspect with its derived values
func (s Suspect) SuspectProfileHandler(w http.ResponseWriter, r *http.Request) {
	sID, err := primitive.ObjectIDFromHex(mux.Vars(r)["suspect_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := s.Service.GetSuspectProfile(ctx, sID)
	if err != nil {
		workflowError("failed to get suspect profile", w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// MostWantedHandler returns the public most wanted board, ranked descending
func (s Suspect) MostWantedHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ranked, err := s.Service.ListMostWanted(ctx)
	if err != nil {
		workflowError("failed to get most wanted list", w, err)
		return
	}
	if len(ranked) == 0 {
		ranked = []workflow.RankedSuspect{}
	}
	writeJSON(w, http.StatusOK, ranked)
}

// AddSuspectToCaseHandler links a suspect to a case
func (s Suspect) AddSuspectToCaseHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		SuspectID string                 `json:"suspectID"`
		Role      models.CaseSuspectRole `json:"role"`
		Notes     string                 `json:"notes"`
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

	actor, err := loadActor(ctx, s.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	link, err := s.Service.AddSuspectToCase(ctx, actor, cID, sID, req.Role, req.Notes)
	if err != nil {
		workflowError("failed to add suspect to case", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// SuspectsByCaseHandler lists the suspects linked to a case
func (s Suspect) SuspectsByCaseHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	links, err := s.DB.LinksByCase(ctx, cID)
	if err != nil {
		workflowError("failed to get case suspects", w, err)
		return
	}
	if len(links) == 0 {
		links = []models.CaseSuspect{}
	}
	writeJSON(w, http.StatusOK, links)
}

// StartPursuitHandler moves a suspect under investigation into pursuit
func (s Suspect) StartPursuitHandler(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to start pursuit", s.Service.StartSuspectPursuit)
}

// PromoteMostWantedHandler promotes an eligible pursued suspect
func (s Suspect) PromoteMostWantedHandler(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to promote suspect", s.Service.PromoteSuspectToMostWanted)
}

// ArrestSuspectHandler arrests a pursued or most wanted suspect
func (s Suspect) ArrestSuspectHandler(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to arrest suspect", s.Service.ArrestSuspect)
}

// ClearSuspectHandler clears a suspect of suspicion
func (s Suspect) ClearSuspectHandler(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to clear suspect", s.Service.ClearSuspect)
}

// ConvictSuspectHandler convicts an arrested suspect
func (s Suspect) ConvictSuspectHandler(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "failed to convict suspect", s.Service.ConvictSuspect)
}

// SetDetectiveScoreHandler records the detective guilt score
func (s Suspect) SetDetectiveScoreHandler(w http.ResponseWriter, r *http.Request) {
	s.score(w, r, "failed to set detective score", s.Service.SetDetectiveGuiltScore)
}

// SetSergeantScoreHandler records the sergeant guilt score
func (s Suspect) SetSergeantScoreHandler(w http.ResponseWriter, r *http.Request) {
	s.score(w, r, "failed to set sergeant score", s.Service.SetSergeantGuiltScore)
}

// SetCaptainDecisionHandler records the captain's decision
func (s Suspect) SetCaptainDecisionHandler(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, "failed to set captain decision", s.Service.SetCaptainDecision)
}

// SetChiefDecisionHandler records the chief's decision
func (s Suspect) SetChiefDecisionHandler(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, "failed to set chief decision", s.Service.SetChiefDecision)
}

func (s Suspect) transition(w http.ResponseWriter, r *http.Request, failMsg string,
	step func(ctx context.Context, actor workflow.Actor, suspectID primitive.ObjectID) (*models.Suspect, error)) {

	sID, err := primitive.ObjectIDFromHex(mux.Vars(r)["suspect_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, s.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	suspect, err := step(ctx, actor, sID)
	if err != nil {
		workflowError(failMsg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, suspect)
}

func (s Suspect) score(w http.ResponseWriter, r *http.Request, failMsg string,
	set func(ctx context.Context, actor workflow.Actor, suspectID primitive.ObjectID, score int) (*models.Suspect, error)) {

	sID, err := primitive.ObjectIDFromHex(mux.Vars(r)["suspect_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, s.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	suspect, err := set(ctx, actor, sID, req.Score)
	if err != nil {
		workflowError(failMsg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, suspect)
}

func (s Suspect) decide(w http.ResponseWriter, r *http.Request, failMsg string,
	set func(ctx context.Context, actor workflow.Actor, suspectID primitive.ObjectID, decision string) (*models.Suspect, error)) {

	sID, err := primitive.ObjectIDFromHex(mux.Vars(r)["suspect_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, s.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	suspect, err := set(ctx, actor, sID, req.Decision)
	if err != nil {
		workflowError(failMsg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, suspect)
}
