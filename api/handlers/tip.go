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

// Tip exported for testing purposes
type Tip struct {
	DB      databases.TipDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type submitTipRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CaseID      string `json:"caseID"`
	SuspectID   string `json:"suspectID"`
}

// SubmitTipHandler files a citizen tip about a case or suspect
func (t Tip) SubmitTipHandler(w http.ResponseWriter, r *http.Request) {
	var req submitTipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	in := workflow.SubmitTipInput{Title: req.Title, Description: req.Description}
	if req.CaseID != "" {
		cID, err := primitive.ObjectIDFromHex(req.CaseID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		in.CaseID = cID
	}
	if req.SuspectID != "" {
		sID, err := primitive.ObjectIDFromHex(req.SuspectID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		in.SuspectID = sID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, t.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	tip, err := t.Service.SubmitTip(ctx, actor, in)
	if err != nil {
		workflowError("failed to submit tip", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tip)
}

// TipsHandler returns tips, optionally filtered by status
func (t Tip) TipsHandler(w http.ResponseWriter, r *http.Request) {
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
		filter["tip.status"] = status
	}

	dbResp, err := t.DB.Find(ctx, filter, options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1}))
	if err != nil {
		config.ErrorStatus("failed to get tips", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Tip{}
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// TipByIDHandler returns a tip by ID
func (t Tip) TipByIDHandler(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["tip_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := t.DB.GetTip(ctx, tID)
	if err != nil {
		workflowError("failed to get tip by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// StartOfficerReviewHandler pulls a submitted tip into officer review
func (t Tip) StartOfficerReviewHandler(w http.ResponseWriter, r *http.Request) {
	t.transition(w, r, "failed to start tip review",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return t.Service.StartTipOfficerReview(ctx, actor, id)
		})
}

// OfficerApproveHandler forwards a reviewed tip to a detective
func (t Tip) OfficerApproveHandler(w http.ResponseWriter, r *http.Request) {
	t.transition(w, r, "failed to approve tip",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error) {
			return t.Service.OfficerApproveTip(ctx, actor, id, notes)
		})
}

// OfficerRejectHandler rejects a tip at officer review
func (t Tip) OfficerRejectHandler(w http.ResponseWriter, r *http.Request) {
	t.transition(w, r, "failed to reject tip",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error) {
			return t.Service.OfficerRejectTip(ctx, actor, id, notes)
		})
}

// DetectiveApproveHandler approves a tip and issues its reward code
func (t Tip) DetectiveApproveHandler(w http.ResponseWriter, r *http.Request) {
	t.transition(w, r, "failed to approve tip",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error) {
			tip, code, err := t.Service.DetectiveApproveTip(ctx, actor, id, notes)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"tip": tip, "rewardCode": code}, nil
		})
}

// DetectiveRejectHandler rejects a tip at detective review
func (t Tip) DetectiveRejectHandler(w http.ResponseWriter, r *http.Request) {
	t.transition(w, r, "failed to reject tip",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error) {
			return t.Service.DetectiveRejectTip(ctx, actor, id, notes)
		})
}

// LookupRewardHandler checks a reward code presented by its submitter at
// the station desk
func (t Tip) LookupRewardHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	nationalID := r.URL.Query().Get("nationalID")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	rc, err := t.Service.LookupReward(ctx, nationalID, code)
	if err != nil {
		workflowError("failed to look up reward", w, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// ClaimRewardHandler pays out a reward code to its tip submitter
func (t Tip) ClaimRewardHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		NationalID string `json:"nationalID"`
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

	rc, tip, err := t.Service.ClaimReward(ctx, actor, req.NationalID, req.Code)
	if err != nil {
		workflowError("failed to claim reward", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rewardCode": rc,
		"tip":        tip,
	})
}

// transition factors the shared decode/load/step/respond shape of the tip
// review endpoints. The request body may carry reviewer notes.
func (t Tip) transition(w http.ResponseWriter, r *http.Request, failMsg string,
	step func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, notes string) (interface{}, error)) {

	tID, err := primitive.ObjectIDFromHex(mux.Vars(r)["tip_id"])
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

	actor, err := loadActor(ctx, t.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	resp, err := step(ctx, actor, tID, req.Notes)
	if err != nil {
		workflowError(failMsg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
