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

// Complaint exported for testing purposes
type Complaint struct {
	DB      databases.ComplaintDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type createComplaintRequest struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Location      string               `json:"location"`
	CrimeSeverity models.CrimeSeverity `json:"crimeSeverity"`
	IncidentDate  time.Time            `json:"incidentDate"`
}

// CreateComplaintHandler files a new draft complaint for the acting citizen
func (c Complaint) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	var req createComplaintRequest
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

	complaint, err := c.Service.CreateComplaint(ctx, actor, workflow.CreateComplaintInput{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		CrimeSeverity: req.CrimeSeverity,
		IncidentDate:  req.IncidentDate,
	})
	if err != nil {
		workflowError("failed to create complaint", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, complaint)
}

// ComplaintsHandler returns complaints, optionally filtered by status
func (c Complaint) ComplaintsHandler(w http.ResponseWriter, r *http.Request) {
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
		filter["complaint.status"] = status
	}
	if createdBy := r.URL.Query().Get("createdBy"); createdBy != "" {
		filter["complaint.createdBy"] = createdBy
	}

	dbResp, err := c.DB.Find(ctx, filter, options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1}))
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Complaint{}
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// ComplaintByIDHandler returns a complaint by ID
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.GetComplaint(ctx, cID)
	if err != nil {
		workflowError("failed to get complaint by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// ComplaintHistoryHandler returns the transition audit log of a complaint
func (c Complaint) ComplaintHistoryHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	history, err := c.DB.ListComplaintHistory(ctx, cID)
	if err != nil {
		workflowError("failed to get complaint history", w, err)
		return
	}
	if len(history) == 0 {
		history = []models.ComplaintHistory{}
	}
	writeJSON(w, http.StatusOK, history)
}

// AddComplainantHandler joins another citizen to a draft or returned complaint
func (c Complaint) AddComplainantHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		UserID string `json:"userID"`
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

	complaint, err := c.Service.AddComplainant(ctx, actor, cID, req.UserID)
	if err != nil {
		workflowError("failed to add complainant", w, err)
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

// SubmitComplaintHandler submits a draft complaint for cadet review
func (c Complaint) SubmitComplaintHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to submit complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.SubmitComplaint(ctx, actor, id)
		})
}

// AssignToCadetHandler lets a cadet pull a submitted complaint into review
func (c Complaint) AssignToCadetHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to assign complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.AssignComplaintToCadet(ctx, actor, id)
		})
}

// ResubmitComplaintHandler resubmits a returned complaint
func (c Complaint) ResubmitComplaintHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to resubmit complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.ResubmitComplaint(ctx, actor, id)
		})
}

// ReturnToComplainantHandler sends a complaint back for corrections and
// records a strike against every complainant
func (c Complaint) ReturnToComplainantHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to return complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, message string) (interface{}, error) {
			complaint, cascade, err := c.Service.ReturnComplaintToComplainant(ctx, actor, id, message)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"complaint": complaint, "cascade": cascade}, nil
		})
}

// InvalidateComplaintHandler invalidates a complaint rejected three times
func (c Complaint) InvalidateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to invalidate complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			return c.Service.InvalidateComplaint(ctx, actor, id)
		})
}

// EscalateToOfficerHandler escalates a cadet-reviewed complaint to an officer
func (c Complaint) EscalateToOfficerHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
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

	complaint, err := c.Service.EscalateComplaintToOfficer(ctx, actor, cID, req.OfficerID)
	if err != nil {
		workflowError("failed to escalate complaint", w, err)
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

// ReturnToCadetHandler sends an escalated complaint back to the cadet
func (c Complaint) ReturnToCadetHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to return complaint to cadet",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, message string) (interface{}, error) {
			return c.Service.ReturnComplaintToCadet(ctx, actor, id, message)
		})
}

// ApproveComplaintHandler approves a complaint and opens its case
func (c Complaint) ApproveComplaintHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to approve complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, _ string) (interface{}, error) {
			complaint, newCase, err := c.Service.ApproveComplaint(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"complaint": complaint, "case": newCase}, nil
		})
}

// RejectComplaintHandler terminally rejects a complaint
func (c Complaint) RejectComplaintHandler(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, "failed to reject complaint",
		func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, message string) (interface{}, error) {
			return c.Service.RejectComplaint(ctx, actor, id, message)
		})
}

// transition factors the shared decode/load/step/respond shape of the
// complaint transition endpoints. The request body may carry a message.
func (c Complaint) transition(w http.ResponseWriter, r *http.Request, failMsg string,
	step func(ctx context.Context, actor workflow.Actor, id primitive.ObjectID, message string) (interface{}, error)) {

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	// body is optional on most transitions
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, c.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	resp, err := step(ctx, actor, cID, req.Message)
	if err != nil {
		workflowError(failMsg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
