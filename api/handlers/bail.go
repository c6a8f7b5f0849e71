package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/api"
	"github.com/parsaivi/police-department-api/config"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/workflow"
)

// Bail exported for testing purposes
type Bail struct {
	DB      databases.BailDatabase
	UDB     databases.UserDatabase
	Service *workflow.Service
}

type createBailRequest struct {
	SuspectID  string `json:"suspectID"`
	Amount     int64  `json:"amount"`
	FineAmount int64  `json:"fineAmount"`
}

// CreateBailHandler opens a pending bail for an eligible suspect
func (b Bail) CreateBailHandler(w http.ResponseWriter, r *http.Request) {
	var req createBailRequest
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

	actor, err := loadActor(ctx, b.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	bail, err := b.Service.CreateBail(ctx, actor, sID, req.Amount, req.FineAmount)
	if err != nil {
		workflowError("failed to create bail", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bail)
}

// BailByIDHandler returns a bail by ID
func (b Bail) BailByIDHandler(w http.ResponseWriter, r *http.Request) {
	bID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bail_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := b.DB.GetBail(ctx, bID)
	if err != nil {
		workflowError("failed to get bail by ID", w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbResp)
}

// InitiatePaymentHandler asks the payment gateway for a checkout session and
// stores the returned track token on the bail
func (b Bail) InitiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	bID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bail_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		CallbackRef string `json:"callbackRef"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.CallbackRef == "" {
		req.CallbackRef = bID.Hex()
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, b.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	bail, trackID, err := b.Service.InitiateBailPayment(ctx, actor, bID, req.CallbackRef)
	if err != nil {
		workflowError("failed to initiate bail payment", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bail":    bail,
		"trackID": trackID,
	})
}

// PaymentCallbackHandler is the gateway redirect target. It verifies the
// payment behind the track token and, on success, marks the bail paid and
// releases the suspect. Replays of a confirmed payment return the stored
// outcome.
func (b Bail) PaymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	trackID := r.URL.Query().Get("track_id")
	if trackID == "" {
		config.ErrorStatus("track_id parameter required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	bail, cascade, err := b.Service.ConfirmBailPayment(ctx, trackID)
	if errors.Is(err, workflow.ErrAlreadyProcessed) {
		// idempotent replay, the paid bail stands
		writeJSON(w, http.StatusOK, map[string]interface{}{"bail": bail})
		return
	}
	if err != nil {
		workflowError("failed to confirm bail payment", w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bail":    bail,
		"cascade": cascade,
	})
}

// PaymentCancelledHandler is the gateway redirect target for abandoned
// checkouts. The bail stays pending.
func (b Bail) PaymentCancelledHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "payment cancelled, bail remains pending",
	})
}

// CancelBailHandler cancels a pending bail
func (b Bail) CancelBailHandler(w http.ResponseWriter, r *http.Request) {
	bID, err := primitive.ObjectIDFromHex(mux.Vars(r)["bail_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := loadActor(ctx, b.UDB, r)
	if err != nil {
		workflowError("failed to resolve acting user", w, err)
		return
	}

	bail, err := b.Service.CancelBail(ctx, actor, bID)
	if err != nil {
		workflowError("failed to cancel bail", w, err)
		return
	}
	writeJSON(w, http.StatusOK, bail)
}
