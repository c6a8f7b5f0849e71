package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/parsaivi/police-department-api/api"
	"github.com/parsaivi/police-department-api/config"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/workflow"
)

// Page stores the page number from the queried page url
var Page int

// getPage returns the requested page number or 0 for anything unparseable
func getPage(Page int, r *http.Request) int {
	if page := r.URL.Query().Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			return 0
		}
		Page = p
	} else {
		Page = 0
	}
	return Page
}

// statusFromError maps a workflow error kind to its HTTP status. Conflict
// covers every state-machine rejection so clients can retry after a reload.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden),
		errors.Is(err, workflow.ErrBlockedSubmitter):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrPreconditionFailed),
		errors.Is(err, workflow.ErrNotEligible),
		errors.Is(err, workflow.ErrDuplicatePending),
		errors.Is(err, workflow.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// workflowError logs and writes the mapped status for a workflow failure
func workflowError(message string, w http.ResponseWriter, err error) {
	config.ErrorStatus(message, statusFromError(err), w, err)
}

// loadActor resolves the acting identity of the request. The auth middleware
// stores the authenticated user ID on the context; the X-Actor-ID header is
// honored as a fallback for unauthenticated routes.
func loadActor(ctx context.Context, udb databases.UserDatabase, r *http.Request) (workflow.Actor, error) {
	id := api.ActorID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Actor-ID")
	}
	if id == "" {
		return workflow.Actor{}, errors.Wrap(workflow.ErrForbidden, "no acting user on request")
	}
	u, err := udb.GetUser(ctx, id)
	if err != nil {
		return workflow.Actor{}, err
	}
	return workflow.Actor{ID: u.ID, Roles: u.Details.Roles}, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}
