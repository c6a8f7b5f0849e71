// Package docs Police Department API.
//
// Documentation of Police Department API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/parsaivi/police-department-api/models"
	"github.com/parsaivi/police-department-api/workflow"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/complaints/{complaint_id} complaints complaintByID
// Gets a single complaint by ID.
// responses:
//   200: complaintByIDResponse

// Shows a single complaint by the given {ID}
// swagger:response complaintByIDResponse
type complaintByIDResponseWrapper struct {
	// in:body
	Body models.Complaint
}

// swagger:route GET /api/v1/complaints complaints complaintList
// Lists complaints, optionally filtered by status or submitter.
// responses:
//   200: complaintListResponse

// A page of complaints
// swagger:response complaintListResponse
type complaintListResponseWrapper struct {
	// in:body
	Body []models.Complaint
}

// swagger:route GET /api/v1/cases/{case_id} cases caseByID
// Gets a single case by ID.
// responses:
//   200: caseByIDResponse

// Shows a single case by the given {ID}
// swagger:response caseByIDResponse
type caseByIDResponseWrapper struct {
	// in:body
	Body models.Case
}

// swagger:route GET /api/v1/cases/{case_id}/report cases caseReport
// Builds the full report of a case: history, suspects, witnesses and
// interrogation sessions.
// responses:
//   200: caseReportResponse

// The assembled case report
// swagger:response caseReportResponse
type caseReportResponseWrapper struct {
	// in:body
	Body workflow.CaseReport
}

// swagger:route GET /api/v1/suspects/{suspect_id}/profile suspects suspectProfile
// Gets a suspect with its derived standing: rank, reward, days wanted and
// most-wanted eligibility.
// responses:
//   200: suspectProfileResponse

// The suspect profile with derived values
// swagger:response suspectProfileResponse
type suspectProfileResponseWrapper struct {
	// in:body
	Body workflow.SuspectProfile
}

// swagger:route GET /api/v1/most-wanted suspects mostWantedList
// Lists most-wanted suspects ranked by computed standing. Public, no auth.
// responses:
//   200: mostWantedResponse

// Most-wanted suspects in descending rank order
// swagger:response mostWantedResponse
type mostWantedResponseWrapper struct {
	// in:body
	Body []workflow.RankedSuspect
}

// swagger:route GET /api/v1/bails/{bail_id} bails bailByID
// Gets a single bail by ID.
// responses:
//   200: bailByIDResponse

// Shows a single bail by the given {ID}
// swagger:response bailByIDResponse
type bailByIDResponseWrapper struct {
	// in:body
	Body models.Bail
}

// swagger:route GET /api/v1/tips/{tip_id} tips tipByID
// Gets a single tip by ID.
// responses:
//   200: tipByIDResponse

// Shows a single tip by the given {ID}
// swagger:response tipByIDResponse
type tipByIDResponseWrapper struct {
	// in:body
	Body models.Tip
}

// swagger:route GET /api/v1/rewards/{code} tips rewardByCode
// Looks up a reward code presented by its submitter.
// responses:
//   200: rewardByCodeResponse

// The reward code with claim state
// swagger:response rewardByCodeResponse
type rewardByCodeResponseWrapper struct {
	// in:body
	Body models.RewardCode
}

// swagger:route GET /api/v1/trials/{trial_id} trials trialByID
// Gets a single trial by ID.
// responses:
//   200: trialByIDResponse

// Shows a single trial by the given {ID}
// swagger:response trialByIDResponse
type trialByIDResponseWrapper struct {
	// in:body
	Body models.Trial
}

// swagger:route GET /api/v1/cases/{case_id}/evidence evidence evidenceByCase
// Lists the evidence recorded against a case.
// responses:
//   200: evidenceListResponse

// All evidence records of the case
// swagger:response evidenceListResponse
type evidenceListResponseWrapper struct {
	// in:body
	Body []models.Evidence
}
