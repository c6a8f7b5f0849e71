package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/api"
	"github.com/parsaivi/police-department-api/config"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/models"
	"github.com/parsaivi/police-department-api/payments"
	"github.com/parsaivi/police-department-api/workflow"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
	service  *workflow.Service
	gateway  workflow.PaymentGateway
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	users := databases.NewUserDatabase(a.dbHelper)
	complaints := databases.NewComplaintDatabase(a.dbHelper)
	cases := databases.NewCaseDatabase(a.dbHelper)
	suspects := databases.NewSuspectDatabase(a.dbHelper)
	evidence := databases.NewEvidenceDatabase(a.dbHelper)
	trials := databases.NewTrialDatabase(a.dbHelper)
	bails := databases.NewBailDatabase(a.dbHelper)
	tips := databases.NewTipDatabase(a.dbHelper)

	if a.service == nil {
		a.service = workflow.NewService(workflow.Stores{
			Users:      users,
			Complaints: complaints,
			Cases:      cases,
			Suspects:   suspects,
			Evidence:   evidence,
			Trials:     trials,
			Bails:      bails,
			Tips:       tips,
		}, a.gateway)
	}

	r := mux.NewRouter()

	u := User{DB: users}
	comp := Complaint{DB: complaints, UDB: users, Service: a.service}
	cs := Case{DB: cases, UDB: users, Service: a.service}
	sp := Suspect{DB: suspects, UDB: users, Service: a.service}
	ev := Evidence{DB: evidence, UDB: users, Service: a.service}
	b := Bail{DB: bails, UDB: users, Service: a.service}
	t := Tip{DB: tips, UDB: users, Service: a.service}
	tr := Trial{DB: trials, UDB: users, Service: a.service}
	st := Stats{ComplaintDB: complaints, CaseDB: cases, SuspectDB: suspects, TipDB: tips, BailDB: bails}
	metricsHandler := MetricsHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/complaints", api.Middleware(http.HandlerFunc(comp.CreateComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints", api.Middleware(http.HandlerFunc(comp.ComplaintsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}", api.Middleware(http.HandlerFunc(comp.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}/history", api.Middleware(http.HandlerFunc(comp.ComplaintHistoryHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}/complainants", api.Middleware(http.HandlerFunc(comp.AddComplainantHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/submit", api.Middleware(http.HandlerFunc(comp.SubmitComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/assign", api.Middleware(http.HandlerFunc(comp.AssignToCadetHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/return", api.Middleware(http.HandlerFunc(comp.ReturnToComplainantHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/resubmit", api.Middleware(http.HandlerFunc(comp.ResubmitComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/invalidate", api.Middleware(http.HandlerFunc(comp.InvalidateComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/escalate", api.Middleware(http.HandlerFunc(comp.EscalateToOfficerHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/return-to-cadet", api.Middleware(http.HandlerFunc(comp.ReturnToCadetHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/approve", api.Middleware(http.HandlerFunc(comp.ApproveComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/reject", api.Middleware(http.HandlerFunc(comp.RejectComplaintHandler))).Methods("POST")

	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(cs.CasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/crime-scene", api.Middleware(http.HandlerFunc(cs.RegisterCrimeSceneHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(http.HandlerFunc(cs.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/history", api.Middleware(http.HandlerFunc(cs.CaseHistoryHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/report", api.Middleware(http.HandlerFunc(cs.CaseReportHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/submit-approval", api.Middleware(http.HandlerFunc(cs.SubmitForApprovalHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/approve", api.Middleware(http.HandlerFunc(cs.ApproveCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/start-investigation", api.Middleware(http.HandlerFunc(cs.StartInvestigationHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/officers", api.Middleware(http.HandlerFunc(cs.AssignOfficerHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/witnesses", api.Middleware(http.HandlerFunc(cs.AddWitnessHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/witnesses", api.Middleware(http.HandlerFunc(cs.WitnessesHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/mark-suspect-identified", api.Middleware(http.HandlerFunc(cs.MarkSuspectIdentifiedHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/start-interrogation", api.Middleware(http.HandlerFunc(cs.StartInterrogationHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/return-investigation", api.Middleware(http.HandlerFunc(cs.ReturnToInvestigationHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/interrogations", api.Middleware(http.HandlerFunc(cs.RecordInterrogationHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/interrogations", api.Middleware(http.HandlerFunc(cs.InterrogationsHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/submit-captain", api.Middleware(http.HandlerFunc(cs.SubmitToCaptainHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/escalate-chief", api.Middleware(http.HandlerFunc(cs.EscalateToChiefHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/send-trial", api.Middleware(http.HandlerFunc(cs.SendToTrialHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/close-solved", api.Middleware(http.HandlerFunc(cs.CloseSolvedHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/close-unsolved", api.Middleware(http.HandlerFunc(cs.CloseUnsolvedHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/suspects", api.Middleware(http.HandlerFunc(sp.AddSuspectToCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/suspects", api.Middleware(http.HandlerFunc(sp.SuspectsByCaseHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/trial", api.Middleware(http.HandlerFunc(tr.TrialByCaseHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/evidence", api.Middleware(http.HandlerFunc(ev.AddEvidenceHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/evidence", api.Middleware(http.HandlerFunc(ev.EvidenceByCaseHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/testimonies", api.Middleware(http.HandlerFunc(ev.AddTestimonyHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/testimonies", api.Middleware(http.HandlerFunc(ev.TestimoniesHandler))).Methods("GET")

	apiCreate.Handle("/evidence/{evidence_id}", api.Middleware(http.HandlerFunc(ev.EvidenceByIDHandler))).Methods("GET")
	apiCreate.Handle("/evidence/{evidence_id}/verify", api.Middleware(http.HandlerFunc(ev.VerifyEvidenceHandler))).Methods("POST")
	apiCreate.Handle("/evidence/{evidence_id}/lab-result", api.Middleware(http.HandlerFunc(ev.AddLabResultHandler))).Methods("POST")

	apiCreate.Handle("/suspects", api.Middleware(http.HandlerFunc(sp.CreateSuspectHandler))).Methods("POST")
	apiCreate.Handle("/suspects", api.Middleware(http.HandlerFunc(sp.SuspectsHandler))).Methods("GET")
	apiCreate.Handle("/suspects/{suspect_id}", api.Middleware(http.HandlerFunc(sp.SuspectByIDHandler))).Methods("GET")
	apiCreate.Handle("/suspects/{suspect_id}/profile", api.Middleware(http.HandlerFunc(sp.SuspectProfileHandler))).Methods("GET")
	apiCreate.Handle("/suspects/{suspect_id}/start-pursuit", api.Middleware(http.HandlerFunc(sp.StartPursuitHandler))).Methods("POST")
	apiCreate.Handle("/suspects/{suspect_id}/promote-most-wanted", api.Middleware(http.HandlerFunc(sp.PromoteMostWantedHandler))).Methods("POST")
	apiCreate.Handle("/suspects/{suspect_id}/arrest", api.Middleware(http.HandlerFunc(sp.ArrestSuspectHandler))).Methods("POST")
	apiCreate.Handle("/suspects/{suspect_id}/clear", api.Middleware(http.HandlerFunc(sp.ClearSuspectHandler))).Methods("POST")
	apiCreate.Handle("/suspects/{suspect_id}/convict", api.Middleware(http.HandlerFunc(sp.ConvictSuspectHandler))).Methods("POST")
	apiCreate.Handle("/suspects/{suspect_id}/detective-score", api.Middleware(http.HandlerFunc(sp.SetDetectiveScoreHandler))).Methods("PUT")
	apiCreate.Handle("/suspects/{suspect_id}/sergeant-score", api.Middleware(http.HandlerFunc(sp.SetSergeantScoreHandler))).Methods("PUT")
	apiCreate.Handle("/suspects/{suspect_id}/captain-decision", api.Middleware(http.HandlerFunc(sp.SetCaptainDecisionHandler))).Methods("PUT")
	apiCreate.Handle("/suspects/{suspect_id}/chief-decision", api.Middleware(http.HandlerFunc(sp.SetChiefDecisionHandler))).Methods("PUT")

	// public listing, no auth
	apiCreate.Handle("/most-wanted", http.HandlerFunc(sp.MostWantedHandler)).Methods("GET")

	apiCreate.Handle("/bails", api.Middleware(http.HandlerFunc(b.CreateBailHandler))).Methods("POST")
	apiCreate.Handle("/bails/{bail_id}", api.Middleware(http.HandlerFunc(b.BailByIDHandler))).Methods("GET")
	apiCreate.Handle("/bails/{bail_id}/pay", api.Middleware(http.HandlerFunc(b.InitiatePaymentHandler))).Methods("POST")
	apiCreate.Handle("/bails/{bail_id}/cancel", api.Middleware(http.HandlerFunc(b.CancelBailHandler))).Methods("POST")
	// gateway redirect target, unauthenticated
	apiCreate.Handle("/bails/payment/callback", http.HandlerFunc(b.PaymentCallbackHandler)).Methods("GET")
	apiCreate.Handle("/bails/payment/cancelled", http.HandlerFunc(b.PaymentCancelledHandler)).Methods("GET")

	apiCreate.Handle("/tips", api.Middleware(http.HandlerFunc(t.SubmitTipHandler))).Methods("POST")
	apiCreate.Handle("/tips", api.Middleware(http.HandlerFunc(t.TipsHandler))).Methods("GET")
	apiCreate.Handle("/tips/{tip_id}", api.Middleware(http.HandlerFunc(t.TipByIDHandler))).Methods("GET")
	apiCreate.Handle("/tips/{tip_id}/start-review", api.Middleware(http.HandlerFunc(t.StartOfficerReviewHandler))).Methods("POST")
	apiCreate.Handle("/tips/{tip_id}/officer-approve", api.Middleware(http.HandlerFunc(t.OfficerApproveHandler))).Methods("POST")
	apiCreate.Handle("/tips/{tip_id}/officer-reject", api.Middleware(http.HandlerFunc(t.OfficerRejectHandler))).Methods("POST")
	apiCreate.Handle("/tips/{tip_id}/detective-approve", api.Middleware(http.HandlerFunc(t.DetectiveApproveHandler))).Methods("POST")
	apiCreate.Handle("/tips/{tip_id}/detective-reject", api.Middleware(http.HandlerFunc(t.DetectiveRejectHandler))).Methods("POST")

	apiCreate.Handle("/rewards/{code}", api.Middleware(http.HandlerFunc(t.LookupRewardHandler))).Methods("GET")
	apiCreate.Handle("/rewards/claim", api.Middleware(http.HandlerFunc(t.ClaimRewardHandler))).Methods("POST")

	apiCreate.Handle("/trials", api.Middleware(http.HandlerFunc(tr.ScheduleTrialHandler))).Methods("POST")
	apiCreate.Handle("/trials/{trial_id}", api.Middleware(http.HandlerFunc(tr.TrialByIDHandler))).Methods("GET")
	apiCreate.Handle("/trials/{trial_id}/start", api.Middleware(http.HandlerFunc(tr.StartTrialHandler))).Methods("POST")
	apiCreate.Handle("/trials/{trial_id}/verdict", api.Middleware(http.HandlerFunc(tr.IssueVerdictHandler))).Methods("POST")
	apiCreate.Handle("/trials/{trial_id}/sentences", api.Middleware(http.HandlerFunc(tr.AddSentenceHandler))).Methods("POST")
	apiCreate.Handle("/trials/{trial_id}/sentences", api.Middleware(http.HandlerFunc(tr.SentencesHandler))).Methods("GET")

	apiCreate.Handle("/stats", api.Middleware(http.HandlerFunc(st.StatsHandler))).Methods("GET")

	apiV2 := r.PathPrefix("/api/v2").Subrouter()
	apiV2.Handle("/metrics", api.Middleware(http.HandlerFunc(metricsHandler.GetMetricsDashboard))).Methods("GET")
	apiV2.Handle("/metrics/summary", api.Middleware(http.HandlerFunc(metricsHandler.GetMetricsSummary))).Methods("GET")
	apiV2.Handle("/metrics/route", api.Middleware(http.HandlerFunc(metricsHandler.GetRouteMetrics))).Methods("GET")

	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("police-department-api has connected to the database")

	gateway, err := payments.NewStripeGateway(&a.Config)
	if err != nil {
		zap.S().With(err).Error("failed to initialize payment gateway")
		return err
	}
	a.gateway = gateway

	api.InitMetrics(1000, time.Hour)

	// initialize api router
	a.initializeRoutes()
	return nil

}

// Service exposes the workflow core, wired once by New
func (a *App) Service() *workflow.Service {
	return a.service
}

// DatabaseHelper exposes the shared mongo wrapper for background wiring
func (a *App) DatabaseHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
