package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/models"
	"github.com/parsaivi/police-department-api/workflow"
)

// Scheduler handles periodic background jobs for the department
type Scheduler struct {
	cron      *cron.Cron
	TipDB     databases.TipDatabase
	SuspectDB databases.SuspectDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(tipDB databases.TipDatabase, suspectDB databases.SuspectDatabase) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		TipDB:     tipDB,
		SuspectDB: suspectDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep expired unclaimed reward codes daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.sweepExpiredRewardCodes)
	if err != nil {
		zap.S().Errorw("failed to register reward code sweep job", "error", err)
	}

	// Report pursued suspects who crossed the most-wanted threshold daily at 2 AM UTC
	_, err = s.cron.AddFunc("0 2 * * *", s.reportMostWantedEligible)
	if err != nil {
		zap.S().Errorw("failed to register most wanted report job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Department scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Department scheduler stopped")
}

// sweepExpiredRewardCodes reports unclaimed codes past their expiry window.
// The claim guard already rejects expired codes, so the sweep only surfaces
// them for the records clerk; codes are never deleted.
func (s *Scheduler) sweepExpiredRewardCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())

	zap.S().Info("Running reward code expiry sweep")

	expired, err := s.TipDB.ListExpiredUnclaimedCodes(ctx, now)
	if err != nil {
		zap.S().Errorw("failed to list expired reward codes", "error", err)
		return
	}

	for _, rc := range expired {
		zap.S().Infow("reward code expired unclaimed",
			"code", rc.Details.Code,
			"tipId", rc.Details.TipID.Hex(),
			"amount", rc.Details.Amount,
			"expiredAt", rc.Details.ExpiresAt.Time(),
		)
	}

	zap.S().Infow("Reward code expiry sweep complete", "expiredUnclaimed", len(expired))
}

// reportMostWantedEligible lists pursued suspects who have been wanted long
// enough to promote. Promotion itself needs a captain, so the job only logs
// the backlog.
func (s *Scheduler) reportMostWantedEligible() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()

	zap.S().Info("Running most wanted eligibility report")

	pursued, err := s.SuspectDB.ListSuspectsByStatus(ctx, models.SuspectUnderPursuit)
	if err != nil {
		zap.S().Errorw("failed to list pursued suspects", "error", err)
		return
	}

	eligible := 0
	for i := range pursued {
		if workflow.IsMostWantedEligible(&pursued[i], now) {
			eligible++
			zap.S().Infow("suspect eligible for most wanted promotion",
				"suspectId", pursued[i].ID.Hex(),
				"name", pursued[i].Details.FullName,
				"wantedSince", pursued[i].Details.WantedSince.Time(),
			)
		}
	}

	zap.S().Infow("Most wanted eligibility report complete",
		"pursued", len(pursued),
		"eligible", eligible,
	)
}
