package workflow

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

// Transition names of the suspect machine
const (
	TransSuspectStartInvestigation = "start_investigation"
	TransSuspectStartPursuit       = "start_pursuit"
	TransSuspectPromoteMostWanted  = "promote_most_wanted"
	TransSuspectArrest             = "arrest"
	TransSuspectClear              = "clear"
	TransSuspectConvict            = "convict"
	TransSuspectReleaseOnBail      = "release_on_bail"
)

var suspectMachine = NewMachine("suspect",
	Edge{
		Name:    TransSuspectStartInvestigation,
		Sources: []Status{Status(models.SuspectIdentified)},
		Target:  Status(models.SuspectUnderInvestigation),
	},
	Edge{
		Name:    TransSuspectStartPursuit,
		Sources: []Status{Status(models.SuspectUnderInvestigation)},
		Target:  Status(models.SuspectUnderPursuit),
	},
	Edge{
		Name:    TransSuspectPromoteMostWanted,
		Sources: []Status{Status(models.SuspectUnderPursuit)},
		Target:  Status(models.SuspectMostWanted),
	},
	Edge{
		Name: TransSuspectArrest,
		Sources: []Status{
			Status(models.SuspectUnderInvestigation),
			Status(models.SuspectUnderPursuit),
			Status(models.SuspectMostWanted),
		},
		Target: Status(models.SuspectArrested),
	},
	Edge{
		Name:    TransSuspectClear,
		Sources: []Status{Status(models.SuspectIdentified), Status(models.SuspectUnderInvestigation)},
		Target:  Status(models.SuspectCleared),
	},
	Edge{
		Name:    TransSuspectConvict,
		Sources: []Status{Status(models.SuspectArrested)},
		Target:  Status(models.SuspectConvicted),
	},
	Edge{
		Name: TransSuspectReleaseOnBail,
		Sources: []Status{
			Status(models.SuspectArrested),
			Status(models.SuspectConvicted),
			Status(models.SuspectUnderPursuit),
			Status(models.SuspectMostWanted),
		},
		Target: Status(models.SuspectReleasedOnBail),
	},
)

// CreateSuspectInput carries the fields of a newly identified suspect.
type CreateSuspectInput struct {
	FullName          string
	Aliases           string
	Description       string
	LastKnownLocation string
	UserID            string
}

// CreateSuspect registers a new suspect in the IDENTIFIED state.
func (s *Service) CreateSuspect(ctx context.Context, actor Actor, in CreateSuspectInput) (*models.Suspect, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	if in.UserID != "" {
		if _, err := s.users.GetUser(ctx, in.UserID); err != nil {
			return nil, err
		}
	}
	now := s.stamp()
	sp := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			Status:            models.SuspectIdentified,
			FullName:          in.FullName,
			Aliases:           in.Aliases,
			Description:       in.Description,
			LastKnownLocation: in.LastKnownLocation,
			UserID:            in.UserID,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
	if err := s.suspects.PutSuspect(ctx, sp); err != nil {
		return nil, err
	}
	zap.S().Debugw("suspect created", "suspectID", sp.ID.Hex(), "createdBy", actor.ID)
	return sp, nil
}

// AddSuspectToCase links a suspect to an open case with a role tag. Linking
// the same pair twice is a no-op returning the existing link.
func (s *Service) AddSuspectToCase(ctx context.Context, actor Actor, caseID, suspectID primitive.ObjectID, role models.CaseSuspectRole, notes string) (*models.CaseSuspect, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("case:" + caseID.Hex())
	defer unlock()

	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Details.Status.Closed() {
		return nil, errors.Wrapf(ErrInvalidTransition, "case: cannot add suspects from %q", c.Details.Status)
	}
	if _, err := s.suspects.GetSuspect(ctx, suspectID); err != nil {
		return nil, err
	}
	links, err := s.suspects.LinksByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	for i := range links {
		if links[i].SuspectID == suspectID {
			return &links[i], nil
		}
	}
	link := models.CaseSuspect{
		ID:        primitive.NewObjectID(),
		CaseID:    caseID,
		SuspectID: suspectID,
		Role:      role,
		Notes:     notes,
		AddedBy:   actor.ID,
		CreatedAt: s.stamp(),
	}
	if err := s.suspects.AddLink(ctx, link); err != nil {
		return nil, err
	}
	return &link, nil
}

// StartSuspectPursuit puts a suspect under investigation on the wanted
// list. Stamps wanted_since once and flags any linked user account.
func (s *Service) StartSuspectPursuit(ctx context.Context, actor Actor, suspectID primitive.ObjectID) (*models.Suspect, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}
	return s.stepSuspect(ctx, suspectID, TransSuspectStartPursuit)
}

// PromoteSuspectToMostWanted promotes a pursued suspect. Eligibility is
// advisory; the caller decides when to act on it.
func (s *Service) PromoteSuspectToMostWanted(ctx context.Context, actor Actor, suspectID primitive.ObjectID) (*models.Suspect, error) {
	if err := requireRole(actor, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}
	return s.stepSuspect(ctx, suspectID, TransSuspectPromoteMostWanted)
}

// ArrestSuspect takes a suspect at large into custody and stamps
// arrested_at.
func (s *Service) ArrestSuspect(ctx context.Context, actor Actor, suspectID primitive.ObjectID) (*models.Suspect, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	return s.stepSuspect(ctx, suspectID, TransSuspectArrest)
}

// ClearSuspect removes an early-stage suspect from the case and unflags any
// linked user account.
func (s *Service) ClearSuspect(ctx context.Context, actor Actor, suspectID primitive.ObjectID) (*models.Suspect, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}
	return s.stepSuspect(ctx, suspectID, TransSuspectClear)
}

// ConvictSuspect records a conviction and flags any linked user account as
// criminal. Normally fired as a cascade of closing a tried case.
func (s *Service) ConvictSuspect(ctx context.Context, actor Actor, suspectID primitive.ObjectID) (*models.Suspect, error) {
	if err := requireRole(actor, RoleJudge, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}
	return s.stepSuspect(ctx, suspectID, TransSuspectConvict)
}

// stepSuspect applies one named suspect transition under the suspect lock.
func (s *Service) stepSuspect(ctx context.Context, suspectID primitive.ObjectID, transition string) (*models.Suspect, error) {
	unlock := s.locks.lock("suspect:" + suspectID.Hex())
	defer unlock()

	sp, err := s.suspects.GetSuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.applySuspectEdge(ctx, sp, transition); err != nil {
		return nil, err
	}
	return sp, nil
}

// applySuspectEdge steps the suspect machine, applies the edge's side
// effects (timestamps, linked account flags), persists the suspect and
// returns the change as cascade data. The caller holds whatever lock
// covers the unit of work.
func (s *Service) applySuspectEdge(ctx context.Context, sp *models.Suspect, transition string) (SubTransition, error) {
	from := sp.Details.Status
	target, err := suspectMachine.Step(Status(from), transition)
	if err != nil {
		return SubTransition{}, err
	}

	sp.Details.Status = models.SuspectStatus(target)
	now := s.stamp()
	sp.Details.UpdatedAt = now

	switch transition {
	case TransSuspectStartPursuit:
		if sp.Details.WantedSince == 0 {
			sp.Details.WantedSince = now
		}
		if err := s.setUserFlag(ctx, sp.Details.UserID, func(u *models.User) {
			u.Details.IsSuspect = true
		}); err != nil {
			return SubTransition{}, err
		}
	case TransSuspectArrest:
		sp.Details.ArrestedAt = now
	case TransSuspectClear:
		if err := s.setUserFlag(ctx, sp.Details.UserID, func(u *models.User) {
			u.Details.IsSuspect = false
		}); err != nil {
			return SubTransition{}, err
		}
	case TransSuspectConvict:
		if err := s.setUserFlag(ctx, sp.Details.UserID, func(u *models.User) {
			u.Details.IsCriminal = true
		}); err != nil {
			return SubTransition{}, err
		}
	}

	if err := s.suspects.PutSuspect(ctx, sp); err != nil {
		return SubTransition{}, err
	}
	zap.S().Debugw("suspect transition",
		"suspectID", sp.ID.Hex(), "transition", transition, "from", from, "to", sp.Details.Status)
	return SubTransition{
		Entity:     "suspect",
		EntityID:   sp.ID.Hex(),
		Transition: transition,
		From:       Status(from),
		To:         target,
	}, nil
}

// setUserFlag mutates the linked user account, if any, under its lock.
func (s *Service) setUserFlag(ctx context.Context, userID string, mutate func(*models.User)) error {
	if userID == "" {
		return nil
	}
	unlock := s.locks.lock("user:" + userID)
	defer unlock()

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	mutate(u)
	u.Details.UpdatedAt = s.stamp()
	return s.users.PutUser(ctx, u)
}

// scorable reports whether guilt scores may still be recorded against the
// suspect in its current state.
func scorable(status models.SuspectStatus) bool {
	return status == models.SuspectUnderInvestigation || status == models.SuspectArrested
}

// SetDetectiveGuiltScore records the detective's 1-10 guilt assessment.
func (s *Service) SetDetectiveGuiltScore(ctx context.Context, actor Actor, suspectID primitive.ObjectID, score int) (*models.Suspect, error) {
	if err := requireRole(actor, RoleDetective); err != nil {
		return nil, err
	}
	return s.scoreSuspect(ctx, suspectID, score, func(sp *models.Suspect) {
		sp.Details.DetectiveGuiltScore = score
	})
}

// SetSergeantGuiltScore records the sergeant's 1-10 guilt assessment.
func (s *Service) SetSergeantGuiltScore(ctx context.Context, actor Actor, suspectID primitive.ObjectID, score int) (*models.Suspect, error) {
	if err := requireRole(actor, RoleSergeant); err != nil {
		return nil, err
	}
	return s.scoreSuspect(ctx, suspectID, score, func(sp *models.Suspect) {
		sp.Details.SergeantGuiltScore = score
	})
}

func (s *Service) scoreSuspect(ctx context.Context, suspectID primitive.ObjectID, score int, mutate func(*models.Suspect)) (*models.Suspect, error) {
	if score < 1 || score > 10 {
		return nil, errors.Wrapf(ErrPreconditionFailed, "guilt score %d out of range 1-10", score)
	}

	unlock := s.locks.lock("suspect:" + suspectID.Hex())
	defer unlock()

	sp, err := s.suspects.GetSuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	if !scorable(sp.Details.Status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "suspect: cannot score from %q", sp.Details.Status)
	}
	mutate(sp)
	sp.Details.UpdatedAt = s.stamp()
	if err := s.suspects.PutSuspect(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// SetCaptainDecision records the captain's decision note on a scored
// suspect.
func (s *Service) SetCaptainDecision(ctx context.Context, actor Actor, suspectID primitive.ObjectID, decision string) (*models.Suspect, error) {
	if err := requireRole(actor, RoleCaptain); err != nil {
		return nil, err
	}
	return s.decideSuspect(ctx, suspectID, decision, func(sp *models.Suspect) {
		sp.Details.CaptainDecision = decision
	})
}

// SetChiefDecision records the chief's decision note on a scored suspect.
func (s *Service) SetChiefDecision(ctx context.Context, actor Actor, suspectID primitive.ObjectID, decision string) (*models.Suspect, error) {
	if err := requireRole(actor, RoleChief); err != nil {
		return nil, err
	}
	return s.decideSuspect(ctx, suspectID, decision, func(sp *models.Suspect) {
		sp.Details.ChiefDecision = decision
	})
}

func (s *Service) decideSuspect(ctx context.Context, suspectID primitive.ObjectID, decision string, mutate func(*models.Suspect)) (*models.Suspect, error) {
	if decision == "" {
		return nil, errors.Wrap(ErrPreconditionFailed, "decision note is empty")
	}

	unlock := s.locks.lock("suspect:" + suspectID.Hex())
	defer unlock()

	sp, err := s.suspects.GetSuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	if sp.Details.DetectiveGuiltScore == 0 || sp.Details.SergeantGuiltScore == 0 {
		return nil, errors.Wrapf(ErrPreconditionFailed, "suspect %s is missing guilt scores", suspectID.Hex())
	}
	mutate(sp)
	sp.Details.UpdatedAt = s.stamp()
	if err := s.suspects.PutSuspect(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// SuspectProfile is the derived standing of one suspect, recomputed on
// demand and never stored.
type SuspectProfile struct {
	Suspect                  models.Suspect `json:"suspect"`
	DaysWanted               int            `json:"daysWanted"`
	MaxCrimeSeverity         int            `json:"maxCrimeSeverity"`
	MaxDaysWantedForOpenCase int            `json:"maxDaysWantedForOpenCase"`
	MostWantedRank           int            `json:"mostWantedRank"`
	RewardAmount             int64          `json:"rewardAmount"`
	IsMostWantedEligible     bool           `json:"isMostWantedEligible"`
}

// GetSuspectProfile computes the suspect's derived values from its current
// case links.
func (s *Service) GetSuspectProfile(ctx context.Context, suspectID primitive.ObjectID) (*SuspectProfile, error) {
	sp, err := s.suspects.GetSuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	facts, err := s.caseFactsFor(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	wanted := wantedSincePtr(sp.Details.WantedSince)
	rank := MostWantedRank(wanted, facts, now)
	return &SuspectProfile{
		Suspect:                  *sp,
		DaysWanted:               DaysWanted(wanted, now),
		MaxCrimeSeverity:         MaxCrimeSeverity(facts),
		MaxDaysWantedForOpenCase: MaxDaysWantedForOpenCase(wanted, facts, now),
		MostWantedRank:           rank,
		RewardAmount:             RewardAmount(rank),
		IsMostWantedEligible:     IsMostWantedEligible(sp, now),
	}, nil
}

// ListMostWanted returns the suspects under pursuit or already most wanted,
// ranked descending. Ties keep creation order, so the listing is
// deterministic.
func (s *Service) ListMostWanted(ctx context.Context) ([]RankedSuspect, error) {
	suspects, err := s.suspects.ListSuspectsByStatus(ctx, models.SuspectUnderPursuit, models.SuspectMostWanted)
	if err != nil {
		return nil, err
	}
	facts := make(map[primitive.ObjectID][]CaseFacts, len(suspects))
	for _, sp := range suspects {
		f, err := s.caseFactsFor(ctx, sp.ID)
		if err != nil {
			return nil, err
		}
		facts[sp.ID] = f
	}
	return RankSuspects(suspects, facts, s.now()), nil
}

// caseFactsFor loads the severity and open/closed state of every case
// linked to a suspect.
func (s *Service) caseFactsFor(ctx context.Context, suspectID primitive.ObjectID) ([]CaseFacts, error) {
	links, err := s.suspects.LinksBySuspect(ctx, suspectID)
	if err != nil {
		return nil, err
	}
	facts := make([]CaseFacts, 0, len(links))
	for _, l := range links {
		c, err := s.cases.GetCase(ctx, l.CaseID)
		if err != nil {
			return nil, err
		}
		facts = append(facts, CaseFacts{
			Severity: c.Details.CrimeSeverity,
			Closed:   c.Details.Status.Closed(),
			Opened:   c.Details.CreatedAt.Time(),
		})
	}
	return facts, nil
}
