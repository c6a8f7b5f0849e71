package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

// Transition names of the case machine
const (
	TransCaseSubmitApproval      = "submit_for_approval"
	TransCaseApprove             = "approve_case"
	TransCaseStartInvestigation  = "start_investigation"
	TransCaseSuspectIdentified   = "mark_suspect_identified"
	TransCaseStartInterrogation  = "start_interrogation"
	TransCaseReturnInvestigation = "return_to_investigation"
	TransCaseSubmitToCaptain     = "submit_to_captain"
	TransCaseEscalateToChief     = "escalate_to_chief"
	TransCaseSendToTrial         = "send_to_trial"
	TransCaseCloseSolved         = "close_solved"
	TransCaseCloseUnsolved       = "close_unsolved"
)

var caseMachine = NewMachine("case",
	Edge{
		Name:    TransCaseSubmitApproval,
		Sources: []Status{Status(models.CaseCreated)},
		Target:  Status(models.CasePendingApproval),
	},
	Edge{
		Name:    TransCaseApprove,
		Sources: []Status{Status(models.CasePendingApproval)},
		Target:  Status(models.CaseCreated),
	},
	Edge{
		Name:    TransCaseStartInvestigation,
		Sources: []Status{Status(models.CaseCreated)},
		Target:  Status(models.CaseInvestigation),
	},
	Edge{
		Name:    TransCaseSuspectIdentified,
		Sources: []Status{Status(models.CaseInvestigation)},
		Target:  Status(models.CaseSuspectIdentified),
	},
	Edge{
		Name:    TransCaseStartInterrogation,
		Sources: []Status{Status(models.CaseSuspectIdentified)},
		Target:  Status(models.CaseInterrogation),
	},
	Edge{
		Name:    TransCaseReturnInvestigation,
		Sources: []Status{Status(models.CaseSuspectIdentified)},
		Target:  Status(models.CaseInvestigation),
	},
	Edge{
		Name:    TransCaseSubmitToCaptain,
		Sources: []Status{Status(models.CaseInterrogation)},
		Target:  Status(models.CasePendingCaptain),
	},
	Edge{
		Name:    TransCaseEscalateToChief,
		Sources: []Status{Status(models.CasePendingCaptain)},
		Target:  Status(models.CasePendingChief),
	},
	Edge{
		Name:    TransCaseSendToTrial,
		Sources: []Status{Status(models.CasePendingCaptain), Status(models.CasePendingChief)},
		Target:  Status(models.CaseTrial),
	},
	Edge{
		Name:    TransCaseCloseSolved,
		Sources: []Status{Status(models.CaseTrial)},
		Target:  Status(models.CaseClosedSolved),
	},
	Edge{
		Name: TransCaseCloseUnsolved,
		Sources: []Status{
			Status(models.CaseInvestigation),
			Status(models.CaseSuspectIdentified),
			Status(models.CaseInterrogation),
		},
		Target: Status(models.CaseClosedUnsolved),
	},
)

// newCaseNumber generates the human-readable case number assigned exactly
// once at creation: CASE-YYYYMMDD-XXXX.
func (s *Service) newCaseNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CASE-%s-%s", s.now().Format("20060102"), strings.ToUpper(raw[:4]))
}

// RegisterCrimeSceneInput carries the fields of a newly reported crime
// scene.
type RegisterCrimeSceneInput struct {
	Title              string
	Summary            string
	CrimeSeverity      models.CrimeSeverity
	CrimeSceneTime     time.Time
	CrimeSceneLocation string
}

// RegisterCrimeSceneCase opens a crime-scene-origin case. Any sworn rank
// may register one; when the chief registers it the superior-approval step
// is skipped and the case is born approved.
func (s *Service) RegisterCrimeSceneCase(ctx context.Context, actor Actor, in RegisterCrimeSceneInput) (*models.Case, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	if !in.CrimeSeverity.Valid() {
		return nil, errors.Wrapf(ErrPreconditionFailed, "crime severity %d out of range", in.CrimeSeverity)
	}

	now := s.stamp()
	c := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseNumber:         s.newCaseNumber(),
			Status:             models.CaseCreated,
			Origin:             models.OriginCrimeScene,
			Title:              in.Title,
			Summary:            in.Summary,
			CrimeSeverity:      in.CrimeSeverity,
			CreatedBy:          actor.ID,
			CrimeSceneTime:     primitive.NewDateTimeFromTime(in.CrimeSceneTime),
			CrimeSceneLocation: in.CrimeSceneLocation,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
	}
	if actor.HasRole(RoleChief) {
		c.Details.ApprovedBy = actor.ID
	}
	if err := s.cases.PutCase(ctx, c); err != nil {
		return nil, err
	}
	zap.S().Infow("crime scene case registered",
		"caseID", c.ID.Hex(), "caseNumber", c.Details.CaseNumber, "createdBy", actor.ID)
	return c, nil
}

// SubmitCaseForApproval queues a crime scene case for superior approval.
// Complaint-origin cases never pass through this step; cases the chief
// already approved at registration do not need it either.
func (s *Service) SubmitCaseForApproval(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	return s.stepCase(ctx, actor, caseID, TransCaseSubmitApproval, "", nil, func(c *models.Case) error {
		if c.Details.Origin != models.OriginCrimeScene {
			return errors.Wrapf(ErrInvalidOrigin, "case %s", caseID.Hex())
		}
		if c.Details.ApprovedBy != "" {
			return errors.Wrapf(ErrPreconditionFailed, "case %s is already approved", caseID.Hex())
		}
		return nil
	}, nil)
}

// ApproveCase records superior approval on a pending crime scene case.
func (s *Service) ApproveCase(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, error) {
	if err := requireRole(actor, ApprovalRoles...); err != nil {
		return nil, err
	}
	return s.stepCase(ctx, actor, caseID, TransCaseApprove, "", nil, nil, func(c *models.Case) {
		c.Details.ApprovedBy = actor.ID
	})
}

// StartInvestigation assigns the lead detective and opens the
// investigation. The detective joins the officer set.
func (s *Service) StartInvestigation(ctx context.Context, actor Actor, caseID primitive.ObjectID, detectiveID string) (*models.Case, error) {
	if err := requireRole(actor, ApprovalRoles...); err != nil {
		return nil, err
	}
	detective, err := s.users.GetUser(ctx, detectiveID)
	if err != nil {
		return nil, err
	}
	if !(Actor{ID: detective.ID, Roles: detective.Details.Roles}).HasRole(RoleDetective) {
		return nil, errors.Wrapf(ErrPreconditionFailed, "user %s is not a detective", detectiveID)
	}
	return s.stepCase(ctx, actor, caseID, TransCaseStartInvestigation, "", nil, nil, func(c *models.Case) {
		c.Details.LeadDetective = detectiveID
		c.Details.OfficerIDs = appendUnique(c.Details.OfficerIDs, detectiveID)
	})
}

// AssignOfficerToCase adds an officer to the case's officer set.
func (s *Service) AssignOfficerToCase(ctx context.Context, actor Actor, caseID primitive.ObjectID, officerID string) (*models.Case, error) {
	if err := requireRole(actor, ApprovalRoles...); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, officerID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("case:" + caseID.Hex())
	defer unlock()

	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Details.Status.Closed() {
		return nil, errors.Wrapf(ErrInvalidTransition, "case: cannot assign officers from %q", c.Details.Status)
	}
	c.Details.OfficerIDs = appendUnique(c.Details.OfficerIDs, officerID)
	c.Details.UpdatedAt = s.stamp()
	if err := s.cases.PutCase(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddCrimeSceneWitness records a witness statement against a crime scene
// case.
func (s *Service) AddCrimeSceneWitness(ctx context.Context, actor Actor, caseID primitive.ObjectID, w models.CrimeSceneWitnessDetails) (*models.CrimeSceneWitness, error) {
	if err := requireRole(actor, PoliceRanks...); err != nil {
		return nil, err
	}
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Details.Origin != models.OriginCrimeScene {
		return nil, errors.Wrapf(ErrInvalidOrigin, "case %s", caseID.Hex())
	}
	w.CaseID = caseID
	w.CreatedAt = s.stamp()
	witness := models.CrimeSceneWitness{
		ID:      primitive.NewObjectID(),
		Details: w,
	}
	if err := s.cases.AddWitness(ctx, witness); err != nil {
		return nil, err
	}
	return &witness, nil
}

// MarkSuspectIdentified records that the investigation produced suspects.
// Requires at least one linked suspect; every linked suspect still in
// IDENTIFIED advances to UNDER_INVESTIGATION as part of the same unit.
func (s *Service) MarkSuspectIdentified(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, []SubTransition, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, nil, err
	}
	return s.stepCaseCascade(ctx, actor, caseID, TransCaseSuspectIdentified,
		func(c *models.Case, linked []models.Suspect) error {
			if len(linked) == 0 {
				return errors.Wrapf(ErrPreconditionFailed, "case %s has no linked suspects", caseID.Hex())
			}
			return nil
		},
		func(c *models.Case, linked []models.Suspect) ([]suspectEdge, error) {
			var cascade []suspectEdge
			for i := range linked {
				if linked[i].Details.Status == models.SuspectIdentified {
					cascade = append(cascade, suspectEdge{suspect: &linked[i], transition: TransSuspectStartInvestigation})
				}
			}
			return cascade, nil
		})
}

// StartInterrogation moves an identified case to interrogation on superior
// approval. Every linked suspect still at large is arrested as part of the
// same unit.
func (s *Service) StartInterrogation(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, []SubTransition, error) {
	if err := requireRole(actor, ApprovalRoles...); err != nil {
		return nil, nil, err
	}
	return s.stepCaseCascade(ctx, actor, caseID, TransCaseStartInterrogation, nil,
		func(c *models.Case, linked []models.Suspect) ([]suspectEdge, error) {
			var cascade []suspectEdge
			for i := range linked {
				switch linked[i].Details.Status {
				case models.SuspectUnderInvestigation, models.SuspectUnderPursuit, models.SuspectMostWanted:
					cascade = append(cascade, suspectEdge{suspect: &linked[i], transition: TransSuspectArrest})
				}
			}
			return cascade, nil
		})
}

// ReturnCaseToInvestigation rejects the identified-suspects milestone and
// reopens the investigation. Suspects keep their current status.
func (s *Service) ReturnCaseToInvestigation(ctx context.Context, actor Actor, caseID primitive.ObjectID, notes string) (*models.Case, error) {
	if err := requireRole(actor, ApprovalRoles...); err != nil {
		return nil, err
	}
	return s.stepCase(ctx, actor, caseID, TransCaseReturnInvestigation, notes, nil, nil, nil)
}

// RecordInterrogation stores one interrogation session against a case under
// interrogation.
func (s *Service) RecordInterrogation(ctx context.Context, actor Actor, in models.InterrogationDetails) (*models.Interrogation, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}
	c, err := s.cases.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Details.Status != models.CaseInterrogation {
		return nil, errors.Wrapf(ErrInvalidTransition, "case: cannot record interrogation from %q", c.Details.Status)
	}
	if _, err := s.suspects.GetSuspect(ctx, in.SuspectID); err != nil {
		return nil, err
	}
	in.ConductedBy = actor.ID
	in.CreatedAt = s.stamp()
	rec := models.Interrogation{
		ID:      primitive.NewObjectID(),
		Details: in,
	}
	if err := s.suspects.AddInterrogation(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListInterrogations returns the interrogation sessions recorded on a case.
func (s *Service) ListInterrogations(ctx context.Context, caseID primitive.ObjectID) ([]models.Interrogation, error) {
	return s.suspects.ListInterrogationsByCase(ctx, caseID)
}

// SubmitCaseToCaptain closes interrogation and queues the case for the
// captain. Every linked suspect must carry both guilt scores.
func (s *Service) SubmitCaseToCaptain(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, error) {
	if err := requireRole(actor, RoleDetective, RoleSergeant); err != nil {
		return nil, err
	}
	return s.stepCase(ctx, actor, caseID, TransCaseSubmitToCaptain, "", nil, func(c *models.Case) error {
		linked, err := s.linkedSuspects(ctx, caseID)
		if err != nil {
			return err
		}
		for _, sp := range linked {
			if sp.Details.DetectiveGuiltScore == 0 || sp.Details.SergeantGuiltScore == 0 {
				return errors.Wrapf(ErrPreconditionFailed,
					"suspect %s is missing guilt scores", sp.ID.Hex())
			}
		}
		return nil
	}, nil)
}

// EscalateCaseToChief forwards a critical case from the captain to the
// chief. Requires the captain's decision on every linked suspect; lesser
// severities never escalate.
func (s *Service) EscalateCaseToChief(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, error) {
	if err := requireRole(actor, RoleCaptain); err != nil {
		return nil, err
	}
	return s.stepCase(ctx, actor, caseID, TransCaseEscalateToChief, "", nil, func(c *models.Case) error {
		if c.Details.CrimeSeverity != models.SeverityCritical {
			return errors.Wrapf(ErrEscalationNotRequired, "case %s severity %d", caseID.Hex(), c.Details.CrimeSeverity)
		}
		linked, err := s.linkedSuspects(ctx, caseID)
		if err != nil {
			return err
		}
		for _, sp := range linked {
			if sp.Details.CaptainDecision == "" {
				return errors.Wrapf(ErrDecisionIncomplete, "suspect %s lacks captain decision", sp.ID.Hex())
			}
		}
		return nil
	}, nil)
}

// SendCaseToTrial moves a decided case to trial. Critical cases need the
// chief's decision on every suspect, the rest need the captain's.
func (s *Service) SendCaseToTrial(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, error) {
	if err := requireRole(actor, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}
	return s.stepCase(ctx, actor, caseID, TransCaseSendToTrial, "", nil, func(c *models.Case) error {
		linked, err := s.linkedSuspects(ctx, caseID)
		if err != nil {
			return err
		}
		critical := c.Details.CrimeSeverity == models.SeverityCritical
		for _, sp := range linked {
			if critical && sp.Details.ChiefDecision == "" {
				return errors.Wrapf(ErrDecisionIncomplete, "suspect %s lacks chief decision", sp.ID.Hex())
			}
			if !critical && sp.Details.CaptainDecision == "" {
				return errors.Wrapf(ErrDecisionIncomplete, "suspect %s lacks captain decision", sp.ID.Hex())
			}
		}
		return nil
	}, nil)
}

// CloseCaseSolved closes a tried case. Requires a verdict on the case
// trial; a guilty verdict converts every arrested linked suspect as part of
// the same unit.
func (s *Service) CloseCaseSolved(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, []SubTransition, error) {
	if err := requireRole(actor, RoleCaptain, RoleChief, RoleJudge); err != nil {
		return nil, nil, err
	}
	trial, err := s.trials.GetTrialByCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, errors.Wrapf(ErrPreconditionFailed, "case %s has no trial", caseID.Hex())
		}
		return nil, nil, err
	}
	if trial.Details.Verdict == "" {
		return nil, nil, errors.Wrapf(ErrPreconditionFailed, "trial %s has no verdict", trial.ID.Hex())
	}
	guilty := trial.Details.Verdict == models.VerdictGuilty
	return s.stepCaseCascade(ctx, actor, caseID, TransCaseCloseSolved, nil,
		func(c *models.Case, linked []models.Suspect) ([]suspectEdge, error) {
			if !guilty {
				return nil, nil
			}
			var cascade []suspectEdge
			for i := range linked {
				if linked[i].Details.Status == models.SuspectArrested {
					cascade = append(cascade, suspectEdge{suspect: &linked[i], transition: TransSuspectConvict})
				}
			}
			return cascade, nil
		})
}

// CloseCaseUnsolved abandons an open case. Suspects that never progressed
// past early investigation are cleared as part of the same unit.
func (s *Service) CloseCaseUnsolved(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*models.Case, []SubTransition, error) {
	if err := requireRole(actor, ApprovalRoles...); err != nil {
		return nil, nil, err
	}
	return s.stepCaseCascade(ctx, actor, caseID, TransCaseCloseUnsolved, nil,
		func(c *models.Case, linked []models.Suspect) ([]suspectEdge, error) {
			var cascade []suspectEdge
			for i := range linked {
				switch linked[i].Details.Status {
				case models.SuspectIdentified, models.SuspectUnderInvestigation:
					cascade = append(cascade, suspectEdge{suspect: &linked[i], transition: TransSuspectClear})
				}
			}
			return cascade, nil
		})
}

// linkedSuspects loads the full suspect documents linked to a case in link
// creation order.
func (s *Service) linkedSuspects(ctx context.Context, caseID primitive.ObjectID) ([]models.Suspect, error) {
	links, err := s.suspects.LinksByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Suspect, 0, len(links))
	for _, l := range links {
		sp, err := s.suspects.GetSuspect(ctx, l.SuspectID)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	return out, nil
}

// stepCase runs one cascade-free case transition under the entity lock.
func (s *Service) stepCase(ctx context.Context, actor Actor, caseID primitive.ObjectID, transition, notes string,
	pre, post func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {

	unlock := s.locks.lock("case:" + caseID.Hex())
	defer unlock()

	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if pre != nil {
		if err := pre(c); err != nil {
			return nil, err
		}
	}
	from := c.Details.Status
	target, err := caseMachine.Step(Status(from), transition)
	if err != nil {
		return nil, err
	}
	if post != nil {
		if err := post(c); err != nil {
			return nil, err
		}
	}
	c.Details.Status = models.CaseStatus(target)
	if mutate != nil {
		mutate(c)
	}
	c.Details.UpdatedAt = s.stamp()
	if err := s.cases.PutCase(ctx, c); err != nil {
		return nil, err
	}
	if err := s.appendCaseHistory(ctx, c, from, actor, notes); err != nil {
		return nil, err
	}
	zap.S().Debugw("case transition",
		"caseID", caseID.Hex(), "transition", transition, "from", from, "to", c.Details.Status)
	return c, nil
}

// suspectEdge is one planned cascade step on a linked suspect.
type suspectEdge struct {
	suspect    *models.Suspect
	transition string
}

// stepCaseCascade runs a case transition whose guard and cascade depend on
// the linked suspects. The cascade plan is computed while every guard can
// still abort, then the case and the suspects are applied as one unit and
// the applied cascade returned as data.
func (s *Service) stepCaseCascade(ctx context.Context, actor Actor, caseID primitive.ObjectID, transition string,
	guard func(*models.Case, []models.Suspect) error,
	plan func(*models.Case, []models.Suspect) ([]suspectEdge, error)) (*models.Case, []SubTransition, error) {

	unlock := s.locks.lock("case:" + caseID.Hex())
	defer unlock()

	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	from := c.Details.Status
	target, err := caseMachine.Step(Status(from), transition)
	if err != nil {
		return nil, nil, err
	}
	linked, err := s.linkedSuspects(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	if guard != nil {
		if err := guard(c, linked); err != nil {
			return nil, nil, err
		}
	}
	edges, err := plan(c, linked)
	if err != nil {
		return nil, nil, err
	}

	// Validate every cascade edge against the suspect machine before any
	// write, so a bad plan aborts the whole unit.
	for _, e := range edges {
		if _, err := suspectMachine.Step(Status(e.suspect.Details.Status), e.transition); err != nil {
			return nil, nil, err
		}
	}

	c.Details.Status = models.CaseStatus(target)
	c.Details.UpdatedAt = s.stamp()
	if err := s.cases.PutCase(ctx, c); err != nil {
		return nil, nil, err
	}

	cascade := make([]SubTransition, 0, len(edges))
	for _, e := range edges {
		sub, err := s.applySuspectEdge(ctx, e.suspect, e.transition)
		if err != nil {
			return nil, nil, err
		}
		cascade = append(cascade, sub)
	}

	if err := s.appendCaseHistory(ctx, c, from, actor, ""); err != nil {
		return nil, nil, err
	}
	zap.S().Infow("case transition with cascade",
		"caseID", caseID.Hex(), "transition", transition, "from", from, "to", c.Details.Status,
		"cascadeSize", len(cascade))
	return c, cascade, nil
}

func (s *Service) appendCaseHistory(ctx context.Context, c *models.Case, from models.CaseStatus, actor Actor, notes string) error {
	return s.cases.AppendCaseHistory(ctx, models.CaseHistory{
		ID:         primitive.NewObjectID(),
		CaseID:     c.ID,
		FromStatus: from,
		ToStatus:   c.Details.Status,
		ChangedBy:  actor.ID,
		Notes:      notes,
		CreatedAt:  s.stamp(),
	})
}

func appendUnique(ids []string, id string) []string {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}
