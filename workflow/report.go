package workflow

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/models"
)

// SuspectReportEntry is one suspect's standing inside a case report.
type SuspectReportEntry struct {
	Suspect             models.Suspect        `json:"suspect"`
	Role                models.CaseSuspectRole `json:"role"`
	DetectiveGuiltScore int                   `json:"detectiveGuiltScore"`
	SergeantGuiltScore  int                   `json:"sergeantGuiltScore"`
	CaptainDecision     string                `json:"captainDecision"`
	ChiefDecision       string                `json:"chiefDecision"`
}

// CaseReport aggregates everything a judge needs about one case. Pure
// read-side aggregation; nothing in it is stored.
type CaseReport struct {
	Case           models.Case            `json:"case"`
	Officers       []models.User          `json:"officers"`
	Suspects       []SuspectReportEntry   `json:"suspects"`
	Complainants   []models.User          `json:"complainants"`
	Witnesses      []models.CrimeSceneWitness `json:"witnesses"`
	Evidence       []models.Evidence      `json:"evidence"`
	Testimonies    []models.Testimony     `json:"testimonies"`
	Interrogations []models.Interrogation `json:"interrogations"`
	History        []models.CaseHistory   `json:"history"`
	Trial          *models.Trial          `json:"trial,omitempty"`
}

// BuildCaseReport assembles the full case report. Judges and command staff
// only.
func (s *Service) BuildCaseReport(ctx context.Context, actor Actor, caseID primitive.ObjectID) (*CaseReport, error) {
	if err := requireRole(actor, RoleJudge, RoleCaptain, RoleChief); err != nil {
		return nil, err
	}

	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	report := &CaseReport{Case: *c}

	for _, id := range c.Details.OfficerIDs {
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		u.Details.Password = ""
		report.Officers = append(report.Officers, *u)
	}

	links, err := s.suspects.LinksByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		sp, err := s.suspects.GetSuspect(ctx, l.SuspectID)
		if err != nil {
			return nil, err
		}
		report.Suspects = append(report.Suspects, SuspectReportEntry{
			Suspect:             *sp,
			Role:                l.Role,
			DetectiveGuiltScore: sp.Details.DetectiveGuiltScore,
			SergeantGuiltScore:  sp.Details.SergeantGuiltScore,
			CaptainDecision:     sp.Details.CaptainDecision,
			ChiefDecision:       sp.Details.ChiefDecision,
		})
	}

	if c.Details.Origin == models.OriginComplaint && !c.Details.OriginComplaintID.IsZero() {
		complaint, err := s.complaints.GetComplaint(ctx, c.Details.OriginComplaintID)
		if err != nil {
			return nil, err
		}
		for _, id := range complaint.Details.ComplainantIDs {
			u, err := s.users.GetUser(ctx, id)
			if err != nil {
				return nil, err
			}
			u.Details.Password = ""
			report.Complainants = append(report.Complainants, *u)
		}
	}

	if report.Witnesses, err = s.cases.ListWitnesses(ctx, caseID); err != nil {
		return nil, err
	}
	if report.Evidence, err = s.evidence.ListEvidenceByCase(ctx, caseID); err != nil {
		return nil, err
	}
	if report.Testimonies, err = s.evidence.ListTestimoniesByCase(ctx, caseID); err != nil {
		return nil, err
	}
	if report.Interrogations, err = s.suspects.ListInterrogationsByCase(ctx, caseID); err != nil {
		return nil, err
	}
	if report.History, err = s.cases.ListCaseHistory(ctx, caseID); err != nil {
		return nil, err
	}

	trial, err := s.trials.GetTrialByCase(ctx, caseID)
	switch {
	case err == nil:
		report.Trial = trial
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}
	return report, nil
}
