package workflow

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/models"
)

// maxComplaintStrikes is the rejection count at which a complaint may be
// invalidated and the per-user counter at which filing is blocked.
const maxComplaintStrikes = 3

// Transition names of the complaint machine
const (
	TransComplaintSubmit          = "submit"
	TransComplaintAssignCadet     = "assign_to_cadet"
	TransComplaintReturn          = "return_to_complainant"
	TransComplaintResubmit        = "resubmit"
	TransComplaintInvalidate      = "invalidate"
	TransComplaintEscalateOfficer = "escalate_to_officer"
	TransComplaintReturnToCadet   = "return_to_cadet"
	TransComplaintApprove         = "approve"
	TransComplaintReject          = "reject"
)

var complaintMachine = NewMachine("complaint",
	Edge{
		Name:    TransComplaintSubmit,
		Sources: []Status{Status(models.ComplaintDraft)},
		Target:  Status(models.ComplaintSubmitted),
	},
	Edge{
		Name:    TransComplaintAssignCadet,
		Sources: []Status{Status(models.ComplaintSubmitted)},
		Target:  Status(models.ComplaintCadetReview),
	},
	Edge{
		Name:    TransComplaintReturn,
		Sources: []Status{Status(models.ComplaintCadetReview), Status(models.ComplaintReturnedToCadet)},
		Target:  Status(models.ComplaintReturnedToComplainant),
	},
	Edge{
		Name:    TransComplaintResubmit,
		Sources: []Status{Status(models.ComplaintReturnedToComplainant)},
		Target:  Status(models.ComplaintSubmitted),
	},
	Edge{
		Name:    TransComplaintInvalidate,
		Sources: []Status{Status(models.ComplaintReturnedToComplainant)},
		Target:  Status(models.ComplaintInvalidated),
	},
	Edge{
		Name:    TransComplaintEscalateOfficer,
		Sources: []Status{Status(models.ComplaintCadetReview), Status(models.ComplaintReturnedToCadet)},
		Target:  Status(models.ComplaintOfficerReview),
	},
	Edge{
		Name:    TransComplaintReturnToCadet,
		Sources: []Status{Status(models.ComplaintOfficerReview)},
		Target:  Status(models.ComplaintReturnedToCadet),
	},
	Edge{
		Name:    TransComplaintApprove,
		Sources: []Status{Status(models.ComplaintOfficerReview)},
		Target:  Status(models.ComplaintApproved),
	},
	Edge{
		Name: TransComplaintReject,
		Sources: []Status{
			Status(models.ComplaintCadetReview),
			Status(models.ComplaintOfficerReview),
			Status(models.ComplaintReturnedToCadet),
		},
		Target: Status(models.ComplaintRejected),
	},
)

// CreateComplaintInput carries the complainant-supplied fields of a new
// complaint.
type CreateComplaintInput struct {
	Title         string
	Description   string
	Location      string
	CrimeSeverity models.CrimeSeverity
	IncidentDate  time.Time
}

// CreateComplaint files a new draft complaint for the acting citizen. Fails
// with ErrBlockedSubmitter while the actor's three-strike block is set.
func (s *Service) CreateComplaint(ctx context.Context, actor Actor, in CreateComplaintInput) (*models.Complaint, error) {
	if !in.CrimeSeverity.Valid() {
		return nil, errors.Wrapf(ErrPreconditionFailed, "crime severity %d out of range", in.CrimeSeverity)
	}
	u, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if u.Details.BlockedFromComplaints {
		return nil, errors.Wrapf(ErrBlockedSubmitter, "user %s is blocked from filing complaints", actor.ID)
	}

	now := s.stamp()
	c := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			Status:         models.ComplaintDraft,
			Title:          in.Title,
			Description:    in.Description,
			Location:       in.Location,
			CrimeSeverity:  in.CrimeSeverity,
			CreatedBy:      actor.ID,
			ComplainantIDs: []string{actor.ID},
			IncidentDate:   primitive.NewDateTimeFromTime(in.IncidentDate),
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
	if err := s.complaints.PutComplaint(ctx, c); err != nil {
		return nil, err
	}
	zap.S().Debugw("complaint created", "complaintID", c.ID.Hex(), "createdBy", actor.ID)
	return c, nil
}

// AddComplainant joins an additional complainant to an open complaint.
// Blocked users cannot join.
func (s *Service) AddComplainant(ctx context.Context, actor Actor, complaintID primitive.ObjectID, userID string) (*models.Complaint, error) {
	unlock := s.locks.lock("complaint:" + complaintID.Hex())
	defer unlock()

	c, err := s.complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if actor.ID != c.Details.CreatedBy {
		return nil, errors.Wrapf(ErrForbidden, "only the creator can add complainants to complaint %s", complaintID.Hex())
	}
	switch c.Details.Status {
	case models.ComplaintDraft, models.ComplaintReturnedToComplainant:
	default:
		return nil, errors.Wrapf(ErrInvalidTransition, "complaint: cannot add complainants from %q", c.Details.Status)
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Details.BlockedFromComplaints {
		return nil, errors.Wrapf(ErrBlockedSubmitter, "user %s is blocked from filing complaints", userID)
	}
	for _, id := range c.Details.ComplainantIDs {
		if id == userID {
			return c, nil
		}
	}
	c.Details.ComplainantIDs = append(c.Details.ComplainantIDs, userID)
	c.Details.UpdatedAt = s.stamp()
	if err := s.complaints.PutComplaint(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SubmitComplaint moves a draft into the review queue. Creator only.
func (s *Service) SubmitComplaint(ctx context.Context, actor Actor, complaintID primitive.ObjectID) (*models.Complaint, error) {
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintSubmit, "", func(c *models.Complaint) error {
		if actor.ID != c.Details.CreatedBy {
			return errors.Wrapf(ErrForbidden, "only the creator can submit complaint %s", complaintID.Hex())
		}
		return nil
	}, nil, nil)
}

// AssignComplaintToCadet claims a submitted complaint for review by the
// acting cadet.
func (s *Service) AssignComplaintToCadet(ctx context.Context, actor Actor, complaintID primitive.ObjectID) (*models.Complaint, error) {
	if err := requireRole(actor, RoleCadet); err != nil {
		return nil, err
	}
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintAssignCadet, "", nil, nil, func(c *models.Complaint) {
		c.Details.AssignedCadet = actor.ID
	})
}

// ResubmitComplaint sends a returned complaint back to the queue. Creator
// only.
func (s *Service) ResubmitComplaint(ctx context.Context, actor Actor, complaintID primitive.ObjectID) (*models.Complaint, error) {
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintResubmit, "", func(c *models.Complaint) error {
		if actor.ID != c.Details.CreatedBy {
			return errors.Wrapf(ErrForbidden, "only the creator can resubmit complaint %s", complaintID.Hex())
		}
		return nil
	}, nil, nil)
}

// ReturnComplaintToComplainant sends a complaint under cadet review back to
// its complainants with a message. Each complainant takes a strike; a user
// reaching three total strikes is blocked from filing further complaints.
func (s *Service) ReturnComplaintToComplainant(ctx context.Context, actor Actor, complaintID primitive.ObjectID, message string) (*models.Complaint, []SubTransition, error) {
	if err := requireRole(actor, RoleCadet); err != nil {
		return nil, nil, err
	}

	unlock := s.locks.lock("complaint:" + complaintID.Hex())
	defer unlock()

	c, err := s.complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, err
	}
	from := c.Details.Status
	target, err := complaintMachine.Step(Status(from), TransComplaintReturn)
	if err != nil {
		return nil, nil, err
	}

	// Validate every complainant exists before any mutation is applied
	complainants := make([]*models.User, 0, len(c.Details.ComplainantIDs))
	for _, id := range c.Details.ComplainantIDs {
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		complainants = append(complainants, u)
	}

	c.Details.Status = models.ComplaintStatus(target)
	c.Details.RejectionCount++
	c.Details.LastRejectionMessage = message
	c.Details.UpdatedAt = s.stamp()
	if err := s.complaints.PutComplaint(ctx, c); err != nil {
		return nil, nil, err
	}

	cascade := make([]SubTransition, 0, len(complainants))
	for _, u := range complainants {
		userUnlock := s.locks.lock("user:" + u.ID)
		u.Details.InvalidComplaintsCount++
		blocked := u.Details.InvalidComplaintsCount >= maxComplaintStrikes
		if blocked {
			u.Details.BlockedFromComplaints = true
		}
		u.Details.UpdatedAt = s.stamp()
		err := s.users.PutUser(ctx, u)
		userUnlock()
		if err != nil {
			return nil, nil, err
		}
		trans := "strike"
		if blocked {
			trans = "strike_blocked"
		}
		cascade = append(cascade, SubTransition{
			Entity:     "user",
			EntityID:   u.ID,
			Transition: trans,
		})
	}

	if err := s.appendComplaintHistory(ctx, c, from, actor, message); err != nil {
		return nil, nil, err
	}
	zap.S().Infow("complaint returned to complainant",
		"complaintID", complaintID.Hex(), "rejectionCount", c.Details.RejectionCount)
	return c, cascade, nil
}

// InvalidateComplaint terminates a returned complaint that has accumulated
// three strikes. The machine never fires this edge on its own.
func (s *Service) InvalidateComplaint(ctx context.Context, actor Actor, complaintID primitive.ObjectID) (*models.Complaint, error) {
	if err := requireRole(actor, RoleCadet, RoleOfficer); err != nil {
		return nil, err
	}
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintInvalidate, "", nil, func(c *models.Complaint) error {
		if c.Details.RejectionCount < maxComplaintStrikes {
			return errors.Wrapf(ErrPreconditionFailed,
				"complaint %s has %d rejections, %d required to invalidate",
				complaintID.Hex(), c.Details.RejectionCount, maxComplaintStrikes)
		}
		return nil
	}, nil)
}

// EscalateComplaintToOfficer forwards a complaint under cadet review to an
// officer.
func (s *Service) EscalateComplaintToOfficer(ctx context.Context, actor Actor, complaintID primitive.ObjectID, officerID string) (*models.Complaint, error) {
	if err := requireRole(actor, RoleCadet); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, officerID); err != nil {
		return nil, err
	}
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintEscalateOfficer, "", nil, nil, func(c *models.Complaint) {
		c.Details.AssignedOfficer = officerID
	})
}

// ReturnComplaintToCadet sends an escalated complaint back to its cadet
// with a message.
func (s *Service) ReturnComplaintToCadet(ctx context.Context, actor Actor, complaintID primitive.ObjectID, message string) (*models.Complaint, error) {
	if err := requireRole(actor, RoleOfficer); err != nil {
		return nil, err
	}
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintReturnToCadet, message, nil, nil, func(c *models.Complaint) {
		c.Details.LastRejectionMessage = message
	})
}

// ApproveComplaint accepts a complaint under officer review and opens an
// investigation case inheriting its title, description and severity, with a
// back-reference to the complaint.
func (s *Service) ApproveComplaint(ctx context.Context, actor Actor, complaintID primitive.ObjectID) (*models.Complaint, *models.Case, error) {
	if err := requireRole(actor, RoleOfficer); err != nil {
		return nil, nil, err
	}

	unlock := s.locks.lock("complaint:" + complaintID.Hex())
	defer unlock()

	c, err := s.complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, err
	}
	from := c.Details.Status
	target, err := complaintMachine.Step(Status(from), TransComplaintApprove)
	if err != nil {
		return nil, nil, err
	}

	now := s.stamp()
	cs := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseNumber:        s.newCaseNumber(),
			Status:            models.CaseCreated,
			Origin:            models.OriginComplaint,
			OriginComplaintID: c.ID,
			Title:             c.Details.Title,
			Summary:           c.Details.Description,
			CrimeSeverity:     c.Details.CrimeSeverity,
			CreatedBy:         actor.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
	if err := s.cases.PutCase(ctx, cs); err != nil {
		return nil, nil, err
	}

	c.Details.Status = models.ComplaintStatus(target)
	c.Details.UpdatedAt = now
	if err := s.complaints.PutComplaint(ctx, c); err != nil {
		return nil, nil, err
	}
	if err := s.appendComplaintHistory(ctx, c, from, actor, ""); err != nil {
		return nil, nil, err
	}
	zap.S().Infow("complaint approved",
		"complaintID", complaintID.Hex(), "caseID", cs.ID.Hex(), "caseNumber", cs.Details.CaseNumber)
	return c, cs, nil
}

// RejectComplaint terminates a complaint under review with a message.
func (s *Service) RejectComplaint(ctx context.Context, actor Actor, complaintID primitive.ObjectID, message string) (*models.Complaint, error) {
	if err := requireRole(actor, RoleCadet, RoleOfficer); err != nil {
		return nil, err
	}
	return s.stepComplaint(ctx, actor, complaintID, TransComplaintReject, message, nil, nil, func(c *models.Complaint) {
		c.Details.LastRejectionMessage = message
	})
}

// stepComplaint runs one simple complaint transition under the entity lock:
// load, pre guard (creator checks, evaluated before the state check), machine
// step, post guard (preconditions), mutate, persist, history.
func (s *Service) stepComplaint(ctx context.Context, actor Actor, complaintID primitive.ObjectID, transition, message string,
	pre, post func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error) {

	unlock := s.locks.lock("complaint:" + complaintID.Hex())
	defer unlock()

	c, err := s.complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if pre != nil {
		if err := pre(c); err != nil {
			return nil, err
		}
	}
	from := c.Details.Status
	target, err := complaintMachine.Step(Status(from), transition)
	if err != nil {
		return nil, err
	}
	if post != nil {
		if err := post(c); err != nil {
			return nil, err
		}
	}
	c.Details.Status = models.ComplaintStatus(target)
	if mutate != nil {
		mutate(c)
	}
	c.Details.UpdatedAt = s.stamp()
	if err := s.complaints.PutComplaint(ctx, c); err != nil {
		return nil, err
	}
	if err := s.appendComplaintHistory(ctx, c, from, actor, message); err != nil {
		return nil, err
	}
	zap.S().Debugw("complaint transition",
		"complaintID", complaintID.Hex(), "transition", transition, "from", from, "to", c.Details.Status)
	return c, nil
}

func (s *Service) appendComplaintHistory(ctx context.Context, c *models.Complaint, from models.ComplaintStatus, actor Actor, message string) error {
	return s.complaints.AppendComplaintHistory(ctx, models.ComplaintHistory{
		ID:          primitive.NewObjectID(),
		ComplaintID: c.ID,
		FromStatus:  from,
		ToStatus:    c.Details.Status,
		ChangedBy:   actor.ID,
		Message:     message,
		CreatedAt:   s.stamp(),
	})
}
