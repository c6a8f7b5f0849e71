package workflow

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores groups the persistence collaborators the workflow core consumes.
type Stores struct {
	Users      UserStore
	Complaints ComplaintStore
	Cases      CaseStore
	Suspects   SuspectStore
	Evidence   EvidenceStore
	Trials     TrialStore
	Bails      BailStore
	Tips       TipStore
}

// Service is the workflow core. Every state change goes through one of its
// named transition methods; nothing mutates a status field directly.
type Service struct {
	users      UserStore
	complaints ComplaintStore
	cases      CaseStore
	suspects   SuspectStore
	evidence   EvidenceStore
	trials     TrialStore
	bails      BailStore
	tips       TipStore
	gateway    PaymentGateway

	locks entityLocks
	now   func() time.Time
}

// NewService wires the workflow core to its collaborators.
func NewService(st Stores, gateway PaymentGateway) *Service {
	return &Service{
		users:      st.Users,
		complaints: st.Complaints,
		cases:      st.Cases,
		suspects:   st.Suspects,
		evidence:   st.Evidence,
		trials:     st.Trials,
		bails:      st.Bails,
		tips:       st.Tips,
		gateway:    gateway,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests and the scheduler's
// eligibility report.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubTransition is one cascading state change on a related entity, caused
// by a primary transition and applied within the same unit of work. The
// primary transition returns its cascade as data so tests can assert on
// exactly what was changed.
type SubTransition struct {
	Entity     string `json:"entity"`
	EntityID   string `json:"entityID"`
	Transition string `json:"transition"`
	From       Status `json:"from"`
	To         Status `json:"to"`
}

func (s *Service) stamp() primitive.DateTime {
	return primitive.NewDateTimeFromTime(s.now())
}
