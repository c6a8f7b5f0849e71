package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parsaivi/police-department-api/models"
)

// memStore is an in-memory implementation of every store interface, good
// enough to exercise the workflow core without mongo.
type memStore struct {
	mu sync.Mutex

	users            map[string]models.User
	complaints       map[primitive.ObjectID]models.Complaint
	complaintHistory []models.ComplaintHistory
	cases            map[primitive.ObjectID]models.Case
	caseHistory      []models.CaseHistory
	witnesses        []models.CrimeSceneWitness
	suspects         map[primitive.ObjectID]models.Suspect
	links            []models.CaseSuspect
	interrogations   []models.Interrogation
	evidence         map[primitive.ObjectID]models.Evidence
	testimonies      []models.Testimony
	trials           map[primitive.ObjectID]models.Trial
	sentences        []models.Sentence
	bails            map[primitive.ObjectID]models.Bail
	tips             map[primitive.ObjectID]models.Tip
	rewardCodes      map[string]models.RewardCode
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]models.User{},
		complaints:  map[primitive.ObjectID]models.Complaint{},
		cases:       map[primitive.ObjectID]models.Case{},
		suspects:    map[primitive.ObjectID]models.Suspect{},
		evidence:    map[primitive.ObjectID]models.Evidence{},
		trials:      map[primitive.ObjectID]models.Trial{},
		bails:       map[primitive.ObjectID]models.Bail{},
		tips:        map[primitive.ObjectID]models.Tip{},
		rewardCodes: map[string]models.RewardCode{},
	}
}

func (m *memStore) stores() Stores {
	return Stores{
		Users:      m,
		Complaints: m,
		Cases:      m,
		Suspects:   m,
		Evidence:   m,
		Trials:     m,
		Bails:      m,
		Tips:       m,
	}
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "user %s", id)
	}
	return &u, nil
}

func (m *memStore) PutUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetComplaint(_ context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "complaint %s", id.Hex())
	}
	return &c, nil
}

func (m *memStore) PutComplaint(_ context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaints[c.ID] = *c
	return nil
}

func (m *memStore) AppendComplaintHistory(_ context.Context, h models.ComplaintHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaintHistory = append(m.complaintHistory, h)
	return nil
}

func (m *memStore) GetCase(_ context.Context, id primitive.ObjectID) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "case %s", id.Hex())
	}
	return &c, nil
}

func (m *memStore) PutCase(_ context.Context, c *models.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[c.ID] = *c
	return nil
}

func (m *memStore) AppendCaseHistory(_ context.Context, h models.CaseHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caseHistory = append(m.caseHistory, h)
	return nil
}

func (m *memStore) ListCaseHistory(_ context.Context, caseID primitive.ObjectID) ([]models.CaseHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CaseHistory
	for _, h := range m.caseHistory {
		if h.CaseID == caseID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) AddWitness(_ context.Context, w models.CrimeSceneWitness) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.witnesses = append(m.witnesses, w)
	return nil
}

func (m *memStore) ListWitnesses(_ context.Context, caseID primitive.ObjectID) ([]models.CrimeSceneWitness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CrimeSceneWitness
	for _, w := range m.witnesses {
		if w.Details.CaseID == caseID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStore) GetSuspect(_ context.Context, id primitive.ObjectID) (*models.Suspect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suspects[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "suspect %s", id.Hex())
	}
	return &s, nil
}

func (m *memStore) PutSuspect(_ context.Context, s *models.Suspect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspects[s.ID] = *s
	return nil
}

func (m *memStore) ListSuspectsByStatus(_ context.Context, statuses ...models.SuspectStatus) ([]models.Suspect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Suspect
	for _, s := range m.suspects {
		for _, st := range statuses {
			if s.Details.Status == st {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) LinksByCase(_ context.Context, caseID primitive.ObjectID) ([]models.CaseSuspect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CaseSuspect
	for _, l := range m.links {
		if l.CaseID == caseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) LinksBySuspect(_ context.Context, suspectID primitive.ObjectID) ([]models.CaseSuspect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CaseSuspect
	for _, l := range m.links {
		if l.SuspectID == suspectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) AddLink(_ context.Context, link models.CaseSuspect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *memStore) AddInterrogation(_ context.Context, in models.Interrogation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrogations = append(m.interrogations, in)
	return nil
}

func (m *memStore) ListInterrogationsByCase(_ context.Context, caseID primitive.ObjectID) ([]models.Interrogation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Interrogation
	for _, in := range m.interrogations {
		if in.Details.CaseID == caseID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memStore) GetEvidence(_ context.Context, id primitive.ObjectID) (*models.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.evidence[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "evidence %s", id.Hex())
	}
	return &e, nil
}

func (m *memStore) PutEvidence(_ context.Context, e *models.Evidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence[e.ID] = *e
	return nil
}

func (m *memStore) ListEvidenceByCase(_ context.Context, caseID primitive.ObjectID) ([]models.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Evidence
	for _, e := range m.evidence {
		if e.Details.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) AddTestimony(_ context.Context, tm models.Testimony) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.testimonies = append(m.testimonies, tm)
	return nil
}

func (m *memStore) ListTestimoniesByCase(_ context.Context, caseID primitive.ObjectID) ([]models.Testimony, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Testimony
	for _, tm := range m.testimonies {
		if tm.Details.CaseID == caseID {
			out = append(out, tm)
		}
	}
	return out, nil
}

func (m *memStore) GetTrial(_ context.Context, id primitive.ObjectID) (*models.Trial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trials[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "trial %s", id.Hex())
	}
	return &t, nil
}

func (m *memStore) GetTrialByCase(_ context.Context, caseID primitive.ObjectID) (*models.Trial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trials {
		if t.Details.CaseID == caseID {
			out := t
			return &out, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "trial for case %s", caseID.Hex())
}

func (m *memStore) PutTrial(_ context.Context, t *models.Trial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trials[t.ID] = *t
	return nil
}

func (m *memStore) AddSentence(_ context.Context, s models.Sentence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentences = append(m.sentences, s)
	return nil
}

func (m *memStore) GetBail(_ context.Context, id primitive.ObjectID) (*models.Bail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bails[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "bail %s", id.Hex())
	}
	return &b, nil
}

func (m *memStore) GetBailByTrackID(_ context.Context, trackID string) (*models.Bail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bails {
		if b.Details.PaymentTrackID == trackID {
			out := b
			return &out, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "bail with track %s", trackID)
}

func (m *memStore) PutBail(_ context.Context, b *models.Bail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bails[b.ID] = *b
	return nil
}

func (m *memStore) PendingBySuspect(_ context.Context, suspectID primitive.ObjectID) (*models.Bail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bails {
		if b.Details.SuspectID == suspectID && b.Details.Status == models.BailPending {
			out := b
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetTip(_ context.Context, id primitive.ObjectID) (*models.Tip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tips[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "tip %s", id.Hex())
	}
	return &t, nil
}

func (m *memStore) PutTip(_ context.Context, t *models.Tip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tips[t.ID] = *t
	return nil
}

func (m *memStore) GetRewardCode(_ context.Context, code string) (*models.RewardCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.rewardCodes[code]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "reward code %s", code)
	}
	return &rc, nil
}

func (m *memStore) PutRewardCode(_ context.Context, rc *models.RewardCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewardCodes[rc.Details.Code] = *rc
	return nil
}

// fakeGateway is a scripted PaymentGateway. onVerify, when set, runs during
// the verify call so tests can interleave other operations with it.
type fakeGateway struct {
	trackID    string
	requestErr error
	verified   bool
	verifyErr  error
	requests   int
	onVerify   func()
}

func (g *fakeGateway) RequestPayment(_ context.Context, amount int64, callbackRef string) (string, error) {
	g.requests++
	if g.requestErr != nil {
		return "", g.requestErr
	}
	return g.trackID, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, trackID string) (bool, error) {
	if g.onVerify != nil {
		g.onVerify()
	}
	if g.verifyErr != nil {
		return false, g.verifyErr
	}
	return g.verified, nil
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Seeded actors shared across the workflow tests
var (
	citizen   = Actor{ID: "u-citizen", Roles: []string{string(RoleCitizen)}}
	citizen2  = Actor{ID: "u-citizen2", Roles: []string{string(RoleCitizen)}}
	cadet     = Actor{ID: "u-cadet", Roles: []string{string(RoleCadet)}}
	officer   = Actor{ID: "u-officer", Roles: []string{string(RoleOfficer)}}
	detective = Actor{ID: "u-detective", Roles: []string{string(RoleDetective)}}
	sergeant  = Actor{ID: "u-sergeant", Roles: []string{string(RoleSergeant)}}
	captain   = Actor{ID: "u-captain", Roles: []string{string(RoleCaptain)}}
	chief     = Actor{ID: "u-chief", Roles: []string{string(RoleChief)}}
	judge     = Actor{ID: "u-judge", Roles: []string{string(RoleJudge)}}
)

func seedUsers(m *memStore) {
	for _, a := range []Actor{citizen, citizen2, cadet, officer, detective, sergeant, captain, chief, judge} {
		m.users[a.ID] = models.User{
			ID: a.ID,
			Details: models.UserDetails{
				Username:   a.ID,
				NationalID: "nid-" + a.ID,
				Roles:      a.Roles,
			},
		}
	}
}

// newTestService builds a service over the in-memory store with a fixed
// clock.
func newTestService() (*Service, *memStore, *fakeGateway, *testClock) {
	m := newMemStore()
	seedUsers(m)
	gw := &fakeGateway{trackID: "track-1", verified: true}
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(m.stores(), gw).WithClock(clock.Now)
	return svc, m, gw, clock
}
