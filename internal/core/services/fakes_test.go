package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
)

type fakeAnswerStore struct {
	mu        sync.Mutex
	answers   []domain.Answer
	insertErr error
	batchErr  error
	batches   int
	onBatch   func()
}

func (s *fakeAnswerStore) Insert(ctx context.Context, answer *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.answers = append(s.answers, *answer)
	return nil
}

func (s *fakeAnswerStore) InsertBatch(ctx context.Context, answers []domain.Answer) error {
	if s.onBatch != nil {
		s.onBatch()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	if s.batchErr != nil {
		return s.batchErr
	}
	known := make(map[uuid.UUID]bool, len(s.answers))
	for _, a := range s.answers {
		known[a.ID] = true
	}
	for _, a := range answers {
		if !known[a.ID] {
			s.answers = append(s.answers, a)
		}
	}
	return nil
}

func (s *fakeAnswerStore) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Answer
	for _, a := range s.answers {
		if a.SurveyID == surveyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAnswerStore) ListBySurveyAndResearcher(ctx context.Context, surveyID, researcherID uuid.UUID) ([]domain.Answer, error) {
	all, _ := s.ListBySurvey(ctx, surveyID)
	var out []domain.Answer
	for _, a := range all {
		if a.ResearcherID == researcherID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAnswerStore) stored() []domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Answer(nil), s.answers...)
}

type fakeConnectivity struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

func (c *fakeConnectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *fakeConnectivity) Subscribe() (<-chan bool, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan bool, 4)
	c.subs = append(c.subs, ch)
	return ch, func() {}
}

func (c *fakeConnectivity) set(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
	for _, ch := range c.subs {
		ch <- online
	}
}

type memLocalStore struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMemLocalStore() *memLocalStore {
	return &memLocalStore{data: make(map[string]string)}
}

func (m *memLocalStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memLocalStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memLocalStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fakeSurveyRepo struct {
	mu      sync.Mutex
	surveys map[uuid.UUID]*domain.Survey
	codes   map[string]bool
	saveErr []error
}

func newFakeSurveyRepo(surveys ...*domain.Survey) *fakeSurveyRepo {
	r := &fakeSurveyRepo{surveys: make(map[uuid.UUID]*domain.Survey), codes: make(map[string]bool)}
	for _, s := range surveys {
		r.surveys[s.ID] = s
		r.codes[s.Code] = true
	}
	return r
}

func (r *fakeSurveyRepo) Save(ctx context.Context, survey *domain.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saveErr) > 0 {
		err := r.saveErr[0]
		r.saveErr = r.saveErr[1:]
		if err != nil {
			return err
		}
	}
	if r.codes[survey.Code] {
		return domain.ErrDuplicateCode
	}
	cp := *survey
	r.surveys[survey.ID] = &cp
	r.codes[survey.Code] = true
	return nil
}

func (r *fakeSurveyRepo) Update(ctx context.Context, survey *domain.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[survey.ID]; !ok {
		return domain.ErrSurveyNotFound
	}
	cp := *survey
	r.surveys[survey.ID] = &cp
	return nil
}

func (r *fakeSurveyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[id]; !ok {
		return domain.ErrSurveyNotFound
	}
	delete(r.surveys, id)
	return nil
}

func (r *fakeSurveyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	cp := *s
	cp.Questions = append([]domain.Question(nil), s.Questions...)
	return &cp, nil
}

func (r *fakeSurveyRepo) GetAll(ctx context.Context) ([]*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Survey
	for _, s := range r.surveys {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports []*domain.Report
	saveErr error
}

func (r *fakeReportRepo) Save(ctx context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.reports = append(r.reports, report)
	return nil
}

func (r *fakeReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.ID == id {
			return rep, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

func (r *fakeReportRepo) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Report
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].SurveyID == surveyID {
			out = append(out, r.reports[i])
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if role == "" || u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeAuthRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeAuthRepo) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.New()
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *fakeAuthRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID.String() == id {
			t.Revoked = true
			return nil
		}
	}
	return errors.New("token not found")
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*domain.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uuid.UUID]*domain.Assignment)}
}

func (r *fakeAssignmentRepo) Save(ctx context.Context, a *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, domain.ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAssignmentRepo) UpdateStatus(ctx context.Context, a *domain.Assignment) error {
	return r.Save(ctx, a)
}

func (r *fakeAssignmentRepo) ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Assignment
	for _, a := range r.assignments {
		if a.ResearcherID == researcherID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Assignment
	for _, a := range r.assignments {
		if a.SurveyID == surveyID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
