package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	contextutils "ideascentral/internal/utils"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memoryTx)(nil)
)

// MemoryStore keeps every collection in process memory. Each instance owns its data;
// transactions hold the write lock and restore a snapshot when fn fails.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

type memoryState struct {
	seq         int64
	problems    map[string]*problemRow
	ideas       map[string]*ideaRow
	evaluations map[string]*evaluationRow
	evalByKey   map[string]string
	comments    map[string]*commentRow
	users       map[string]*models.User
	userByEmail map[string]string
}

type problemRow struct {
	seq int64
	p   models.Problem
}

type ideaRow struct {
	seq int64
	i   models.Idea
}

type evaluationRow struct {
	seq int64
	e   models.Evaluation
}

type commentRow struct {
	seq int64
	c   models.Comment
}

func newMemoryState() *memoryState {
	return &memoryState{
		problems:    map[string]*problemRow{},
		ideas:       map[string]*ideaRow{},
		evaluations: map[string]*evaluationRow{},
		evalByKey:   map[string]string{},
		comments:    map[string]*commentRow{},
		users:       map[string]*models.User{},
		userByEmail: map[string]string{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	c.seq = s.seq
	for k, v := range s.problems {
		row := *v
		row.p = cloneProblem(&v.p)
		c.problems[k] = &row
	}
	for k, v := range s.ideas {
		c.ideas[k] = &ideaRow{seq: v.seq, i: *v.i.Clone()}
	}
	for k, v := range s.evaluations {
		row := *v
		c.evaluations[k] = &row
	}
	for k, v := range s.evalByKey {
		c.evalByKey[k] = v
	}
	for k, v := range s.comments {
		row := *v
		c.comments[k] = &row
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.userByEmail {
		c.userByEmail[k] = v
	}
	return c
}

func (s *memoryState) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneProblem(p *models.Problem) models.Problem {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return c
}

func notFound(kind, id string) error {
	return contextutils.NewAppError(contextutils.ErrorCodeRecordNotFound, contextutils.SeverityInfo, kind+" not found", id)
}

// newestFirst orders by creation time descending, breaking ties by insertion order
func newestFirst(aTime, bTime time.Time, aSeq, bSeq int64) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aSeq > bSeq
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

func (s *memoryState) listProblems(filter models.ProblemFilter) []*models.Problem {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	rows := make([]*problemRow, 0, len(s.problems))
	for _, row := range s.problems {
		p := &row.p
		if !models.MatchesAllFilter(filter.Category) && p.Category != filter.Category {
			continue
		}
		if !models.MatchesAllFilter(filter.Priority) && string(p.Priority) != filter.Priority {
			continue
		}
		if filter.SubmittedBy != "" && p.SubmittedBy != filter.SubmittedBy {
			continue
		}
		if search != "" && !problemMatches(p, search) {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool {
		return newestFirst(rows[a].p.CreatedAt, rows[b].p.CreatedAt, rows[a].seq, rows[b].seq)
	})

	out := make([]*models.Problem, len(rows))
	for i, row := range rows {
		p := cloneProblem(&row.p)
		out[i] = &p
	}
	return out
}

func problemMatches(p *models.Problem, lowerSearch string) bool {
	if containsFold(p.Title, lowerSearch) || containsFold(p.Description, lowerSearch) {
		return true
	}
	for _, tag := range p.Tags {
		if containsFold(tag, lowerSearch) {
			return true
		}
	}
	return false
}

func (s *memoryState) getProblem(id string) (*models.Problem, error) {
	row, ok := s.problems[id]
	if !ok {
		return nil, notFound("problem", id)
	}
	p := cloneProblem(&row.p)
	return &p, nil
}

func (s *memoryState) insertProblem(problem *models.Problem) error {
	if _, exists := s.problems[problem.ID]; exists {
		return contextutils.NewAppError(contextutils.ErrorCodeRecordExists, contextutils.SeverityWarn, "problem already exists", problem.ID)
	}
	s.problems[problem.ID] = &problemRow{seq: s.nextSeq(), p: cloneProblem(problem)}
	return nil
}

func (s *memoryState) updateProblemStatus(id string, status models.ProblemStatus, updatedAt time.Time) error {
	row, ok := s.problems[id]
	if !ok {
		return notFound("problem", id)
	}
	row.p.Status = status
	row.p.UpdatedAt = updatedAt
	return nil
}

func (s *memoryState) incrementProblemCounter(id string, counter Counter) error {
	row, ok := s.problems[id]
	if !ok {
		return notFound("problem", id)
	}
	switch counter {
	case CounterViews:
		row.p.ViewsCount++
	case CounterIdeas:
		row.p.IdeasCount++
	case CounterComments:
		row.p.CommentsCount++
	default:
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "unknown problem counter", string(counter))
	}
	return nil
}

func (s *memoryState) problemStats() *models.ProblemStats {
	stats := &models.ProblemStats{Total: len(s.problems)}
	for _, row := range s.problems {
		switch row.p.Status {
		case models.ProblemStatusOpen:
			stats.Open++
		case models.ProblemStatusInProgress:
			stats.InProgress++
		}
		if row.p.Priority == models.PriorityUrgent {
			stats.Urgent++
		}
	}
	return stats
}

func (s *memoryState) ideaView(row *ideaRow) *models.Idea {
	idea := row.i.Clone()
	if p, ok := s.problems[idea.ProblemID]; ok {
		idea.ProblemTitle = p.p.Title
	}
	return idea
}

func (s *memoryState) listIdeas(filter models.IdeaFilter) []*models.Idea {
	rows := make([]*ideaRow, 0, len(s.ideas))
	for _, row := range s.ideas {
		i := &row.i
		if filter.ProblemID != "" && i.ProblemID != filter.ProblemID {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		if filter.SubmittedBy != "" && i.SubmittedBy != filter.SubmittedBy {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool {
		return newestFirst(rows[a].i.CreatedAt, rows[b].i.CreatedAt, rows[a].seq, rows[b].seq)
	})

	out := make([]*models.Idea, len(rows))
	for i, row := range rows {
		out[i] = s.ideaView(row)
	}
	return out
}

func (s *memoryState) getIdea(id string) (*models.Idea, error) {
	row, ok := s.ideas[id]
	if !ok {
		return nil, notFound("idea", id)
	}
	return s.ideaView(row), nil
}

func (s *memoryState) insertIdea(idea *models.Idea) error {
	if _, ok := s.problems[idea.ProblemID]; !ok {
		return notFound("problem", idea.ProblemID)
	}
	if _, exists := s.ideas[idea.ID]; exists {
		return contextutils.NewAppError(contextutils.ErrorCodeRecordExists, contextutils.SeverityWarn, "idea already exists", idea.ID)
	}
	stored := idea.Clone()
	stored.ProblemTitle = ""
	s.ideas[idea.ID] = &ideaRow{seq: s.nextSeq(), i: *stored}
	return nil
}

func (s *memoryState) updateIdeaDecision(id string, decision IdeaDecision) (*models.Idea, error) {
	row, ok := s.ideas[id]
	if !ok {
		return nil, notFound("idea", id)
	}
	if decision.ExpectedVersion != AnyVersion && row.i.Version != decision.ExpectedVersion {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeConflict, contextutils.SeverityWarn,
			"idea was modified concurrently", id)
	}

	row.i.Status = decision.Status
	row.i.Score = nil
	if decision.Score != nil {
		score := *decision.Score
		row.i.Score = &score
	}
	row.i.Version++
	row.i.UpdatedAt = decision.UpdatedAt
	return s.ideaView(row), nil
}

func (s *memoryState) listEvaluations(filter models.EvaluationFilter) []*models.EvaluationView {
	rows := make([]*evaluationRow, 0, len(s.evaluations))
	for _, row := range s.evaluations {
		if filter.IdeaID != "" && row.e.IdeaID != filter.IdeaID {
			continue
		}
		if filter.EvaluatorID != "" && row.e.EvaluatorID != filter.EvaluatorID {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool {
		return newestFirst(rows[a].e.CreatedAt, rows[b].e.CreatedAt, rows[a].seq, rows[b].seq)
	})

	out := make([]*models.EvaluationView, len(rows))
	for i, row := range rows {
		view := &models.EvaluationView{Evaluation: row.e, EvaluatorFullName: row.e.EvaluatorName}
		if idea, ok := s.ideas[row.e.IdeaID]; ok {
			view.IdeaTitle = idea.i.Title
			view.IdeaDescription = idea.i.Description
			view.SubmittedByName = idea.i.SubmittedByName
		}
		if u, ok := s.users[row.e.EvaluatorID]; ok {
			view.EvaluatorFullName = u.FullName()
		}
		out[i] = view
	}
	return out
}

func (s *memoryState) getEvaluationByKey(key string) (*models.Evaluation, error) {
	id, ok := s.evalByKey[key]
	if !ok {
		return nil, notFound("evaluation", key)
	}
	e := s.evaluations[id].e
	return &e, nil
}

func (s *memoryState) insertEvaluation(evaluation *models.Evaluation) error {
	if _, ok := s.ideas[evaluation.IdeaID]; !ok {
		return notFound("idea", evaluation.IdeaID)
	}
	if evaluation.IdempotencyKey != "" {
		if _, dup := s.evalByKey[evaluation.IdempotencyKey]; dup {
			return contextutils.NewAppError(contextutils.ErrorCodeRecordExists, contextutils.SeverityInfo,
				"evaluation already recorded", evaluation.IdempotencyKey)
		}
		s.evalByKey[evaluation.IdempotencyKey] = evaluation.ID
	}
	s.evaluations[evaluation.ID] = &evaluationRow{seq: s.nextSeq(), e: *evaluation}
	return nil
}

func (s *memoryState) listComments(problemID string) []*models.Comment {
	rows := make([]*commentRow, 0)
	for _, row := range s.comments {
		if row.c.ProblemID == problemID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(a, b int) bool {
		return newestFirst(rows[a].c.CreatedAt, rows[b].c.CreatedAt, rows[a].seq, rows[b].seq)
	})
	out := make([]*models.Comment, len(rows))
	for i, row := range rows {
		c := row.c
		out[i] = &c
	}
	return out
}

func (s *memoryState) insertComment(comment *models.Comment) error {
	if _, ok := s.problems[comment.ProblemID]; !ok {
		return notFound("problem", comment.ProblemID)
	}
	s.comments[comment.ID] = &commentRow{seq: s.nextSeq(), c: *comment}
	return nil
}

func (s *memoryState) insertUser(user *models.User) error {
	email := strings.ToLower(user.Email)
	if _, dup := s.userByEmail[email]; dup {
		return contextutils.NewAppError(contextutils.ErrorCodeRecordExists, contextutils.SeverityWarn, "user already exists", email)
	}
	u := *user
	u.Email = email
	s.users[u.ID] = &u
	s.userByEmail[email] = u.ID
	return nil
}

func (s *memoryState) getUserByID(id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	c := *u
	return &c, nil
}

func (s *memoryState) getUserByEmail(email string) (*models.User, error) {
	id, ok := s.userByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, notFound("user", email)
	}
	return s.getUserByID(id)
}

func (s *memoryState) updateUserPassword(id, hash string, updatedAt time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return notFound("user", id)
	}
	c := *u
	c.PasswordHash = hash
	c.UpdatedAt = updatedAt
	s.users[id] = &c
	return nil
}

func (s *memoryState) listUsers() []*models.User {
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Email < out[b].Email })
	return out
}

// memoryTx is the view of the state handed to a WithTx callback. The enclosing
// MemoryStore already holds the write lock.
type memoryTx struct {
	state *memoryState
}

// ListProblems implements Store
func (m *MemoryStore) ListProblems(_ context.Context, filter models.ProblemFilter) ([]*models.Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listProblems(filter), nil
}

// GetProblem implements Store
func (m *MemoryStore) GetProblem(_ context.Context, id string) (*models.Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getProblem(id)
}

// InsertProblem implements Store
func (m *MemoryStore) InsertProblem(_ context.Context, problem *models.Problem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertProblem(problem)
}

// UpdateProblemStatus implements Store
func (m *MemoryStore) UpdateProblemStatus(_ context.Context, id string, status models.ProblemStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateProblemStatus(id, status, updatedAt)
}

// IncrementProblemCounter implements Store
func (m *MemoryStore) IncrementProblemCounter(_ context.Context, id string, counter Counter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.incrementProblemCounter(id, counter)
}

// ProblemStats implements Store
func (m *MemoryStore) ProblemStats(_ context.Context) (*models.ProblemStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.problemStats(), nil
}

// ListIdeas implements Store
func (m *MemoryStore) ListIdeas(_ context.Context, filter models.IdeaFilter) ([]*models.Idea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listIdeas(filter), nil
}

// GetIdea implements Store
func (m *MemoryStore) GetIdea(_ context.Context, id string) (*models.Idea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getIdea(id)
}

// InsertIdea implements Store
func (m *MemoryStore) InsertIdea(_ context.Context, idea *models.Idea) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertIdea(idea)
}

// UpdateIdeaDecision implements Store
func (m *MemoryStore) UpdateIdeaDecision(_ context.Context, id string, decision IdeaDecision) (*models.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateIdeaDecision(id, decision)
}

// ListEvaluations implements Store
func (m *MemoryStore) ListEvaluations(_ context.Context, filter models.EvaluationFilter) ([]*models.EvaluationView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listEvaluations(filter), nil
}

// GetEvaluationByKey implements Store
func (m *MemoryStore) GetEvaluationByKey(_ context.Context, key string) (*models.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getEvaluationByKey(key)
}

// InsertEvaluation implements Store
func (m *MemoryStore) InsertEvaluation(_ context.Context, evaluation *models.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertEvaluation(evaluation)
}

// ListComments implements Store
func (m *MemoryStore) ListComments(_ context.Context, problemID string) ([]*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listComments(problemID), nil
}

// InsertComment implements Store
func (m *MemoryStore) InsertComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertComment(comment)
}

// InsertUser implements Store
func (m *MemoryStore) InsertUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insertUser(user)
}

// GetUserByID implements Store
func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getUserByID(id)
}

// GetUserByEmail implements Store
func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getUserByEmail(email)
}

// UpdateUserPassword implements Store
func (m *MemoryStore) UpdateUserPassword(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateUserPassword(id, passwordHash, updatedAt)
}

// ListUsers implements Store
func (m *MemoryStore) ListUsers(_ context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listUsers(), nil
}

// WithTx implements Store. The write lock is held for the whole callback.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseTransaction, contextutils.SeverityWarn, "transaction not started", err.Error(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memoryTx{state: m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// Backend implements Store
func (m *MemoryStore) Backend() string { return config.StoreBackendMemory }

// Close implements Store
func (m *MemoryStore) Close() error { return nil }

func (t *memoryTx) ListProblems(_ context.Context, filter models.ProblemFilter) ([]*models.Problem, error) {
	return t.state.listProblems(filter), nil
}

func (t *memoryTx) GetProblem(_ context.Context, id string) (*models.Problem, error) {
	return t.state.getProblem(id)
}

func (t *memoryTx) InsertProblem(_ context.Context, problem *models.Problem) error {
	return t.state.insertProblem(problem)
}

func (t *memoryTx) UpdateProblemStatus(_ context.Context, id string, status models.ProblemStatus, updatedAt time.Time) error {
	return t.state.updateProblemStatus(id, status, updatedAt)
}

func (t *memoryTx) IncrementProblemCounter(_ context.Context, id string, counter Counter) error {
	return t.state.incrementProblemCounter(id, counter)
}

func (t *memoryTx) ProblemStats(_ context.Context) (*models.ProblemStats, error) {
	return t.state.problemStats(), nil
}

func (t *memoryTx) ListIdeas(_ context.Context, filter models.IdeaFilter) ([]*models.Idea, error) {
	return t.state.listIdeas(filter), nil
}

func (t *memoryTx) GetIdea(_ context.Context, id string) (*models.Idea, error) {
	return t.state.getIdea(id)
}

func (t *memoryTx) InsertIdea(_ context.Context, idea *models.Idea) error {
	return t.state.insertIdea(idea)
}

func (t *memoryTx) UpdateIdeaDecision(_ context.Context, id string, decision IdeaDecision) (*models.Idea, error) {
	return t.state.updateIdeaDecision(id, decision)
}

func (t *memoryTx) ListEvaluations(_ context.Context, filter models.EvaluationFilter) ([]*models.EvaluationView, error) {
	return t.state.listEvaluations(filter), nil
}

func (t *memoryTx) GetEvaluationByKey(_ context.Context, key string) (*models.Evaluation, error) {
	return t.state.getEvaluationByKey(key)
}

func (t *memoryTx) InsertEvaluation(_ context.Context, evaluation *models.Evaluation) error {
	return t.state.insertEvaluation(evaluation)
}

func (t *memoryTx) ListComments(_ context.Context, problemID string) ([]*models.Comment, error) {
	return t.state.listComments(problemID), nil
}

func (t *memoryTx) InsertComment(_ context.Context, comment *models.Comment) error {
	return t.state.insertComment(comment)
}

func (t *memoryTx) InsertUser(_ context.Context, user *models.User) error {
	return t.state.insertUser(user)
}

func (t *memoryTx) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return t.state.getUserByID(id)
}

func (t *memoryTx) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return t.state.getUserByEmail(email)
}

func (t *memoryTx) UpdateUserPassword(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	return t.state.updateUserPassword(id, passwordHash, updatedAt)
}

func (t *memoryTx) ListUsers(_ context.Context) ([]*models.User, error) {
	return t.state.listUsers(), nil
}

// WithTx joins the running transaction
func (t *memoryTx) WithTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) Backend() string { return config.StoreBackendMemory }

func (t *memoryTx) Close() error { return nil }
