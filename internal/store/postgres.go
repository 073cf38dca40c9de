package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

var _ Store = (*PostgresStore)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore implements Store over database/sql with the lib/pq driver
type PostgresStore struct {
	db     *sql.DB
	q      querier
	tx     *sql.Tx
	logger *observability.Logger
}

// NewPostgresStore wraps an open connection pool
func NewPostgresStore(db *sql.DB, logger *observability.Logger) *PostgresStore {
	return &PostgresStore{db: db, q: db, logger: logger}
}

const (
	problemColumns = `id, title, description, full_description, category, priority, status, tags,
		submitted_by, submitted_by_name, department, views_count, ideas_count, comments_count, created_at, updated_at`
	ideaColumns = `i.id, i.problem_id, i.title, i.description, i.solution, i.implementation, i.resources, i.timeline,
		i.submitted_by, i.submitted_by_name, i.submitted_by_email, i.status, i.score, i.version, i.created_at, i.updated_at,
		COALESCE(p.title, '')`
	evaluationColumns = `e.id, e.idea_id, e.evaluator_id, e.evaluator_name, e.innovation_score, e.feasibility_score,
		e.impact_score, e.overall_score, e.comments, e.status, e.idempotency_key, e.created_at, e.updated_at`
	userColumns = `id, email, password_hash, first_name, last_name, role, department, student_id, created_at, updated_at`
)

// mapError converts driver errors into AppErrors with the codes the Store contract promises
func mapError(err error, kind, id, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRecordExists, contextutils.SeverityInfo, kind+" already exists", id, err)
		case "23503":
			return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRecordNotFound, contextutils.SeverityInfo, "referenced record not found", pqErr.Detail, err)
		}
	}
	return contextutils.WrapPersistence(err, msg)
}

// whereBuilder accumulates AND-ed conditions with numbered placeholders
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends cond; every ? in cond binds to arg
func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProblem(row rowScanner) (*models.Problem, error) {
	var p models.Problem
	var tags []string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.FullDescription, &p.Category, &p.Priority, &p.Status,
		pq.Array(&tags), &p.SubmittedBy, &p.SubmittedByName, &p.Department,
		&p.ViewsCount, &p.IdeasCount, &p.CommentsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	p.Tags = tags
	return &p, nil
}

func scanIdea(row rowScanner) (*models.Idea, error) {
	var i models.Idea
	var score sql.NullFloat64
	err := row.Scan(&i.ID, &i.ProblemID, &i.Title, &i.Description, &i.Solution, &i.Implementation, &i.Resources,
		&i.Timeline, &i.SubmittedBy, &i.SubmittedByName, &i.SubmittedByEmail, &i.Status, &score, &i.Version,
		&i.CreatedAt, &i.UpdatedAt, &i.ProblemTitle)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		s := score.Float64
		i.Score = &s
	}
	return &i, nil
}

func scanEvaluation(row rowScanner, extra ...interface{}) (*models.Evaluation, error) {
	var e models.Evaluation
	dest := []interface{}{&e.ID, &e.IdeaID, &e.EvaluatorID, &e.EvaluatorName, &e.InnovationScore, &e.FeasibilityScore,
		&e.ImpactScore, &e.OverallScore, &e.Comments, &e.Status, &e.IdempotencyKey, &e.CreatedAt, &e.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.Department, &u.StudentID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListProblems implements Store
func (s *PostgresStore) ListProblems(ctx context.Context, filter models.ProblemFilter) (result0 []*models.Problem, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ListProblems", observability.AttributeSearch(filter.Search))
	defer observability.FinishSpan(span, &err)

	var where whereBuilder
	if !models.MatchesAllFilter(filter.Category) {
		where.add("category = ?", filter.Category)
	}
	if !models.MatchesAllFilter(filter.Priority) {
		where.add("priority = ?", filter.Priority)
	}
	if filter.SubmittedBy != "" {
		where.add("submitted_by = ?", filter.SubmittedBy)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where.add(`(title ILIKE ? OR description ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE ?))`, likePattern(search))
	}

	query := "SELECT " + problemColumns + " FROM problems" + where.String() + " ORDER BY created_at DESC, seq DESC"
	rows, err := s.q.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "problem", "", "failed to list problems")
	}
	defer func() { _ = rows.Close() }()

	problems := []*models.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, mapError(err, "problem", "", "failed to scan problem")
		}
		problems = append(problems, p)
	}
	return problems, mapError(rows.Err(), "problem", "", "failed to iterate problems")
}

// GetProblem implements Store
func (s *PostgresStore) GetProblem(ctx context.Context, id string) (result0 *models.Problem, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "GetProblem", observability.AttributeProblemID(id))
	defer observability.FinishSpan(span, &err)

	p, err := scanProblem(s.q.QueryRowContext(ctx, "SELECT "+problemColumns+" FROM problems WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, "problem", id, "failed to get problem")
	}
	return p, nil
}

// InsertProblem implements Store
func (s *PostgresStore) InsertProblem(ctx context.Context, p *models.Problem) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertProblem", observability.AttributeProblemID(p.ID))
	defer observability.FinishSpan(span, &err)

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err = s.q.ExecContext(ctx, `INSERT INTO problems (id, title, description, full_description, category, priority, status, tags,
		submitted_by, submitted_by_name, department, views_count, ideas_count, comments_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.Title, p.Description, p.FullDescription, p.Category, p.Priority, p.Status, pq.Array(tags),
		p.SubmittedBy, p.SubmittedByName, p.Department, p.ViewsCount, p.IdeasCount, p.CommentsCount, p.CreatedAt, p.UpdatedAt)
	return mapError(err, "problem", p.ID, "failed to insert problem")
}

// UpdateProblemStatus implements Store
func (s *PostgresStore) UpdateProblemStatus(ctx context.Context, id string, status models.ProblemStatus, updatedAt time.Time) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "UpdateProblemStatus",
		observability.AttributeProblemID(id), observability.AttributeStatus(string(status)))
	defer observability.FinishSpan(span, &err)

	res, err := s.q.ExecContext(ctx, `UPDATE problems SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return mapError(err, "problem", id, "failed to update problem status")
	}
	return requireAffected(res, "problem", id)
}

// IncrementProblemCounter implements Store
func (s *PostgresStore) IncrementProblemCounter(ctx context.Context, id string, counter Counter) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "IncrementProblemCounter",
		observability.AttributeProblemID(id), attribute.String("counter", string(counter)))
	defer observability.FinishSpan(span, &err)

	if !counter.valid() {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "unknown problem counter", string(counter))
	}
	// counter is one of three fixed column names
	res, err := s.q.ExecContext(ctx, fmt.Sprintf(`UPDATE problems SET %[1]s = %[1]s + 1 WHERE id = $1`, counter), id)
	if err != nil {
		return mapError(err, "problem", id, "failed to increment problem counter")
	}
	return requireAffected(res, "problem", id)
}

// ProblemStats implements Store
func (s *PostgresStore) ProblemStats(ctx context.Context) (result0 *models.ProblemStats, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ProblemStats")
	defer observability.FinishSpan(span, &err)

	var stats models.ProblemStats
	err = s.q.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'open'),
		COUNT(*) FILTER (WHERE priority = 'urgent'),
		COUNT(*) FILTER (WHERE status = 'in-progress')
		FROM problems`).Scan(&stats.Total, &stats.Open, &stats.Urgent, &stats.InProgress)
	if err != nil {
		return nil, mapError(err, "problem", "", "failed to compute problem stats")
	}
	return &stats, nil
}

// ListIdeas implements Store
func (s *PostgresStore) ListIdeas(ctx context.Context, filter models.IdeaFilter) (result0 []*models.Idea, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ListIdeas",
		observability.AttributeProblemID(filter.ProblemID), observability.AttributeStatus(string(filter.Status)))
	defer observability.FinishSpan(span, &err)

	var where whereBuilder
	if filter.ProblemID != "" {
		where.add("i.problem_id = ?", filter.ProblemID)
	}
	if filter.Status != "" {
		where.add("i.status = ?", filter.Status)
	}
	if filter.SubmittedBy != "" {
		where.add("i.submitted_by = ?", filter.SubmittedBy)
	}

	query := "SELECT " + ideaColumns + " FROM ideas i LEFT JOIN problems p ON p.id = i.problem_id" +
		where.String() + " ORDER BY i.created_at DESC, i.seq DESC"
	rows, err := s.q.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "idea", "", "failed to list ideas")
	}
	defer func() { _ = rows.Close() }()

	ideas := []*models.Idea{}
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, mapError(err, "idea", "", "failed to scan idea")
		}
		ideas = append(ideas, i)
	}
	return ideas, mapError(rows.Err(), "idea", "", "failed to iterate ideas")
}

// GetIdea implements Store
func (s *PostgresStore) GetIdea(ctx context.Context, id string) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "GetIdea", observability.AttributeIdeaID(id))
	defer observability.FinishSpan(span, &err)

	i, err := scanIdea(s.q.QueryRowContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas i LEFT JOIN problems p ON p.id = i.problem_id WHERE i.id = $1", id))
	if err != nil {
		return nil, mapError(err, "idea", id, "failed to get idea")
	}
	return i, nil
}

// InsertIdea implements Store
func (s *PostgresStore) InsertIdea(ctx context.Context, i *models.Idea) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertIdea",
		observability.AttributeIdeaID(i.ID), observability.AttributeProblemID(i.ProblemID))
	defer observability.FinishSpan(span, &err)

	var score sql.NullFloat64
	if i.Score != nil {
		score = sql.NullFloat64{Float64: *i.Score, Valid: true}
	}
	_, err = s.q.ExecContext(ctx, `INSERT INTO ideas (id, problem_id, title, description, solution, implementation, resources,
		timeline, submitted_by, submitted_by_name, submitted_by_email, status, score, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		i.ID, i.ProblemID, i.Title, i.Description, i.Solution, i.Implementation, i.Resources, i.Timeline,
		i.SubmittedBy, i.SubmittedByName, i.SubmittedByEmail, i.Status, score, i.Version, i.CreatedAt, i.UpdatedAt)
	return mapError(err, "idea", i.ID, "failed to insert idea")
}

// UpdateIdeaDecision implements Store with a conditional update on the version column
func (s *PostgresStore) UpdateIdeaDecision(ctx context.Context, id string, d IdeaDecision) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "UpdateIdeaDecision",
		observability.AttributeIdeaID(id), observability.AttributeStatus(string(d.Status)),
		attribute.Int("expected_version", d.ExpectedVersion))
	defer observability.FinishSpan(span, &err)

	var score sql.NullFloat64
	if d.Score != nil {
		score = sql.NullFloat64{Float64: *d.Score, Valid: true}
	}
	res, err := s.q.ExecContext(ctx, `UPDATE ideas SET status = $1, score = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND ($5 = 0 OR version = $5)`,
		d.Status, score, d.UpdatedAt, id, d.ExpectedVersion)
	if err != nil {
		return nil, mapError(err, "idea", id, "failed to update idea decision")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, mapError(err, "idea", id, "failed to check rows affected")
	}
	if n == 0 {
		// Distinguish a missing idea from a lost race
		if _, getErr := s.GetIdea(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, contextutils.NewAppError(contextutils.ErrorCodeConflict, contextutils.SeverityWarn,
			"idea was modified concurrently", id)
	}
	return s.GetIdea(ctx, id)
}

// ListEvaluations implements Store
func (s *PostgresStore) ListEvaluations(ctx context.Context, filter models.EvaluationFilter) (result0 []*models.EvaluationView, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ListEvaluations",
		observability.AttributeIdeaID(filter.IdeaID), observability.AttributeEvaluatorID(filter.EvaluatorID))
	defer observability.FinishSpan(span, &err)

	var where whereBuilder
	if filter.IdeaID != "" {
		where.add("e.idea_id = ?", filter.IdeaID)
	}
	if filter.EvaluatorID != "" {
		where.add("e.evaluator_id = ?", filter.EvaluatorID)
	}

	query := "SELECT " + evaluationColumns + `,
		COALESCE(i.title, ''), COALESCE(i.description, ''), COALESCE(i.submitted_by_name, ''),
		COALESCE(NULLIF(TRIM(CONCAT(u.first_name, ' ', u.last_name)), ''), e.evaluator_name)
		FROM evaluations e
		LEFT JOIN ideas i ON i.id = e.idea_id
		LEFT JOIN users u ON u.id = e.evaluator_id` + where.String() + " ORDER BY e.created_at DESC, e.seq DESC"

	rows, err := s.q.QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "evaluation", "", "failed to list evaluations")
	}
	defer func() { _ = rows.Close() }()

	views := []*models.EvaluationView{}
	for rows.Next() {
		var v models.EvaluationView
		e, err := scanEvaluation(rows, &v.IdeaTitle, &v.IdeaDescription, &v.SubmittedByName, &v.EvaluatorFullName)
		if err != nil {
			return nil, mapError(err, "evaluation", "", "failed to scan evaluation")
		}
		v.Evaluation = *e
		views = append(views, &v)
	}
	return views, mapError(rows.Err(), "evaluation", "", "failed to iterate evaluations")
}

// GetEvaluationByKey implements Store
func (s *PostgresStore) GetEvaluationByKey(ctx context.Context, key string) (result0 *models.Evaluation, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "GetEvaluationByKey", attribute.String("idempotency_key", key))
	defer observability.FinishSpan(span, &err)

	e, err := scanEvaluation(s.q.QueryRowContext(ctx,
		"SELECT "+evaluationColumns+" FROM evaluations e WHERE e.idempotency_key = $1", key))
	if err != nil {
		return nil, mapError(err, "evaluation", key, "failed to get evaluation")
	}
	return e, nil
}

// InsertEvaluation implements Store
func (s *PostgresStore) InsertEvaluation(ctx context.Context, e *models.Evaluation) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertEvaluation",
		observability.AttributeIdeaID(e.IdeaID), observability.AttributeEvaluatorID(e.EvaluatorID))
	defer observability.FinishSpan(span, &err)

	key := e.IdempotencyKey
	if key == "" {
		key = e.ID
	}
	_, err = s.q.ExecContext(ctx, `INSERT INTO evaluations (id, idea_id, evaluator_id, evaluator_name, innovation_score,
		feasibility_score, impact_score, overall_score, comments, status, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.IdeaID, e.EvaluatorID, e.EvaluatorName, e.InnovationScore, e.FeasibilityScore, e.ImpactScore,
		e.OverallScore, e.Comments, e.Status, key, e.CreatedAt, e.UpdatedAt)
	return mapError(err, "evaluation", key, "failed to insert evaluation")
}

// ListComments implements Store
func (s *PostgresStore) ListComments(ctx context.Context, problemID string) (result0 []*models.Comment, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ListComments", observability.AttributeProblemID(problemID))
	defer observability.FinishSpan(span, &err)

	rows, err := s.q.QueryContext(ctx, `SELECT id, problem_id, user_id, user_name, content, created_at, updated_at
		FROM comments WHERE problem_id = $1 ORDER BY created_at DESC, seq DESC`, problemID)
	if err != nil {
		return nil, mapError(err, "comment", "", "failed to list comments")
	}
	defer func() { _ = rows.Close() }()

	comments := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ProblemID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapError(err, "comment", "", "failed to scan comment")
		}
		comments = append(comments, &c)
	}
	return comments, mapError(rows.Err(), "comment", "", "failed to iterate comments")
}

// InsertComment implements Store
func (s *PostgresStore) InsertComment(ctx context.Context, c *models.Comment) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertComment", observability.AttributeProblemID(c.ProblemID))
	defer observability.FinishSpan(span, &err)

	_, err = s.q.ExecContext(ctx, `INSERT INTO comments (id, problem_id, user_id, user_name, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ProblemID, c.UserID, c.UserName, c.Content, c.CreatedAt, c.UpdatedAt)
	return mapError(err, "comment", c.ID, "failed to insert comment")
}

// InsertUser implements Store
func (s *PostgresStore) InsertUser(ctx context.Context, u *models.User) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertUser", observability.AttributeUserID(u.ID))
	defer observability.FinishSpan(span, &err)

	_, err = s.q.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Department, u.StudentID,
		u.CreatedAt, u.UpdatedAt)
	return mapError(err, "user", u.Email, "failed to insert user")
}

// GetUserByID implements Store
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (result0 *models.User, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "GetUserByID", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	u, err := scanUser(s.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, "user", id, "failed to get user")
	}
	return u, nil
}

// GetUserByEmail implements Store
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "GetUserByEmail")
	defer observability.FinishSpan(span, &err)

	normalized := strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(s.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", normalized))
	if err != nil {
		return nil, mapError(err, "user", normalized, "failed to get user")
	}
	return u, nil
}

// UpdateUserPassword implements Store
func (s *PostgresStore) UpdateUserPassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "UpdateUserPassword", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	res, err := s.q.ExecContext(ctx, "UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1", id, passwordHash, updatedAt)
	if err != nil {
		return mapError(err, "user", id, "failed to update password")
	}
	return requireAffected(res, "user", id)
}

// ListUsers implements Store
func (s *PostgresStore) ListUsers(ctx context.Context) (result0 []*models.User, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ListUsers")
	defer observability.FinishSpan(span, &err)

	rows, err := s.q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY email")
	if err != nil {
		return nil, mapError(err, "user", "", "failed to list users")
	}
	defer func() { _ = rows.Close() }()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err, "user", "", "failed to scan user")
		}
		users = append(users, u)
	}
	return users, mapError(rows.Err(), "user", "", "failed to iterate users")
}

// WithTx implements Store. Nested calls join the outer transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	ctx, span := observability.TraceStoreFunction(ctx, "WithTx", observability.AttributeBackend(s.Backend()))
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseTransaction, contextutils.SeverityError,
			"failed to begin transaction", err.Error(), err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error(ctx, "Failed to roll back transaction", rbErr)
		}
	}()

	if err = fn(&PostgresStore{db: s.db, q: tx, tx: tx, logger: s.logger}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseTransaction, contextutils.SeverityError,
			"failed to commit transaction", err.Error(), err)
	}
	committed = true
	return nil
}

// Backend implements Store
func (s *PostgresStore) Backend() string { return config.StoreBackendPostgres }

// Close implements Store. Closing a transaction-scoped view is a no-op.
func (s *PostgresStore) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, kind, id, "failed to check rows affected")
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}
