// Package sqlite implements storage.Store backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/optivet/optivet/internal/optimization"
	"github.com/optivet/optivet/internal/storage"

	_ "modernc.org/sqlite"
)

// Store implements storage.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateAnalysis(ctx context.Context, a *optimization.Analysis) error {
	a.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, language, source_path, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, string(a.Language), a.SourcePath, a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

func (s *Store) CreateOpportunity(ctx context.Context, o *optimization.Opportunity) error {
	o.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO opportunities (id, analysis_id, description, created_at)
		VALUES (?, ?, ?, ?)`,
		o.ID, o.AnalysisID, o.Description, o.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting opportunity: %w", err)
	}
	return nil
}

func (s *Store) CreateOptimization(ctx context.Context, o *optimization.Optimization) error {
	if err := o.Validate(); err != nil {
		return err
	}
	o.CreatedAt = time.Now().UTC()

	lang, err := s.languageForOpportunity(ctx, o.OpportunityID)
	if err != nil {
		return fmt.Errorf("resolving language: %w", err)
	}
	fp := optimization.Fingerprint(lang, o.OriginalCode, o.OptimizedCode)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO optimizations (id, opportunity_id, original_code, optimized_code, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.OpportunityID, o.OriginalCode, o.OptimizedCode, fp, o.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting optimization: %w", err)
	}
	return nil
}

func (s *Store) GetOptimization(ctx context.Context, id string) (*optimization.Optimization, error) {
	// Try exact match first, then prefix match
	o, err := s.getOptimizationExact(ctx, id)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, opportunity_id, original_code, optimized_code, created_at
		FROM optimizations WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("querying optimization: %w", err)
	}
	defer rows.Close()

	var matches []*optimization.Optimization
	for rows.Next() {
		o, err := scanOptimization(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, storage.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous optimization prefix %q matches %d records", id, len(matches))
	}
}

func (s *Store) getOptimizationExact(ctx context.Context, id string) (*optimization.Optimization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, opportunity_id, original_code, optimized_code, created_at
		FROM optimizations WHERE id = ?`, id)
	return scanOptimizationRow(row)
}

func (s *Store) FindOptimizationByFingerprint(ctx context.Context, fingerprint string) (*optimization.Optimization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, opportunity_id, original_code, optimized_code, created_at
		FROM optimizations WHERE fingerprint = ? LIMIT 1`, fingerprint)
	return scanOptimizationRow(row)
}

// LanguageFor resolves optimization -> opportunity -> analysis to recover the
// language tag.
func (s *Store) LanguageFor(ctx context.Context, optimizationID string) (optimization.Language, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT a.language
		FROM optimizations o
		JOIN opportunities op ON op.id = o.opportunity_id
		JOIN analyses a ON a.id = op.analysis_id
		WHERE o.id = ?`, optimizationID)

	var lang string
	if err := row.Scan(&lang); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("resolving language: %w", err)
	}
	return optimization.Language(lang), nil
}

func (s *Store) languageForOpportunity(ctx context.Context, opportunityID string) (optimization.Language, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT a.language
		FROM opportunities op
		JOIN analyses a ON a.id = op.analysis_id
		WHERE op.id = ?`, opportunityID)

	var lang string
	if err := row.Scan(&lang); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return optimization.Language(lang), nil
}

func (s *Store) CreateExperiment(ctx context.Context, e *storage.Experiment) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = storage.StatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO experiments (id, optimization_id, status, sandbox_dir, results, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OptimizationID, string(e.Status), e.SandboxDir, e.Results, e.Error,
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting experiment: %w", err)
	}
	return nil
}

func (s *Store) UpdateExperiment(ctx context.Context, e *storage.Experiment) error {
	current, err := s.GetExperiment(ctx, e.ID)
	if err != nil {
		return err
	}
	if current.Status != e.Status && !storage.CanTransition(current.Status, e.Status) {
		return fmt.Errorf("invalid experiment transition %s -> %s", current.Status, e.Status)
	}

	e.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE experiments SET status = ?, sandbox_dir = ?, results = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		string(e.Status), e.SandboxDir, e.Results, e.Error, e.UpdatedAt.Format(time.RFC3339), e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating experiment: %w", err)
	}
	return nil
}

func (s *Store) GetExperiment(ctx context.Context, id string) (*storage.Experiment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, optimization_id, status, sandbox_dir, results, error, created_at, updated_at
		FROM experiments WHERE id = ?`, id)

	var e storage.Experiment
	var status, createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.OptimizationID, &status, &e.SandboxDir, &e.Results, &e.Error, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scanning experiment: %w", err)
	}
	e.Status = storage.ExperimentStatus(status)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func (s *Store) CreateEvaluation(ctx context.Context, ev *storage.Evaluation) error {
	ev.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, optimization_id, experiment_id, metrics, success, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.OptimizationID, ev.ExperimentID, ev.Metrics, boolToInt(ev.Success), ev.Report,
		ev.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting evaluation: %w", err)
	}
	return nil
}

func (s *Store) GetEvaluation(ctx context.Context, id string) (*storage.Evaluation, error) {
	ev, err := s.getEvaluationExact(ctx, id)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, optimization_id, experiment_id, metrics, success, report, created_at
		FROM evaluations WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("querying evaluation: %w", err)
	}
	defer rows.Close()

	var matches []*storage.Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, storage.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous evaluation prefix %q matches %d records", id, len(matches))
	}
}

func (s *Store) getEvaluationExact(ctx context.Context, id string) (*storage.Evaluation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, optimization_id, experiment_id, metrics, success, report, created_at
		FROM evaluations WHERE id = ?`, id)

	var ev storage.Evaluation
	var success int
	var createdAt string
	err := row.Scan(&ev.ID, &ev.OptimizationID, &ev.ExperimentID, &ev.Metrics, &success, &ev.Report, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scanning evaluation: %w", err)
	}
	ev.Success = success != 0
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ev, nil
}

func (s *Store) ListEvaluations(ctx context.Context, opts storage.EvaluationListOptions) ([]storage.Evaluation, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, optimization_id, experiment_id, metrics, success, report, created_at FROM evaluations`
	var args []any

	if opts.OptimizationID != "" {
		query += ` WHERE optimization_id = ?`
		args = append(args, opts.OptimizationID)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []storage.Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, *ev)
	}
	return evaluations, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOptimization(r rowScanner) (*optimization.Optimization, error) {
	var o optimization.Optimization
	var createdAt string
	if err := r.Scan(&o.ID, &o.OpportunityID, &o.OriginalCode, &o.OptimizedCode, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning optimization: %w", err)
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &o, nil
}

func scanOptimizationRow(row *sql.Row) (*optimization.Optimization, error) {
	o, err := scanOptimization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func scanEvaluation(r rowScanner) (*storage.Evaluation, error) {
	var ev storage.Evaluation
	var success int
	var createdAt string
	if err := r.Scan(&ev.ID, &ev.OptimizationID, &ev.ExperimentID, &ev.Metrics, &success, &ev.Report, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning evaluation: %w", err)
	}
	ev.Success = success != 0
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ev, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
