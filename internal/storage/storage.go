// Package storage defines the persistence interface for optimization,
// experiment, and evaluation records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/optivet/optivet/internal/optimization"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ExperimentStatus represents the lifecycle state of an experiment.
type ExperimentStatus string

const (
	StatusPending   ExperimentStatus = "pending"
	StatusCreated   ExperimentStatus = "created"
	StatusRunning   ExperimentStatus = "running"
	StatusCompleted ExperimentStatus = "completed"
	StatusFailed    ExperimentStatus = "failed"
)

// validTransitions encodes the experiment state machine. No transition skips
// a state on the success path; failed is terminal and reachable from any
// non-terminal state so harness and runner errors leave a record behind.
var validTransitions = map[ExperimentStatus][]ExperimentStatus{
	StatusPending: {StatusCreated, StatusFailed},
	StatusCreated: {StatusRunning, StatusFailed},
	StatusRunning: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether an experiment may move from one status to another.
func CanTransition(from, to ExperimentStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Experiment is the lifecycle-tracking record for one sandboxed evaluation run.
// External observers poll it for run status; the runner itself only feeds it
// state transitions.
type Experiment struct {
	ID             string           `json:"id"`
	OptimizationID string           `json:"optimization_id"`
	Status         ExperimentStatus `json:"status"`
	SandboxDir     string           `json:"sandbox_dir,omitempty"`
	Results        string           `json:"results,omitempty"` // Raw results blob (JSON)
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Evaluation is the durable verdict produced from a completed experiment.
// It holds a one-way reference to the experiment it was derived from.
type Evaluation struct {
	ID             string    `json:"id"`
	OptimizationID string    `json:"optimization_id"`
	ExperimentID   string    `json:"experiment_id"`
	Metrics        string    `json:"metrics"` // Stage metrics blob (JSON)
	Success        bool      `json:"success"`
	Report         string    `json:"report"`
	CreatedAt      time.Time `json:"created_at"`
}

// EvaluationListOptions controls filtering and pagination for ListEvaluations.
type EvaluationListOptions struct {
	OptimizationID string
	Limit          int
	Offset         int
}

// Store is the persistence interface for the evaluation engine.
type Store interface {
	// CreateAnalysis inserts an analysis record. The ID field must be set.
	CreateAnalysis(ctx context.Context, a *optimization.Analysis) error

	// CreateOpportunity inserts an opportunity record.
	CreateOpportunity(ctx context.Context, o *optimization.Opportunity) error

	// CreateOptimization inserts an optimization record.
	CreateOptimization(ctx context.Context, o *optimization.Optimization) error

	// GetOptimization returns an optimization by ID or ID prefix.
	GetOptimization(ctx context.Context, id string) (*optimization.Optimization, error)

	// FindOptimizationByFingerprint returns an optimization whose content
	// fingerprint matches, or ErrNotFound.
	FindOptimizationByFingerprint(ctx context.Context, fingerprint string) (*optimization.Optimization, error)

	// LanguageFor resolves the language of an optimization by following
	// optimization -> opportunity -> analysis.
	LanguageFor(ctx context.Context, optimizationID string) (optimization.Language, error)

	// CreateExperiment inserts an experiment record.
	CreateExperiment(ctx context.Context, e *Experiment) error

	// UpdateExperiment persists mutable experiment fields. The status change,
	// if any, must satisfy CanTransition.
	UpdateExperiment(ctx context.Context, e *Experiment) error

	// GetExperiment returns an experiment by ID.
	GetExperiment(ctx context.Context, id string) (*Experiment, error)

	// CreateEvaluation inserts an evaluation record.
	CreateEvaluation(ctx context.Context, ev *Evaluation) error

	// GetEvaluation returns an evaluation by ID or ID prefix.
	GetEvaluation(ctx context.Context, id string) (*Evaluation, error)

	// ListEvaluations returns evaluations ordered by created_at descending.
	ListEvaluations(ctx context.Context, opts EvaluationListOptions) ([]Evaluation, error)

	// Close releases resources.
	Close() error
}
