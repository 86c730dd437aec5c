// Package evaluator coordinates the full evaluation flow: resolve the
// optimization, track an experiment through its lifecycle, drive the sandbox
// pipeline, and persist the verdict.
package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/optivet/optivet/internal/config"
	"github.com/optivet/optivet/internal/harness"
	"github.com/optivet/optivet/internal/optimization"
	"github.com/optivet/optivet/internal/sandbox"
	"github.com/optivet/optivet/internal/storage"
)

// Coordinator orchestrates evaluations against a store.
type Coordinator struct {
	store  storage.Store
	cfg    *config.Config
	runner *sandbox.Runner
	logger *slog.Logger
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(store storage.Store, cfg *config.Config, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		cfg:    cfg,
		runner: sandbox.NewRunner(cfg, logger),
		logger: logger,
	}
}

// SubmitOptions carries one code pair for registration.
type SubmitOptions struct {
	Language      optimization.Language
	SourcePath    string
	Description   string
	OriginalCode  string
	OptimizedCode string
}

// Submit registers a code pair as an analysis/opportunity/optimization chain
// and returns the optimization. A pair already registered with the same
// content fingerprint is returned as-is instead of being duplicated.
func (c *Coordinator) Submit(ctx context.Context, opts SubmitOptions) (*optimization.Optimization, error) {
	fp := optimization.Fingerprint(opts.Language, opts.OriginalCode, opts.OptimizedCode)
	if existing, err := c.store.FindOptimizationByFingerprint(ctx, fp); err == nil {
		c.logger.Info("optimization already registered", "id", existing.ID)
		return existing, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking fingerprint: %w", err)
	}

	now := time.Now()
	analysis := &optimization.Analysis{
		ID:         uuid.NewString(),
		Language:   opts.Language,
		SourcePath: opts.SourcePath,
		CreatedAt:  now,
	}
	if err := c.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	opp := &optimization.Opportunity{
		ID:          uuid.NewString(),
		AnalysisID:  analysis.ID,
		Description: opts.Description,
		CreatedAt:   now,
	}
	if err := c.store.CreateOpportunity(ctx, opp); err != nil {
		return nil, fmt.Errorf("creating opportunity: %w", err)
	}

	opt := &optimization.Optimization{
		ID:            uuid.NewString(),
		OpportunityID: opp.ID,
		OriginalCode:  opts.OriginalCode,
		OptimizedCode: opts.OptimizedCode,
		CreatedAt:     now,
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if err := c.store.CreateOptimization(ctx, opt); err != nil {
		return nil, fmt.Errorf("creating optimization: %w", err)
	}

	c.logger.Info("optimization registered", "id", opt.ID, "language", opts.Language)
	return opt, nil
}

// Evaluate runs the full pipeline for one optimization and persists the
// resulting evaluation. The experiment record tracks progress; any failure
// before completion transitions it to failed with the error recorded.
func (c *Coordinator) Evaluate(ctx context.Context, optimizationID string) (*storage.Evaluation, error) {
	opt, err := c.store.GetOptimization(ctx, optimizationID)
	if err != nil {
		return nil, fmt.Errorf("resolving optimization: %w", err)
	}

	lang, err := c.store.LanguageFor(ctx, opt.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving language: %w", err)
	}

	exp := &storage.Experiment{
		ID:             uuid.NewString(),
		OptimizationID: opt.ID,
		Status:         storage.StatusPending,
		CreatedAt:      time.Now(),
	}
	if err := c.store.CreateExperiment(ctx, exp); err != nil {
		return nil, fmt.Errorf("creating experiment: %w", err)
	}

	c.logger.Info("evaluation started",
		"optimization", opt.ID, "experiment", exp.ID, "language", lang)

	gen := harness.For(lang, c.cfg)
	desc, err := gen.CreateExperiment(opt.OriginalCode, opt.OptimizedCode)
	if err != nil {
		c.failExperiment(ctx, exp, fmt.Errorf("creating sandbox: %w", err))
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	defer c.runner.Cleanup(desc)

	exp.SandboxDir = desc.Dir
	if err := c.transition(ctx, exp, storage.StatusCreated); err != nil {
		return nil, err
	}
	if err := c.transition(ctx, exp, storage.StatusRunning); err != nil {
		return nil, err
	}

	result, err := c.runner.Run(ctx, desc)
	if err != nil {
		c.failExperiment(ctx, exp, fmt.Errorf("running sandbox: %w", err))
		return nil, fmt.Errorf("running sandbox: %w", err)
	}

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		c.failExperiment(ctx, exp, fmt.Errorf("encoding metrics: %w", err))
		return nil, fmt.Errorf("encoding metrics: %w", err)
	}

	exp.Results = string(metricsJSON)
	if err := c.transition(ctx, exp, storage.StatusCompleted); err != nil {
		return nil, err
	}

	eval := &storage.Evaluation{
		ID:             uuid.NewString(),
		OptimizationID: opt.ID,
		ExperimentID:   exp.ID,
		Metrics:        string(metricsJSON),
		Success:        result.Success,
		Report:         result.Report,
		CreatedAt:      time.Now(),
	}
	if err := c.store.CreateEvaluation(ctx, eval); err != nil {
		return nil, fmt.Errorf("persisting evaluation: %w", err)
	}

	c.logger.Info("evaluation completed",
		"evaluation", eval.ID, "success", eval.Success,
		"improvement", result.Metrics.Performance.Improvement)
	return eval, nil
}

// GetEvaluation returns a stored evaluation by ID or ID prefix.
func (c *Coordinator) GetEvaluation(ctx context.Context, id string) (*storage.Evaluation, error) {
	return c.store.GetEvaluation(ctx, id)
}

// ListEvaluations returns stored evaluations, newest first.
func (c *Coordinator) ListEvaluations(ctx context.Context, opts storage.EvaluationListOptions) ([]storage.Evaluation, error) {
	return c.store.ListEvaluations(ctx, opts)
}

// LanguageFor resolves the language an optimization targets.
func (c *Coordinator) LanguageFor(ctx context.Context, optimizationID string) (optimization.Language, error) {
	return c.store.LanguageFor(ctx, optimizationID)
}

func (c *Coordinator) transition(ctx context.Context, exp *storage.Experiment, to storage.ExperimentStatus) error {
	exp.Status = to
	if err := c.store.UpdateExperiment(ctx, exp); err != nil {
		return fmt.Errorf("transitioning experiment to %s: %w", to, err)
	}
	return nil
}

// failExperiment moves the experiment to its terminal failed state. The
// original error always wins over any bookkeeping error here.
func (c *Coordinator) failExperiment(ctx context.Context, exp *storage.Experiment, cause error) {
	exp.Status = storage.StatusFailed
	exp.Error = cause.Error()
	if err := c.store.UpdateExperiment(ctx, exp); err != nil {
		c.logger.Error("failed to record experiment failure",
			"experiment", exp.ID, "error", err)
	}
}
