package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/optivet/optivet/internal/optimization"
	"github.com/optivet/optivet/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seedOptimization inserts a full analysis/opportunity/optimization chain.
func seedOptimization(t *testing.T, store *Store, id string, lang optimization.Language) *optimization.Optimization {
	t.Helper()
	ctx := context.Background()

	analysis := &optimization.Analysis{ID: "an-" + id, Language: lang}
	if err := store.CreateAnalysis(ctx, analysis); err != nil {
		t.Fatalf("CreateAnalysis: %v", err)
	}
	opp := &optimization.Opportunity{ID: "opp-" + id, AnalysisID: analysis.ID}
	if err := store.CreateOpportunity(ctx, opp); err != nil {
		t.Fatalf("CreateOpportunity: %v", err)
	}
	opt := &optimization.Optimization{
		ID:            id,
		OpportunityID: opp.ID,
		OriginalCode:  "original code " + id,
		OptimizedCode: "optimized code " + id,
	}
	if err := store.CreateOptimization(ctx, opt); err != nil {
		t.Fatalf("CreateOptimization: %v", err)
	}
	return opt
}

func TestGetOptimizationByPrefix(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	seedOptimization(t, store, "abc123", optimization.Python)
	seedOptimization(t, store, "abd456", optimization.Python)

	got, err := store.GetOptimization(ctx, "abc")
	if err != nil {
		t.Fatalf("prefix lookup: %v", err)
	}
	if got.ID != "abc123" {
		t.Errorf("got %s", got.ID)
	}

	if _, err := store.GetOptimization(ctx, "ab"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguity error, got %v", err)
	}

	if _, err := store.GetOptimization(ctx, "zzz"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindOptimizationByFingerprint(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	opt := seedOptimization(t, store, "fp1", optimization.Ruby)

	fp := optimization.Fingerprint(optimization.Ruby, opt.OriginalCode, opt.OptimizedCode)
	got, err := store.FindOptimizationByFingerprint(ctx, fp)
	if err != nil {
		t.Fatalf("FindOptimizationByFingerprint: %v", err)
	}
	if got.ID != opt.ID {
		t.Errorf("got %s, want %s", got.ID, opt.ID)
	}

	if _, err := store.FindOptimizationByFingerprint(ctx, "blake3:unknown"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLanguageFor(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	seedOptimization(t, store, "lang1", optimization.TypeScript)

	lang, err := store.LanguageFor(context.Background(), "lang1")
	if err != nil {
		t.Fatalf("LanguageFor: %v", err)
	}
	if lang != optimization.TypeScript {
		t.Errorf("got %s", lang)
	}
}

func TestExperimentLifecycle(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	seedOptimization(t, store, "exp-opt", optimization.Go)

	exp := &storage.Experiment{ID: "exp1", OptimizationID: "exp-opt", Status: storage.StatusPending}
	if err := store.CreateExperiment(ctx, exp); err != nil {
		t.Fatalf("CreateExperiment: %v", err)
	}

	for _, next := range []storage.ExperimentStatus{
		storage.StatusCreated, storage.StatusRunning, storage.StatusCompleted,
	} {
		exp.Status = next
		if err := store.UpdateExperiment(ctx, exp); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	// Completed is terminal.
	exp.Status = storage.StatusRunning
	if err := store.UpdateExperiment(ctx, exp); err == nil {
		t.Error("expected invalid transition out of completed")
	}

	got, err := store.GetExperiment(ctx, "exp1")
	if err != nil {
		t.Fatalf("GetExperiment: %v", err)
	}
	if got.Status != storage.StatusCompleted {
		t.Errorf("Status = %s", got.Status)
	}
}

func TestExperimentFailsFromAnyNonTerminalState(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	seedOptimization(t, store, "fail-opt", optimization.Go)

	exp := &storage.Experiment{ID: "exp-fail", OptimizationID: "fail-opt", Status: storage.StatusPending}
	if err := store.CreateExperiment(ctx, exp); err != nil {
		t.Fatal(err)
	}

	exp.Status = storage.StatusFailed
	exp.Error = "sandbox creation failed"
	if err := store.UpdateExperiment(ctx, exp); err != nil {
		t.Fatalf("pending -> failed: %v", err)
	}

	got, err := store.GetExperiment(ctx, "exp-fail")
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != "sandbox creation failed" {
		t.Errorf("Error = %q", got.Error)
	}
}

func TestEvaluationListAndPrefixLookup(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	seedOptimization(t, store, "ev-opt", optimization.Python)

	exp := &storage.Experiment{ID: "ev-exp", OptimizationID: "ev-opt", Status: storage.StatusPending}
	if err := store.CreateExperiment(ctx, exp); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"eval-one", "eval-two"} {
		ev := &storage.Evaluation{
			ID:             id,
			OptimizationID: "ev-opt",
			ExperimentID:   "ev-exp",
			Metrics:        `{"compilation":{}}`,
			Success:        id == "eval-one",
			Report:         "# Report",
		}
		if err := store.CreateEvaluation(ctx, ev); err != nil {
			t.Fatalf("CreateEvaluation: %v", err)
		}
	}

	evals, err := store.ListEvaluations(ctx, storage.EvaluationListOptions{OptimizationID: "ev-opt"})
	if err != nil {
		t.Fatalf("ListEvaluations: %v", err)
	}
	if len(evals) != 2 {
		t.Fatalf("len = %d, want 2", len(evals))
	}

	got, err := store.GetEvaluation(ctx, "eval-one")
	if err != nil {
		t.Fatalf("GetEvaluation: %v", err)
	}
	if !got.Success {
		t.Error("Success not round-tripped")
	}

	if _, err := store.GetEvaluation(ctx, "eval-"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguity error, got %v", err)
	}
}
