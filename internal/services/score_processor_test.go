package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubClassifier flags the rows listed in outliers, everything else +1.
type stubClassifier struct {
	outliers map[int]bool
	err      error
}

func (s *stubClassifier) FitPredict(features [][]float64) ([]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]int, len(features))
	for i := range features {
		if s.outliers[i] {
			out[i] = -1
		} else {
			out[i] = 1
		}
	}
	return out, nil
}

func TestScoreUserPersistsLabels(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = scenarioLedger()
	proc := NewScoreProcessor(store, &stubClassifier{outliers: map[int]bool{2: true}}, DefaultScoreProcessorConfig())

	if err := proc.ScoreUser(context.Background(), 1); err != nil {
		t.Fatalf("ScoreUser() error = %v", err)
	}

	flags := store.replaced[1]
	if len(flags) != 3 {
		t.Fatalf("persisted %d flags, want 3", len(flags))
	}
	byID := make(map[int64]string)
	for _, f := range flags {
		byID[f.ExpenseID] = f.Label
	}
	if byID[3] != "Anomaly" {
		t.Errorf("expense 3 = %q, want Anomaly", byID[3])
	}
	if byID[1] != "Normal" || byID[2] != "Normal" {
		t.Errorf("expenses 1,2 = %q,%q, want Normal", byID[1], byID[2])
	}
}

func TestScoreUserEmptyLedgerClearsFlags(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = nil
	proc := NewScoreProcessor(store, &stubClassifier{}, DefaultScoreProcessorConfig())

	if err := proc.ScoreUser(context.Background(), 1); err != nil {
		t.Fatalf("ScoreUser() error = %v", err)
	}
	if flags, ok := store.replaced[1]; !ok || len(flags) != 0 {
		t.Errorf("empty ledger should replace with zero flags, got %v (replaced=%v)", flags, ok)
	}
}

func TestScoreUserClassifierError(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = scenarioLedger()
	proc := NewScoreProcessor(store, &stubClassifier{err: errors.New("bad model")}, DefaultScoreProcessorConfig())

	if err := proc.ScoreUser(context.Background(), 1); err == nil {
		t.Fatal("ScoreUser() should surface classifier errors")
	}
	if _, ok := store.replaced[1]; ok {
		t.Error("no flags should be written when scoring fails")
	}
}

func TestScoreProcessorLifecycle(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = scenarioLedger()
	proc := NewScoreProcessor(store, &stubClassifier{}, ScoreProcessorConfig{Interval: 10 * time.Millisecond})

	ctx := context.Background()
	if err := proc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !proc.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := proc.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	// Let the startup sweep run.
	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := proc.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if proc.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	if len(store.replaced[1]) != 3 {
		t.Errorf("startup sweep persisted %d flags, want 3", len(store.replaced[1]))
	}
}
