package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// ScoreStore is the repository surface the scoring processor needs.
type ScoreStore interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	Fetch(ctx context.Context, userID int64) (core.Ledger, error)
	ReplaceAnomalyFlags(ctx context.Context, userID int64, flags []storage.AnomalyFlag) error
}

// ScoreProcessorConfig holds configuration for the score processor
type ScoreProcessorConfig struct {
	// Interval is how often every ledger is rescored (default: 5m)
	Interval time.Duration
}

// DefaultScoreProcessorConfig returns sensible defaults
func DefaultScoreProcessorConfig() ScoreProcessorConfig {
	return ScoreProcessorConfig{
		Interval: 5 * time.Minute,
	}
}

// ScoreProcessor periodically recomputes anomaly labels for every ledger
// and persists them. The AMQP consumer also triggers single-user rescores
// through ScoreUser; the periodic sweep covers missed messages.
type ScoreProcessor struct {
	store      ScoreStore
	classifier analytics.Classifier
	config     ScoreProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScoreProcessor creates a new score processor
func NewScoreProcessor(store ScoreStore, classifier analytics.Classifier, config ScoreProcessorConfig) *ScoreProcessor {
	return &ScoreProcessor{
		store:      store,
		classifier: classifier,
		config:     config,
	}
}

// Start begins the scoring loop. Returns an error if already running.
func (p *ScoreProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("score processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Score processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ScoreProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Score processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Score processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ScoreProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ScoreProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Score immediately on startup
	p.scoreAll(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scoreAll(ctx)
		}
	}
}

// scoreAll rescores every user's ledger
func (p *ScoreProcessor) scoreAll(ctx context.Context) {
	userIDs, err := p.store.ListUserIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for scoring", "error", err)
		return
	}

	for _, userID := range userIDs {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.ScoreUser(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Failed to score user ledger",
				"user_id", userID, "error", err)
		}
	}
}

// ScoreUser recomputes anomaly labels for one user from their full ledger
// and atomically replaces the stored flags. An empty ledger clears them.
func (p *ScoreProcessor) ScoreUser(ctx context.Context, userID int64) error {
	ledger, err := p.store.Fetch(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch ledger: %w", err)
	}

	labels, err := analytics.AnomalyFlags(ledger, p.classifier)
	if err != nil {
		return fmt.Errorf("score ledger: %w", err)
	}

	flags := make([]storage.AnomalyFlag, 0, len(labels))
	anomalies := 0
	for i, label := range labels {
		if label == analytics.LabelAnomaly {
			anomalies++
		}
		flags = append(flags, storage.AnomalyFlag{
			ExpenseID: ledger[i].ID,
			Label:     string(label),
		})
	}

	if err := p.store.ReplaceAnomalyFlags(ctx, userID, flags); err != nil {
		return fmt.Errorf("persist anomaly flags: %w", err)
	}

	slog.InfoContext(ctx, "Ledger scored",
		"user_id", userID,
		"ledger_size", len(ledger),
		"anomaly_count", anomalies)

	return nil
}
