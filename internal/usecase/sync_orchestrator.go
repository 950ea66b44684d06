package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
	"crewsync-service/pkg/metrics"
)

// Invalidator is implemented by read models caching derived state
type Invalidator interface {
	Invalidate()
}

// OrchestratorConfig tunes the live/fallback state machine
type OrchestratorConfig struct {
	LiveEnabled bool
	Retry       RetryPolicy
	// FailureThreshold is the number of consecutive failed cycles that switches to CSV
	FailureThreshold int
	// ProbeInterval is the minimum gap between live probes while in CSV mode
	ProbeInterval time.Duration
	LookbackDays  int
	LookaheadDays int
}

// SyncOrchestrator drives the live source, owns the data mode and falls back
// to tabular data when the live source keeps failing
type SyncOrchestrator struct {
	live       repository.SourceAdapter
	reconciler *Reconciler
	engine     *ComplianceEngine
	detector   *SwapDetector
	jobs       repository.SyncJobRepository
	notifier   repository.Notifier
	cfg        OrchestratorConfig
	metrics    *metrics.Metrics
	clock      clockwork.Clock
	logger     logger.Logger

	mu           sync.Mutex
	mode         entity.SyncMode
	failures     int
	lastProbe    time.Time
	invalidators []Invalidator
}

// NewSyncOrchestrator creates the orchestrator. notifier, detector and metrics may be nil.
func NewSyncOrchestrator(
	live repository.SourceAdapter,
	reconciler *Reconciler,
	engine *ComplianceEngine,
	detector *SwapDetector,
	jobs repository.SyncJobRepository,
	notifier repository.Notifier,
	cfg OrchestratorConfig,
	m *metrics.Metrics,
	clock clockwork.Clock,
	logger logger.Logger,
) *SyncOrchestrator {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 3
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	o := &SyncOrchestrator{
		live:       live,
		reconciler: reconciler,
		engine:     engine,
		detector:   detector,
		jobs:       jobs,
		notifier:   notifier,
		cfg:        cfg,
		metrics:    m,
		clock:      clock,
		logger:     logger,
		mode:       entity.ModeLive,
	}
	if !cfg.LiveEnabled || live == nil {
		o.mode = entity.ModeCSV
	}
	o.recordMode(o.mode)
	return o
}

// Mode returns the current data mode
func (o *SyncOrchestrator) Mode() entity.SyncMode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// OnChange registers a read model whose cache is dropped after every successful run
func (o *SyncOrchestrator) OnChange(i Invalidator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidators = append(o.invalidators, i)
}

// Window is the live fetch window around today
func (o *SyncOrchestrator) Window() entity.TimeWindow {
	today := entity.TruncateDay(o.clock.Now())
	return entity.NewTimeWindow(today.AddDate(0, 0, -o.cfg.LookbackDays), today.AddDate(0, 0, o.cfg.LookaheadDays))
}

// Run executes one sync pass of the kind. Source failures never escape: they
// are reported on the result and drive the mode transitions.
func (o *SyncOrchestrator) Run(ctx context.Context, kind entity.EntityKind) entity.SyncResult {
	result := entity.SyncResult{
		RunID:     uuid.New().String(),
		Kind:      kind,
		Mode:      o.Mode(),
		Status:    entity.SyncRunning,
		StartedAt: o.clock.Now().UTC(),
	}
	o.startJob(ctx, result)

	if kind == entity.KindFTL {
		o.recompute(ctx, &result)
	} else {
		o.fetch(ctx, &result)
	}
	changed := result.Status == entity.SyncCompleted
	// swaps derive from stored flights, whichever source wrote them
	if kind == entity.KindFlight && o.detect(ctx, result.RunID) {
		changed = true
	}

	result.FinishedAt = o.clock.Now().UTC()
	o.finishJob(ctx, result)
	o.record(result)
	if changed {
		o.invalidate()
	}
	return result
}

// detect runs swap detection over the stored flights of the window and
// reports whether any swap event was created or moved on
func (o *SyncOrchestrator) detect(ctx context.Context, runID string) bool {
	if o.detector == nil || ctx.Err() != nil {
		return false
	}
	res, err := o.detector.Detect(ctx, o.Window())
	if err != nil {
		o.logger.Error("Swap detection failed", "runID", runID, "error", err)
		return false
	}
	return res.Changed()
}

// RunAll runs every kind in dependency order
func (o *SyncOrchestrator) RunAll(ctx context.Context) []entity.SyncResult {
	results := make([]entity.SyncResult, 0, len(entity.AllKinds))
	for _, kind := range entity.AllKinds {
		if ctx.Err() != nil {
			break
		}
		results = append(results, o.Run(ctx, kind))
	}
	return results
}

func (o *SyncOrchestrator) recompute(ctx context.Context, result *entity.SyncResult) {
	result.Attempts = 1
	if o.engine == nil {
		result.Status = entity.SyncSkipped
		return
	}
	res, err := o.engine.Recompute(ctx, entity.FormatDate(o.clock.Now()))
	if err != nil {
		result.Status = entity.SyncFailed
		result.Error = err.Error()
		o.logger.Error("FTL recompute failed", "runID", result.RunID, "error", err)
		return
	}
	if res.Persisted {
		result.Updated = len(res.Snapshots)
	} else {
		result.Skipped = len(res.Snapshots)
	}
	result.Status = entity.SyncCompleted
}

func (o *SyncOrchestrator) fetch(ctx context.Context, result *entity.SyncResult) {
	if !o.cfg.LiveEnabled || o.live == nil {
		result.Status = entity.SyncSkipped
		result.Error = "live sync disabled"
		return
	}

	policy := o.cfg.Retry
	probing := false
	if o.Mode() == entity.ModeCSV {
		if !o.probeDue() {
			result.Status = entity.SyncSkipped
			result.Error = "fallback mode, live probe not due"
			return
		}
		probing = true
		policy.MaxAttempts = 1
		o.logger.Info("Probing live source", "kind", result.Kind)
	}

	window := o.Window()
	if result.Kind == entity.KindReference {
		window = entity.TimeWindow{}
	}
	if policy.OnRetry == nil {
		runID := result.RunID
		policy.OnRetry = func(attempt int, err error, wait time.Duration) {
			o.logger.Warn("Live fetch failed, retrying",
				"runID", runID,
				"kind", result.Kind,
				"attempt", attempt,
				"wait", wait,
				"error", err)
		}
	}

	var batch *entity.Batch
	retry := policy.Do(ctx, func(ctx context.Context) error {
		b, err := o.live.Fetch(ctx, result.Kind, window)
		if err != nil {
			return err
		}
		batch = b
		return nil
	})
	result.Attempts = retry.Attempts

	if retry.Outcome != RetrySucceeded {
		result.Status = entity.SyncFailed
		result.Error = retry.Err.Error()
		o.onFailure(ctx, result.Kind, retry, probing)
		result.Mode = o.Mode()
		return
	}

	counts, err := o.reconciler.Apply(ctx, batch)
	result.Apply(counts)
	if err != nil {
		// store failures are not source failures and leave the mode alone
		result.Status = entity.SyncFailed
		result.Error = err.Error()
		o.logger.Error("Reconciliation failed", "runID", result.RunID, "kind", result.Kind, "error", err)
		return
	}

	o.onSuccess(ctx, result.Kind)
	result.Mode = entity.ModeLive
	result.Status = entity.SyncCompleted
}

func (o *SyncOrchestrator) probeDue() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.clock.Now()
	if !o.lastProbe.IsZero() && now.Sub(o.lastProbe) < o.cfg.ProbeInterval {
		return false
	}
	o.lastProbe = now
	return true
}

func (o *SyncOrchestrator) onSuccess(ctx context.Context, kind entity.EntityKind) {
	o.mu.Lock()
	prev := o.mode
	o.mode = entity.ModeLive
	o.failures = 0
	o.lastProbe = time.Time{}
	o.mu.Unlock()

	if prev == entity.ModeLive {
		return
	}
	o.recordMode(entity.ModeLive)
	o.logger.Info("Live source recovered", "kind", kind, "from", prev)
	if prev == entity.ModeCSV {
		o.notify(ctx, RecoveryAlert(kind, prev, o.clock.Now()))
	}
}

func (o *SyncOrchestrator) onFailure(ctx context.Context, kind entity.EntityKind, retry RetryResult, probing bool) {
	o.mu.Lock()
	prev := o.mode
	var next entity.SyncMode
	switch {
	case errors.Is(retry.Err, entity.ErrAuth):
		next = entity.ModeCSV
		o.failures = max(o.failures+1, o.cfg.FailureThreshold)
	case probing:
		next = entity.ModeCSV
	default:
		o.failures++
		next = entity.ModeDegraded
		if o.failures >= o.cfg.FailureThreshold {
			next = entity.ModeCSV
		}
	}
	o.mode = next
	failures := o.failures
	o.mu.Unlock()

	o.logger.Error("Live sync cycle failed",
		"kind", kind,
		"outcome", retry.Outcome,
		"attempts", retry.Attempts,
		"consecutiveFailures", failures,
		"mode", next,
		"error", retry.Err)

	if next == prev {
		return
	}
	o.recordMode(next)
	switch {
	case errors.Is(retry.Err, entity.ErrAuth):
		o.notify(ctx, AuthAlert(kind, retry.Err, o.clock.Now()))
	case next == entity.ModeCSV:
		o.notify(ctx, FallbackAlert(kind, failures, retry.Err, o.clock.Now()))
	}
}

func (o *SyncOrchestrator) notify(ctx context.Context, alert entity.Alert) {
	if o.notifier == nil {
		return
	}
	// alerts must go out even when the run context has expired
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := o.notifier.Notify(ctx, alert); err != nil {
		o.logger.Error("Failed to send alert", "kind", alert.Kind, "error", err)
	}
}

func (o *SyncOrchestrator) invalidate() {
	o.mu.Lock()
	invalidators := append([]Invalidator(nil), o.invalidators...)
	o.mu.Unlock()
	for _, i := range invalidators {
		i.Invalidate()
	}
}

func (o *SyncOrchestrator) startJob(ctx context.Context, result entity.SyncResult) {
	if o.jobs == nil {
		return
	}
	if err := o.jobs.Start(ctx, result.Job()); err != nil {
		o.logger.Warn("Failed to record sync job start", "runID", result.RunID, "error", err)
	}
}

func (o *SyncOrchestrator) finishJob(ctx context.Context, result entity.SyncResult) {
	if o.jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := o.jobs.Finish(ctx, result.Job()); err != nil {
		o.logger.Warn("Failed to record sync job finish", "runID", result.RunID, "error", err)
	}
}

func (o *SyncOrchestrator) record(result entity.SyncResult) {
	o.logger.Info("Sync run finished",
		"runID", result.RunID,
		"kind", result.Kind,
		"status", result.Status,
		"mode", result.Mode,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped,
		"attempts", result.Attempts)

	if o.metrics == nil {
		return
	}
	kind := string(result.Kind)
	o.metrics.SyncRuns.WithLabelValues(kind, string(result.Status)).Inc()
	o.metrics.SyncDuration.WithLabelValues(kind).Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	if result.Status == entity.SyncCompleted {
		o.metrics.LastSuccess.WithLabelValues(kind).Set(float64(result.FinishedAt.Unix()))
	}
	if result.Status == entity.SyncFailed {
		o.metrics.ErrorsCount.WithLabelValues("sync_" + kind).Inc()
	}
}

func (o *SyncOrchestrator) recordMode(mode entity.SyncMode) {
	if o.metrics == nil {
		return
	}
	for _, m := range []entity.SyncMode{entity.ModeLive, entity.ModeDegraded, entity.ModeCSV} {
		v := 0.0
		if m == mode {
			v = 1
		}
		o.metrics.SyncMode.WithLabelValues(string(m)).Set(v)
	}
}
