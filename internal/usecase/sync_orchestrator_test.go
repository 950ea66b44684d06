package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/utils"
)

func (e *testEnv) orchestrator(src repository.SourceAdapter) *SyncOrchestrator {
	return NewSyncOrchestrator(src, e.reconciler(), e.engine(), e.detector(), e.jobs, e.notifier, OrchestratorConfig{
		LiveEnabled:      true,
		Retry:            fastRetry(4),
		FailureThreshold: 3,
		ProbeInterval:    15 * time.Minute,
		LookbackDays:     2,
		LookaheadDays:    1,
	}, nil, e.clock, e.log)
}

// crewBatch returns 150 crew records of which the last three could not be mapped
func crewBatch() *entity.Batch {
	b := &entity.Batch{Kind: entity.KindCrew, Source: entity.SourceAIMS, FetchedAt: asOf}
	for i := 1; i <= 147; i++ {
		b.Crew = append(b.Crew, crewMember(fmt.Sprintf("C-%04d", i), asOf))
	}
	for i := 148; i <= 150; i++ {
		b.Reject(&entity.ParseError{Index: i, Field: "CrewID", Reason: "empty crew id"})
	}
	return b
}

func emptyBatch(kind entity.EntityKind) *entity.Batch {
	return &entity.Batch{Kind: kind, Source: entity.SourceAIMS}
}

var errTimeout = entity.Unavailable("GetCrewList", errors.New("i/o timeout"))

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func TestSyncOrchestrator_RunReconcilesLiveBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	src := &fakeSource{fn: func(entity.EntityKind, int) (*entity.Batch, error) { return crewBatch(), nil }}
	o := env.orchestrator(src)
	inv := &countingInvalidator{}
	o.OnChange(inv)

	res := o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.SyncCompleted, res.Status)
	require.Equal(t, entity.ModeLive, res.Mode)
	require.Equal(t, 147, res.Inserted)
	require.Equal(t, 3, res.Skipped)
	require.Equal(t, 1, res.Attempts)
	require.NotEmpty(t, res.RunID)

	n, err := env.stores.Crew.CountCrew(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 147, n)

	env.clock.Advance(time.Minute)
	again := o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.SyncCompleted, again.Status)
	require.Zero(t, again.Inserted)
	require.Zero(t, again.Updated)
	require.Equal(t, 147, again.Unchanged)
	require.NotEqual(t, res.RunID, again.RunID)

	require.EqualValues(t, 2, inv.n.Load())
	last, err := env.jobs.LastSuccessful(ctx, entity.KindCrew, entity.ModeLive)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, again.RunID, last.RunID)
	require.Empty(t, env.notifier.kinds())
}

func TestSyncOrchestrator_RetriesTransientFailures(t *testing.T) {
	env := newTestEnv(t)
	src := &fakeSource{fn: func(_ entity.EntityKind, call int) (*entity.Batch, error) {
		if call < 3 {
			return nil, errTimeout
		}
		return crewBatch(), nil
	}}
	o := env.orchestrator(src)

	res := o.Run(context.Background(), entity.KindCrew)
	require.Equal(t, entity.SyncCompleted, res.Status)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, entity.ModeLive, o.Mode())
}

func TestSyncOrchestrator_FallbackAndRecovery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var healthy atomic.Bool
	src := &fakeSource{fn: func(kind entity.EntityKind, _ int) (*entity.Batch, error) {
		if healthy.Load() {
			return emptyBatch(kind), nil
		}
		return nil, errTimeout
	}}
	o := env.orchestrator(src)
	inv := &countingInvalidator{}
	o.OnChange(inv)

	res := o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.SyncFailed, res.Status)
	require.Equal(t, 4, res.Attempts)
	require.Equal(t, entity.ModeDegraded, o.Mode())

	o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.ModeDegraded, o.Mode())

	res = o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.ModeCSV, res.Mode)
	require.Equal(t, entity.ModeCSV, o.Mode())
	require.Equal(t, []string{entity.AlertFallback}, env.notifier.kinds())
	require.Equal(t, 12, src.count(entity.KindCrew))

	// the first cycle in fallback probes once
	res = o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.SyncFailed, res.Status)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, 13, src.count(entity.KindCrew))

	res = o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.SyncSkipped, res.Status)
	require.Equal(t, 13, src.count(entity.KindCrew))

	healthy.Store(true)
	env.clock.Advance(16 * time.Minute)
	res = o.Run(ctx, entity.KindCrew)
	require.Equal(t, entity.SyncCompleted, res.Status)
	require.Equal(t, entity.ModeLive, o.Mode())
	require.Equal(t, []string{entity.AlertFallback, entity.AlertRecovery}, env.notifier.kinds())
	require.EqualValues(t, 1, inv.n.Load())
}

func TestSyncOrchestrator_DegradedRecoversWithoutAlert(t *testing.T) {
	env := newTestEnv(t)
	src := &fakeSource{fn: func(kind entity.EntityKind, call int) (*entity.Batch, error) {
		if call <= 4 {
			return nil, errTimeout
		}
		return emptyBatch(kind), nil
	}}
	o := env.orchestrator(src)

	o.Run(context.Background(), entity.KindCrew)
	require.Equal(t, entity.ModeDegraded, o.Mode())
	o.Run(context.Background(), entity.KindCrew)
	require.Equal(t, entity.ModeLive, o.Mode())
	require.Empty(t, env.notifier.kinds())
}

func TestSyncOrchestrator_AuthFailureFallsBackImmediately(t *testing.T) {
	env := newTestEnv(t)
	src := &fakeSource{fn: func(entity.EntityKind, int) (*entity.Batch, error) {
		return nil, entity.AuthFailure("GetCrewList", errors.New("invalid user"))
	}}
	o := env.orchestrator(src)

	res := o.Run(context.Background(), entity.KindCrew)
	require.Equal(t, entity.SyncFailed, res.Status)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, entity.ModeCSV, o.Mode())
	require.Equal(t, []string{entity.AlertAuth}, env.notifier.kinds())
	require.Contains(t, res.Error, "authentication")
}

func TestSyncOrchestrator_LiveDisabled(t *testing.T) {
	env := newTestEnv(t)
	o := NewSyncOrchestrator(nil, env.reconciler(), env.engine(), nil, env.jobs, nil, OrchestratorConfig{}, nil, env.clock, env.log)
	require.Equal(t, entity.ModeCSV, o.Mode())

	res := o.Run(context.Background(), entity.KindRoster)
	require.Equal(t, entity.SyncSkipped, res.Status)
	require.Equal(t, "live sync disabled", res.Error)
}

func TestSyncOrchestrator_FlightPassDetectsSwapsInFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parser := utils.NewReportParser(env.stores.Reference, entity.DefaultThresholds(), env.log)
	ing := NewUploadIngestor(parser, env.reconciler(), nil, env.jobs, env.clock, env.log)
	o := NewSyncOrchestrator(nil, env.reconciler(), env.engine(), env.detector(), env.jobs, env.notifier,
		OrchestratorConfig{LookbackDays: 2, LookaheadDays: 1}, nil, env.clock, env.log)
	inv := &countingInvalidator{}
	o.OnChange(inv)
	require.Equal(t, entity.ModeCSV, o.Mode())

	for i, reg := range []string{"VN-A888", "VN-A899"} {
		upload := dayReport(reg)
		upload.ExportedAt = asOf.Add(time.Duration(i-2) * time.Hour)
		_, err := ing.Ingest(ctx, upload)
		require.NoError(t, err)

		o.Run(ctx, entity.KindModLog)
		res := o.Run(ctx, entity.KindFlight)
		require.Equal(t, entity.SyncSkipped, res.Status)
	}

	events, err := env.swaps.ListInPeriod(ctx, o.Window())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "VN-A888", events[0].OriginalReg)
	require.Equal(t, "VN-A899", events[0].SwappedReg)
	// the first pass only baselined the leg
	require.EqualValues(t, 1, inv.n.Load())
}

func TestSyncOrchestrator_RunAll(t *testing.T) {
	env := newTestEnv(t)
	src := &fakeSource{fn: func(kind entity.EntityKind, _ int) (*entity.Batch, error) { return emptyBatch(kind), nil }}
	o := env.orchestrator(src)

	results := o.RunAll(context.Background())
	require.Len(t, results, len(entity.AllKinds))
	for i, res := range results {
		require.Equal(t, entity.AllKinds[i], res.Kind)
		require.Equal(t, entity.SyncCompleted, res.Status, "kind %s", res.Kind)
	}
	// the FTL pass on an empty store fails the density check and publishes nothing
	ftl := results[len(results)-1]
	require.Zero(t, ftl.Updated)
	require.Zero(t, src.count(entity.KindFTL))
}

func TestSyncOrchestrator_Window(t *testing.T) {
	env := newTestEnv(t)
	o := env.orchestrator(&fakeSource{})
	w := o.Window()
	require.Equal(t, "2026-01-28", entity.FormatDate(w.From))
	require.Equal(t, "2026-01-31", entity.FormatDate(w.To))
}
