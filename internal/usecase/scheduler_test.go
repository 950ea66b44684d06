package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"crewsync-service/pkg/logger"
)

// warnSignal forwards every warning message to a channel
type warnSignal struct {
	logger.Logger
	warns chan string
}

func (w *warnSignal) Warn(msg string, _ ...interface{}) {
	select {
	case w.warns <- msg:
	default:
	}
}

func waitForTicker(t *testing.T, clk *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clk.BlockUntilContext(ctx, n))
}

func TestScheduler_RunsOnEveryTick(t *testing.T) {
	clk := clockwork.NewFakeClock()
	s := NewScheduler(clk, 0, logger.NewNop())
	var runs atomic.Int32
	s.Add(Task{Name: "crew", Interval: time.Minute, Run: func(context.Context) { runs.Add(1) }})
	s.Start(context.Background())
	defer s.Stop()

	waitForTicker(t, clk, 1)
	require.Zero(t, runs.Load())

	clk.Advance(time.Minute + time.Nanosecond)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	clk.Advance(time.Minute)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_RunOnStart(t *testing.T) {
	clk := clockwork.NewFakeClock()
	s := NewScheduler(clk, time.Minute, logger.NewNop())
	hadDeadline := make(chan bool, 1)
	s.Add(Task{Name: "ftl", Interval: time.Hour, RunOnStart: true, Run: func(ctx context.Context) {
		_, ok := ctx.Deadline()
		hadDeadline <- ok
	}})
	s.Start(context.Background())
	defer s.Stop()

	select {
	case ok := <-hadDeadline:
		require.True(t, ok, "runs are bounded by the task timeout")
	case <-time.After(time.Second):
		t.Fatal("task did not run on start")
	}
}

func TestScheduler_TimeoutFollowsClock(t *testing.T) {
	clk := clockwork.NewFakeClock()
	s := NewScheduler(clk, 5*time.Minute, logger.NewNop())
	var runs atomic.Int32
	runErrs := make(chan error, 2)
	s.Add(Task{Name: "crew", Interval: time.Hour, RunOnStart: true, Run: func(ctx context.Context) {
		if runs.Add(1) > 1 {
			runErrs <- nil
			return
		}
		<-ctx.Done()
		runErrs <- ctx.Err()
	}})
	s.Start(context.Background())
	defer s.Stop()

	// ticker plus the run deadline
	waitForTicker(t, clk, 2)
	clk.Advance(5*time.Minute + time.Second)
	select {
	case err := <-runErrs:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("run outlived its timeout")
	}

	require.Eventually(t, func() bool {
		clk.Advance(time.Hour)
		return runs.Load() >= 2
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, <-runErrs)
}

func TestScheduler_SkipsTickWhileRunning(t *testing.T) {
	clk := clockwork.NewFakeClock()
	log := &warnSignal{Logger: logger.NewNop(), warns: make(chan string, 4)}
	s := NewScheduler(clk, 0, log)

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var runs atomic.Int32
	s.Add(Task{Name: "flight", Interval: time.Minute, RunOnStart: true, Run: func(context.Context) {
		runs.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}})
	s.Start(context.Background())
	defer s.Stop()

	<-started
	waitForTicker(t, clk, 1)
	clk.Advance(time.Minute)
	select {
	case msg := <-log.warns:
		require.Contains(t, msg, "skipping tick")
	case <-time.After(time.Second):
		t.Fatal("overlapping tick was not skipped")
	}
	require.EqualValues(t, 1, runs.Load())

	close(release)
	require.Eventually(t, func() bool {
		clk.Advance(time.Minute)
		return runs.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_StopCancelsRunningTasks(t *testing.T) {
	clk := clockwork.NewFakeClock()
	s := NewScheduler(clk, 0, logger.NewNop())
	started := make(chan struct{})
	s.Add(Task{Name: "reference", Interval: time.Hour, RunOnStart: true, Run: func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}})
	s.Add(Task{Name: "disabled", Interval: 0, Run: func(context.Context) {}})
	s.Start(context.Background())
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	clk := clockwork.NewFakeClock()
	s := NewScheduler(clk, 0, logger.NewNop())
	var runs atomic.Int32
	s.Add(Task{Name: "quality", Interval: time.Minute, RunOnStart: true, Run: func(context.Context) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
	}})
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		clk.Advance(time.Minute)
		return runs.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestSyncTasks(t *testing.T) {
	env := newTestEnv(t)
	o := env.orchestrator(&fakeSource{})
	iv := Intervals{Crew: time.Minute, Flight: time.Minute, FTL: time.Minute, Reference: time.Hour, Quality: time.Hour}

	tasks := SyncTasks(o, nil, iv)
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.Name)
		require.True(t, task.RunOnStart)
	}
	require.Equal(t, []string{"reference", "crew", "flight", "ftl"}, names)

	qc := NewQualityCheck(env.stores.Roster, env.jobs, nil, nil, o, nil, time.Hour, env.clock, env.log)
	tasks = SyncTasks(o, qc, iv)
	require.Len(t, tasks, 5)
	require.Equal(t, "quality", tasks[4].Name)
	require.False(t, tasks[4].RunOnStart)
}
