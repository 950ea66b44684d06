package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/pkg/logger"
)

// Task is one independently timed periodic job
type Task struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context)
}

// Scheduler runs tasks on their own tickers. A tick that arrives while the
// previous run of the same task is still in flight is skipped, not queued.
type Scheduler struct {
	clock   clockwork.Clock
	timeout time.Duration
	logger  logger.Logger

	tasks  []Task
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. timeout bounds each run; zero means unbounded.
func NewScheduler(clock clockwork.Clock, timeout time.Duration, logger logger.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		timeout: timeout,
		logger:  logger,
	}
}

// Add registers a task. Tasks must be added before Start.
func (s *Scheduler) Add(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches one loop per task. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		if task.Interval <= 0 || task.Run == nil {
			s.logger.Warn("Task disabled", "task", task.Name, "interval", task.Interval)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Stop cancels running tasks and waits for every loop to exit
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()
	s.logger.Info("Starting task loop", "task", task.Name, "interval", task.Interval)

	var running atomic.Bool
	var runs sync.WaitGroup
	defer runs.Wait()

	trigger := func() {
		if !running.CompareAndSwap(false, true) {
			s.logger.Warn("Previous run still in flight, skipping tick", "task", task.Name)
			return
		}
		runs.Add(1)
		go func() {
			defer runs.Done()
			defer running.Store(false)
			s.runOnce(ctx, task)
		}()
	}

	if task.RunOnStart {
		trigger()
	}
	ticker := s.clock.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			trigger()
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = clockwork.WithTimeout(ctx, s.clock, s.timeout)
		defer cancel()
	}
	start := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Task panicked", "task", task.Name, "panic", r)
		}
	}()
	task.Run(ctx)
	s.logger.Debug("Task run finished", "task", task.Name, "duration", s.clock.Since(start))
}

// Intervals are the cadences of the sync passes
type Intervals struct {
	Crew      time.Duration
	Flight    time.Duration
	FTL       time.Duration
	Reference time.Duration
	Quality   time.Duration
}

// SyncTasks builds the periodic sync passes. Crew runs before roster and the
// modification log before flights so detection can classify reasons.
func SyncTasks(o *SyncOrchestrator, quality *QualityCheck, iv Intervals) []Task {
	pass := func(kinds ...entity.EntityKind) func(ctx context.Context) {
		return func(ctx context.Context) {
			for _, k := range kinds {
				if ctx.Err() != nil {
					return
				}
				o.Run(ctx, k)
			}
		}
	}
	tasks := []Task{
		{Name: "reference", Interval: iv.Reference, RunOnStart: true, Run: pass(entity.KindReference)},
		{Name: "crew", Interval: iv.Crew, RunOnStart: true, Run: pass(entity.KindCrew, entity.KindRoster)},
		{Name: "flight", Interval: iv.Flight, RunOnStart: true, Run: pass(entity.KindModLog, entity.KindFlight)},
		{Name: "ftl", Interval: iv.FTL, RunOnStart: true, Run: pass(entity.KindFTL)},
	}
	if quality != nil {
		tasks = append(tasks, Task{Name: "quality", Interval: iv.Quality, Run: func(ctx context.Context) {
			quality.Run(ctx)
		}})
	}
	return tasks
}
