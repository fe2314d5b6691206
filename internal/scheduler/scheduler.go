package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/pkg/logs"
	metrics "github.com/tgifai/eternal/internal/pkg/prometheus"
	"github.com/tgifai/eternal/internal/registry"
)

const (
	DefaultSleepInterval = 10 * time.Second
	DefaultRecentSize    = 64
)

// Sweeper is run once per pass after the queue has been drained.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) int
}

type Options struct {
	SleepInterval time.Duration
	RecentSize    int
}

// Scheduler owns the mission queue and the single worker loop that steps
// every queued mission once per pass. Recurring missions are admitted by a
// cron runner.
type Scheduler struct {
	agents   *registry.Catalog[mission.Stepper]
	queue    *queue
	recent   *ring
	sleep    time.Duration
	cron     *cron.Cron
	sweepers []Sweeper
	passes   atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(agents *registry.Catalog[mission.Stepper], opts Options) *Scheduler {
	if opts.SleepInterval <= 0 {
		opts.SleepInterval = DefaultSleepInterval
	}
	return &Scheduler{
		agents: agents,
		queue:  &queue{},
		recent: newRing(opts.RecentSize),
		sleep:  opts.SleepInterval,
		cron: cron.New(
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
	}
}

// AddSweeper must be called before Start.
func (s *Scheduler) AddSweeper(sw Sweeper) {
	s.sweepers = append(s.sweepers, sw)
}

func (s *Scheduler) Enqueue(m *mission.Mission) *mission.Mission {
	n := s.queue.push(m)
	metrics.MissionQueueLength.Set(float64(n))
	logs.Info("[scheduler] enqueued mission %s (queue=%d)", m.ID, n)
	return m
}

// EnqueueFactory builds a fresh mission from f and queues it.
func (s *Scheduler) EnqueueFactory(f mission.Factory) *mission.Mission {
	return s.Enqueue(f())
}

// RegisterRecurring admits a new mission from f every interval, counted from
// Start. With runNow one instance is queued immediately as well.
func (s *Scheduler) RegisterRecurring(interval time.Duration, f mission.Factory, runNow bool) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if f == nil {
		return 0, fmt.Errorf("mission factory cannot be nil")
	}
	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.EnqueueFactory(f)
	}))
	if runNow {
		s.EnqueueFactory(f)
	}
	logs.Info("[scheduler] recurring mission registered every %v (entry=%d, run_now=%v)", interval, id, runNow)
	return id, nil
}

func (s *Scheduler) Len() int {
	return s.queue.len()
}

// Recent returns the latest finished missions, newest first.
func (s *Scheduler) Recent() []*mission.Mission {
	return s.recent.list()
}

func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()

	logs.CtxInfo(ctx, "[scheduler] started (sleep=%v, recurring=%d)", s.sleep, len(s.cron.Entries()))
	return nil
}

// Stop cancels the worker loop and the cron runner and waits for both.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		<-cronDone.Done()
		close(done)
	}()

	select {
	case <-done:
		logs.CtxInfo(ctx, "[scheduler] stopped")
	case <-ctx.Done():
		logs.CtxWarn(ctx, "[scheduler] stop timed out waiting for the worker loop")
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.sleep)
		}
	}
}

// RunOnce performs one pass: drain the queue, step each mission once,
// requeue the running ones, then run the sweepers.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx = logs.WithField(logs.WithNewLogID(ctx), "pass", s.passes.Add(1))
	start := time.Now()

	batch := s.queue.drain()
	if len(batch) > 0 {
		logs.CtxInfo(ctx, "[scheduler] processing %d missions in the queue", len(batch))
	}

	for _, m := range batch {
		mctx := logs.WithField(ctx, "mission", m.ID)
		next := s.step(mctx, m)
		if next.State.Terminal() {
			s.finish(mctx, next)
			continue
		}
		s.queue.push(next)
	}

	for _, sw := range s.sweepers {
		sw.Sweep(ctx, time.Now())
	}

	metrics.MissionQueueLength.Set(float64(s.queue.len()))
	if len(batch) > 0 {
		metrics.MissionPassDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Scheduler) step(ctx context.Context, m *mission.Mission) (next *mission.Mission) {
	defer func() {
		if r := recover(); r != nil {
			logs.CtxError(ctx, "[scheduler] mission %s panicked: %v\n%s", m.ID, r, debug.Stack())
			next = m.WithError(fmt.Sprint(r))
		}
	}()

	stepper, err := s.agents.Build(m.AgentCfg)
	if err != nil {
		return m.WithError(fmt.Sprintf("Agent %s not found", m.AgentCfg.Name))
	}

	metrics.MissionSteps.Inc()
	next = stepper.Step(ctx, m)
	if next == nil {
		return m.WithError("agent returned no mission")
	}
	return next
}

func (s *Scheduler) finish(ctx context.Context, m *mission.Mission) {
	metrics.MissionOutcomes.WithLabelValues(string(m.State)).Inc()
	s.recent.add(m)
	if m.State == mission.StateError {
		logs.CtxWarn(ctx, "[scheduler] mission %s failed after %d steps: %s", m.ID, m.Steps, m.SystemMessage)
		return
	}
	logs.CtxInfo(ctx, "[scheduler] mission %s done after %d steps: %s", m.ID, m.Steps, m.SystemMessage)
}

// cronLogger routes robfig/cron logs into logs.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logs.Debug("[scheduler:cron] %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logs.Error("[scheduler:cron] %s: %v %v", msg, err, keysAndValues)
}
