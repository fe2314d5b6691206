package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/registry"
)

// countdownStepper finishes a mission after it has been stepped n times.
type countdownStepper struct{ n int }

func (c countdownStepper) Step(_ context.Context, in *mission.Mission) *mission.Mission {
	m := in.Clone()
	m.Steps++
	m.State = mission.StateRunning
	if m.Steps >= c.n {
		m.State = mission.StateDone
		m.SystemMessage = "Final answer found"
	}
	return m
}

// logIDStepper records the log id each step ran under.
type logIDStepper struct{ ids *[]string }

func (r logIDStepper) Step(ctx context.Context, in *mission.Mission) *mission.Mission {
	*r.ids = append(*r.ids, logs.GetLogID(ctx))
	m := in.Clone()
	m.State = mission.StateRunning
	return m
}

type panicStepper struct{}

func (panicStepper) Step(context.Context, *mission.Mission) *mission.Mission {
	panic("tool exploded")
}

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep(context.Context, time.Time) int {
	c.calls.Add(1)
	return 0
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	agents := registry.NewCatalog[mission.Stepper](registry.Agent)
	require.NoError(t, agents.Register("Countdown", func(map[string]any) (mission.Stepper, error) { return countdownStepper{n: 3}, nil }))
	require.NoError(t, agents.Register("Panic", func(map[string]any) (mission.Stepper, error) { return panicStepper{}, nil }))
	return New(agents, Options{SleepInterval: 10 * time.Millisecond, RecentSize: 4})
}

func template(agent string) mission.Template {
	return mission.Template{Task: "t", AgentCfg: registry.ClassRegistration{Name: agent}}
}

func TestRunOnceRequeuesUntilTerminal(t *testing.T) {
	s := newTestScheduler(t)
	sw := &countingSweeper{}
	s.AddSweeper(sw)

	m := s.EnqueueFactory(template("Countdown").Factory())
	require.Equal(t, 1, s.Len())

	ctx := context.Background()
	s.RunOnce(ctx)
	s.RunOnce(ctx)
	assert.Equal(t, 1, s.Len(), "running mission is requeued")
	assert.Empty(t, s.Recent())

	s.RunOnce(ctx)
	assert.Equal(t, 0, s.Len(), "terminal mission is dropped")
	require.Len(t, s.Recent(), 1)
	assert.Equal(t, m.ID, s.Recent()[0].ID)
	assert.Equal(t, mission.StateDone, s.Recent()[0].State)
	assert.Equal(t, int32(3), sw.calls.Load())
}

func TestRunOnceRecoversPanic(t *testing.T) {
	s := newTestScheduler(t)
	s.Enqueue(template("Panic").New())
	s.Enqueue(template("Countdown").New())

	s.RunOnce(context.Background())

	assert.Equal(t, 1, s.Len(), "the healthy mission survives")
	recent := s.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, mission.StateError, recent[0].State)
	assert.Equal(t, "tool exploded", recent[0].SystemMessage)
}

func TestUnknownAgent(t *testing.T) {
	s := newTestScheduler(t)
	s.Enqueue(template("Ghost").New())
	s.RunOnce(context.Background())

	require.Len(t, s.Recent(), 1)
	assert.Equal(t, "Agent Ghost not found", s.Recent()[0].SystemMessage)
}

func TestFactoryBuildsDistinctMissions(t *testing.T) {
	s := newTestScheduler(t)
	f := template("Countdown").Factory()
	a := s.EnqueueFactory(f)
	b := s.EnqueueFactory(f)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Task, b.Task)
	assert.Equal(t, 2, s.Len())
}

func TestRecentRingIsBounded(t *testing.T) {
	s := newTestScheduler(t)
	var last string
	for i := 0; i < 6; i++ {
		last = s.Enqueue(template("Ghost").New()).ID
	}
	s.RunOnce(context.Background())

	recent := s.Recent()
	assert.Len(t, recent, 4)
	assert.Equal(t, last, recent[0].ID, "newest first")
}

func TestRegisterRecurring(t *testing.T) {
	s := newTestScheduler(t)

	_, err := s.RegisterRecurring(0, template("Countdown").Factory(), false)
	assert.Error(t, err)

	var built atomic.Int32
	f := func() *mission.Mission {
		built.Add(1)
		return template("Countdown").New()
	}
	_, err = s.RegisterRecurring(time.Second, f, true)
	require.NoError(t, err)
	assert.Equal(t, int32(1), built.Load(), "runNow admits one instance at registration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	assert.Eventually(t, func() bool { return built.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool { return len(s.Recent()) >= 1 }, 3*time.Second, 10*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)
}

func TestEachPassGetsItsOwnLogID(t *testing.T) {
	var ids []string
	agents := registry.NewCatalog[mission.Stepper](registry.Agent)
	require.NoError(t, agents.Register("Record", func(map[string]any) (mission.Stepper, error) { return logIDStepper{ids: &ids}, nil }))
	s := New(agents, Options{})

	s.EnqueueFactory(template("Record").Factory())
	s.EnqueueFactory(template("Record").Factory())
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())

	require.Len(t, ids, 4)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1], "missions of one pass share the pass log id")
	assert.NotEqual(t, ids[1], ids[2])
	assert.Equal(t, uint64(2), s.passes.Load())
}
