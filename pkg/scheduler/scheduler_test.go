package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dersebi/GoSublime/pkg/scheduler"
)

// manualClock collects armed callbacks until the test fires them.
type manualClock struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (c *manualClock) After(delay time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	c.delays = append(c.delays, delay)
}

func (c *manualClock) FireAll() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, f := range pending {
		f()
	}
}

func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func inline(f func()) { f() }

type recorder struct {
	mu    sync.Mutex
	tasks []scheduler.Task[string]
	stale []scheduler.Task[string]
}

func (r *recorder) work(task scheduler.Task[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
}

func (r *recorder) onStale(task scheduler.Task[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = append(r.stale, task)
}

func newScheduler(clock *manualClock, rec *recorder) *scheduler.Scheduler[string] {
	return scheduler.New(rec.work, scheduler.Options[string]{
		After:   clock.After,
		Execute: inline,
		OnStale: rec.onStale,
	})
}

func TestScheduler_BurstRunsOnce(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	rec := &recorder{}
	sched := newScheduler(clock, rec)

	var last scheduler.Task[string]
	for range 5 {
		last = sched.Trigger("a", 500*time.Millisecond)
	}
	assert.Equal(t, scheduler.Armed, sched.State("a"))
	require.Equal(t, 5, clock.Pending())

	clock.FireAll()

	require.Len(t, rec.tasks, 1)
	assert.Equal(t, last, rec.tasks[0])
	assert.Len(t, rec.stale, 4)
	assert.Equal(t, scheduler.Idle, sched.State("a"))
}

func TestScheduler_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	rec := &recorder{}
	sched := newScheduler(clock, rec)

	sched.Trigger("a", time.Millisecond)
	sched.Trigger("b", time.Millisecond)
	clock.FireAll()

	require.Len(t, rec.tasks, 2, "an edit to b must not suppress a")
	assert.Equal(t, "a", rec.tasks[0].Key)
	assert.Equal(t, "b", rec.tasks[1].Key)
	assert.Empty(t, rec.stale)
}

func TestScheduler_GenerationsIncrease(t *testing.T) {
	t.Parallel()

	sched := scheduler.New(func(scheduler.Task[int]) {}, scheduler.Options[int]{
		After: func(time.Duration, func()) {},
	})

	first := sched.Trigger(1, 0)
	second := sched.Trigger(2, 0)
	third := sched.Trigger(1, 0)

	assert.Less(t, first.Generation, second.Generation)
	assert.Less(t, second.Generation, third.Generation)
	assert.False(t, sched.Current(first))
	assert.True(t, sched.Current(third))
}

func TestScheduler_Commit(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	rec := &recorder{}
	sched := newScheduler(clock, rec)

	older := sched.Trigger("a", 0)
	newer := sched.Trigger("a", 0)

	applied := 0
	assert.False(t, sched.Commit(older, func() { applied++ }), "superseded run is discarded")
	assert.True(t, sched.Commit(newer, func() { applied++ }))
	assert.Equal(t, 1, applied)

	// Committing the same task twice is allowed; the store write is idempotent.
	assert.True(t, sched.Commit(newer, func() { applied++ }))
	assert.Equal(t, 2, applied)
}

func TestScheduler_Forget(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	rec := &recorder{}
	sched := newScheduler(clock, rec)

	task := sched.Trigger("a", 0)
	sched.Forget("a")

	assert.Equal(t, scheduler.Idle, sched.State("a"))
	assert.Equal(t, 0, sched.Len())
	assert.False(t, sched.Commit(task, func() { t.Fatal("commit after forget") }))

	clock.FireAll()
	assert.Empty(t, rec.tasks)
	assert.Len(t, rec.stale, 1)

	// The key can be used again, and callbacks armed before Forget stay stale.
	stale := sched.Trigger("b", 0)
	sched.Forget("b")
	fresh := sched.Trigger("b", 0)
	clock.FireAll()

	require.Len(t, rec.tasks, 1)
	assert.Equal(t, fresh, rec.tasks[0])
	assert.NotEqual(t, stale.Generation, fresh.Generation)
}

func TestScheduler_ForgetWaitsForCommit(t *testing.T) {
	t.Parallel()

	sched := scheduler.New(func(scheduler.Task[string]) {}, scheduler.Options[string]{
		After: func(time.Duration, func()) {},
	})
	task := sched.Trigger("a", 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	committed := make(chan bool)

	go func() {
		committed <- sched.Commit(task, func() {
			close(entered)
			<-release
		})
	}()
	<-entered

	forgotten := make(chan struct{})
	go func() {
		sched.Forget("a")
		close(forgotten)
	}()

	select {
	case <-forgotten:
		t.Fatal("Forget returned while a commit was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.True(t, <-committed)
	<-forgotten
	assert.False(t, sched.Commit(task, func() {}))
}

func TestScheduler_RunningState(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	sched := scheduler.New(func(scheduler.Task[string]) {
		close(started)
		<-release
	}, scheduler.Options[string]{
		After: clock.After,
		Execute: func(f func()) {
			go func() {
				f()
				close(done)
			}()
		},
	})

	sched.Trigger("a", 0)
	clock.FireAll()
	<-started
	assert.Equal(t, scheduler.Running, sched.State("a"))

	sched.Trigger("a", 0)
	assert.Equal(t, scheduler.Armed, sched.State("a"))

	close(release)
	<-done
	assert.Equal(t, scheduler.Armed, sched.State("a"))
}

func TestScheduler_DefaultsUseRealTimers(t *testing.T) {
	t.Parallel()

	ran := make(chan scheduler.Task[string], 1)
	sched := scheduler.New(func(task scheduler.Task[string]) { ran <- task }, scheduler.Options[string]{})

	task := sched.Trigger("a", time.Millisecond)
	select {
	case got := <-ran:
		assert.Equal(t, task, got)
	case <-time.After(5 * time.Second):
		t.Fatal("work never ran")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "armed", scheduler.Armed.String())
	assert.Equal(t, "unknown", scheduler.State(9).String())
}
