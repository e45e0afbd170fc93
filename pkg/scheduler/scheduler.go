// Package scheduler debounces bursts of events per key.
//
// Every Trigger arms a delayed callback tagged with a fresh generation. Only
// the callback carrying a key's latest generation does any work; earlier ones
// fire and do nothing. Work results are published through Commit, which
// discards results from runs that have since been superseded.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// AfterFunc arranges for f to be called once after delay.
type AfterFunc func(delay time.Duration, f func())

// Executor runs f, typically on another goroutine.
type Executor func(f func())

// generations is shared by every scheduler so that a generation value is
// never reused, even for a key that was forgotten and triggered again.
var generations atomic.Uint64

// Task identifies one armed callback. It is immutable.
type Task[K comparable] struct {
	Key        K
	Generation uint64
}

// State is the lifecycle state of a key.
type State int

const (
	// Idle means nothing is armed or running.
	Idle State = iota

	// Armed means at least one callback is waiting to fire.
	Armed

	// Running means work is in progress and nothing newer is armed.
	Running
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Options configures a Scheduler. Zero values select the defaults.
type Options[K comparable] struct {
	// After arms callbacks. Defaults to time.AfterFunc.
	After AfterFunc

	// Execute runs work once a callback survives. Defaults to a new
	// goroutine per run.
	Execute Executor

	// OnStale is called for every callback that fires after being
	// superseded.
	OnStale func(Task[K])
}

type entry struct {
	latest  uint64
	armed   int
	running int

	// commit serializes Commit and Forget for one key.
	commit sync.Mutex
}

// Scheduler debounces work per key. It is safe for concurrent use.
type Scheduler[K comparable] struct {
	work    func(Task[K])
	after   AfterFunc
	execute Executor
	onStale func(Task[K])

	mu   sync.Mutex
	keys map[K]*entry
}

// New creates a scheduler that calls work for every surviving task.
func New[K comparable](work func(Task[K]), opts Options[K]) *Scheduler[K] {
	s := &Scheduler[K]{
		work:    work,
		after:   opts.After,
		execute: opts.Execute,
		onStale: opts.OnStale,
		keys:    make(map[K]*entry),
	}
	if s.after == nil {
		s.after = func(delay time.Duration, f func()) { time.AfterFunc(delay, f) }
	}
	if s.execute == nil {
		s.execute = func(f func()) { go f() }
	}
	return s
}

// Trigger records a new event for key and arms a callback after delay.
// Earlier callbacks for the key are not cancelled; they become stale.
func (s *Scheduler[K]) Trigger(key K, delay time.Duration) Task[K] {
	task := Task[K]{Key: key, Generation: generations.Add(1)}

	s.mu.Lock()
	e, ok := s.keys[key]
	if !ok {
		e = &entry{}
		s.keys[key] = e
	}
	e.latest = task.Generation
	e.armed++
	s.mu.Unlock()

	s.after(delay, func() { s.fire(e, task) })
	return task
}

func (s *Scheduler[K]) fire(e *entry, task Task[K]) {
	s.mu.Lock()
	e.armed--
	if s.keys[task.Key] != e || e.latest != task.Generation {
		s.mu.Unlock()
		if s.onStale != nil {
			s.onStale(task)
		}
		return
	}
	e.running++
	s.mu.Unlock()

	s.execute(func() {
		defer func() {
			s.mu.Lock()
			e.running--
			s.mu.Unlock()
		}()
		s.work(task)
	})
}

// Current reports whether task is still the latest for its key.
func (s *Scheduler[K]) Current(task Task[K]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.keys[task.Key]
	return ok && e.latest == task.Generation
}

// Commit calls apply only if task is still the latest for its key. Commits
// for one key never overlap, so a slower superseded run cannot overwrite the
// result of a newer one.
func (s *Scheduler[K]) Commit(task Task[K], apply func()) bool {
	s.mu.Lock()
	e, ok := s.keys[task.Key]
	s.mu.Unlock()
	if !ok {
		return false
	}

	e.commit.Lock()
	defer e.commit.Unlock()

	if !s.Current(task) {
		return false
	}
	apply()
	return true
}

// Forget drops key. It waits for an in-flight Commit on the key to finish;
// afterwards every outstanding task for the key is stale.
func (s *Scheduler[K]) Forget(key K) {
	s.mu.Lock()
	e, ok := s.keys[key]
	delete(s.keys, key)
	s.mu.Unlock()

	if ok {
		e.commit.Lock()
		//nolint:staticcheck // Empty critical section waits for Commit.
		e.commit.Unlock()
	}
}

// State returns the lifecycle state of key.
func (s *Scheduler[K]) State(key K) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.keys[key]
	switch {
	case !ok:
		return Idle
	case e.armed > 0:
		return Armed
	case e.running > 0:
		return Running
	default:
		return Idle
	}
}

// Len returns the number of keys being tracked.
func (s *Scheduler[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.keys)
}
