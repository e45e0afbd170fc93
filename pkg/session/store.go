// Package session keeps the latest lint result for each open buffer.
package session

import (
	"maps"
	"slices"
	"sync"

	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// BufferID names an open buffer. It is assigned by the host and is only
// meaningful for the lifetime of the buffer.
type BufferID string

// State is the outcome of one lint run for one buffer. Diagnostics and
// Regions always come from the same run.
type State struct {
	// Diagnostics maps a 0-based line to the diagnostic reported on it.
	Diagnostics map[int]lint.Diagnostic

	// Regions are the highlight ranges, in diagnostic order. Diagnostics
	// whose line no longer exists have no region.
	Regions []textpos.Region
}

// Empty reports whether the state holds no diagnostics.
func (s State) Empty() bool {
	return len(s.Diagnostics) == 0
}

// Lines returns the lines carrying a diagnostic, ascending.
func (s State) Lines() []int {
	return slices.Sorted(maps.Keys(s.Diagnostics))
}

func (s State) clone() State {
	return State{
		Diagnostics: maps.Clone(s.Diagnostics),
		Regions:     slices.Clone(s.Regions),
	}
}

// Store holds one State per buffer. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	states map[BufferID]State
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{states: make(map[BufferID]State)}
}

// Replace swaps in the result of a run. The previous state is discarded,
// never merged. When several diagnostics share a line the last one is kept.
func (s *Store) Replace(id BufferID, diagnostics []lint.Diagnostic, regions []textpos.Region) State {
	state := State{
		Diagnostics: lint.ByLine(diagnostics),
		Regions:     slices.Clone(regions),
	}

	s.mu.Lock()
	s.states[id] = state
	s.mu.Unlock()

	return state.clone()
}

// Clear empties a buffer's state without forgetting the buffer.
func (s *Store) Clear(id BufferID) {
	s.Replace(id, nil, nil)
}

// Lookup returns the diagnostic on a 0-based line.
func (s *Store) Lookup(id BufferID, line int) (lint.Diagnostic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.states[id].Diagnostics[line]
	return d, ok
}

// DiagnosticAt returns the message on a 0-based line, or "".
func (s *Store) DiagnosticAt(id BufferID, line int) string {
	d, _ := s.Lookup(id, line)
	return d.Message
}

// RegionsOf returns a copy of a buffer's regions.
func (s *Store) RegionsOf(id BufferID) []textpos.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.states[id].Regions)
}

// Snapshot returns a copy of a buffer's state. ok is false for buffers that
// were never linted or have been forgotten.
func (s *Store) Snapshot(id BufferID) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[id]
	if !ok {
		return State{}, false
	}
	return state.clone(), true
}

// Forget drops a buffer's state.
func (s *Store) Forget(id BufferID) {
	s.mu.Lock()
	delete(s.states, id)
	s.mu.Unlock()
}

// Len returns the number of buffers with state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.states)
}
