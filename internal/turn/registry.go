// Package turn serializes turn processing per session and tracks the
// cancellable response-synthesis phase so a barge-in can cut it short.
//
// At most one turn per session is in flight at a time; turns for different
// sessions proceed concurrently. A barge-in cancels only the synthesis
// context of the in-flight turn, never its state computation or persistence.
package turn

import (
	"context"
	"sync"
)

// Registry owns one slot per active session.
type Registry struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	mu            sync.Mutex
	synthesisStop context.CancelFunc
	stopMu        sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		slots: make(map[string]*slot),
	}
}

// Acquire blocks until no other turn for the session is in flight, then
// claims the slot. The returned release function must be called when the
// turn finishes.
func (r *Registry) Acquire(sessionID string) (release func()) {
	s := r.slot(sessionID)
	s.mu.Lock()
	return s.mu.Unlock
}

// BeginSynthesis derives a cancellable context for the response-synthesis
// phase of the session's in-flight turn. The returned done function clears
// the cancellation hook; it must be called when synthesis ends.
func (r *Registry) BeginSynthesis(ctx context.Context, sessionID string) (context.Context, func()) {
	s := r.slot(sessionID)
	synthCtx, cancel := context.WithCancel(ctx)

	s.stopMu.Lock()
	s.synthesisStop = cancel
	s.stopMu.Unlock()

	return synthCtx, func() {
		s.stopMu.Lock()
		if s.synthesisStop != nil {
			s.synthesisStop()
			s.synthesisStop = nil
		}
		s.stopMu.Unlock()
	}
}

// BargeIn cancels the synthesis phase of the session's in-flight turn, if
// one is running. It reports whether anything was cancelled.
func (r *Registry) BargeIn(sessionID string) bool {
	r.mu.Lock()
	s, ok := r.slots[sessionID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	if s.synthesisStop == nil {
		return false
	}
	s.synthesisStop()
	s.synthesisStop = nil
	return true
}

// Forget drops the session's slot after teardown.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.slots, sessionID)
	r.mu.Unlock()
}

func (r *Registry) slot(sessionID string) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[sessionID]
	if !ok {
		s = &slot{}
		r.slots[sessionID] = s
	}
	return s
}
