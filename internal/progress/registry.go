// Package progress provides a per-session, append-only progress event log
// with polling readers. The registry is an explicit dependency handed to the
// orchestrator, not a package-level singleton, so tests can run isolated
// instances. Delivery is best-effort and at-most-once: the owning run cleans
// its session up on completion and readers that have not drained by then
// treat the missing session as end-of-stream.
package progress

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonathan/course-compass/internal/types"
)

// DefaultIdleTTL is how long a session may go without being appended to or
// polled before it is eligible for reaping.
const DefaultIdleTTL = 10 * time.Minute

// DefaultJanitorInterval is how often a janitor sweeps for idle sessions.
const DefaultJanitorInterval = time.Minute

// Registry maps session identifiers to ordered event logs.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
	idleTTL  time.Duration
	now      func() time.Time
}

type sessionLog struct {
	events     []types.ProgressEvent
	lastActive time.Time
}

// NewRegistry creates an empty registry with the default idle TTL.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*sessionLog),
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
	}
}

// Emit appends an event to the session's log, creating the log on first
// use. percent may be nil when a step has no meaningful completion ratio.
func (r *Registry) Emit(session, step, message string, percent *int) {
	if session == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.sessions[session]
	if !ok {
		log = &sessionLog{}
		r.sessions[session] = log
	}
	log.events = append(log.events, types.ProgressEvent{
		Step:      step,
		Message:   message,
		Percent:   percent,
		Timestamp: r.now(),
	})
	log.lastActive = r.now()
}

// Events returns a copy of the session's events starting at index from, and
// whether the session exists at all. Readers track their own last-read
// index; the registry never discards events a live session still holds.
func (r *Registry) Events(session string, from int) ([]types.ProgressEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.sessions[session]
	if !ok {
		return nil, false
	}
	log.lastActive = r.now()
	if from < 0 {
		from = 0
	}
	if from >= len(log.events) {
		return nil, true
	}
	out := make([]types.ProgressEvent, len(log.events)-from)
	copy(out, log.events[from:])
	return out, true
}

// Cleanup removes the session's log. Called by the owning orchestrator once
// the run reaches a terminal state.
func (r *Registry) Cleanup(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, session)
}

// Sessions returns the identifiers of all live sessions.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// ReapIdle removes sessions that have seen no append or poll within the
// registry's idle TTL, covering runs whose owner never reached Cleanup.
// Returns the number of sessions removed.
func (r *Registry) ReapIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, log := range r.sessions {
		if log.lastActive.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions on a fixed interval until ctx is
// cancelled, covering sessions whose owner never reached Cleanup. A
// non-positive interval uses DefaultJanitorInterval.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.ReapIdle(); n > 0 {
					log.Printf("Progress janitor reaped %d idle session(s)", n)
				}
			}
		}
	}()
}
