package executor

import (
	"context"
	"sync"
	"time"

	"github.com/bacopilot/docorch/internal/scheduler"
)

// runHandle tracks one in-flight run for the Registry: its cancel func and
// the last time the Executor reported activity on it.
type runHandle struct {
	cancel     context.CancelFunc
	lastActive time.Time
}

// Registry tracks every currently-executing run so a ReaperJob can find
// and cancel ones that have gone quiet — e.g. a websocket client that
// vanished mid-run without ever sending a decision, leaving the Executor
// blocked in await_decision with no DecisionTimeout configured.
type Registry struct {
	mu    sync.Mutex
	runs  map[string]*runHandle
	idle  time.Duration
}

// NewRegistry builds a Registry that considers a run stale once it has
// gone idle longer than maxIdle.
func NewRegistry(maxIdle time.Duration) *Registry {
	return &Registry{runs: make(map[string]*runHandle), idle: maxIdle}
}

// Track registers runID with the context-cancel function that aborts it,
// and returns a touch func that resets the run's idle clock (Execute calls
// it at the start of every step), plus an untrack func to call when the
// run ends.
func (r *Registry) Track(runID string, cancel context.CancelFunc) (touch func(), untrack func()) {
	r.mu.Lock()
	r.runs[runID] = &runHandle{cancel: cancel, lastActive: time.Now()}
	r.mu.Unlock()

	touch = func() {
		r.mu.Lock()
		if h, ok := r.runs[runID]; ok {
			h.lastActive = time.Now()
		}
		r.mu.Unlock()
	}
	untrack = func() {
		r.mu.Lock()
		delete(r.runs, runID)
		r.mu.Unlock()
	}
	return touch, untrack
}

// reapStale cancels every tracked run whose lastActive exceeds the
// configured idle bound, returning how many it cancelled.
func (r *Registry) reapStale() int {
	cutoff := time.Now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for id, h := range r.runs {
		if h.lastActive.Before(cutoff) {
			h.cancel()
			delete(r.runs, id)
			reaped++
		}
	}
	return reaped
}

// ReaperJob adapts Registry to scheduler.Job (internal/scheduler), so a
// process wiring an Executor can schedule it on a ticker the same way the
// rest of this codebase schedules periodic work.
type ReaperJob struct {
	registry *Registry
}

// NewReaperJob builds a scheduler.Job that periodically cancels stale runs.
func NewReaperJob(registry *Registry) *ReaperJob {
	return &ReaperJob{registry: registry}
}

func (j *ReaperJob) Name() string { return "executor-stale-run-reaper" }

func (j *ReaperJob) Run(ctx context.Context) error {
	j.registry.reapStale()
	return nil
}

var _ scheduler.Job = (*ReaperJob)(nil)
