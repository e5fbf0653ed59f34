// Package worker runs non-atomic command handlers off the event loop. It
// replaces the original implementation's fork-and-shared-memory isolation
// with a goroutine and a capacity-1 result channel: one in-flight handler at
// a time, cancellable, whose completion is observed by the event loop's
// select rather than a SIGCHLD/waitpid dance.
package worker

import (
	"context"

	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/wire"
)

// Result is what a finished handler reports back to the event loop.
type Result struct {
	Code int
	Out  *wire.Table
}

// Supervisor runs at most one non-atomic handler at a time, rejecting a new
// Start while the previous one is still running — the same single-worker
// constraint the original enforced by refusing to fork a second helper while
// one was already live.
type Supervisor struct {
	running bool
	cancel  context.CancelFunc
	results chan Result
}

// New returns an idle supervisor.
func New() *Supervisor {
	return &Supervisor{results: make(chan Result, 1)}
}

// Running reports whether a handler is currently executing.
func (s *Supervisor) Running() bool {
	return s.running
}

// Start launches fn in its own goroutine under a cancellable context derived
// from parent. It panics if a handler is already running; callers must check
// Running first (the dispatcher's busy/EBUSY check happens before Start is
// ever reached).
func (s *Supervisor) Start(parent context.Context, fn registry.HandlerFunc, args *wire.Table) {
	if s.running {
		panic("worker: Start called while a handler is already running")
	}
	ctx, cancel := context.WithCancel(parent)
	s.running = true
	s.cancel = cancel

	go func() {
		out := wire.NewTable()
		code := fn(ctx, args, out)
		s.results <- Result{Code: code, Out: out}
	}()
}

// Cancel hard-stops the running handler's context, used when !reset or a
// new assignment preempts an in-flight worker. It does not block for the
// goroutine to observe cancellation; the result (if any) still arrives on
// Results and should be discarded by the caller once a new assignment
// supersedes it.
func (s *Supervisor) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Results is the channel the event loop selects on for worker completion.
// The caller must call Done after consuming a value to clear Running and
// allow the next Start.
func (s *Supervisor) Results() <-chan Result {
	return s.results
}

// Done clears the running state once the event loop has consumed a Result
// from Results. Separating this from the channel receive keeps Supervisor's
// bookkeeping out of the select statement itself.
func (s *Supervisor) Done() {
	s.running = false
	s.cancel = nil
}
