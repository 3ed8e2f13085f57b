package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"devicecore-go/errcode"
)

// State is the lifecycle of a thread as reported by ps.
type State uint32

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Spec describes a thread to spawn. Priority and StackSize are recorded
// and reported; the Go runtime neither needs nor honours them.
type Spec struct {
	Name      string
	Priority  uint8
	StackSize int
	Entry     func(ctx context.Context) error
}

// Thread is one named execution unit.
type Thread struct {
	pid   int
	spec  Spec
	state atomic.Uint32
}

func (t *Thread) PID() int         { return t.pid }
func (t *Thread) Name() string     { return t.spec.Name }
func (t *Thread) Priority() uint8  { return t.spec.Priority }
func (t *Thread) StackSize() int   { return t.spec.StackSize }
func (t *Thread) State() State     { return State(t.state.Load()) }
func (t *Thread) setState(s State) { t.state.Store(uint32(s)) }

// Info is a snapshot of a thread for listings.
type Info struct {
	PID       int
	Name      string
	Priority  uint8
	StackSize int
	State     State
}

type selfKey struct{}

// Self returns the thread running under ctx.
func Self(ctx context.Context) (*Thread, bool) {
	t, ok := ctx.Value(selfKey{}).(*Thread)
	return t, ok
}

// Name returns the running thread's name, or "unnamed".
func Name(ctx context.Context) string {
	if t, ok := Self(ctx); ok && t.spec.Name != "" {
		return t.spec.Name
	}
	return "unnamed"
}

// Scheduler owns every thread. Threads are numbered from 1 in spawn order.
// The first error returned by any thread cancels the rest; a thread that
// returns nil simply finishes.
type Scheduler struct {
	log *slog.Logger

	mu      sync.Mutex
	threads []*Thread
	g       *errgroup.Group
	gctx    context.Context
}

func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{log: log}
}

// Spawn registers a thread. Before Run it is queued; while running it
// starts at once.
func (s *Scheduler) Spawn(spec Spec) (*Thread, error) {
	if spec.Entry == nil {
		return nil, errcode.New(errcode.InvalidParams, "spawn", "nil entry")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gctx != nil && s.gctx.Err() != nil {
		return nil, errcode.New(errcode.Unsupported, "spawn", "scheduler stopped")
	}
	for _, t := range s.threads {
		if t.spec.Name == spec.Name {
			return nil, errcode.New(errcode.Conflict, "spawn", "duplicate thread "+spec.Name)
		}
	}
	t := &Thread{pid: len(s.threads) + 1, spec: spec}
	s.threads = append(s.threads, t)
	if s.g != nil {
		s.start(t)
	}
	return t, nil
}

// Run starts every queued thread and waits until all have finished, or
// until one fails. It returns the first failure.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.g != nil {
		s.mu.Unlock()
		return errcode.New(errcode.Unsupported, "run", "already running")
	}
	s.g, s.gctx = errgroup.WithContext(ctx)
	for _, t := range s.threads {
		s.start(t)
	}
	g := s.g
	s.mu.Unlock()
	return g.Wait()
}

// start runs t on the group; s.mu held.
func (s *Scheduler) start(t *Thread) {
	ctx := context.WithValue(s.gctx, selfKey{}, t)
	s.g.Go(func() (err error) {
		t.setState(StateRunning)
		s.log.Debug("thread start", "pid", t.pid, "name", t.spec.Name, "prio", t.spec.Priority)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("thread %s panicked: %v", t.spec.Name, r)
			}
			if err != nil {
				t.setState(StateFailed)
				s.log.Error("thread failed", "pid", t.pid, "name", t.spec.Name, "err", err)
				return
			}
			t.setState(StateDone)
			s.log.Debug("thread exit", "pid", t.pid, "name", t.spec.Name)
		}()
		return t.spec.Entry(ctx)
	})
}

// Threads lists all threads, highest priority (lowest number) first.
func (s *Scheduler) Threads() []Info {
	s.mu.Lock()
	out := make([]Info, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, Info{
			PID:       t.pid,
			Name:      t.spec.Name,
			Priority:  t.spec.Priority,
			StackSize: t.spec.StackSize,
			State:     t.State(),
		})
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].PID < out[j].PID
	})
	return out
}
