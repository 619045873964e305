package sender

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/keysender/keysender/pkg/logger"
)

// State is the run state of a Sender.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Dispatcher queues notification callbacks. *dispatch.Queue implements it.
type Dispatcher interface {
	Add(fn func())
}

type run struct {
	id     uuid.UUID
	policy Policy
	cancel context.CancelFunc
	done   chan struct{}
	// ended is set exactly once, by Stop or by natural completion,
	// whichever comes first.
	ended atomic.Bool
}

// Sender is the key sequence scheduler.
type Sender struct {
	emitter Emitter
	queue   Dispatcher
	log     logger.Logger
	now     func() time.Time

	mu        sync.Mutex
	policy    Policy
	run       *run
	last      *run
	observers []Observer
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// New creates an idle Sender emitting through em and notifying observers
// through queue.
func New(em Emitter, queue Dispatcher, log logger.Logger) *Sender {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Sender{
		emitter: em,
		queue:   queue,
		log:     log,
		now:     time.Now,
	}
}

// Subscribe registers an observer for run notifications.
func (s *Sender) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs := make([]Observer, len(s.observers), len(s.observers)+1)
	copy(obs, s.observers)
	s.observers = append(obs, o)
}

// SetPolicy replaces the configured policy. It fails with ErrRunning while
// a run is active.
func (s *Sender) SetPolicy(p Policy) error {
	if p == nil {
		return ErrNoPolicy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return ErrRunning
	}
	s.policy = p
	return nil
}

// Policy returns the configured policy, or nil.
func (s *Sender) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// State returns the current run state.
func (s *Sender) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return Running
	}
	return Idle
}

// Done returns a channel closed when the playback goroutine of the most
// recent run has exited. Before the first run it is already closed.
func (s *Sender) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return closedChan
	}
	return s.last.done
}

// Start begins playback of the configured policy. It returns once the run
// has been launched and one started notification per subscribed observer
// queued; with no observers nothing is queued.
func (s *Sender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

// StartWith configures p and starts it.
func (s *Sender) StartWith(p Policy) error {
	if p == nil {
		return ErrNoPolicy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return ErrAlreadyRunning
	}
	s.policy = p
	return s.startLocked()
}

// Stop cancels the active run without waiting for its goroutine to exit.
// Stop on an idle Sender does nothing.
func (s *Sender) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Toggle starts an idle Sender or stops a running one and returns the new
// state.
func (s *Sender) Toggle() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		s.stopLocked()
		return Idle, nil
	}
	if err := s.startLocked(); err != nil {
		return Idle, err
	}
	return Running, nil
}

func (s *Sender) runningLocked() bool {
	return s.run != nil && !s.run.ended.Load()
}

func (s *Sender) startLocked() error {
	if s.policy == nil {
		return ErrNoPolicy
	}
	if s.runningLocked() {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.New(),
		policy: s.policy,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.run = r
	s.last = r
	go s.play(ctx, r)
	s.log.Info("sender: run %s started: %s", r.id, r.policy)
	s.notifyLocked(r, Running, ReasonRequested)
	return nil
}

func (s *Sender) stopLocked() {
	r := s.run
	if r == nil || !r.ended.CompareAndSwap(false, true) {
		return
	}
	r.cancel()
	s.run = nil
	s.log.Info("sender: run %s stopped", r.id)
	s.notifyLocked(r, Idle, ReasonRequested)
}

func (s *Sender) play(ctx context.Context, r *run) {
	defer close(r.done)
	completed := r.policy.play(ctx, s.emitter)
	if !completed {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !r.ended.CompareAndSwap(false, true) {
		return
	}
	r.cancel()
	if s.run == r {
		s.run = nil
	}
	s.log.Info("sender: run %s completed", r.id)
	s.notifyLocked(r, Idle, ReasonCompleted)
}

// notifyLocked queues one callback per observer so a failing observer
// cannot affect the others.
func (s *Sender) notifyLocked(r *run, state State, reason Reason) {
	if s.queue == nil {
		return
	}
	n := Notification{
		RunID:  r.id,
		State:  state,
		Reason: reason,
		Policy: r.policy,
		At:     s.now(),
	}
	for _, o := range s.observers {
		o := o
		if state == Running {
			s.queue.Add(func() { o.OnStarted(n) })
		} else {
			s.queue.Add(func() { o.OnStopped(n) })
		}
	}
}
