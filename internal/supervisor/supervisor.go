// Package supervisor drives one pipeline instance from initialization through
// the run/recover loop to shutdown.
//
// A device lost or device failed status from the run step is retried in
// place: the supervisor moves Running -> Lost -> Recovering, resets the device
// and then the components, and on success returns to Running. There is no
// limit on recovery attempts; only a failing reset ends the run.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/encodenode/internal/events"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/resolver"
)

// Publisher receives supervisor events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// Options configures a Supervisor. Zero values are usable.
type Options struct {
	Logger *slog.Logger
	Bus    Publisher
	RunID  string
	Now    func() time.Time
}

// Stats is a snapshot of a supervisor's counters.
type Stats struct {
	State       State
	Variant     pipeline.Variant
	Transitions int
	Recoveries  int
	StartedAt   time.Time
}

// Supervisor owns a pipeline for the process lifetime. Its operations are not
// meant to be called concurrently; Stats and State may be read from any goroutine.
type Supervisor struct {
	pipeline pipeline.Pipeline
	variant  pipeline.Variant
	logger   *slog.Logger
	bus      Publisher
	runID    string
	now      func() time.Time

	cfg resolver.Config

	mu          sync.RWMutex
	state       State
	transitions int
	recoveries  int
	startedAt   time.Time
}

// New creates a supervisor for p, built for variant v.
func New(p pipeline.Pipeline, v pipeline.Variant, opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Supervisor{
		pipeline: p,
		variant:  v,
		logger:   logger,
		bus:      opts.Bus,
		runID:    opts.RunID,
		now:      now,
		state:    StateUninitialized,
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats returns the current counters.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		State:       s.state,
		Variant:     s.variant,
		Transitions: s.transitions,
		Recoveries:  s.recoveries,
		StartedAt:   s.startedAt,
	}
}

func (s *Supervisor) transition(to State) error {
	s.mu.Lock()
	from := s.state
	if !CanTransition(from, to) {
		s.mu.Unlock()
		return &TransitionError{From: from, To: to}
	}
	s.state = to
	s.transitions++
	n := s.transitions
	s.mu.Unlock()

	s.logger.Info("Pipeline state changed", "from", from, "to", to, "transition", n)
	s.publish(events.StateChangedEvent{
		RunID:      s.runID,
		From:       string(from),
		To:         string(to),
		Transition: n,
		Timestamp:  s.now(),
	})
	return nil
}

func (s *Supervisor) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// Initialize hands cfg to the pipeline. Multiview settings are applied before
// Init. A non-success status is fatal; initialization is never retried.
func (s *Supervisor) Initialize(cfg resolver.Config) error {
	if st := s.State(); st != StateUninitialized {
		return &TransitionError{From: st, To: StateInitialized}
	}
	s.cfg = cfg

	if cfg.MultiView() {
		s.pipeline.SetMultiView()
		s.pipeline.SetNumViews(cfg.NumViews())
	}

	if status := s.pipeline.Init(cfg); status != pipeline.StatusSuccess {
		s.logger.Error("Pipeline initialization failed", "variant", s.variant, "status", status)
		return &Error{Kind: ErrInitializationFailure, Stage: "init", Status: status}
	}

	s.mu.Lock()
	s.startedAt = s.now()
	s.mu.Unlock()
	return s.transition(StateInitialized)
}

// ReportConfiguration writes the pipeline's description of its configuration to w.
func (s *Supervisor) ReportConfiguration(w io.Writer) {
	fmt.Fprintf(w, "Pipeline variant:\t%s\n", s.variant)
	s.pipeline.PrintInfo(w)
}

// StartCapture starts push-based input. A failure skips the run loop.
func (s *Supervisor) StartCapture() error {
	if status := s.pipeline.CaptureStart(); status != pipeline.StatusSuccess {
		s.logger.Error("Capture start failed, terminating", "status", status)
		return &Error{Kind: ErrCaptureStartFailure, Stage: "capture_start", Status: status}
	}
	return nil
}

// RunLoop invokes the run step until it succeeds or fails unrecoverably.
func (s *Supervisor) RunLoop() error {
	if err := s.transition(StateRunning); err != nil {
		return err
	}

	for {
		status := s.pipeline.Run()
		switch {
		case status == pipeline.StatusSuccess:
			s.logger.Info("Processing finished")
			return nil
		case status.Recoverable():
			if err := s.recover(status); err != nil {
				return err
			}
		default:
			s.logger.Error("Pipeline run failed", "status", status)
			return &Error{Kind: ErrUnrecoverableRuntimeFailure, Stage: "run", Status: status}
		}
	}
}

// recover performs one Lost -> Recovering -> Running cycle.
func (s *Supervisor) recover(cause pipeline.Status) error {
	if err := s.transition(StateLost); err != nil {
		return err
	}

	s.mu.Lock()
	s.recoveries++
	attempt := s.recoveries
	s.mu.Unlock()

	s.logger.Warn("Hardware device was lost or returned an unexpected error, recovering",
		"status", cause, "attempt", attempt)

	if err := s.transition(StateRecovering); err != nil {
		return err
	}

	fail := func(stage string, status pipeline.Status) error {
		err := &Error{Kind: ErrRecoveryFailure, Stage: stage, Status: status}
		s.logger.Error("Recovery failed", "stage", stage, "status", status, "attempt", attempt)
		s.publish(events.RecoveryEvent{
			RunID:     s.runID,
			Attempt:   attempt,
			Cause:     cause.String(),
			Error:     err.Error(),
			Timestamp: s.now(),
		})
		return err
	}

	if status := s.pipeline.ResetDevice(); status != pipeline.StatusSuccess {
		return fail("reset_device", status)
	}
	if status := s.pipeline.ResetComponents(s.cfg); status != pipeline.StatusSuccess {
		return fail("reset_components", status)
	}

	s.publish(events.RecoveryEvent{
		RunID:     s.runID,
		Attempt:   attempt,
		Cause:     cause.String(),
		Succeeded: true,
		Timestamp: s.now(),
	})
	return s.transition(StateRunning)
}

// Shutdown stops capture, closes the pipeline and moves to Closed. It is
// idempotent and valid from every state.
func (s *Supervisor) Shutdown() {
	if s.State() == StateClosed {
		return
	}
	s.pipeline.CaptureStop()
	s.pipeline.Close()
	_ = s.transition(StateClosed)
}

// Execute runs the whole lifecycle: initialize, report to info, start capture,
// run the loop, and always shut down.
func (s *Supervisor) Execute(cfg resolver.Config, info io.Writer) (err error) {
	defer func() {
		s.Shutdown()
		s.finish(err)
	}()

	if err = s.Initialize(cfg); err != nil {
		return err
	}
	s.ReportConfiguration(info)

	s.logger.Info("Processing started", "variant", s.variant)
	if err = s.StartCapture(); err != nil {
		return err
	}
	return s.RunLoop()
}

func (s *Supervisor) finish(err error) {
	stats := s.Stats()
	ev := events.RunFinishedEvent{
		RunID:       s.runID,
		Variant:     s.variant.String(),
		Outcome:     "success",
		Recoveries:  stats.Recoveries,
		Transitions: stats.Transitions,
		Timestamp:   s.now(),
	}
	if !stats.StartedAt.IsZero() {
		ev.Duration = ev.Timestamp.Sub(stats.StartedAt)
	}
	if err != nil {
		ev.Outcome = "error"
		var serr *Error
		if errors.As(err, &serr) {
			ev.Outcome = string(serr.Kind)
		}
		ev.Error = err.Error()
	}
	s.publish(ev)
}
