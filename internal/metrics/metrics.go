// Package metrics provides Prometheus metrics for the supervised encode run.
//
// A Recorder owns its registry and is fed by supervisor events from the bus
// and by ffmpeg progress reports. The registry can be scraped over HTTP or
// written once as a node_exporter textfile when the run ends.
package metrics

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/encodenode/internal/events"
	"github.com/smazurov/encodenode/internal/ffmpeg"
)

const namespace = "encodenode"

// Subscriber is the part of *events.Bus the recorder needs.
type Subscriber interface {
	Subscribe(handler any) func()
}

// Recorder translates supervisor events into metrics.
type Recorder struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	transitions      *prometheus.CounterVec
	recoveries       *prometheus.CounterVec
	recoveryFailures *prometheus.CounterVec
	state            *prometheus.GaugeVec
	runs             *prometheus.CounterVec
	runDuration      prometheus.Gauge

	encoderFPS             prometheus.Gauge
	encoderFrames          prometheus.Gauge
	encoderDroppedFrames   prometheus.Gauge
	encoderDuplicateFrames prometheus.Gauge
	encoderSpeed           prometheus.Gauge

	mu              sync.Mutex
	current         string
	seenTransitions int
	seenRecoveries  int
	finished        *events.RunFinishedEvent
	done            chan struct{}
	doneOnce        sync.Once
	unsubscribe     []func()
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		logger:   logger,
		current:  "uninitialized",
		done:     make(chan struct{}),

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "transitions_total",
			Help:      "Pipeline state transitions",
		}, []string{"from", "to"}),

		recoveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "recoveries_total",
			Help:      "Device recovery attempts by triggering status",
		}, []string{"cause"}),

		recoveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "recovery_failures_total",
			Help:      "Device recovery attempts that failed",
		}, []string{"cause"}),

		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "state",
			Help:      "1 for the current pipeline state, 0 otherwise",
		}, []string{"state"}),

		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "runs_total",
			Help:      "Finished supervised runs by variant and outcome",
		}, []string{"variant", "outcome"}),

		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last finished run from initialization to close",
		}),

		encoderFPS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "fps",
			Help:      "Current encoding FPS",
		}),

		encoderFrames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "frames",
			Help:      "Frames encoded by the current run",
		}),

		encoderDroppedFrames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "dropped_frames",
			Help:      "Dropped frames reported by the current run",
		}),

		encoderDuplicateFrames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "duplicate_frames",
			Help:      "Duplicate frames reported by the current run",
		}),

		encoderSpeed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "encoder",
			Name:      "processing_speed",
			Help:      "Encoding speed as a multiple of real time",
		}),
	}
	r.state.WithLabelValues(r.current).Set(1)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Subscribe registers the recorder's handlers on bus.
func (r *Recorder) Subscribe(bus Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribe = append(r.unsubscribe,
		bus.Subscribe(r.OnStateChanged),
		bus.Subscribe(r.OnRecovery),
		bus.Subscribe(r.OnRunFinished),
	)
}

// Close removes the recorder's bus subscriptions.
func (r *Recorder) Close() {
	r.mu.Lock()
	unsubs := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// OnStateChanged records a transition and moves the state gauge.
func (r *Recorder) OnStateChanged(e events.StateChangedEvent) {
	r.transitions.WithLabelValues(e.From, e.To).Inc()

	r.mu.Lock()
	r.state.WithLabelValues(r.current).Set(0)
	r.state.WithLabelValues(e.To).Set(1)
	r.current = e.To
	r.seenTransitions++
	r.mu.Unlock()

	r.checkDone()
}

// OnRecovery records one recovery attempt.
func (r *Recorder) OnRecovery(e events.RecoveryEvent) {
	r.recoveries.WithLabelValues(e.Cause).Inc()
	if !e.Succeeded {
		r.recoveryFailures.WithLabelValues(e.Cause).Inc()
	}

	r.mu.Lock()
	r.seenRecoveries++
	r.mu.Unlock()

	r.checkDone()
}

// OnRunFinished records the run outcome and duration.
func (r *Recorder) OnRunFinished(e events.RunFinishedEvent) {
	r.runs.WithLabelValues(e.Variant, e.Outcome).Inc()
	r.runDuration.Set(e.Duration.Seconds())
	r.logger.Debug("Run finished", "outcome", e.Outcome, "recoveries", e.Recoveries, "duration", e.Duration)

	r.mu.Lock()
	r.finished = &e
	r.mu.Unlock()

	r.checkDone()
}

// ObserveProgress updates the encoder gauges from one ffmpeg progress block.
func (r *Recorder) ObserveProgress(p ffmpeg.Progress) {
	r.encoderFPS.Set(p.FPS)
	r.encoderFrames.Set(float64(p.Frame))
	r.encoderDroppedFrames.Set(p.DroppedFrames)
	r.encoderDuplicateFrames.Set(p.DuplicateFrames)
	r.encoderSpeed.Set(p.Speed)
}

// checkDone closes done once the run has finished and every event published
// before RunFinished has been recorded.
func (r *Recorder) checkDone() {
	r.mu.Lock()
	complete := r.finished != nil &&
		r.seenTransitions >= r.finished.Transitions &&
		r.seenRecoveries >= r.finished.Recoveries
	r.mu.Unlock()
	if complete {
		r.doneOnce.Do(func() { close(r.done) })
	}
}

// Wait blocks until the finished run is fully recorded or timeout elapses.
// It reports whether the run was fully recorded.
func (r *Recorder) Wait(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		r.logger.Warn("Timed out waiting for run metrics", "timeout", timeout)
		return false
	}
}

// CurrentState returns the last state seen on the bus.
func (r *Recorder) CurrentState() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is written atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
