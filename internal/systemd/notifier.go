// Package systemd reports the supervised run's lifecycle to the service
// manager over sd_notify.
package systemd

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/encodenode/internal/events"
)

// NotifyFunc sends one notification. daemon.SdNotify satisfies it.
type NotifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Subscriber is the part of *events.Bus the notifier needs.
type Subscriber interface {
	Subscribe(handler any) func()
}

// Notifier turns supervisor events into sd_notify messages: READY=1 on the
// first Running state, STATUS on every recovery and STOPPING=1 on Closed.
type Notifier struct {
	notify NotifyFunc
	logger *slog.Logger

	mu          sync.Mutex
	ready       bool
	unsupported bool
	unsubscribe []func()
	stopped     chan struct{}
	stopOnce    sync.Once
}

// NewNotifier creates a notifier that talks to $NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	return NewNotifierWith(daemon.SdNotify, logger)
}

// NewNotifierWith creates a notifier sending through notify.
func NewNotifierWith(notify NotifyFunc, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{
		notify:  notify,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Subscribe registers the notifier's handlers on bus.
func (n *Notifier) Subscribe(bus Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsubscribe = append(n.unsubscribe,
		bus.Subscribe(n.OnStateChanged),
		bus.Subscribe(n.OnRecovery),
	)
}

// Close removes the notifier's bus subscriptions.
func (n *Notifier) Close() {
	n.mu.Lock()
	unsubs := n.unsubscribe
	n.unsubscribe = nil
	n.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// Stopped is closed once STOPPING=1 has been sent.
func (n *Notifier) Stopped() <-chan struct{} {
	return n.stopped
}

// OnStateChanged sends readiness and stop notifications.
func (n *Notifier) OnStateChanged(e events.StateChangedEvent) {
	switch e.To {
	case "running":
		n.mu.Lock()
		first := !n.ready
		n.ready = true
		n.mu.Unlock()
		if first {
			n.send(daemon.SdNotifyReady + "\nSTATUS=Encoding")
			return
		}
		n.send("STATUS=Encoding")
	case "lost":
		n.send("STATUS=Hardware device lost, recovering")
	case "closed":
		n.send(daemon.SdNotifyStopping + "\nSTATUS=Stopped")
		n.stopOnce.Do(func() { close(n.stopped) })
	}
}

// OnRecovery reports the outcome of a recovery attempt.
func (n *Notifier) OnRecovery(e events.RecoveryEvent) {
	if e.Succeeded {
		n.send(fmt.Sprintf("STATUS=Recovered from %s (attempt %d)", e.Cause, e.Attempt))
		return
	}
	n.send(fmt.Sprintf("STATUS=Recovery from %s failed (attempt %d): %s", e.Cause, e.Attempt, e.Error))
}

func (n *Notifier) send(state string) {
	n.mu.Lock()
	unsupported := n.unsupported
	n.mu.Unlock()
	if unsupported {
		return
	}

	sent, err := n.notify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "error", err)
	case !sent:
		n.logger.Debug("Not running under systemd, notifications disabled")
		n.mu.Lock()
		n.unsupported = true
		n.mu.Unlock()
	default:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}
