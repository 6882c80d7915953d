package systemd

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/encodenode/internal/events"
)

type recordingNotify struct {
	mu     sync.Mutex
	states []string
	sent   bool
	err    error
}

func (r *recordingNotify) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return r.sent, r.err
}

func (r *recordingNotify) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

func TestReadyOnFirstRunning(t *testing.T) {
	rec := &recordingNotify{sent: true}
	n := NewNotifierWith(rec.notify, nil)

	n.OnStateChanged(events.StateChangedEvent{From: "uninitialized", To: "initialized"})
	n.OnStateChanged(events.StateChangedEvent{From: "initialized", To: "running"})
	n.OnStateChanged(events.StateChangedEvent{From: "running", To: "lost"})
	n.OnStateChanged(events.StateChangedEvent{From: "lost", To: "recovering"})
	n.OnStateChanged(events.StateChangedEvent{From: "recovering", To: "running"})

	got := rec.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %q", got)
	}
	if !strings.HasPrefix(got[0], "READY=1\n") {
		t.Errorf("first notification = %q, want READY=1", got[0])
	}
	if !strings.HasPrefix(got[1], "STATUS=") {
		t.Errorf("lost notification = %q, want STATUS", got[1])
	}
	if strings.Contains(got[2], "READY=1") {
		t.Errorf("READY=1 sent twice: %q", got[2])
	}
}

func TestStoppingOnClosed(t *testing.T) {
	rec := &recordingNotify{sent: true}
	n := NewNotifierWith(rec.notify, nil)

	n.OnStateChanged(events.StateChangedEvent{From: "running", To: "closed"})

	select {
	case <-n.Stopped():
	default:
		t.Fatal("Stopped() not closed after closed state")
	}
	got := rec.all()
	if len(got) != 1 || !strings.HasPrefix(got[0], "STOPPING=1") {
		t.Errorf("notifications = %q, want STOPPING=1", got)
	}

	// A second close must not panic.
	n.OnStateChanged(events.StateChangedEvent{From: "running", To: "closed"})
}

func TestRecoveryStatus(t *testing.T) {
	rec := &recordingNotify{sent: true}
	n := NewNotifierWith(rec.notify, nil)

	n.OnRecovery(events.RecoveryEvent{Attempt: 1, Cause: "device_lost", Succeeded: true})
	n.OnRecovery(events.RecoveryEvent{Attempt: 2, Cause: "device_failed", Error: "reset failed"})

	got := rec.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %q", got)
	}
	if got[0] != "STATUS=Recovered from device_lost (attempt 1)" {
		t.Errorf("success status = %q", got[0])
	}
	if !strings.Contains(got[1], "failed (attempt 2): reset failed") {
		t.Errorf("failure status = %q", got[1])
	}
}

func TestNotInSystemdStopsSending(t *testing.T) {
	rec := &recordingNotify{sent: false}
	n := NewNotifierWith(rec.notify, nil)

	n.OnStateChanged(events.StateChangedEvent{From: "initialized", To: "running"})
	n.OnStateChanged(events.StateChangedEvent{From: "running", To: "closed"})

	if got := rec.all(); len(got) != 1 {
		t.Errorf("expected sending to stop after the first unsent notification, got %q", got)
	}
	select {
	case <-n.Stopped():
	default:
		t.Error("Stopped() should close even when notifications are disabled")
	}
}

func TestNotifyErrorKeepsSending(t *testing.T) {
	rec := &recordingNotify{err: errors.New("socket gone")}
	n := NewNotifierWith(rec.notify, nil)

	n.OnStateChanged(events.StateChangedEvent{From: "initialized", To: "running"})
	n.OnStateChanged(events.StateChangedEvent{From: "running", To: "closed"})

	if got := rec.all(); len(got) != 2 {
		t.Errorf("expected 2 attempts, got %q", got)
	}
}

func TestSubscribe(t *testing.T) {
	bus := events.New()
	rec := &recordingNotify{sent: true}
	n := NewNotifierWith(rec.notify, nil)
	n.Subscribe(bus)
	defer n.Close()

	bus.Publish(events.StateChangedEvent{From: "initialized", To: "running"})
	bus.Publish(events.StateChangedEvent{From: "running", To: "closed"})

	select {
	case <-n.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for STOPPING=1")
	}
	if got := rec.all(); len(got) != 2 {
		t.Errorf("expected 2 notifications, got %q", got)
	}
}
