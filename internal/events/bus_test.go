package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StateChangedEvent, 1)

	unsub := bus.Subscribe(func(e StateChangedEvent) {
		received <- e
	})
	defer unsub()

	ev := StateChangedEvent{RunID: "run", From: "running", To: "lost", Transition: 3}
	bus.Publish(ev)

	select {
	case got := <-received:
		if got.From != ev.From || got.To != ev.To || got.Transition != 3 {
			t.Errorf("got %+v, want %+v", got, ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan RecoveryEvent, 1)
	received2 := make(chan RecoveryEvent, 1)

	unsub1 := bus.Subscribe(func(e RecoveryEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e RecoveryEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(RecoveryEvent{Attempt: 1, Cause: "device_lost", Succeeded: true})

	for _, ch := range []chan RecoveryEvent{received1, received2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan RunFinishedEvent, 1)

	unsub := bus.Subscribe(func(e RunFinishedEvent) { received <- e })

	bus.Publish(RunFinishedEvent{Outcome: "success"})
	<-received

	unsub()

	bus.Publish(RunFinishedEvent{Outcome: "success"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_OrderPerSubscriber(t *testing.T) {
	bus := New()
	received := make(chan StateChangedEvent, 8)

	unsub := bus.Subscribe(func(e StateChangedEvent) { received <- e })
	defer unsub()

	for i := 1; i <= 5; i++ {
		bus.Publish(StateChangedEvent{Transition: i})
	}

	for want := 1; want <= 5; want++ {
		select {
		case got := <-received:
			if got.Transition != want {
				t.Fatalf("Transition = %d, want %d", got.Transition, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}
