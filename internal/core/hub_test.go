package core

import (
	"context"
	"testing"
	"time"
)

func TestHubDeliversOnlyToRoomWatchers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	park := NewClient("p", "Park", "A1")
	lee := NewClient("l", "Lee", "A1")
	other := NewClient("o", "Choi", "B2")

	hub.RegisterClient(park)
	hub.RegisterClient(lee)
	hub.RegisterClient(other)

	hub.Publish(&Event{Kind: EventRoomUpdated, Room: "A1", User: "Kim", Action: ActionSetInfo, Revision: 1})

	for _, c := range []*Client{park, lee} {
		ev := mustEvent(t, c.Events, EventRoomUpdated)
		if ev.Room != "A1" || ev.Action != ActionSetInfo || ev.Revision != 1 {
			t.Fatalf("unexpected event for %s: %+v", c.Name, ev)
		}
	}

	select {
	case ev := <-other.Events:
		t.Fatalf("client of another room received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	park := NewClient("p", "Park", "A1")
	hub.RegisterClient(park)
	hub.UnregisterClient(park)

	select {
	case _, ok := <-park.Events:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("events channel was not closed")
	}

	// Unregistering twice must not panic on a closed channel.
	hub.UnregisterClient(park)
}

func TestHubKeepsLatestEventForSlowConsumer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	slow := NewClient("s", "Slow", "A1")
	hub.RegisterClient(slow)

	const last = 20
	for i := 1; i <= last; i++ {
		hub.Publish(&Event{Kind: EventRoomUpdated, Room: "A1", Revision: int64(i)})
	}

	// Older pending events are replaced; the newest one must arrive.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("latest event was not delivered")
		}
		ev := mustEvent(t, slow.Events, EventRoomUpdated)
		if ev.Revision == last {
			break
		}
	}

	select {
	case ev := <-slow.Events:
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	// The hub keeps running: a new watcher still gets events.
	fresh := NewClient("f", "Fresh", "A1")
	hub.RegisterClient(fresh)
	hub.Publish(&Event{Kind: EventRoomReplaced, Room: "A1"})
	mustEvent(t, fresh.Events, EventRoomReplaced)
}

func TestHubStopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	park := NewClient("p", "Park", "A1")
	hub.RegisterClient(park)
	cancel()
	<-stopped

	if _, ok := <-park.Events; ok {
		t.Fatalf("expected events channel closed after stop")
	}

	// Calls after stop return immediately.
	hub.Publish(&Event{Kind: EventRoomUpdated, Room: "A1"})
	hub.RegisterClient(NewClient("x", "X", "A1"))
}
