package api

import (
	"testing"
	"time"
)

func TestBrokerPubSub(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("m1")
	b.Publish("m1", Event{Type: "mission.validated"})

	select {
	case evt := <-ch:
		if evt.Type != "mission.validated" {
			t.Fatalf("event type: %s", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	b.Unsubscribe("m1", ch)
}

func TestBrokerIsolatesMissions(t *testing.T) {
	b := NewBroker()
	ch1 := b.Subscribe("m1")
	ch2 := b.Subscribe("m2")
	defer b.Unsubscribe("m2", ch2)

	b.Publish("m2", Event{Type: "route.planned"})

	select {
	case <-ch1:
		t.Fatal("m1 subscriber received m2 event")
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case <-ch2:
	case <-time.After(time.Second):
		t.Fatal("m2 subscriber missed event")
	}
	b.Unsubscribe("m1", ch1)
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("m1")
	defer b.Unsubscribe("m1", ch)

	// buffer is 8; publishing more must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			b.Publish("m1", Event{Type: "route.planned"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
