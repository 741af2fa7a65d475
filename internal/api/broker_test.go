package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("t_test")

	evt := Event{Type: "incident.triaged", Data: map[string]any{"priorityScore": 0.9}}
	b.Publish("t_test", evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["priorityScore"].(float64) != 0.9 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe("t_test", ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerTopicIsolation(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("t_a")
	defer b.Unsubscribe("t_a", a)

	b.Publish("t_b", Event{Type: "incident.reported"})
	select {
	case got := <-a:
		t.Fatalf("cross-tenant delivery: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("t_test")
	defer b.Unsubscribe("t_test", ch)

	done := make(chan struct{})
	go func() {
		// channel buffer is 8; overfill without draining
		for i := 0; i < 20; i++ {
			b.Publish("t_test", Event{Type: "risk.alert"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
