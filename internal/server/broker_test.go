package server

import (
	"testing"

	"github.com/playperu/cityclicker/internal/play"
)

func TestBrokerIsolatesSessions(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("a")
	other := b.Subscribe("b")

	b.Publish("a", play.Event{Type: play.EventGuess})

	select {
	case <-a:
	default:
		t.Error("subscriber a got nothing")
	}
	select {
	case data := <-other:
		t.Errorf("subscriber b got %s", data)
	default:
	}

	b.Unsubscribe("a", a)
	b.Unsubscribe("b", other)
	if len(b.subs) != 0 {
		t.Errorf("subs not cleaned up: %v", b.subs)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("a")

	for range cap(ch) + 5 {
		b.Publish("a", play.Event{Type: play.EventGuess})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d, want %d", len(ch), cap(ch))
	}
}
