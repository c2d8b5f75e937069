package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/cityclicker/internal/play"
)

// Broker is an in-process pub/sub of game events, keyed by session token.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the
// given session.
func (b *Broker) Subscribe(token string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[token] == nil {
		b.subs[token] = make(map[chan []byte]struct{})
	}
	b.subs[token][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(token string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[token], ch)
	if len(b.subs[token]) == 0 {
		delete(b.subs, token)
	}
	b.mu.Unlock()
}

// Publish sends ev to every subscriber of the session. It implements
// play.Publisher.
func (b *Broker) Publish(token string, ev play.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs[token]) == 0 {
		return
	}

	// Event holds only strings and ints, so encoding cannot fail.
	data, _ := json.Marshal(ev)
	for ch := range b.subs[token] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}
