package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/playperu/cityclicker/internal/round"
)

// MemStore is an in-process session store. States are stored encoded so
// callers never share memory with the store.
type MemStore struct {
	mu       sync.Mutex
	sessions map[string]memEntry
	now      func() time.Time
}

type memEntry struct {
	data    []byte
	touched time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string]memEntry), now: time.Now}
}

func (s *MemStore) Create(_ context.Context, token string, st round.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sessionKey(token)] = memEntry{data: data, touched: s.now()}
	s.mu.Unlock()
	return nil
}

// Load counts as activity and keeps the session from being purged.
func (s *MemStore) Load(_ context.Context, token string) (round.State, error) {
	key := sessionKey(token)
	s.mu.Lock()
	entry, ok := s.sessions[key]
	if ok {
		entry.touched = s.now()
		s.sessions[key] = entry
	}
	s.mu.Unlock()
	if !ok {
		return round.State{}, ErrNotFound
	}

	var st round.State
	err := json.Unmarshal(entry.data, &st)
	return st, err
}

func (s *MemStore) Save(_ context.Context, token string, st round.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	key := sessionKey(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return ErrNotFound
	}
	s.sessions[key] = memEntry{data: data, touched: s.now()}
	return nil
}

// Purge deletes sessions not used since before and reports how many went.
func (s *MemStore) Purge(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, entry := range s.sessions {
		if entry.touched.Before(before) {
			delete(s.sessions, key)
			n++
		}
	}
	return n, nil
}
