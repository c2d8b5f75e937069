package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playperu/cityclicker/internal/cityclicker"
	"github.com/playperu/cityclicker/internal/database"
	"github.com/playperu/cityclicker/internal/geo"
	"github.com/playperu/cityclicker/internal/migrations"
	"github.com/playperu/cityclicker/internal/round"
)

type sessionStore interface {
	Create(ctx context.Context, token string, st round.State) error
	Load(ctx context.Context, token string) (round.State, error)
	Save(ctx context.Context, token string, st round.State) error
}

func openDocStore(t *testing.T) *DocStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewDocStore(db)
}

func sampleState() round.State {
	return round.State{
		Target:       cityclicker.City{Name: "Cardiff", Coordinate: geo.Coordinate{Lat: 51.4816, Lon: -3.1791}},
		Guess:        &geo.Coordinate{Lat: 51.45, Lon: -2.59},
		Locked:       true,
		CurrentScore: 169,
		TotalScore:   669,
		RoundsPlayed: 2,
		History: []round.Record{
			{City: "Cardiff", DistanceKm: 41, Points: 169},
			{City: "London", DistanceKm: 0, Points: 500},
		},
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) sessionStore{
		"memory": func(t *testing.T) sessionStore { return NewMemStore() },
		"sqlite": func(t *testing.T) sessionStore { return openDocStore(t) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("load unknown: err = %v, want ErrNotFound", err)
			}
			if err := s.Save(ctx, "nope", round.State{}); !errors.Is(err, ErrNotFound) {
				t.Errorf("save unknown: err = %v, want ErrNotFound", err)
			}

			want := sampleState()
			if err := s.Create(ctx, "tok", want); err != nil {
				t.Fatalf("create: %v", err)
			}
			got, err := s.Load(ctx, "tok")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.Target != want.Target || *got.Guess != *want.Guess || got.TotalScore != want.TotalScore {
				t.Errorf("loaded %+v, want %+v", got, want)
			}
			if len(got.History) != 2 || got.History[0] != want.History[0] {
				t.Errorf("history = %+v, want %+v", got.History, want.History)
			}

			want.Locked = false
			want.Guess = nil
			if err := s.Save(ctx, "tok", want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err = s.Load(ctx, "tok")
			if err != nil {
				t.Fatalf("load after save: %v", err)
			}
			if got.Locked || got.Guess != nil {
				t.Errorf("save not applied: %+v", got)
			}
		})
	}
}

type purgeStore interface {
	sessionStore
	Purge(ctx context.Context, before time.Time) (int64, error)
}

func TestStorePurge(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base

	stores := map[string]func(t *testing.T) purgeStore{
		"memory": func(t *testing.T) purgeStore {
			s := NewMemStore()
			s.now = func() time.Time { return clock }
			return s
		},
		"sqlite": func(t *testing.T) purgeStore {
			s := openDocStore(t)
			s.now = func() time.Time { return clock }
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock = base
			s := open(t)

			for _, tok := range []string{"old", "watched"} {
				if err := s.Create(ctx, tok, sampleState()); err != nil {
					t.Fatal(err)
				}
			}
			clock = base.Add(time.Hour)
			if err := s.Create(ctx, "new", sampleState()); err != nil {
				t.Fatal(err)
			}
			// A read alone keeps a session alive.
			if _, err := s.Load(ctx, "watched"); err != nil {
				t.Fatal(err)
			}

			n, err := s.Purge(ctx, base.Add(30*time.Minute))
			if err != nil {
				t.Fatalf("purge: %v", err)
			}
			if n != 1 {
				t.Errorf("purged %d, want 1", n)
			}
			if _, err := s.Load(ctx, "old"); !errors.Is(err, ErrNotFound) {
				t.Errorf("old session: err = %v, want ErrNotFound", err)
			}
			for _, tok := range []string{"new", "watched"} {
				if _, err := s.Load(ctx, tok); err != nil {
					t.Errorf("%s session: %v", tok, err)
				}
			}
		})
	}
}

func TestSessionKey(t *testing.T) {
	a := sessionKey("token-a")
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64", len(a))
	}
	if a == "token-a" || a == sessionKey("token-b") {
		t.Error("keys must be digests distinct per token")
	}
	if a != sessionKey("token-a") {
		t.Error("key not deterministic")
	}
	if got := redisKey("token-a"); got != redisKeyPrefix+a {
		t.Errorf("redis key = %q", got)
	}
}
