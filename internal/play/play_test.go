package play_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/playperu/cityclicker/internal/cityclicker"
	"github.com/playperu/cityclicker/internal/geo"
	"github.com/playperu/cityclicker/internal/play"
	"github.com/playperu/cityclicker/internal/round"
	"github.com/playperu/cityclicker/internal/store"
)

var (
	london     = geo.Coordinate{Lat: 51.5074, Lon: -0.1278}
	testCities = []cityclicker.City{{Name: "London", Coordinate: london}}
)

type recorder struct {
	mu     sync.Mutex
	events []play.Event
}

func (r *recorder) Publish(_ string, ev play.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []play.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]play.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func newService(t *testing.T) (*play.Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return play.NewService(store.NewMemStore(), testCities, logger, play.WithPublisher(rec)), rec
}

func TestServiceRound(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	token, v, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if v.City != "London" || v.Phase != round.PhaseAwaitingGuess {
		t.Errorf("new game view = %+v", v)
	}

	if _, err := svc.Guess(ctx, token, london); err != nil {
		t.Fatalf("guess: %v", err)
	}
	v, err = svc.LockIn(ctx, token)
	if err != nil {
		t.Fatalf("lock in: %v", err)
	}
	if v.CurrentScore != 500 || v.TotalScore != 500 || v.RoundsPlayed != 1 {
		t.Errorf("after lock = %+v", v)
	}
	if v.Target == nil || *v.Target != london {
		t.Errorf("target = %v, want revealed", v.Target)
	}

	if _, err := svc.LockIn(ctx, token); !errors.Is(err, round.ErrInvalidOperation) {
		t.Errorf("double lock: err = %v, want ErrInvalidOperation", err)
	}

	v, err = svc.NextRound(ctx, token)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if v.Locked || v.Guess != nil || v.TotalScore != 500 {
		t.Errorf("after next = %+v", v)
	}

	got, err := svc.State(ctx, token)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if got.RoundsPlayed != 1 || got.Rounds[0] == nil || got.Rounds[0].Points != 500 {
		t.Errorf("stored state = %+v", got)
	}

	want := []play.EventType{play.EventGuess, play.EventRoundLocked, play.EventRoundStarted}
	gotTypes := rec.types()
	if len(gotTypes) != len(want) {
		t.Fatalf("events = %v, want %v", gotTypes, want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, gotTypes[i], want[i])
		}
	}
}

func TestServiceGameOverAndReset(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	token, _, err := svc.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var v round.View
	for i := range round.TotalRounds {
		if _, err := svc.Guess(ctx, token, london); err != nil {
			t.Fatalf("round %d guess: %v", i+1, err)
		}
		v, err = svc.LockIn(ctx, token)
		if err != nil {
			t.Fatalf("round %d lock: %v", i+1, err)
		}
		if i < round.TotalRounds-1 {
			if _, err := svc.NextRound(ctx, token); err != nil {
				t.Fatalf("round %d next: %v", i+1, err)
			}
		}
	}

	if !v.GameOver || v.TotalScore != 5000 || v.MaxPossible != 5000 {
		t.Errorf("final view = %+v", v)
	}
	types := rec.types()
	if last := types[len(types)-1]; last != play.EventGameOver {
		t.Errorf("last event = %q, want game_over", last)
	}

	v, err = svc.Reset(ctx, token)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v.GameOver || v.RoundsPlayed != 0 || v.TotalScore != 0 {
		t.Errorf("after reset = %+v", v)
	}
	for i, r := range v.Rounds {
		if r != nil {
			t.Errorf("rounds[%d] = %+v after reset", i, r)
		}
	}
}

func TestServiceUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.State(ctx, "bogus"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("state: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Guess(ctx, "bogus", london); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("guess: err = %v, want ErrNotFound", err)
	}
}

func TestServiceConcurrentGuesses(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	token, _, err := svc.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := geo.Coordinate{Lat: 50 + float64(i)/10, Lon: -1}
			if _, err := svc.Guess(ctx, token, c); err != nil {
				t.Errorf("guess %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if n := len(rec.types()); n != 20 {
		t.Errorf("published %d events, want 20", n)
	}
	v, err := svc.State(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if v.Guess == nil {
		t.Error("expected a stored guess")
	}
}

type fixedPicker int

func (p fixedPicker) IntN(n int) int { return int(p) % n }

func TestServiceEngineOptions(t *testing.T) {
	cities := append([]cityclicker.City{}, testCities...)
	cities = append(cities, cityclicker.City{Name: "Belfast", Coordinate: geo.Coordinate{Lat: 54.5973, Lon: -5.9301}})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := play.NewService(store.NewMemStore(), cities, logger,
		play.WithEngineOptions(round.WithPicker(fixedPicker(1))))

	_, v, err := svc.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.City != "Belfast" {
		t.Errorf("city = %q, want Belfast", v.City)
	}
}

func TestServiceCustomScoring(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc := geo.Scoring{ThresholdKm: 10, MaxScore: 100, DecayRate: 0.035}
	svc := play.NewService(store.NewMemStore(), testCities, logger,
		play.WithEngineOptions(round.WithScoring(sc)))

	token, _, err := svc.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Guess(ctx, token, london); err != nil {
		t.Fatal(err)
	}
	v, err := svc.LockIn(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if v.TotalScore != 100 || v.MaxPossible != 100 {
		t.Errorf("after lock: total = %d, maxPossible = %d, want 100/100", v.TotalScore, v.MaxPossible)
	}

	v, err = svc.State(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if v.MaxPossible != 100 {
		t.Errorf("state: maxPossible = %d, want 100", v.MaxPossible)
	}
}
