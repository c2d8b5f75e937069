// Package play runs games on behalf of remote players. It maps session
// tokens to stored game state and funnels every change through the round
// engine, one operation per session at a time.
package play

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/playperu/cityclicker/internal/cityclicker"
	"github.com/playperu/cityclicker/internal/geo"
	"github.com/playperu/cityclicker/internal/round"
	"github.com/playperu/cityclicker/internal/telemetry"
)

// Store persists game state between operations. Load and Save return
// store.ErrNotFound for unknown sessions.
type Store interface {
	Create(ctx context.Context, token string, st round.State) error
	Load(ctx context.Context, token string) (round.State, error)
	Save(ctx context.Context, token string, st round.State) error
}

// Publisher receives an event after each successful operation.
type Publisher interface {
	Publish(token string, ev Event)
}

type Event struct {
	Type   EventType `json:"type"`
	Round  int       `json:"round"`
	City   string    `json:"city,omitempty"`
	Points int       `json:"points,omitempty"`
	Total  int       `json:"total"`
}

type EventType string

const (
	EventGuess        EventType = "guess"
	EventRoundLocked  EventType = "round_locked"
	EventGameOver     EventType = "game_over"
	EventRoundStarted EventType = "round_started"
	EventGameReset    EventType = "game_reset"
)

type Service struct {
	store     Store
	cities    []cityclicker.City
	opts      []round.Option
	publisher Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	locks     keyedMutex
}

type Option func(*Service)

// WithPublisher sets where events go. Without it events are dropped.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithEngineOptions passes options, such as a fixed picker in tests, to
// every engine the service builds.
func WithEngineOptions(opts ...round.Option) Option {
	return func(s *Service) { s.opts = append(s.opts, opts...) }
}

func NewService(store Store, cities []cityclicker.City, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		cities:    cities,
		publisher: nopPublisher{},
		logger:    logger,
		tracer:    telemetry.Tracer("play"),
		locks:     keyedMutex{locks: make(map[string]*refLock)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new game and returns its session token.
func (s *Service) Create(ctx context.Context) (string, round.View, error) {
	ctx, span := s.tracer.Start(ctx, "play.create")
	defer span.End()

	e, err := round.New(s.cities, s.opts...)
	if err != nil {
		return "", round.View{}, fail(span, err)
	}

	token := uuid.NewString()
	st := e.State()
	if err := s.store.Create(ctx, token, st); err != nil {
		return "", round.View{}, fail(span, fmt.Errorf("storing new game: %w", err))
	}

	s.logger.Debug("game created", "city", st.Target.Name)
	return token, e.View(), nil
}

// State returns the current view of a game without changing it.
func (s *Service) State(ctx context.Context, token string) (round.View, error) {
	ctx, span := s.tracer.Start(ctx, "play.state")
	defer span.End()

	st, err := s.store.Load(ctx, token)
	if err != nil {
		return round.View{}, fail(span, err)
	}
	e, err := round.Restore(s.cities, st, s.opts...)
	if err != nil {
		return round.View{}, fail(span, err)
	}
	return e.View(), nil
}

// Guess records the player's map click.
func (s *Service) Guess(ctx context.Context, token string, c geo.Coordinate) (round.View, error) {
	return s.apply(ctx, token, "guess", func(e *round.Engine) (Event, error) {
		if err := e.SubmitGuess(c); err != nil {
			return Event{}, err
		}
		st := e.State()
		return Event{Type: EventGuess, Round: st.RoundsPlayed + 1, Total: st.TotalScore}, nil
	})
}

// LockIn finalises the current round.
func (s *Service) LockIn(ctx context.Context, token string) (round.View, error) {
	return s.apply(ctx, token, "lock_in", func(e *round.Engine) (Event, error) {
		rec, err := e.LockIn()
		if err != nil {
			return Event{}, err
		}
		st := e.State()
		ev := Event{
			Type:   EventRoundLocked,
			Round:  st.RoundsPlayed,
			City:   rec.City,
			Points: rec.Points,
			Total:  st.TotalScore,
		}
		if st.GameOver {
			ev.Type = EventGameOver
		}
		return ev, nil
	})
}

// NextRound moves on to a new city, or a new game after the last round.
func (s *Service) NextRound(ctx context.Context, token string) (round.View, error) {
	return s.apply(ctx, token, "next_round", func(e *round.Engine) (Event, error) {
		wasOver := e.State().GameOver
		if err := e.NextRound(); err != nil {
			return Event{}, err
		}
		st := e.State()
		ev := Event{Type: EventRoundStarted, Round: st.RoundsPlayed + 1, City: st.Target.Name, Total: st.TotalScore}
		if wasOver {
			ev.Type = EventGameReset
		}
		return ev, nil
	})
}

func (s *Service) Reset(ctx context.Context, token string) (round.View, error) {
	return s.apply(ctx, token, "reset", func(e *round.Engine) (Event, error) {
		e.Reset()
		return Event{Type: EventGameReset, Round: 1, City: e.State().Target.Name}, nil
	})
}

func (s *Service) apply(ctx context.Context, token, op string, fn func(*round.Engine) (Event, error)) (round.View, error) {
	ctx, span := s.tracer.Start(ctx, "play."+op)
	defer span.End()

	unlock := s.locks.Lock(token)
	defer unlock()

	st, err := s.store.Load(ctx, token)
	if err != nil {
		return round.View{}, fail(span, err)
	}
	e, err := round.Restore(s.cities, st, s.opts...)
	if err != nil {
		return round.View{}, fail(span, err)
	}

	ev, err := fn(e)
	if err != nil {
		return round.View{}, fail(span, err)
	}

	st = e.State()
	if err := s.store.Save(ctx, token, st); err != nil {
		return round.View{}, fail(span, fmt.Errorf("saving game: %w", err))
	}

	span.SetAttributes(
		attribute.Int("game.rounds_played", st.RoundsPlayed),
		attribute.Int("game.total_score", st.TotalScore),
		attribute.String("game.phase", string(st.Phase())),
	)
	s.logger.Debug("game updated", "op", op, "phase", st.Phase(), "rounds", st.RoundsPlayed, "total", st.TotalScore)
	s.publisher.Publish(token, ev)

	return e.View(), nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, Event) {}
