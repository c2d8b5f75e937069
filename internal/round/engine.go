// Package round implements the per-round game state machine: pick a target
// city, take a guess, lock it in for a score, and stop after TotalRounds.
//
// An Engine is not safe for concurrent use; callers serialise access.
package round

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/playperu/cityclicker/internal/cityclicker"
	"github.com/playperu/cityclicker/internal/geo"
)

// TotalRounds is the number of lock-ins that end a game.
const TotalRounds = 10

// ErrInvalidOperation is returned when an operation is not allowed in the
// current state, e.g. locking in twice or without a guess.
var ErrInvalidOperation = errors.New("invalid operation")

// Picker picks an index uniformly from [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine holds one game. Build it with New or Restore.
type Engine struct {
	cities  []cityclicker.City
	picker  Picker
	scoring geo.Scoring

	target       cityclicker.City
	guess        *geo.Coordinate
	locked       bool
	currentScore int
	totalScore   int
	roundsPlayed int
	history      History
	gameOver     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithPicker replaces the random source used for target selection.
func WithPicker(p Picker) Option {
	return func(e *Engine) { e.picker = p }
}

// WithScoring replaces geo.DefaultScoring.
func WithScoring(s geo.Scoring) Option {
	return func(e *Engine) { e.scoring = s }
}

// New creates an engine over cities and starts a game.
func New(cities []cityclicker.City, opts ...Option) (*Engine, error) {
	e, err := newEngine(cities, opts)
	if err != nil {
		return nil, err
	}
	e.Start()
	return e, nil
}

// Restore rebuilds an engine from a snapshot taken with State.
func Restore(cities []cityclicker.City, st State, opts ...Option) (*Engine, error) {
	e, err := newEngine(cities, opts)
	if err != nil {
		return nil, err
	}
	if st.RoundsPlayed < 0 || st.RoundsPlayed > TotalRounds {
		return nil, fmt.Errorf("restoring game: rounds played %d out of range", st.RoundsPlayed)
	}

	e.target = st.Target
	if st.Guess != nil {
		g := *st.Guess
		e.guess = &g
	}
	e.locked = st.Locked
	e.currentScore = st.CurrentScore
	e.totalScore = st.TotalScore
	e.roundsPlayed = st.RoundsPlayed
	e.gameOver = st.GameOver

	records := st.History
	if len(records) > HistorySize {
		records = records[:HistorySize]
	}
	for i := len(records) - 1; i >= 0; i-- {
		e.history.Push(records[i])
	}
	return e, nil
}

func newEngine(cities []cityclicker.City, opts []Option) (*Engine, error) {
	if len(cities) == 0 {
		return nil, cityclicker.ErrNoCities
	}
	e := &Engine{
		cities:  cities,
		picker:  globalRand{},
		scoring: geo.DefaultScoring,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start begins a fresh game: new random target, zeroed counters, empty
// history.
func (e *Engine) Start() {
	e.target = e.pick()
	e.guess = nil
	e.locked = false
	e.currentScore = 0
	e.totalScore = 0
	e.roundsPlayed = 0
	e.history.Reset()
	e.gameOver = false
}

// Reset is Start, callable from any state.
func (e *Engine) Reset() {
	e.Start()
}

// SubmitGuess records c as the pending guess, replacing any earlier one.
func (e *Engine) SubmitGuess(c geo.Coordinate) error {
	if e.locked {
		return fmt.Errorf("%w: round is locked", ErrInvalidOperation)
	}
	e.guess = &c
	return nil
}

// LockIn scores the pending guess against the target and finalises the
// round. The tenth lock-in ends the game.
func (e *Engine) LockIn() (Record, error) {
	if e.locked {
		return Record{}, fmt.Errorf("%w: round already locked", ErrInvalidOperation)
	}
	if e.guess == nil {
		return Record{}, fmt.Errorf("%w: no guess to lock in", ErrInvalidOperation)
	}

	d := geo.Distance(*e.guess, e.target.Coordinate)
	points := e.scoring.Score(d)

	e.currentScore = points
	e.totalScore += points
	e.roundsPlayed++

	rec := Record{
		City:       e.target.Name,
		DistanceKm: math.Round(d),
		Points:     points,
	}
	e.history.Push(rec)
	e.locked = true

	if e.roundsPlayed == TotalRounds {
		e.gameOver = true
	}
	return rec, nil
}

// NextRound moves a locked round on to a new target. After the final round
// it starts a new game instead.
func (e *Engine) NextRound() error {
	if !e.locked {
		return fmt.Errorf("%w: round not locked", ErrInvalidOperation)
	}
	if e.gameOver {
		e.Start()
		return nil
	}

	e.target = e.pick()
	e.guess = nil
	e.currentScore = 0
	e.locked = false
	return nil
}

// State returns a snapshot that shares no memory with the engine.
func (e *Engine) State() State {
	st := State{
		Target:       e.target,
		Locked:       e.locked,
		CurrentScore: e.currentScore,
		TotalScore:   e.totalScore,
		RoundsPlayed: e.roundsPlayed,
		History:      e.history.Records(),
		GameOver:     e.gameOver,
	}
	if e.guess != nil {
		g := *e.guess
		st.Guess = &g
	}
	return st
}

// View is the render snapshot of the game, scored against the engine's
// own per-round maximum.
func (e *Engine) View() View {
	return e.State().View(e.scoring.MaxScore)
}

func (e *Engine) pick() cityclicker.City {
	return e.cities[e.picker.IntN(len(e.cities))]
}
