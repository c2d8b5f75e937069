package round

import (
	"github.com/playperu/cityclicker/internal/cityclicker"
	"github.com/playperu/cityclicker/internal/geo"
)

// Phase is the state machine position of a game.
type Phase string

const (
	PhaseAwaitingGuess Phase = "awaiting_guess"
	PhaseLocked        Phase = "locked"
	PhaseGameOver      Phase = "game_over"
)

// State is a serialisable snapshot of a game. History is newest first.
type State struct {
	Target       cityclicker.City `json:"target"`
	Guess        *geo.Coordinate  `json:"guess,omitempty"`
	Locked       bool             `json:"locked"`
	CurrentScore int              `json:"currentScore"`
	TotalScore   int              `json:"totalScore"`
	RoundsPlayed int              `json:"roundsPlayed"`
	History      []Record         `json:"history"`
	GameOver     bool             `json:"gameOver"`
}

func (s State) Phase() Phase {
	switch {
	case s.GameOver:
		return PhaseGameOver
	case s.Locked:
		return PhaseLocked
	default:
		return PhaseAwaitingGuess
	}
}

// View is what a front end renders. The target location and the distance
// are only revealed once the round is locked; the city name is always
// shown because the name is the puzzle.
type View struct {
	City         string               `json:"city"`
	Phase        Phase                `json:"phase"`
	Locked       bool                 `json:"locked"`
	GameOver     bool                 `json:"gameOver"`
	CurrentScore int                  `json:"currentScore"`
	TotalScore   int                  `json:"totalScore"`
	MaxPossible  int                  `json:"maxPossible"`
	RoundsPlayed int                  `json:"roundsPlayed"`
	TotalRounds  int                  `json:"totalRounds"`
	Guess        *geo.Coordinate      `json:"guess"`
	Target       *geo.Coordinate      `json:"target"`
	DistanceKm   *float64             `json:"distanceKm"`
	Rounds       [HistorySize]*Record `json:"rounds"`
}

// View builds the render snapshot of s. maxScore is the per-round maximum
// used for the "score / possible" line.
func (s State) View(maxScore int) View {
	v := View{
		City:         s.Target.Name,
		Phase:        s.Phase(),
		Locked:       s.Locked,
		GameOver:     s.GameOver,
		CurrentScore: s.CurrentScore,
		TotalScore:   s.TotalScore,
		MaxPossible:  maxScore * s.RoundsPlayed,
		RoundsPlayed: s.RoundsPlayed,
		TotalRounds:  TotalRounds,
	}
	if s.Guess != nil {
		g := *s.Guess
		v.Guess = &g
	}
	if s.Locked {
		target := s.Target.Coordinate
		v.Target = &target
		if len(s.History) > 0 {
			d := s.History[0].DistanceKm
			v.DistanceKm = &d
		}
	}
	for i, r := range s.History {
		if i == HistorySize {
			break
		}
		rec := r
		v.Rounds[i] = &rec
	}
	return v
}
