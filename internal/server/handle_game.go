package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/playperu/cityclicker/internal/geo"
	"github.com/playperu/cityclicker/internal/round"
)

// Games is the game service the handlers drive.
type Games interface {
	Create(ctx context.Context) (string, round.View, error)
	State(ctx context.Context, token string) (round.View, error)
	Guess(ctx context.Context, token string, c geo.Coordinate) (round.View, error)
	LockIn(ctx context.Context, token string) (round.View, error)
	NextRound(ctx context.Context, token string) (round.View, error)
	Reset(ctx context.Context, token string) (round.View, error)
}

type CreateGameResponse struct {
	Token string     `json:"token"`
	Game  round.View `json:"game"`
}

func handleCreateGame(logger *slog.Logger, games Games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, view, err := games.Create(r.Context())
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateGameResponse{Token: token, Game: view})
	}
}

func handleGameState(logger *slog.Logger, games Games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := games.State(r.Context(), sessionToken(r))
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
