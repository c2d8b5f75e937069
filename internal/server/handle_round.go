package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/playperu/cityclicker/internal/geo"
	"github.com/playperu/cityclicker/internal/round"
)

// GuessRequest is the map click of the player.
type GuessRequest struct {
	Lat *float64 `json:"lat" required:"true"`
	Lon *float64 `json:"lon" required:"true"`
}

func handleGuess(logger *slog.Logger, games Games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Lat == nil || req.Lon == nil {
			writeError(w, http.StatusBadRequest, "lat and lon are required")
			return
		}

		view, err := games.Guess(r.Context(), sessionToken(r), geo.Coordinate{Lat: *req.Lat, Lon: *req.Lon})
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleLockIn(logger *slog.Logger, games Games) http.HandlerFunc {
	return handleGameOp(logger, games.LockIn)
}

func handleNextRound(logger *slog.Logger, games Games) http.HandlerFunc {
	return handleGameOp(logger, games.NextRound)
}

func handleReset(logger *slog.Logger, games Games) http.HandlerFunc {
	return handleGameOp(logger, games.Reset)
}

// handleGameOp serves the body-less game operations.
func handleGameOp(logger *slog.Logger, op func(ctx context.Context, token string) (round.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := op(r.Context(), sessionToken(r))
		if err != nil {
			writeGameError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
