package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/cityclicker/internal/geo"
	"github.com/playperu/cityclicker/internal/round"
	"github.com/playperu/cityclicker/internal/store"
)

// SocketMessage is an inbound WebSocket event from the map front end.
// Type is one of click, lock, next, reset or state; click carries Lat/Lon.
type SocketMessage struct {
	Type string   `json:"type"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// SocketReply answers every inbound message with either the resulting
// view or an error.
type SocketReply struct {
	Type  string      `json:"type"`
	State *round.View `json:"state,omitempty"`
	Error string      `json:"error,omitempty"`
}

func handleGameSocket(logger *slog.Logger, games Games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}
		if _, err := games.State(r.Context(), token); err != nil {
			writeGameError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		for {
			var msg SocketMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}

			reply := dispatch(ctx, logger, games, token, msg)
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func dispatch(ctx context.Context, logger *slog.Logger, games Games, token string, msg SocketMessage) SocketReply {
	var (
		view round.View
		err  error
	)
	switch msg.Type {
	case "click":
		if msg.Lat == nil || msg.Lon == nil {
			return SocketReply{Type: "error", Error: "lat and lon are required"}
		}
		view, err = games.Guess(ctx, token, geo.Coordinate{Lat: *msg.Lat, Lon: *msg.Lon})
	case "lock":
		view, err = games.LockIn(ctx, token)
	case "next":
		view, err = games.NextRound(ctx, token)
	case "reset":
		view, err = games.Reset(ctx, token)
	case "state":
		view, err = games.State(ctx, token)
	default:
		return SocketReply{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)}
	}

	switch {
	case err == nil:
		return SocketReply{Type: "state", State: &view}
	case errors.Is(err, round.ErrInvalidOperation):
		return SocketReply{Type: "error", Error: err.Error()}
	case errors.Is(err, store.ErrNotFound):
		return SocketReply{Type: "error", Error: "invalid or expired session token"}
	default:
		logger.Error("game operation failed", "type", msg.Type, "error", err)
		return SocketReply{Type: "error", Error: "internal error"}
	}
}
