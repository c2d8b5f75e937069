package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cityclicker/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	games, broker := deps.Games, deps.Broker

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())

	r.Route("/api/game", func(r chi.Router) {
		r.Post("/", handleCreateGame(logger, games))

		// EventSource and WebSocket clients cannot set headers; they pass
		// the token as a query parameter instead.
		r.Get("/events", handleEvents(logger, games, broker))
		r.Get("/ws", handleGameSocket(logger, games))

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Get("/state", handleGameState(logger, games))
			r.Post("/guess", handleGuess(logger, games))
			r.Post("/lock", handleLockIn(logger, games))
			r.Post("/next", handleNextRound(logger, games))
			r.Post("/reset", handleReset(logger, games))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
