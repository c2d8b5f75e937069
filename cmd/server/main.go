package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/cityclicker/internal/cityclicker"
	"github.com/playperu/cityclicker/internal/config"
	"github.com/playperu/cityclicker/internal/database"
	"github.com/playperu/cityclicker/internal/handler/health"
	"github.com/playperu/cityclicker/internal/migrations"
	"github.com/playperu/cityclicker/internal/play"
	"github.com/playperu/cityclicker/internal/server"
	"github.com/playperu/cityclicker/internal/store"
	"github.com/playperu/cityclicker/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			return fmt.Errorf("setting up telemetry: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("shutting down telemetry", "error", err)
			}
		}()
		logger.Info("tracing enabled")
	}

	cities, err := loadCities(cfg.CitiesFile)
	if err != nil {
		return err
	}
	logger.Info("loaded cities", "count", len(cities))

	g, gctx := errgroup.WithContext(ctx)

	// --- Session store ---
	checks := map[string]health.Checker{}
	var sessions play.Store

	switch cfg.SessionStore {
	case config.StoreSQLite:
		db, err := openSQLite(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("connected to sqlite", "path", cfg.DBPath)

		docs := store.NewDocStore(db)
		sessions = docs
		checks["sqlite"] = dbChecker{db}

		g.Go(func() error {
			return purgeSessions(gctx, logger, docs, cfg.SessionTTL, cfg.PurgeInterval)
		})

	case config.StoreRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		sessions = store.NewRedisStore(rdb, cfg.SessionTTL)
		checks["redis"] = redisChecker{rdb}

	case config.StoreMemory:
		logger.Warn("using in-memory sessions; games are lost on restart")
		mem := store.NewMemStore()
		sessions = mem

		g.Go(func() error {
			return purgeSessions(gctx, logger, mem, cfg.SessionTTL, cfg.PurgeInterval)
		})
	}

	// --- HTTP Server ---
	broker := server.NewBroker()
	games := play.NewService(sessions, cities, logger, play.WithPublisher(broker))

	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Games:  games,
		Broker: broker,
		Checks: checks,
		SPADir: cfg.SPADir,
	})

	// --- Run ---
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func loadCities(path string) ([]cityclicker.City, error) {
	if path == "" {
		return cityclicker.Cities()
	}
	cities, err := cityclicker.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading cities: %w", err)
	}
	return cities, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// purger is a session store that cannot expire entries by itself.
type purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// purgeSessions deletes sessions idle for longer than ttl every interval
// until ctx ends.
func purgeSessions(ctx context.Context, logger *slog.Logger, p purger, ttl, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := p.Purge(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Error("purging sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged idle sessions", "count", n)
			}
		}
	}
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
