package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ovenline/ovenline/internal/config"
	"github.com/ovenline/ovenline/internal/logger"
	"github.com/ovenline/ovenline/internal/storage"
	"github.com/ovenline/ovenline/pkg/order"
	"github.com/ovenline/ovenline/pkg/session"
)

// app bundles the wired components a command operates on.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	sessions *session.Manager
	orders   *order.Manager
	closers  []func() error
}

// openApp loads configuration and wires logger, storage tiers and managers.
func openApp() (*app, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: lg}
	a.closers = append(a.closers, lg.Close)

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	timeout := time.Duration(cfg.Session.TimeoutMinutes) * time.Minute

	var cache session.Cache
	if cfg.Redis.Enabled {
		rc, err := session.NewRedisCache(cfg.Redis.URL, timeout)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect cache tier: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		cache = rc
	} else {
		cache = session.NewMemoryCache(timeout)
	}

	retryer := storage.NewRetryer(storage.RetryConfig{
		MaxRetries:      uint64(cfg.Retry.MaxRetries),
		InitialInterval: time.Duration(cfg.Retry.InitialIntervalMS) * time.Millisecond,
	})

	a.sessions, err = session.NewManager(session.Config{
		DB:      db,
		Cache:   cache,
		Retryer: retryer,
		Timeout: timeout,
		Logger:  log.Logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.orders, err = order.NewManager(order.Config{
		DB:      db,
		Retryer: retryer,
		Logger:  log.Logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// close releases resources in reverse wiring order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to close component")
		}
	}
}
