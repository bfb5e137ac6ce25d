package cli

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// App is a tracker opened on the configured store backend.
type App struct {
	Tracker *services.Tracker
	Backend *backend.BackendResult

	caches *cache.Manager
}

// OpenApp selects the store backend from cfg, loads the persisted state and
// returns a ready tracker. Remote backends get their read-through cache
// swept every STORE_CACHE_TTL. pub may be nil.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger, pub events.Publisher) (*App, error) {
	if logger == nil {
		logger = log.Nop()
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendConfig.Type, err)
	}

	app := &App{Backend: res}
	if res.Cached != nil {
		app.caches = cache.NewManager(logger)
		app.caches.Register(res.Cached.Cleaner())
		app.caches.Start(context.Background(), cfg.StoreCacheTTL)
	}

	tracker, err := services.NewTracker(ctx, store.NewRepository(res.Store, logger), pub, logger, services.Options{
		DefaultCurrency:  cfg.DefaultCurrency,
		StrictCategories: cfg.StrictCategories,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Tracker = tracker
	return app, nil
}

// Close stops the cache sweeper, the event publisher and the backend.
func (a *App) Close() error {
	if a.caches != nil {
		a.caches.Stop()
	}
	var errs []error
	if a.Tracker != nil {
		if err := a.Tracker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if err := a.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close backend: %w", err))
	}
	return errors.Join(errs...)
}
