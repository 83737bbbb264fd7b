package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecom-gallery/internal/domain/cart"
	"github.com/xenking/ecom-gallery/internal/domain/gallery"
	"github.com/xenking/ecom-gallery/internal/handler"
	"github.com/xenking/ecom-gallery/internal/storage/memory"
	"github.com/xenking/ecom-gallery/internal/storage/postgres"
	"github.com/xenking/ecom-gallery/internal/storage/redis"
	"github.com/xenking/ecom-gallery/pkg/health"
	"github.com/xenking/ecom-gallery/pkg/httpmiddleware"
)

const purgeInterval = 10 * time.Minute

// purger is implemented by stores that need expired carts removed
// explicitly.
type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("session_backend", cfg.Session.Backend),
		zap.String("repo", cfg.Repo.Owner+"/"+cfg.Repo.Name),
	)

	store, closeStore, err := newCartStore(ctx, cfg.Session)
	if err != nil {
		return errors.Wrap(err, "create cart store")
	}
	defer closeStore()

	repo, err := NewRepository(cfg.Repo, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}
	if cfg.Repo.Token == "" {
		lg.Warn("Repository token is not set, uploads will fail")
	}

	carts, err := cart.NewService(store, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create cart service")
	}
	galleries := gallery.NewService(repo)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	if p, ok := store.(cart.Pinger); ok {
		healthSvc.AddReadinessCheck(cfg.Session.Backend, 2*time.Second, health.PingCheck(p))
	}

	uploadLimiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:     cfg.Upload.RateLimit.Max,
		Window:  cfg.Upload.RateLimit.Window,
		KeyFunc: handler.SessionKey,
	})

	h, err := handler.New(handler.Config{
		Session: handler.SessionConfig{
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
			TTL:        cfg.Session.TTL,
		},
		UploadMaxBytes: cfg.Upload.MaxBytes,
		UploadLimiter:  uploadLimiter,
	}, carts, galleries)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	router := chi.NewRouter()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Register(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("gallery", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
			httpmiddleware.Gzip(),
		),
	}

	g, ctx := errgroup.WithContext(ctx)
	uploadLimiter.StartCleanup(ctx)

	if p, ok := store.(purger); ok {
		g.Go(func() error {
			purgeLoop(ctx, lg, p)
			return nil
		})
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		healthSvc.SetReady(true)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

func newCartStore(ctx context.Context, cfg SessionConfig) (cart.Store, func(), error) {
	switch cfg.Backend {
	case BackendRedis:
		store, err := redis.NewCartStore(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewCartStore(pool, cfg.TTL), pool.Close, nil
	default:
		return memory.NewCartStore(cfg.TTL), func() {}, nil
	}
}

func purgeLoop(ctx context.Context, lg *zap.Logger, p purger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Purge(ctx)
			if err != nil {
				lg.Warn("Purge expired carts", zap.Error(err))
				continue
			}
			if n > 0 {
				lg.Debug("Purged expired carts", zap.Int64("count", n))
			}
		}
	}
}
