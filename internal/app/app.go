// Package app wires configuration, storage, domain services and the HTTP
// server into a running storefront API.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/adornica/storefront/internal/domain/catalog"
	"github.com/adornica/storefront/internal/domain/identity"
	"github.com/adornica/storefront/internal/handler"
	storemongo "github.com/adornica/storefront/internal/storage/mongo"
	storeredis "github.com/adornica/storefront/internal/storage/redis"
	"github.com/adornica/storefront/pkg/health"
	"github.com/adornica/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// MongoDB document store.
	db, err := storemongo.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		return errors.Wrap(err, "connect mongo")
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	// Redis for cart snapshots and login sessions.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "parse redis URL")
	}
	rdb := redis.NewClient(redisOpts)
	defer func() {
		_ = rdb.Close()
	}()

	// Repositories.
	userRepo := storemongo.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure user indexes")
	}
	productRepo := catalog.NewCachedRepository(storemongo.NewProductRepository(db), cfg.CatalogTTL)
	categoryRepo := storemongo.NewCategoryRepository(db)
	orderRepo := storemongo.NewOrderRepository(db)
	cartStore := storeredis.NewCartStore(rdb, cfg.CartTTL)
	sessionStore := storeredis.NewSessionStore(rdb)

	// Domain services.
	identitySvc := identity.NewService(userRepo, sessionStore, []byte(cfg.SessionPepper), cfg.SessionTTL)

	// Health check service.
	healthSvc := health.NewService()
	healthSvc.AddReadiness("mongo", 5*time.Second, func(ctx context.Context) error {
		return db.Client().Ping(ctx, readpref.Primary())
	})
	healthSvc.AddReadiness("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLiveness("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		productRepo,
		categoryRepo,
		orderRepo,
		identitySvc,
		cartStore,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
