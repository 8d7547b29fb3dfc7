package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gorm.io/gorm"

	"dormweb/pkg/api"
	"dormweb/pkg/cache"
	"dormweb/pkg/circuitbreaker"
	"dormweb/pkg/config"
	"dormweb/pkg/database"
	"dormweb/pkg/logging"
	"dormweb/pkg/payment"
	"dormweb/pkg/services"
	"dormweb/pkg/session"
	"dormweb/pkg/transport"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 15 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, logCloser := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		File:      cfg.Log.File,
		FileMaxMB: cfg.Log.FileMaxMB,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	db, err := database.InitSessionDB(cfg.DB, logger)
	if err != nil {
		logger.Error("failed to open session database", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newsCache, cacheCloser := cache.New(ctx, cfg.RedisURL, logger)
	defer cacheCloser.Close()

	breaker := circuitbreaker.NewCircuitBreaker(cfg.API.BreakerMaxFailures, cfg.API.BreakerTimeout,
		circuitbreaker.WithFailurePredicate(transport.CountsAgainstBreaker),
		circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
			logger.Warn("backend circuit changed state", slog.String("from", from.String()), slog.String("to", to.String()))
		}),
	)
	client := api.New(transport.New(cfg.API.BaseURL,
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithBreaker(breaker),
		transport.WithLogger(logger),
	))

	srv := newServer(cfg, logger, db, client, newsCache)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router, err := srv.router()
	if err != nil {
		logger.Error("failed to build router", slog.Any("error", err))
		os.Exit(1)
	}

	go sweepSessions(ctx, srv.sessions)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("web server starting", slog.String("port", cfg.Port), slog.String("api", cfg.API.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

func sweepSessions(ctx context.Context, sessions *session.Provider) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep(ctx)
		}
	}
}

func newServer(cfg *config.AppConfig, logger *slog.Logger, db *gorm.DB, client *api.Client, newsCache cache.Cache) *server {
	rooms := services.NewRoomService(client, logger)
	users := services.NewUserService(client, logger)

	var verifier payment.Verifier
	if cfg.PaymentVerify {
		verifier = client
	}

	return &server{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rooms:     rooms,
		buildings: services.NewBuildingService(client, rooms, logger),
		bookings:  services.NewBookingService(client, logger),
		reviews:   services.NewReviewService(client, logger),
		posts:     services.NewPostService(client, newsCache, cfg.NewsCacheTTL, logger),
		users:     users,
		sessions:  session.NewProvider(session.NewStore(db, cfg.Session.TTL), users, logger),
		payments:  payment.NewReturnHandler(verifier, logger),
		cookie:    session.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
	}
}
