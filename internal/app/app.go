package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/2400030292/MedGuard-AI/internal/adapter/capture"
	"github.com/2400030292/MedGuard-AI/internal/adapter/notify"
	"github.com/2400030292/MedGuard-AI/internal/auth"
	"github.com/2400030292/MedGuard-AI/internal/config"
	"github.com/2400030292/MedGuard-AI/internal/service/analysis"
	authsvc "github.com/2400030292/MedGuard-AI/internal/service/auth"
	"github.com/2400030292/MedGuard-AI/internal/service/catalog"
	"github.com/2400030292/MedGuard-AI/internal/service/disposition"
	"github.com/2400030292/MedGuard-AI/internal/service/verification"
	"github.com/2400030292/MedGuard-AI/internal/transport/middleware"
	"github.com/2400030292/MedGuard-AI/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects the
// stores, builds the services and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	clock := clockwork.NewRealClock()

	st, err := openStores(ctx, cfg.Database, logger, clock.Now)
	if err != nil {
		return err
	}
	defer st.Close()

	blobs, closeBlobs, err := openBlobs(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeBlobs()

	feed := notify.NewFeed(logger, cfg.Notify.BufferSize, cfg.Notify.History, clock.Now)
	alerts, closeAlerts, err := openAlerts(ctx, cfg.Notify, feed, logger)
	if err != nil {
		return err
	}
	defer closeAlerts()

	// Services
	dispatcher := disposition.NewService(logger, st.activity, st.quarantine, alerts, clock, disposition.Options{
		Location:         cfg.Verification.Location(),
		MobileBreakpoint: cfg.Verification.MobileBreakpoint,
		Timeout:          cfg.Verification.DispatchTimeout,
	})

	standards, err := catalog.NewService(logger, dispatcher)
	if err != nil {
		return err
	}

	captureAdapter := capture.New(logger, newCamera(cfg.Camera, cfg.Verification.MaxUploadBytes), blobs, cfg.Verification.MaxUploadBytes)
	engine := analysis.NewEngine(logger, analysis.ScriptedDetector{}, clock, cfg.Verification.Location())

	studios := verification.NewService(logger, captureAdapter, engine, dispatcher, standards, clock, verification.Config{
		Delays: verification.Delays{
			Scan:    cfg.Verification.ScanDelay,
			Process: cfg.Verification.ProcessDelay,
			Manual:  cfg.Verification.ManualDelay,
		},
		MaxSessions: cfg.Verification.MaxSessions,
		IdleTimeout: cfg.Verification.IdleTimeout,
	})
	defer studios.Shutdown()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	authService, err := authsvc.NewService(logger, jwtManager, cfg.Auth)
	if err != nil {
		return err
	}

	// Transport
	// A nil *pgxpool.Pool must not reach the handler as a non-nil interface.
	health := rest.NewHealthHandler(nil, studios, BuildVersion())
	if st.pool != nil {
		health = rest.NewHealthHandler(st.pool, studios, BuildVersion())
	}

	handlers := rest.Handlers{
		Health:  health,
		Auth:    rest.NewAuthHandler(authService, logger),
		Studio:  rest.NewStudioHandler(studios, blobs, cfg.Verification.MaxUploadBytes, logger),
		Records: rest.NewRecordsHandler(st.activity, st.quarantine, feed, dispatcher, logger),
		Catalog: rest.NewCatalogHandler(standards, logger),
	}

	chain, login, stopLimiter := middlewares(cfg, logger, clock, authService)
	defer stopLimiter()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      rest.NewRouter(handlers, chain, login),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down", slog.Int("open_studios", studios.Len()))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("stopped")
	return nil
}

// middlewares builds the outer chain and the extra login limit. The returned
// func stops the rate limiter's cleanup goroutine.
func middlewares(cfg *config.Config, logger *slog.Logger, clock clockwork.Clock, tokens *authsvc.Service) (chain, login middleware.Middleware, stop func()) {
	var general middleware.Middleware
	login = middleware.Chain()
	stop = func() {}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(clock, cfg.RateLimit.CleanupInterval)
		general = limiter.Limit(cfg.RateLimit.RequestsPerMin)
		login, stop = limiter.Limit(cfg.RateLimit.LoginPerMin), limiter.Stop
	}

	chain = middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		general,
		middleware.Auth(tokens),
		// Inside Auth so request logs carry the signed-in role.
		middleware.Logger(logger),
		middleware.Viewport,
	)
	return chain, login, stop
}
