package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pozial/pozial-api/internal/app"
	"github.com/pozial/pozial-api/internal/auth"
	"github.com/pozial/pozial-api/internal/billing"
	"github.com/pozial/pozial-api/internal/memberships"
	"github.com/pozial/pozial-api/internal/orgs"
	"github.com/pozial/pozial-api/internal/platform/cache"
	"github.com/pozial/pozial-api/internal/platform/db"
	"github.com/pozial/pozial-api/internal/rbac"
	"github.com/pozial/pozial-api/internal/shared"
	"github.com/pozial/pozial-api/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	verifier := auth.NewVerifier(cfg.BFFServiceSecret)
	var replay *auth.ReplayGuard
	if cfg.ReplayGuard {
		replay = auth.NewReplayGuard(redisClient)
	}
	authMiddleware := &auth.Middleware{
		Verifier: verifier,
		Replay:   replay,
		Logger:   logger,
		Audit:    auditLogger,
	}

	rbacRepo := rbac.NewRepository(pool)
	resolver := rbac.NewMembershipResolver(rbacRepo)
	guards := rbac.Guards{Resolver: resolver, Logger: logger, Audit: auditLogger}

	rbacService := rbac.NewService(rbacRepo)
	rbacHandler := rbac.NewHandler(logger, rbacService, guards)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, guards)

	orgsRepo := orgs.NewRepository(pool)
	orgsService := orgs.NewService(orgsRepo)
	orgsHandler := orgs.NewHandler(logger, orgsService, guards)

	membershipsRepo := memberships.NewRepository(pool)
	membershipsService := memberships.NewService(membershipsRepo)
	membershipsHandler := memberships.NewHandler(logger, membershipsService, guards)

	billingRepo := billing.NewRepository()
	billingService := billing.NewService(billingRepo)
	billingHandler := billing.NewHandler(logger, billingService, guards)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     authMiddleware,
		UsersHandler:       usersHandler,
		OrgsHandler:        orgsHandler,
		MembershipsHandler: membershipsHandler,
		RBACHandler:        rbacHandler,
		BillingHandler:     billingHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
