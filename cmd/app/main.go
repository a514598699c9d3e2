// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-entitlement-service/internal/config"
	pg "commerce-entitlement-service/internal/infra/db/postgres"
	"commerce-entitlement-service/internal/infra/logging"
	"commerce-entitlement-service/internal/infra/metrics"
	"commerce-entitlement-service/internal/infra/payment"
	red "commerce-entitlement-service/internal/infra/redis"
	"commerce-entitlement-service/internal/infra/sched"
	"commerce-entitlement-service/internal/infra/web"
	"commerce-entitlement-service/internal/infra/worker"
	"commerce-entitlement-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	txnRepo := pg.NewTransactionRepo(pool)
	entRepo := pg.NewEntitlementRepo(pool)
	revRepo := pg.NewRevenueRepo(pool)
	convRepo := pg.NewAffiliateConversionRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	catalogRepo := pg.NewCatalogRepoCacheDecorator(pg.NewCatalogRepo(pool), redisClient, cfg.Redis.TTL)
	challengeRepo := pg.NewChallengeRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Gateway ----
	gateway := payment.NewXenditGateway(cfg.Gateway.Xendit.SecretKey, cfg.Gateway.Xendit.BaseURL)

	// ---- Use cases ----
	challengeUC := usecase.NewChallengeUseCase(challengeRepo, tm, logger)
	activationUC := usecase.NewActivationUseCase(txnRepo, entRepo, revRepo, convRepo, couponRepo, catalogRepo, challengeUC, tm, logger)
	checkoutUC := usecase.NewCheckoutUseCase(txnRepo, couponRepo, catalogRepo, gateway, logger)

	// ---- Activation workers ----
	wpool := worker.NewPool(cfg.Server.Workers, logger)
	wpool.Start(ctx)
	defer wpool.Stop()
	dispatcher := worker.NewActivationDispatcher(wpool, activationUC, locker, logger)

	reconcileUC := usecase.NewReconcileUseCase(txnRepo, dispatcher, logger)

	// ---- Background workers ----
	reconciler := sched.NewPaymentReconciler(reconcileUC, txnRepo, gateway,
		cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.MaxBackoff, cfg.Reconciler.BatchLimit, logger)
	go reconciler.Start(ctx)

	expiry := sched.NewExpiryWorker(time.Hour, entRepo, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.Secure, cfg.Admin.SessionTTL)
	srv := web.NewServer(reconcileUC, activationUC, checkoutUC, challengeUC, txnRepo, gateway, auth,
		cfg.Admin.APIKey, cfg.Gateway.Xendit.CallbackToken, logger)

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Routes()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
