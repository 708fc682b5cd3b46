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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"construction-course-checkout/internal/config"
	"construction-course-checkout/internal/domain/ports/adapter"
	payAdapters "construction-course-checkout/internal/infra/adapters/payment"
	"construction-course-checkout/internal/infra/api"
	"construction-course-checkout/internal/infra/api/apiv1"
	pg "construction-course-checkout/internal/infra/db/postgres"
	"construction-course-checkout/internal/infra/logging"
	"construction-course-checkout/internal/infra/metrics"
	red "construction-course-checkout/internal/infra/redis"
	"construction-course-checkout/internal/infra/sched"
	"construction-course-checkout/internal/infra/web"
	"construction-course-checkout/internal/infra/worker"
	"construction-course-checkout/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (sandbox gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	catalogRepo := pg.NewCatalogRepoCacheDecorator(pg.NewCatalogRepo(pool), redisClient, cfg.Redis.TTL)
	couponRepo := pg.NewCouponRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	eventRepo := pg.NewProcessedEventRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	reconRepo := pg.NewReconciliationRepo(pool)

	// ---- Payment providers ----
	providers := map[string]adapter.PaymentProvider{}
	if cfg.Payment.MercadoPago.AccessToken != "" {
		mp, err := payAdapters.NewMercadoPagoGateway(
			cfg.Payment.MercadoPago.AccessToken,
			cfg.Payment.MercadoPago.BaseURL,
			cfg.Server.PublicURL+"/api/v1/checkout/mercadopago/success",
			cfg.Server.FrontendURL+"/payment?payment=failed",
			cfg.Server.PublicURL+"/api/v1/webhooks/mercadopago",
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("mercadopago gateway")
		}
		providers[mp.Name()] = mp
	}
	if cfg.Payment.Stripe.APIKey != "" {
		st, err := payAdapters.NewStripeGateway(
			cfg.Payment.Stripe.APIKey,
			cfg.Server.PublicURL+"/api/v1/checkout/stripe/success?session_id={CHECKOUT_SESSION_ID}",
			cfg.Server.FrontendURL+"/payment?payment=failed",
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
		providers[st.Name()] = st
	}
	if cfg.Payment.SandboxGateway && cfg.Runtime.Dev {
		sb := payAdapters.NewSandboxGateway()
		providers[sb.Name()] = sb
	}
	if len(providers) == 0 {
		logger.Fatal().Msg("no payment provider configured")
	}
	for name := range providers {
		logger.Info().Str("provider", name).Msg("payment provider registered")
	}

	// ---- Use cases ----
	pricingUC := usecase.NewPricingUseCase(catalogRepo, couponRepo, logger)
	enrollmentUC := usecase.NewEnrollmentUseCase(enrollmentRepo, couponRepo, paymentRepo, tm, logger)
	checkoutUC := usecase.NewCheckoutUseCase(
		pricingUC, providers, paymentRepo, eventRepo, reconRepo,
		enrollmentUC, cfg.Checkout.ProviderTimeout, logger,
	)
	reconUC := usecase.NewReconciliationUseCase(reconRepo, paymentRepo, logger)

	// ---- Stale payment reconciler ----
	wp := worker.NewPool(4, logger)
	wp.Start(ctx)
	reconciler := sched.NewPaymentReconciler(
		checkoutUC, paymentRepo, wp,
		cfg.Checkout.ReconcileInterval, cfg.Checkout.ReconcileStaleAfter, logger,
	)
	go reconciler.Start(ctx)

	// ---- Public API ----
	apiSrv := apiv1.NewServer(
		checkoutUC, enrollmentUC, rateLimiter,
		cfg.Checkout.RateLimit, cfg.Checkout.RateWindow,
		cfg.Server.FrontendURL, logger,
	)
	r := chi.NewRouter()
	r.Use(api.TraceID())
	r.Use(api.RequestLog(logger))
	r.Use(api.Recover(logger))
	apiv1.RegisterAPIV1(r, apiSrv)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	public := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", public.Addr).Msg("public api listening")
		if err := public.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public api server")
		}
	}()

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin.Password, cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	adminSrv := web.NewServer(reconUC, enrollmentUC, auth, logger)
	adminMux := http.NewServeMux()
	adminSrv.RegisterRoutes(adminMux)
	admin := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           adminMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", admin.Addr).Msg("admin api listening")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin api server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := public.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("public api shutdown")
	}
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin api shutdown")
	}
	cancel()
	wp.Stop()
}
