package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/auth"
	"github.com/presupuestalo/marketplace-be/internal/core/email"
	"github.com/presupuestalo/marketplace-be/internal/core/export"
	"github.com/presupuestalo/marketplace-be/internal/core/jobs"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/core/scheduler"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/handlers"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/services"
	"github.com/presupuestalo/marketplace-be/internal/shared/config"
	"github.com/presupuestalo/marketplace-be/internal/shared/database"
	"github.com/presupuestalo/marketplace-be/internal/shared/utils"

	_ "github.com/presupuestalo/marketplace-be/cmd/api/docs"
)

// @title Presupuéstalo Marketplace API
// @version 1.0
// @description Credits, subscriptions, referrals and lead marketplace for renovation professionals
// @contact.name API Support
// @contact.email soporte@presupuestalo.com
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env, cfg.LogLevel)
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("🚀 Starting marketplace-api")

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("❌ SUPABASE_JWT_SECRET is required")
	}

	// Init database
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Database unavailable")
	}
	defer db.Close()

	store := repositories.NewStore(db.GORM)

	// Email goes out through the jobs queue
	emailProvider := email.NewProvider(cfg)
	jobService := jobs.NewService(db.GORM)
	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        jobs.QueueEmails,
		Concurrency:  cfg.JobWorkers,
		PollInterval: 2 * time.Second,
		Timeout:      time.Minute,
	}, jobs.NewSendEmailHandler(emailProvider))
	log.Info().Str("provider", emailProvider.Name()).Msg("📧 Email provider ready")

	notifications := notification.NewService(db.GORM, jobService)
	auditService := audit.NewService(db.GORM)

	gateway := payment.NewGateway(cfg)
	log.Info().Str("provider", gateway.Name()).Msg("💳 Billing gateway ready")

	// Init services
	policy := services.PolicyFromConfig(cfg)
	ledgerService := services.NewLedgerService(store, export.NewService())
	referralService := services.NewReferralService(store, policy, notifications, auditService, cfg.AppBaseURL)
	subscriptionService := services.NewSubscriptionService(store, gateway, referralService, policy,
		services.PriceCatalogFromConfig(cfg.StripePrices), auditService, cfg.AppBaseURL)
	webhookService := services.NewWebhookService(store, gateway, subscriptionService)
	leadService := services.NewLeadService(store, policy, auditService)
	claimService := services.NewClaimService(store, policy, notifications, auditService)
	profileService := services.NewProfileService(store)

	// Maintenance tasks
	sched := scheduler.NewScheduler()
	if err := sched.AddTask("abandon-stale-referrals", "0 0 * * * *", func(ctx context.Context) error {
		_, err := referralService.AbandonStale(ctx, policy.ReferralAbandonAfter)
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to schedule referral cleanup")
	}
	retention := time.Duration(cfg.JobRetentionDays) * 24 * time.Hour
	if err := sched.AddTask("prune-jobs", "0 30 3 * * *", func(ctx context.Context) error {
		_, err := jobService.Cleanup(ctx, retention)
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to schedule job cleanup")
	}

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Presupuéstalo Marketplace API",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	// Swagger & metrics
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, &handlers.Handlers{
		Health:       handlers.NewHealthHandler(db.DB, gateway.Name()),
		Account:      handlers.NewAccountHandler(profileService, ledgerService),
		Lead:         handlers.NewLeadHandler(leadService, claimService, profileService),
		Referral:     handlers.NewReferralHandler(referralService),
		Billing:      handlers.NewBillingHandler(subscriptionService, webhookService),
		Notification: handlers.NewNotificationHandler(notifications),
		Admin:        handlers.NewAdminHandler(claimService, referralService, auditService),
	}, auth.NewJWTService(cfg.JWTSecret))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("🌐 Listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error { return jobService.RunWorkers(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("🛑 Shutting down HTTP server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("❌ Server stopped with error")
	}
	log.Info().Msg("👋 Bye")
}
