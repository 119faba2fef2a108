// Package main is the entry point for the fundapp ledger server.
package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundapp/internal/clients/xrate"
	"fundapp/internal/config"
	"fundapp/internal/events"
	"fundapp/internal/metrics"
	"fundapp/internal/routes"
	"fundapp/internal/scheduler"
	"fundapp/internal/services/account"
	"fundapp/internal/services/audit"
	"fundapp/internal/services/exchange"
	"fundapp/internal/services/owner"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const version = "1.0.0"

func main() {
	config.LoadEnv()
	cfg := config.Load()

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if config.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	appLogger := slog.New(handler)
	slog.SetDefault(appLogger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(reg)

	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.close()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQP.Enabled() {
		rabbit, err := events.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("⚠️ RabbitMQ unavailable, audit events will not be published: %v", err)
		} else {
			log.Println("✅ RabbitMQ connected")
			publisher = rabbit
		}
	}
	defer publisher.Close()

	rateService := exchange.NewService(
		backend.store.ExchangeRates(),
		xrate.NewClient(cfg.Rates.BaseURL, cfg.Rates.Timeout),
		backend.rates,
		exchange.WithMetrics(ledgerMetrics),
		exchange.WithLogger(appLogger.With("component", "exchange")),
	)
	accountService := account.NewService(
		backend.store,
		rateService,
		backend.accounts,
		audit.NewAuditor(publisher, appLogger.With("component", "audit")),
		ledgerMetrics,
		appLogger.With("component", "account"),
	)
	ownerService := owner.NewService(
		backend.store,
		backend.owners,
		backend.accounts,
		appLogger.With("component", "owner"),
	)

	jobs := scheduler.NewScheduler(rateService, cfg.Rates.RefreshCron, appLogger.With("component", "scheduler"))
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "fundapp " + version,
		// request strings reach the in-memory store and caches
		Immutable: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigin,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Owners:   ownerService,
		Accounts: accountService,
		Exchange: rateService,
		Gatherer: reg,
		Health:   backend.health,
		Version:  version,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()

	<-stop
	slog.Info("🛑 Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	<-jobs.Stop().Done()
	slog.Info("👋 Server exited successfully")
}
