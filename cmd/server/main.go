package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/parcelmarket/shipping-marketplace/internal/api"
	"github.com/parcelmarket/shipping-marketplace/internal/api/handler"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
	"github.com/parcelmarket/shipping-marketplace/internal/core/service"
	"github.com/parcelmarket/shipping-marketplace/internal/infrastructure/carrier"
	"github.com/parcelmarket/shipping-marketplace/internal/infrastructure/config"
	mongodb "github.com/parcelmarket/shipping-marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/parcelmarket/shipping-marketplace/internal/infrastructure/db/redis"
	"github.com/parcelmarket/shipping-marketplace/internal/infrastructure/discount"
	"github.com/parcelmarket/shipping-marketplace/internal/infrastructure/payment"
	"github.com/parcelmarket/shipping-marketplace/internal/infrastructure/queue"
	"github.com/parcelmarket/shipping-marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Backing stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = redisClient.Close() }()

	// --- Repositories ---
	pricingRepo := mongodb.NewPricingConfigRepository(db, cfg.Pricing.CommissionFloorPct)
	addonRepo := mongodb.NewAddonRepository(db)
	fallbackRepo := mongodb.NewFallbackPricingRepository(db)
	shipmentRepo := mongodb.NewShipmentRepository(mongoClient, db)
	auditRepo := mongodb.NewAuditRepository(db)
	authRepo := mongodb.NewAuthRepository(db)

	for name, idx := range map[string]interface{ EnsureIndexes(context.Context) error }{
		"pricing_config": pricingRepo,
		"addons":         addonRepo,
		"shipments":      shipmentRepo,
		"audit":          auditRepo,
	} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Str("repository", name).Msg("index creation failed")
		}
	}

	// --- Audit pipeline ---
	auditSink := service.NewAuditService(auditRepo, log)
	dispatcher := queue.NewDispatcher(0, auditSink, log)
	dispatcher.Start(ctx)

	// --- Carriers ---
	clients := make(map[domain.CarrierCode]ports.CarrierClient)
	for code, carrierCfg := range map[domain.CarrierCode]config.CarrierConfig{
		domain.CarrierFedEx: cfg.FedEx,
		domain.CarrierDHL:   cfg.DHL,
		domain.CarrierUPS:   cfg.UPS,
	} {
		if !carrierCfg.Configured() {
			log.Warn().Str("carrier", string(code)).Msg("carrier has no credentials, skipping")
			continue
		}
		clients[code] = carrier.NewStaticClient(code)
	}
	registry := ports.NewCarrierRegistry(clients)

	// --- Pricing pipeline ---
	commission := service.NewCommissionEngine(dispatcher, log)
	markup := service.NewMarkupEngine(dispatcher, log)
	addonEngine := service.NewAddonEngine(addonRepo, dispatcher, log)
	fallback := service.NewFallbackEngine(fallbackRepo, commission, dispatcher, log)
	normalizer := service.NewReferenceNormalizer(log)
	rateCache := redisdb.NewRateCache(redisClient)

	aggregator := service.NewRateAggregator(
		registry, rateCache, normalizer, pricingRepo,
		commission, markup, addonEngine, fallback, log,
		service.WithCarrierTimeout(cfg.Pricing.CarrierTimeout),
		service.WithCacheTTL(cfg.Pricing.RateCacheTTL),
	)

	// --- Checkout ---
	checkout := service.NewCheckoutOrchestrator(
		shipmentRepo, aggregator, addonEngine,
		discount.NewFixedRate(map[string]float64{"WELCOME10": 10}),
		payment.NewSimulated(log),
		registry, dispatcher, log,
		service.WithHandlingFee(cfg.Pricing.HandlingFee),
		service.WithTolerance(cfg.Pricing.CheckoutTolerance),
	)

	// --- HTTP ---
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, 24*time.Hour)
	e := api.NewRouter(api.RouterDeps{
		JWTSecret: cfg.JWTSecret,
		Log:       log,
		Auth:      handler.NewAuthHandler(authService),
		Quote:     handler.NewQuoteHandler(aggregator),
		Shipment:  handler.NewShipmentHandler(shipmentRepo, aggregator, normalizer),
		Checkout:  handler.NewCheckoutHandler(checkout),
		Admin:     handler.NewAdminHandler(pricingRepo, addonRepo, auditRepo),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
