package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blinklean/internal/api"
	"blinklean/internal/config"
	"blinklean/internal/database"
	"blinklean/internal/domain"
	"blinklean/internal/events"
	"blinklean/internal/gateway"
	"blinklean/internal/logging"
	"blinklean/internal/metrics"
	"blinklean/internal/repository"
	"blinklean/internal/service"
	"blinklean/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := base.With().Str("component", "api-main").Logger()

	db, err := database.NewDB(cfg.Database.Path, logging.Component(&base, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	store := initStore(redisClient, &base)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	eventBus.OnError(func(event *events.Event, err error) {
		logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
	})
	eventBus.Subscribe("*", func(event *events.Event) error {
		logger.Debug().Str("event", event.Type).Msg("domain event")
		return nil
	})

	zones := service.NewZoneService(db, store, cfg.Cache.EligibilityTTL, logging.Component(&base, "zones"))
	catalog := service.NewCatalogService(db, zones, store, cfg.Cache.ServicesTTL, logging.Component(&base, "catalog"))
	if err := seedCatalog(ctx, catalog, &logger); err != nil {
		return err
	}

	reconciler := worker.NewReconciler(
		db, db, db, redisClient,
		worker.RetryPolicyFromConfig(cfg.Reconcile),
		cfg.Reconcile.PollInterval,
		logging.Component(&base, "reconciler"),
	)

	svc, err := buildServices(cfg, db, store, zones, catalog, reconciler, eventBus, &base)
	if err != nil {
		return err
	}

	grpcServer, err := api.NewGRPCServer(cfg.API, svc, &base)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}

	checks := []api.HealthCheck{
		{Name: "database", Check: db.Ping},
		{Name: "store", Check: store.Ping},
	}
	httpServer := api.NewHTTPServer(cfg.API, svc, checks, &base)

	startMetrics(ctx, cfg, &logger)

	if cfg.Reconcile.Enabled {
		go reconciler.Start(ctx)
	}

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, *baseLogger, closer, nil
}

func loadCatalog(logger *zerolog.Logger) (*config.Catalog, error) {
	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "configs/catalog.yaml"
	}
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("read catalog")
		return nil, err
	}

	var catalog config.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("parse catalog")
		return nil, err
	}
	return &catalog, nil
}

func seedCatalog(ctx context.Context, catalog *service.CatalogService, logger *zerolog.Logger) error {
	data, err := loadCatalog(logger)
	if err != nil {
		return err
	}
	res, err := catalog.Seed(ctx, data)
	if err != nil {
		logger.Error().Err(err).Msg("seed catalog")
		return err
	}
	logger.Info().Int("zones", res.Zones).Int("rates", res.Rates).Int("services", res.Services).Msg("catalog seeded")
	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory store")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

type pingStore interface {
	domain.Store
	Ping(ctx context.Context) error
}

func initStore(redisClient *redis.Client, base *zerolog.Logger) pingStore {
	memory := repository.NewMemoryStore(time.Minute)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverStore(
		repository.NewRedisStore(redisClient),
		memory,
		logging.Component(base, "store"),
	)
}

func buildServices(
	cfg *config.Config,
	db *database.DB,
	store domain.Store,
	zones *service.ZoneService,
	catalog *service.CatalogService,
	reconciler *worker.Reconciler,
	eventBus *events.EventBus,
	base *zerolog.Logger,
) (api.Services, error) {
	pricing, err := service.NewPricingPolicy(cfg.Payment)
	if err != nil {
		return api.Services{}, err
	}

	var gw domain.PaymentGateway
	switch cfg.Payment.GatewayName {
	case "stub":
		base.Warn().Msg("payment gateway stub enabled; orders are not sent to a real gateway")
		gw = gateway.NewStubGateway(cfg.Payment.KeyID)
	default:
		gw = gateway.NewRazorpayClient(cfg.Payment, logging.Component(base, "gateway"))
	}

	valuator := service.NewValuationService(db)
	guard := service.NewAdmissionGuard(store, cfg.Admission.Cooldown)

	return api.Services{
		Zones:    zones,
		Valuator: valuator,
		Bookings: service.NewBookingService(db, zones, valuator, guard, service.NewUserService(db), eventBus,
			logging.Component(base, "bookings")),
		Payments: service.NewPaymentService(service.PaymentDeps{
			Bookings:  db,
			Payments:  db,
			Users:     db,
			Gateway:   gw,
			Verifier:  gateway.NewSigner(cfg.Payment.KeySecret),
			Pricing:   pricing,
			Store:     store,
			Reconcile: reconciler,
			EventBus:  eventBus,
		}, cfg.Payment, logging.Component(base, "payments")),
		Rates:   service.NewRateService(db, eventBus, logging.Component(base, "rates")),
		Catalog: catalog,
	}, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if !cfg.API.GRPC.Enabled {
			return
		}
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
