package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"colorfest/services/analytics-service/internal/attribution"
	"colorfest/services/analytics-service/internal/catalog"
	"colorfest/services/analytics-service/internal/config"
	"colorfest/services/analytics-service/internal/dice"
	"colorfest/services/analytics-service/internal/handler"
	"colorfest/services/analytics-service/internal/models"
	"colorfest/services/analytics-service/internal/repository"
	"colorfest/services/analytics-service/internal/service"
	"colorfest/shared/pkg/db"
	"colorfest/shared/pkg/logger"
	"colorfest/shared/pkg/metrics"
)

func main() {
	log := logger.NewLogger("analytics-service")
	log.Entry().Info("Starting Analytics Service...")

	if path := config.LoadEnvFiles("config.env", "services/analytics-service/config.env"); path == "" {
		log.Entry().Warn("config.env and .env not found, using environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Entry().WithError(err).Fatal("Invalid configuration")
	}
	if err := cfg.RequireFeed(); err != nil {
		log.Entry().WithError(err).Fatal("Live feed is not configured")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Entry().WithError(err).Fatal("Failed to load time zone")
	}
	cat, err := catalog.Load(cfg.EditionsFile)
	if err != nil {
		log.Entry().WithError(err).Fatal("Failed to load edition catalog")
	}
	log.Entry().WithField("version", cat.Version).WithField("editions", len(cat.Editions)).Info("Edition catalog loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	conn, err := db.NewConnection(ctx, cfg.DB())
	if err != nil {
		log.Entry().WithError(err).Fatal("Failed to connect to database")
	}
	defer conn.Close()

	schemaGuard := db.NewSchemaGuard(conn.DB)
	if err := schemaGuard.EnsureSchema(ctx); err != nil {
		log.Entry().WithError(err).Fatal("Failed to create schema")
	}
	if err := schemaGuard.ValidateTables(ctx, db.SnapshotTables); err != nil {
		log.Entry().WithError(err).Warn("Schema validation warning")
	}
	log.Entry().Info("Database connected and schema validated")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	serviceMetrics := metrics.NewMetrics("analytics", registry)

	// Feed cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Entry().WithError(err).Warn("Redis unavailable, feed cache disabled until it recovers")
	}

	// Repositories
	snapshotRepo := repository.NewSnapshotRepository(conn.DB)
	historicalRepo := repository.NewHistoricalRepository(conn.DB)
	feedCache := repository.NewFeedCache(rdb, cfg.Redis.FeedTTL)

	// Services
	engine := attribution.NewEngine(cat, loc)
	snapshotService := service.NewSnapshotService(snapshotRepo, log)
	diceClient := dice.NewClient(cfg.Dice.Endpoint, cfg.Dice.APIKey, cfg.Dice.Timeout)
	dashboardService := service.NewDashboardService(
		diceClient,
		snapshotService,
		engine,
		log,
		serviceMetrics,
		service.WithFetchTimeout(cfg.Dice.Timeout),
		service.WithFeedCache(feedCache),
		service.WithDefaultSettings(models.Settings{
			Goal:           cfg.Dashboard.Goal,
			CapacityPerDay: cfg.Dashboard.CapacityPerDay,
		}),
	)
	comparisonService := service.NewComparisonService(snapshotRepo, historicalRepo, cat, loc, log)
	importService := service.NewImportService(cat, historicalRepo, cfg.Import.BatchSize, log, serviceMetrics)
	eventService := service.NewEventService(diceClient, engine, cfg.Dice.Timeout, log)

	healthReporter := handler.NewHealthReporter()
	dashboardService.OnRefresh(healthReporter.RefreshCompleted)

	if cfg.Feed.WarmFromCache {
		if err := dashboardService.Warm(ctx); err != nil {
			log.Entry().WithError(err).Warn("Failed to warm from cached feed")
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		service.NewPoller(dashboardService, cfg.Feed.PollInterval, log).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		recordPoolStats(ctx, conn, serviceMetrics)
	}()

	// HTTP
	mux := http.NewServeMux()
	handler.NewAnalyticsHandler(
		dashboardService,
		snapshotService,
		comparisonService,
		importService,
		eventService,
		handler.RefreshThrottle(cfg.Feed.ThrottlePeriod, cfg.Feed.ThrottleBurst),
		log,
	).RegisterRoutes(mux)
	mux.Handle("GET /health", handler.NewHealthHandler(map[string]func(context.Context) error{
		"mysql": conn.Ping,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))
	mux.Handle("GET /metrics", serviceMetrics.Handler())

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           logger.HTTPMiddleware(log)(metrics.HTTPMiddleware(serviceMetrics)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.UnaryServerInterceptor(log),
			metrics.UnaryServerInterceptor(serviceMetrics),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, healthReporter.Server())
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Entry().WithError(err).WithField("port", cfg.Server.GRPCPort).Fatal("Failed to listen")
	}

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Entry().WithError(err).Error("gRPC server stopped")
			stop()
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Entry().WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	log.Entry().
		WithField("http_port", cfg.Server.HTTPPort).
		WithField("grpc_port", cfg.Server.GRPCPort).
		WithField("poll_interval", cfg.Feed.PollInterval.String()).
		Info("Analytics Service started")

	<-ctx.Done()
	log.Entry().Info("Shutting down gracefully...")

	healthReporter.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Entry().WithError(err).Warn("HTTP shutdown incomplete")
	}
	grpcServer.GracefulStop()
	wg.Wait()

	log.Entry().Info("Shutdown complete")
}

func recordPoolStats(ctx context.Context, conn *db.Connection, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := conn.DB.Stats()
			m.RecordDBPoolStats(s.OpenConnections, s.InUse, s.Idle, s.WaitCount, s.WaitDuration)
		}
	}
}
