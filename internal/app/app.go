package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedbackdesk/internal/cache"
	"feedbackdesk/internal/config"
	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/repository"
	"feedbackdesk/internal/repository/memory"
	"feedbackdesk/internal/service"
	"feedbackdesk/internal/telemetry"
	"feedbackdesk/internal/transport/rest"
	"feedbackdesk/internal/transport/ws"
)

const pingTimeout = 5 * time.Second

// App wires stores, caches and services for the server and the CLI.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Telemetry *telemetry.Provider
	WSHub     *ws.Hub

	Questions repository.QuestionRepo
	Responses repository.ResponseRepo
	Settings  repository.SettingsRepo
	Sessions  cache.SessionCache
	Dashboard cache.DashboardCache

	AuthService      *service.AuthService
	SchemaService    *service.SchemaService
	Gate             *service.Gate
	IntakeService    *service.IntakeService
	DashboardService *service.DashboardService
	AdminService     *service.AdminService
	ExportService    *service.ExportService

	mongoClient *mongo.Client
	redisClient *redis.Client
}

// New connects to the configured backends and builds every service. Memory
// stores replace MongoDB when MONGO_URI is "memory://" and memory caches
// replace Redis when REDIS_URI is empty.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		WSHub:   ws.NewHub(logger),
	}

	if err := a.openStores(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.openCaches(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, cfg.OTLPEndpoint)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.Telemetry = tp
	if tp.Enabled() {
		logger.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	}

	a.AuthService = service.NewAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret)
	a.SchemaService = service.NewSchemaService(a.Questions)
	a.Gate = service.NewGate(a.Settings, cfg.DefaultAccessPIN)

	// wsHub implements service.Broadcaster
	a.DashboardService = service.NewDashboardService(
		a.SchemaService, a.Gate, a.Responses, a.Dashboard, a.WSHub, a.Metrics, logger,
		cfg.Analytics.HighThreshold, cfg.Analytics.LowThreshold,
	)
	a.IntakeService = service.NewIntakeService(
		a.SchemaService, a.Gate, a.Responses, a.Sessions, a.DashboardService, a.Metrics, logger,
	)
	a.AdminService = service.NewAdminService(
		a.Questions, a.SchemaService, a.Gate, a.DashboardService, a.Metrics, logger,
	)
	a.ExportService = service.NewExportService(a.SchemaService, a.Responses)

	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	if a.Config.UseMemoryStore() {
		a.Logger.Warn("using in-memory stores, data is lost on exit")
		a.Questions = memory.NewQuestionRepo()
		a.Responses = memory.NewResponseRepo()
		a.Settings = memory.NewSettingsRepo()
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	a.mongoClient = client

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	a.Logger.Info("connected to MongoDB", "database", a.Config.MongoDatabase)

	db := client.Database(a.Config.MongoDatabase)
	a.Questions = repository.NewQuestionRepo(db)
	a.Responses = repository.NewResponseRepo(db)
	a.Settings = repository.NewSettingsRepo(db)
	return nil
}

func (a *App) openCaches(ctx context.Context) error {
	if !a.Config.UseRedis() {
		a.Logger.Warn("REDIS_URI not set, using in-memory caches")
		a.Sessions = cache.NewMemorySessionCache(a.Config.SessionTTL)
		a.Dashboard = cache.NewMemoryDashboardCache()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	a.redisClient = rdb

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	a.Logger.Info("connected to Redis", "addr", a.Config.RedisAddr)

	a.Sessions = cache.NewSessionCache(rdb, a.Config.SessionTTL)
	a.Dashboard = cache.NewDashboardCache(rdb, a.Config.Analytics.CacheTTL)
	return nil
}

// Router builds the HTTP handler.
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:        a.AuthService,
		IntakeService:      a.IntakeService,
		DashboardService:   a.DashboardService,
		AdminService:       a.AdminService,
		ExportService:      a.ExportService,
		WSHub:              a.WSHub,
		Metrics:            a.Metrics,
		Logger:             a.Logger,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
	})
}

// Close waits for background recomputes and releases every connection.
func (a *App) Close(ctx context.Context) error {
	if a.DashboardService != nil {
		a.DashboardService.Wait()
	}
	if a.WSHub != nil {
		a.WSHub.Close()
	}

	var errs []error
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongodb: %w", err))
		}
	}
	return errors.Join(errs...)
}
