package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/shauritanga/twa-system/internal/core/services"
	"github.com/shauritanga/twa-system/internal/handlers"
	"github.com/shauritanga/twa-system/internal/middleware"
	"github.com/shauritanga/twa-system/internal/platform/config"
	"github.com/shauritanga/twa-system/internal/platform/lock"
	"github.com/shauritanga/twa-system/internal/repositories/database/pgsql"
	"github.com/shauritanga/twa-system/internal/repositories/memory"
	"github.com/shauritanga/twa-system/pkg/database"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// seedActor is recorded as created_by on accounts created by the chart seeder.
const seedActor = "system"

// @title TWA Ledger API
// @version 1.0
// @description Automatic double-entry ledger for the welfare association.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	repos, cleanup, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("driver", cfg.StorageDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
			}
		}()
	}

	var locker portsrepo.Locker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient)
		logger.Info("Posting locks backed by redis", slog.String("addr", cfg.RedisAddr))
	} else {
		locker = lock.NewLocalLocker()
		logger.Info("Posting locks kept in-process")
	}

	rateLimiter, err := newRateLimiter(cfg, redisClient)
	if err != nil {
		logger.Error("Failed to configure rate limiter", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, locker)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization")
	if err := corsConfig.Validate(); err != nil {
		logger.Error("Invalid CORS configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.New(corsConfig))

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupRepositories opens the configured storage, applies migrations and seeds the chart.
// The returned cleanup releases every resource it opened.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		repos, store := memory.NewProvider()
		if cfg.SeedChart {
			created, err := store.SeedChart(ctx, domain.DefaultChart, seedActor, time.Now().UTC())
			if err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
			logger.Info("Chart of accounts seeded", slog.Int("created", created))
		}
		return repos, func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:    cfg.DBMaxConns,
		LockTimeout: cfg.DBLockTimeout,
		Ping:        cfg.EnableDBCheck,
	})
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	sqlDB, err := database.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}

	if cfg.SeedChart {
		created, err := database.SeedChart(ctx, sqlDB, domain.DefaultChart, seedActor, time.Now().UTC())
		if err != nil {
			database.ClosePgxPool(dbPool)
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Chart of accounts seeded", slog.Int("created", created))
	}

	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// newRateLimiter builds the per-IP API limiter. Counters are shared through
// redis when a client is available so every instance enforces one budget.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client) (*limiter.Limiter, error) {
	if cfg.RateLimit == "" {
		return nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	if redisClient == nil {
		return limiter.New(memorystore.NewStore(), rate), nil
	}
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "twa_rate_limit"})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}
