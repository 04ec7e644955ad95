package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/config"
	"github.com/mtfultz/diversify/internal/handlers"
	internalhttp "github.com/mtfultz/diversify/internal/http"
	"github.com/mtfultz/diversify/internal/logging"
	"github.com/mtfultz/diversify/internal/models"
	"github.com/mtfultz/diversify/internal/services"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := services.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory storage", zap.Error(err))
	}

	cache := services.NewCache(rdb, logger)
	var store services.PortfolioStore = services.NewMemoryPortfolioStore()
	var cacheHealth func(context.Context) error
	if rdb != nil {
		store = services.NewRedisPortfolioStore(rdb)
		cacheHealth = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		defer closeRedis(rdb, logger)
	}
	if cfg.SeedDemo {
		if err := services.SeedDemo(ctx, store); err != nil {
			logger.Warn("seed demo portfolio", zap.Error(err))
		}
	}

	gw := services.NewGateway(cfg, services.NewSlotPacer(cfg.UpstreamInterval), logger)
	cg := services.NewCoinGecko(gw)
	market := services.NewMarketService(cfg, cg, cache, logger)
	history := services.NewHistoryAggregator(
		cg,
		services.NewTTLCache[models.MergedSeries]("history", cache, cfg.CacheTTLHistory, logger),
		logger,
	)

	api := handlers.New(cfg, handlers.Deps{
		Cache:       cache,
		Market:      market,
		History:     history,
		Store:       store,
		CacheHealth: cacheHealth,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           internalhttp.NewRouter(cfg, api, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("diversify api listening",
			zap.String("addr", srv.Addr),
			zap.Bool("api_key", cfg.CoinGeckoAPIKey != ""),
			zap.Duration("upstream_interval", cfg.UpstreamInterval))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func closeRedis(rdb *redis.Client, logger *zap.Logger) {
	if err := rdb.Close(); err != nil {
		logger.Warn("close redis", zap.Error(err))
	}
}
