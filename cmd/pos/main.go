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

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/shop-scan-print/internal/backup"
	"github.com/fjod/shop-scan-print/internal/cache"
	"github.com/fjod/shop-scan-print/internal/config"
	h "github.com/fjod/shop-scan-print/internal/http"
	"github.com/fjod/shop-scan-print/internal/logger"
	"github.com/fjod/shop-scan-print/internal/publisher"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/scancode"
	"github.com/fjod/shop-scan-print/internal/service"
	"github.com/fjod/shop-scan-print/internal/settings"
	"github.com/fjod/shop-scan-print/internal/sink"
)

const (
	breakerFailures = 3
	breakerCooldown = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	ctx := context.Background()

	shopDefaults, err := config.LoadShopDefaults(cfg.ShopConfigFile)
	if err != nil {
		lg.Fatal("failed to load shop defaults", zap.Error(err))
	}

	products, err := repository.NewSQLiteProductRepository(cfg.DBPath)
	if err != nil {
		lg.Fatal("failed to open catalog", zap.Error(err))
	}
	defer products.Close()
	if err := products.RunMigrations(cfg.MigrationsPath); err != nil {
		lg.Fatal("failed to migrate catalog", zap.Error(err))
	}
	lg.Info("catalog ready", zap.String("db_path", cfg.DBPath))

	history, err := openHistory(ctx, cfg)
	if err != nil {
		lg.Fatal("failed to open receipt history", zap.Error(err))
	}
	defer history.Close()
	lg.Info("receipt history ready", zap.String("backend", cfg.HistoryBackend))

	var (
		carts cache.CartCache = cache.NewMemoryCache()
		store settings.Store  = settings.NewMemoryStore(shopDefaults)
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			lg.Fatal("redis connection failed", zap.Error(err))
		}
		carts = cache.NewRedisCache(redisClient)
		store = settings.NewRedisStore(redisClient, shopDefaults)
		lg.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	}

	var events publisher.ReceiptPublisher = publisher.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		events = publisher.NewKafkaPublisher(cfg.KafkaTopic, cfg.TerminalID, cfg.KafkaBrokers...)
		lg.Info("publishing receipt events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer events.Close()

	codes, err := scancode.New(cfg.ScanCodeStrategy)
	if err != nil {
		lg.Fatal("invalid scan code strategy", zap.Error(err))
	}

	sinks, err := buildSinks(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to configure device sinks", zap.Error(err))
	}

	catalog := service.NewCatalogService(products, codes, lg)
	pos := service.NewPOSService(cfg.TerminalID, catalog, carts, history, store, events, lg)

	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(catalog, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(pos, cfg.RequestTimeout),
		Receipts: h.NewReceiptHandler(pos, sinks, cfg.RequestTimeout),
		Settings: h.NewSettingsHandler(store, cfg.RequestTimeout),
		Backup:   h.NewBackupHandler(backup.NewService(catalog, store), cfg.RequestTimeout),
	}, cfg.RequestTimeout, lg)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "pos"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("POS server starting", zap.String("port", cfg.HTTPPort), zap.String("terminal_id", cfg.TerminalID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	lg.Info("server exited")
}

func openHistory(ctx context.Context, cfg *config.Config) (repository.HistoryRepository, error) {
	switch cfg.HistoryBackend {
	case config.HistoryPostgres:
		repo, err := repository.OpenPostgresHistory(&cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(&cfg.Postgres); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	case config.HistoryMongo:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoHistory(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return repository.NewMemoryHistory(), nil
	}
}

// buildSinks always offers the file target. The printer and archive targets
// are only available when configured and sit behind a circuit breaker.
func buildSinks(ctx context.Context, cfg *config.Config, lg *zap.Logger) (map[string]sink.DeviceSink, error) {
	sinks := map[string]sink.DeviceSink{
		h.TargetFile: sink.NewFile(cfg.ReceiptDir),
	}
	if cfg.PrinterAddr != "" {
		sinks[h.TargetPrinter] = sink.NewBreaker("printer", sink.NewPrinter(cfg.PrinterAddr), breakerFailures, breakerCooldown, lg)
	}
	if cfg.S3Bucket != "" {
		archive, err := sink.NewS3ArchiveFromConfig(ctx, sink.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		sinks[h.TargetArchive] = sink.NewBreaker("archive", archive, breakerFailures, breakerCooldown, lg)
	}
	return sinks, nil
}
