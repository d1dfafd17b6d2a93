package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/config"
	"github.com/duncun-ubuntu/financial-backend/internal/handler"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/cache"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/events"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/gcs"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/localfs"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/lock"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/memory"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/mysql"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/render"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/resilience"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/supabase"
	"github.com/duncun-ubuntu/financial-backend/internal/port"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("blob_backend", cfg.BlobBackend),
		zap.Bool("redis", cfg.RedisAddress != ""),
		zap.Bool("amqp", cfg.AMQPURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finbackend")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	// --- Redis (numbering lock + client-name cache) ---
	var (
		locker      port.Locker
		clientNames port.Cache[[]string]
	)
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.String("address", cfg.RedisAddress), zap.Error(err))
		}
		logger.Info("using Redis for locks and cache", zap.String("address", cfg.RedisAddress))

		locker = lock.NewRedis(rdb, cfg.LockTTL, logger)
		clientNames = cache.NewRedis[[]string](rdb, "finbackend:client_names", cfg.CacheTTL, logger)
	} else {
		logger.Warn("REDIS_ADDRESS not set: invoice numbering is serialized per process only")
		locker = lock.NewLocal()
		clientNames = cache.New[[]string](cfg.CacheTTL)
	}

	// --- Domain events ---
	var publisher port.EventPublisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Fatal("failed to connect to AMQP broker", zap.Error(err))
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Document content ---
	blobs, closeBlobs, err := openBlobs(cfg, resilienceCfg, logger)
	if err != nil {
		logger.Fatal("failed to open blob store", zap.Error(err))
	}
	defer closeBlobs()

	// --- Rendering ---
	renderer := render.New(render.Company{
		Name:        cfg.CompanyName,
		Address:     cfg.CompanyAddress,
		TIN:         cfg.CompanyTIN,
		Phone:       cfg.CompanyPhone,
		BankAccount: cfg.CompanyBankAccount,
	})

	// --- Services ---
	svc := handler.Services{
		Auth:      service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger),
		Profile:   service.NewProfileService(store, cfg.DefaultPhoneRegion, logger),
		Ledger:    service.NewLedgerService(store, publisher, metrics, logger),
		Records:   service.NewRecordsService(store, store, logger),
		Reports:   service.NewReportService(store, store, renderer, cfg.CompanyName, logger),
		Invoices:  service.NewInvoiceService(store, locker, renderer, clientNames, publisher, metrics, logger),
		Documents: service.NewDocumentService(store, blobs, bulkhead, cfg.MaxUploadBytes, metrics, logger),
		Store:     store,
	}

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger, cfg.CORSAllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openStore returns the configured store and its close func.
func openStore(cfg *config.Config, logger *zap.Logger) (port.Store, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("using in-memory store: data is lost on restart")
		return memory.New(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := mysql.RunMigrations(cfg.DatabaseDSN); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	db, err := mysql.Open(cfg.DatabaseDSN, mysql.Options{MaxOpenConns: cfg.DBMaxOpenConns}, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using MySQL store")
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}, nil
}

// openBlobs returns the configured document content store.
func openBlobs(cfg *config.Config, resilienceCfg resilience.Config, logger *zap.Logger) (port.BlobStore, func(), error) {
	switch cfg.BlobBackend {
	case config.BlobSupabase:
		logger.Info("using Supabase Storage for documents",
			zap.String("supabase_url", cfg.SupabaseURL),
			zap.String("bucket", cfg.SupabaseBucket),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		cb := resilience.NewCircuitBreaker("supabase-storage")
		return supabase.NewStorage(httpClient, cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket, cb, resilienceCfg, logger), func() {}, nil

	case config.BlobGCS:
		logger.Info("using Google Cloud Storage for documents", zap.String("bucket", cfg.GCSBucket))
		// The client keeps ctx for token refresh, so it must outlive startup.
		store, err := gcs.New(context.Background(), cfg.GCSBucket, cfg.GCSCredentialsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	default:
		logger.Info("using local disk for documents", zap.String("dir", cfg.UploadDir))
		store, err := localfs.New(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
