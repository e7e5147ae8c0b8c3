package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rigsync/backend/config"
	httpDelivery "github.com/rigsync/backend/internal/delivery/http"
	"github.com/rigsync/backend/internal/domain"
	"github.com/rigsync/backend/internal/infrastructure/logging"
	"github.com/rigsync/backend/internal/infrastructure/memory"
	"github.com/rigsync/backend/internal/infrastructure/postgres"
	"github.com/rigsync/backend/internal/infrastructure/redislock"
	"github.com/rigsync/backend/internal/infrastructure/spreadsheet"
	"github.com/rigsync/backend/internal/usecase"
)

type stores struct {
	catalog  domain.CatalogRepository
	stock    domain.StockRepository
	sessions domain.SessionRepository
	tx       domain.Transactor
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting RigSync backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("lock", cfg.Lock.Backend),
	)

	st, err := openStores(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open stores", zap.Error(err))
	}

	locker, closeLocker, err := openLocker(cfg.Lock, logger)
	if err != nil {
		logger.Fatal("Failed to create locker", zap.Error(err))
	}
	defer closeLocker()

	service := usecase.NewImportService(st.catalog, st.sessions, st.tx, locker, usecase.ImportConfig{
		MaxRows:              cfg.Import.MaxRows,
		MaxFileSizeKB:        cfg.Import.MaxFileSizeKB,
		AnalyzeMinConfidence: cfg.Matching.AnalyzeMinConfidence,
		CreateMinConfidence:  cfg.Matching.CreateMinConfidence,
		DuplicateConfidence:  cfg.Matching.DuplicateConfidence,
		Normalizer: usecase.NormalizerConfig{
			BrandAliases: cfg.Matching.BrandAliases,
			Synonyms:     cfg.Matching.Synonyms,
		},
	}, logger)

	reader := spreadsheet.NewReader(int64(cfg.Import.MaxFileSizeKB) * 1024)
	handler := httpDelivery.NewHandler(service, reader, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server listening", zap.String("addr", srv.Addr))
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}

func openStores(cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver != "postgres" {
		catalog, err := memory.NewCatalogStore()
		if err != nil {
			return nil, err
		}
		stock, sessions := memory.NewStockStore(), memory.NewSessionStore()
		return &stores{
			catalog:  catalog,
			stock:    stock,
			sessions: sessions,
			tx:       memory.NewTransactor(catalog, stock, sessions),
		}, nil
	}

	db, err := postgres.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &stores{
		catalog:  postgres.NewCatalogRepository(db),
		stock:    postgres.NewStockRepository(db),
		sessions: postgres.NewSessionRepository(db),
		tx:       postgres.NewTransactor(db),
	}, nil
}

func openLocker(cfg config.LockConfig, logger *zap.Logger) (domain.Locker, func(), error) {
	if cfg.Backend != "redis" {
		return memory.NewLocker(cfg.Wait), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := redislock.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return redislock.NewLocker(client, cfg.TTL, cfg.Wait, logger), func() { client.Close() }, nil
}
