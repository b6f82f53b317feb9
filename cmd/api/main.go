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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"triveni-inventory-api/internal"
	"triveni-inventory-api/internal/config"
	"triveni-inventory-api/internal/store"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		logger.Fatal("failed to create connection pool", zap.Error(err))
	}
	if err := pool.Ping(ctx); err != nil {
		cancel()
		logger.Fatal("database ping failed", zap.Error(err))
	}
	cancel()
	defer pool.Close()

	st := store.NewPostgres(pool, logger)
	defer st.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.Migrate(ctx); err != nil {
		cancel()
		logger.Fatal("migration failed", zap.Error(err))
	}
	cancel()

	srv, err := internal.NewServer(st, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.SeedSpares(ctx); err != nil {
		cancel()
		logger.Fatal("spares seeding failed", zap.Error(err))
	}
	cancel()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("jwt_issuer", cfg.JWTIssuer),
			zap.Duration("jwt_expiry", cfg.JWTExpiry))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := srv.Close(ctx); err != nil {
		logger.Error("server close failed", zap.Error(err))
	}
}
