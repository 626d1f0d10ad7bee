package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/auth_backend/internal/config"
	"github.com/Skotchmaster/auth_backend/internal/handlers"
	"github.com/Skotchmaster/auth_backend/internal/hash"
	"github.com/Skotchmaster/auth_backend/internal/latency"
	"github.com/Skotchmaster/auth_backend/internal/logging"
	authmw "github.com/Skotchmaster/auth_backend/internal/middleware/auth"
	"github.com/Skotchmaster/auth_backend/internal/mykafka"
	"github.com/Skotchmaster/auth_backend/internal/repo"
	"github.com/Skotchmaster/auth_backend/internal/service"
	httpserver "github.com/Skotchmaster/auth_backend/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := repo.Open(initCtx, cfg.StoreURL)
	cancel()
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}

	hasher, err := hash.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		logger.Error("password hasher", "error", err)
		os.Exit(1)
	}

	var events mykafka.Publisher = mykafka.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Error("kafka producer", "error", err)
			os.Exit(1)
		}
		events = prod
	}

	svc := service.NewAuthService(store, hasher, events, cfg.TokenTTL)
	prober := &latency.Prober{
		Host:     cfg.Latency.Host,
		Port:     cfg.Latency.Port,
		Attempts: cfg.Latency.Attempts,
		Timeout:  cfg.Latency.Timeout,
		Budget:   cfg.Latency.Budget,
	}

	e := httpserver.New(&httpserver.Deps{
		Logger:      logger,
		AuthHandler: &handlers.AuthHandler{Svc: svc, Prober: prober},
		Gate:        authmw.NewGate(svc),
		Store:       store,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http server started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := store.Close(ctx); err != nil {
		logger.Error("store close error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
