package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SendWave/internal/api"
	"SendWave/internal/config"
	"SendWave/internal/db"
	"SendWave/internal/dispatch"
	"SendWave/internal/metrics"
	"SendWave/internal/provider"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Report History (optional)
	// ------------------------------------------------
	var store *db.Store
	if cfg.DatabaseURL != "" {
		store, err = db.New(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer store.Close()
	}

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Email Provider
	// ------------------------------------------------
	client, err := buildProvider(ctx, cfg)
	if err != nil {
		logger.Fatal("provider setup failed", zap.Error(err))
	}
	client = provider.WithRetry(client, cfg.RetryAttempts)

	// ------------------------------------------------
	// Dispatch Coordinator
	// ------------------------------------------------
	coordinator := dispatch.New(client, dispatch.Policy{
		MaxBatchSize:      cfg.MaxBatchSize,
		Concurrency:       cfg.Concurrency,
		InterRequestDelay: cfg.SendDelay,
		PerCallTimeout:    cfg.SendTimeout,
	}, logger)

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := &api.Handler{
		Dispatcher:    coordinator,
		Store:         store,
		Log:           logger,
		MaxBatchSize:  cfg.MaxBatchSize,
		MaxUploadRows: cfg.MaxUploadRows,
	}

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: apiHandler.Routes(),
	}

	go func() {
		logger.Info("api server started",
			zap.String("port", cfg.APIPort),
			zap.String("provider", cfg.EmailProvider),
		)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}

func buildProvider(ctx context.Context, cfg *config.Config) (provider.Client, error) {
	switch cfg.EmailProvider {
	case "ses":
		return provider.NewSES(ctx, provider.SESConfig{
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
			ReplyTo:   cfg.SESReplyTo,
		})
	case "gmail":
		return provider.NewGmail(ctx, provider.GmailConfig{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
			SenderEmail:  cfg.GmailSenderEmail,
		})
	case "resend":
		return provider.NewResend(provider.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.ResendFromEmail,
			FromName:  cfg.ResendFromName,
		}), nil
	case "smtp":
		return provider.NewSMTP(provider.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}
