package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rentfolio/internal/app"
	"rentfolio/internal/config"
	"rentfolio/internal/identity"
	"rentfolio/internal/metrics"
	"rentfolio/internal/server"
	"rentfolio/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	verifier, err := identity.NewVerifier(identity.VerifierConfig{
		JWKSURL:  cfg.IdentityJWKS,
		Issuer:   cfg.IdentityIssuer,
		Audience: cfg.IdentityAud,
	})
	if err != nil {
		log.Fatalf("failed to init identity verifier: %v", err)
	}
	resolver := identity.NewResolver(verifier, appCore.Store())

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Resolver:       resolver,
		Metrics:        collector,
		Gatherer:       registry,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
