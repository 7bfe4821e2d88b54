// Package main initializes and starts the catalog server, setting up
// configuration, logging, the catalog store, the Telegram client, services,
// handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/config"
	"github.com/atinyakov/rivone/internal/db"
	"github.com/atinyakov/rivone/internal/logger"
	"github.com/atinyakov/rivone/internal/middleware"
	"github.com/atinyakov/rivone/internal/repository"
	"github.com/atinyakov/rivone/internal/server/handler/http"
	"github.com/atinyakov/rivone/internal/service"
	"github.com/atinyakov/rivone/internal/telegram"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the catalog database.
	conn, err := db.Open(options.StoreDriver, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err), zap.String("driver", options.StoreDriver))
	}
	defer conn.Close()

	store := repository.NewCatalogRepository(conn, options.StoreDriver)

	if options.BotToken == "" {
		zapLogger.Warn("bot token is not configured; sync and streaming will fail")
	}
	source := telegram.NewClient(telegram.Options{
		BaseURL:           options.TelegramURL,
		Token:             options.BotToken,
		RequestsPerSecond: options.TelegramRPS,
	})

	// Initialize business-logic services.
	syncService := service.NewSyncService(source, store, zapLogger)
	catalogService := service.NewCatalogService(store)
	streamService := service.NewStreamService(source, options.StreamTimeout, zapLogger)

	service.StartSyncScheduler(ctx, syncService, options.SyncInterval, zapLogger)

	// Create HTTP handlers.
	syncHandler := &http.SyncHandler{SyncService: syncService, Log: zapLogger}
	songsHandler := &http.SongsHandler{Catalog: catalogService, Log: zapLogger}
	streamHandler := &http.StreamHandler{Streams: streamService, Log: zapLogger}
	migrateHandler := &http.MigrateHandler{Seeder: catalogService, SeedFile: options.SeedFile, Log: zapLogger}

	var gate middleware.AuthGate = middleware.CookieGate{Name: options.AccessCookie}
	if options.AuthMode == config.AuthCert {
		gate = middleware.CertGate{}
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(syncHandler, songsHandler, streamHandler, migrateHandler, gate, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSEnabled() {
		tlsConfig, err := serverTLS(options)
		if err != nil {
			zapLogger.Fatal("failed to configure TLS", zap.Error(err))
		}
		server.TLSConfig = tlsConfig
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server",
			zap.String("addr", options.Port),
			zap.Bool("tls", options.TLSEnabled()),
			zap.String("auth", options.AuthMode),
			zap.String("store", options.StoreDriver),
		)
		if options.TLSEnabled() {
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// serverTLS builds the server TLS config. With a client CA, client
// certificates are verified when given; cert auth mode requires them.
func serverTLS(options *config.Options) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if options.TLSClientCA == "" {
		return cfg, nil
	}

	caCert, err := os.ReadFile(options.TLSClientCA)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, errors.New("failed to append CA cert to pool")
	}
	cfg.ClientCAs = caCertPool
	cfg.ClientAuth = tls.VerifyClientCertIfGiven
	return cfg, nil
}
