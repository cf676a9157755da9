package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	authjwt "vet-practice/internal/adapters/auth"
	blobmem "vet-practice/internal/adapters/blob/memory"
	blobs3 "vet-practice/internal/adapters/blob/s3"
	"vet-practice/internal/adapters/notify/webhook"
	pg "vet-practice/internal/adapters/storage/postgres"
	"vet-practice/internal/platform/config"
	"vet-practice/internal/platform/logger"
	"vet-practice/internal/platform/metrics"
	"vet-practice/internal/ports/auth"
	"vet-practice/internal/ports/blob"
	"vet-practice/internal/ports/notify"
	"vet-practice/internal/router"
)

func main() {
	// .env es opcional; en prod todo viene del entorno
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			zlog.Fatal("postgres open", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		if err := pg.EnsureSchema(context.Background(), db); err != nil {
			zlog.Fatal("postgres schema", zap.Error(err))
		}
		zlog.Info("storage: postgres")
	} else {
		zlog.Info("storage: in-memory (dev)")
	}

	var blobs blob.Store
	switch cfg.Blob.Backend {
	case "s3":
		blobs, err = blobs3.New(context.Background(), cfg.Blob.S3Bucket, cfg.Blob.S3Region)
		if err != nil {
			zlog.Fatal("s3 blob store", zap.Error(err))
		}
		zlog.Info("blobs: s3", zap.String("bucket", cfg.Blob.S3Bucket))
	default:
		blobs = blobmem.NewStore()
		zlog.Info("blobs: in-memory (dev)")
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = webhook.New(cfg.Notify.WebhookURL, cfg.Notify.Timeout, zlog.Named("webhook"))
		zlog.Info("notifier: webhook", zap.String("url", cfg.Notify.WebhookURL))
	}

	var verifier auth.AuthVerifier
	if cfg.JWT.Secret != "" {
		verifier = authjwt.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	} else {
		zlog.Warn("jwt secret empty: dev auth mode (X-Debug-Staff-Email)")
	}

	collector := metrics.NewCollector("vet")

	handler := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Blobs:        blobs,
		Notifier:     notifier,
		Logger:       zlog,
		Metrics:      collector,
		JWT:          cfg.JWT,
		RateLimit:    cfg.RateLimit,
		CORS:         cfg.CORS,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}
