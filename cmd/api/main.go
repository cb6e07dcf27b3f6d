package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/visaport/docserve/internal/config"
	"github.com/visaport/docserve/internal/document"
	"github.com/visaport/docserve/internal/logger"
	"github.com/visaport/docserve/internal/server"
	"github.com/visaport/docserve/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	switch cfg.Storage.Driver {
	case config.DriverMinIO:
		client, err := storage.NewMinIOClient(cfg.Storage.MinIO)
		if err != nil {
			logg.Fatal("connect minio", zap.Error(err))
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.MinIO.Bucket, cfg.Storage.MinIO.Region); err != nil {
			logg.Fatal("ensure bucket", zap.Error(err))
		}
		store = storage.NewMinIOStore(client, cfg.Storage.MinIO.Bucket)
	default:
		diskStore, err := storage.NewDiskStore(cfg.Storage.UploadsRoot)
		if err != nil {
			logg.Fatal("prepare uploads root", zap.Error(err))
		}
		store = diskStore
	}

	documentService := document.NewService(store, cfg.BaseURL, cfg.Storage.MaxUploadBytes)

	router := server.NewRouter(server.Dependencies{
		Config:          cfg,
		Logger:          logg,
		Store:           store,
		DocumentService: documentService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("docserve API listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("base_url", cfg.BaseURL),
			zap.String("storage_driver", cfg.Storage.Driver))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
