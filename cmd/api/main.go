package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/config"
	"photogallery/internal/domain"
	"photogallery/internal/exifmeta"
	httpHandler "photogallery/internal/handler/http"
	"photogallery/internal/handler/middleware"
	"photogallery/internal/helpers"
	"photogallery/internal/infrastructure/database"
	"photogallery/internal/infrastructure/events"
	"photogallery/internal/infrastructure/storage"
	"photogallery/internal/ingest"
	"photogallery/internal/renditions"
	"photogallery/internal/repository/postgres"
	"photogallery/internal/retry"
	"photogallery/internal/usecase"
	"photogallery/internal/vision"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Photo Gallery API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	zlog.Logger.Info().
		Int("max_upload_size_mb", cfg.Ingest.MaxUploadSizeMB).
		Str("storage_type", cfg.Storage.Type).
		Msg("Loaded server config")

	connectRetries := cfg.Database.ConnectRetries
	connectDelay := cfg.Database.ConnectRetryDelaySec
	if connectRetries == 0 {
		connectRetries = 15
	}
	if connectDelay == 0 {
		connectDelay = 3
	}

	slaves := []string{}
	if strings.TrimSpace(cfg.Database.Slaves) != "" {
		slaves = helpers.SplitAndTrim(cfg.Database.Slaves, ",")
	}
	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	}

	db, err := database.Connect(cfg.Database.DSN, slaves, dbOpts, connectRetries, connectDelay)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}

	zlog.Logger.Info().Msg("Running database migrations...")
	if err := database.RunMigrations(db, cfg.Migrations.Path); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Migrations failed")
	}

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	var publisher ingest.EventPublisher
	if cfg.Events.Enabled {
		producer := events.NewProducer(&cfg.Events)
		defer producer.Close()
		publisher = producer
	}

	captionClient := vision.NewClient(vision.Config{
		APIKey:       cfg.Vision.APIKey,
		BaseURL:      cfg.Vision.BaseURL,
		Model:        cfg.Vision.Model,
		MaxTokens:    cfg.Vision.MaxTokens,
		MaxDimension: cfg.Vision.MaxDimension,
		Timeout:      time.Duration(cfg.Vision.TimeoutSec) * time.Second,
	})

	repo := postgres.NewImageRepository(db, retry.DefaultStrategy)
	pipeline := ingest.NewPipeline(
		ingest.Config{
			MaxUploadBytes: int64(cfg.Ingest.MaxUploadSizeMB) << 20,
			AllowedTypes:   cfg.Ingest.AllowedTypes,
			Style:          domain.CaptionStyle(cfg.Vision.Style),
			CaptionTimeout: time.Duration(cfg.Vision.TimeoutSec) * time.Second,
		},
		repo,
		store,
		captionClient,
		exifmeta.New(),
		renditions.New(renditions.Config{
			LargeWidth:     cfg.Ingest.LargeWidth,
			MediumWidth:    cfg.Ingest.MediumWidth,
			ThumbnailWidth: cfg.Ingest.ThumbnailWidth,
			Quality:        cfg.Ingest.OutputQuality,
		}),
		publisher,
	)
	gallery := usecase.NewGalleryUsecase(repo, store)

	engine := ginext.New("api")
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})

	imageHandler := httpHandler.NewImageHandler(pipeline, gallery)
	imageHandler.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	if db.Master != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("closing db master failed")
		}
		for i, s := range db.Slaves {
			if err := s.Close(); err != nil {
				zlog.Logger.Error().Err(err).Int("slave_index", i).Msg("closing db slave failed")
			}
		}
	}

	zlog.Logger.Info().Msg("API shutdown complete")
}
