package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"image-pipeline/internal/broker"
	kafka_impl "image-pipeline/internal/broker/kafka"
	"image-pipeline/internal/config"
	"image-pipeline/internal/fetch"
	images_h "image-pipeline/internal/http-server/handler/images"
	"image-pipeline/internal/http-server/router"
	minio_repo "image-pipeline/internal/repository/image/cloud/minio"
	"image-pipeline/internal/resolver"
	"image-pipeline/internal/usecase/thumbnail"
	"image-pipeline/internal/usecase/transcoder"
	"image-pipeline/internal/usecase/upload"

	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	producer broker.Producer
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	fileRepo, err := minio_repo.NewFileRepository(cfg.Storage, retries)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	res := resolver.New(cfg.Storage)
	fetcher := fetch.NewClient()
	tc := transcoder.New(logger)

	var producer broker.Producer
	if cfg.EventsEnabled() {
		producer = kafka_impl.NewProducerClient(cfg)
	}

	thumbnailService := thumbnail.NewService(fileRepo, fetcher, res, cfg.Production(), logger)
	uploadUsecase := upload.NewUsecase(fileRepo, tc, producer, logger, retries)

	imagesHandler := images_h.NewImagesHandler(thumbnailService, uploadUsecase, res, logger)

	h := &router.Handler{
		ImagesHandler: imagesHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		producer: producer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Str("env", a.cfg.Env).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Error().Err(err).Msg("Producer close failed")
			}
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
