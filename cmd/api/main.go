package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"importer/internal/adapter/repo"
	"importer/internal/http/handlers"
	"importer/internal/http/httpapi"
	"importer/internal/infra"
	"importer/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	if err := infra.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("api: schema setup failed")
	}

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage setup failed")
	}

	app := handlers.NewApp(jobs, store, logger)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("api: listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}

// buildStore picks S3 when a bucket is configured, local filesystem otherwise.
// The API only reads archives; it shares the worker's layout.
func buildStore(ctx context.Context, cfg *infra.Config) (storage.Store, error) {
	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket)
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	return storage.NewFileStore(storagePath)
}
