package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"importer/internal/adapter/repo"
	"importer/internal/enhance"
	"importer/internal/extractor"
	"importer/internal/infra"
	"importer/internal/providers/genai"
	"importer/internal/providers/replicate"
	"importer/internal/providers/search"
	"importer/internal/storage"
	"importer/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	if err := infra.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("worker: schema setup failed")
	}

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: storage setup failed")
	}

	completer := buildCompleter(cfg, logger)

	w := worker.New(worker.Options{
		Repo:      jobs,
		Store:     store,
		Config:    cfg,
		Logger:    logger,
		Completer: completer,
		OCR:       buildOCR(cfg, completer, logger),
		Places:    buildPlaces(cfg, logger),
		Serp:      buildSerp(cfg, logger),
		Remote:    buildRemote(cfg, logger),
	})

	logger.Info().Msg("worker: started")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// buildStore picks S3 when a bucket is configured, local filesystem otherwise.
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

// buildCompleter wires the configured text/vision provider. A missing key
// degrades AI-dependent stages to their heuristic fallbacks.
func buildCompleter(cfg *infra.Config, logger infra.Logger) genai.Completer {
	httpClient := &http.Client{Timeout: 60 * time.Second}

	switch cfg.PromptProvider {
	case "openai":
		completer, err := genai.NewOpenAICompleter(genai.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("worker: openai unavailable, ai stages will use fallbacks")
			return nil
		}
		return completer
	default:
		completer, err := genai.NewGeminiCompleter(genai.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("worker: gemini unavailable, ai stages will use fallbacks")
			return nil
		}
		return completer
	}
}

func buildOCR(cfg *infra.Config, completer genai.Completer, logger infra.Logger) extractor.OCR {
	if cfg.OCRProvider == "none" {
		return nil
	}
	if completer == nil {
		logger.Warn().Msg("worker: no completion provider, image menus will be skipped")
		return nil
	}
	return extractor.NewVisionOCR(completer)
}

func buildPlaces(cfg *infra.Config, logger infra.Logger) *search.PlacesClient {
	client, err := search.NewPlacesClient(search.PlacesOptions{APIKey: cfg.GooglePlacesAPIKey})
	if err != nil {
		logger.Warn().Err(err).Msg("worker: places lookup disabled")
		return nil
	}
	return client
}

func buildSerp(cfg *infra.Config, logger infra.Logger) *search.SerpClient {
	client, err := search.NewSerpClient(search.SerpOptions{APIKey: cfg.SerpAPIKey})
	if err != nil {
		logger.Warn().Err(err).Msg("worker: web search disabled")
		return nil
	}
	return client
}

func buildRemote(cfg *infra.Config, logger infra.Logger) enhance.RemoteEnhancer {
	if cfg.ImageEnhanceProvider != "replicate" {
		return nil
	}
	client, err := replicate.NewClient(replicate.Options{APIToken: cfg.ReplicateAPIToken})
	if err != nil {
		logger.Warn().Err(err).Msg("worker: ai image enhancement disabled")
		return nil
	}
	return client
}
