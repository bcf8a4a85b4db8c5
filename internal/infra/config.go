package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Storage: S3 when a bucket is configured, local filesystem otherwise.
	StoragePath string
	S3Bucket    string
	AWSRegion   string

	// AI text/vision provider selection. Absent keys degrade the stages that
	// depend on them to their heuristic/local fallbacks.
	PromptProvider string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string

	// External lookup providers.
	GooglePlacesAPIKey string
	SerpAPIKey         string

	// Pipeline toggles.
	ImageEnhanceProvider string
	ReplicateAPIToken    string
	OCRProvider          string

	PollInterval  time.Duration
	JobTimeout    time.Duration
	StaleJobAge   time.Duration
	FetchParallel int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StoragePath: getEnv("STORAGE_PATH", "./storage"),
		S3Bucket:    os.Getenv("S3_BUCKET_NAME"),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),

		PromptProvider: getEnv("PROMPT_PROVIDER", "gemini"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		GooglePlacesAPIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		SerpAPIKey:         os.Getenv("SERPAPI_KEY"),

		ImageEnhanceProvider: os.Getenv("IMAGE_ENHANCE_PROVIDER"),
		ReplicateAPIToken:    os.Getenv("REPLICATE_API_TOKEN"),
		OCRProvider:          os.Getenv("OCR_PROVIDER"),

		PollInterval:  time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)),
		JobTimeout:    time.Minute * time.Duration(getEnvInt("IMPORT_JOB_TIMEOUT_MINUTES", 20)),
		StaleJobAge:   time.Minute * time.Duration(getEnvInt("STALE_JOB_AGE_MINUTES", 60)),
		FetchParallel: getEnvInt("FETCH_MAX_CONCURRENT", 2),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
