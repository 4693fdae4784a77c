package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"outfitgen/internal/domain"
)

// Image naming modes for persisted artefacts.
const (
	ImageNamingUnique = "unique"
	ImageNamingFixed  = "fixed"
)

// DefaultTextModel is the tuned outfit suggestion model.
const DefaultTextModel = "tunedModels/outfitsuggestiongenerator-usqw4b296kfe"

// generationMargin covers prompt composition, encoding and the file write.
const generationMargin = 15 * time.Second

// TextConfig holds what a text generation client needs. cmd/outfittext loads
// only this part.
type TextConfig struct {
	GoogleAPIKey string
	TextModel    string
	TextTimeout  time.Duration
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	TextConfig
	AppEnv             string
	Port               string
	PublicBaseURL      string
	HuggingFaceToken   string
	HuggingFaceBaseURL string
	ImageModel         string
	ImageRetries       int
	ImageRetryDelay    time.Duration
	ImageTimeout       time.Duration
	ImageDir           string
	ImageNaming        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// LoadTextConfig reads the text generation settings.
func LoadTextConfig() (*TextConfig, error) {
	cfg := &TextConfig{
		GoogleAPIKey: strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		TextModel:    getEnv("TEXT_MODEL", DefaultTextModel),
		TextTimeout:  time.Second * time.Duration(getEnvInt("TEXT_REQUEST_TIMEOUT_SECONDS", 60)),
	}
	if cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY is required", domain.ErrConfiguration)
	}
	if cfg.TextTimeout <= 0 {
		return nil, fmt.Errorf("%w: TEXT_REQUEST_TIMEOUT_SECONDS must be positive", domain.ErrConfiguration)
	}
	return cfg, nil
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	text, err := LoadTextConfig()
	if err != nil {
		return nil, err
	}
	port := getEnv("PORT", "8000")
	cfg := &Config{
		TextConfig:         *text,
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		HuggingFaceToken:   strings.TrimSpace(os.Getenv("HUGGINGFACE_TOKEN")),
		HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/hf-inference"),
		ImageModel:         getEnv("IMAGE_MODEL", "black-forest-labs/FLUX.1-dev"),
		ImageRetries:       getEnvInt("IMAGE_RETRIES", 5),
		ImageRetryDelay:    time.Second * time.Duration(getEnvInt("IMAGE_RETRY_DELAY_SECONDS", 10)),
		ImageTimeout:       time.Second * time.Duration(getEnvInt("IMAGE_REQUEST_TIMEOUT_SECONDS", 120)),
		ImageDir:           getEnv("IMAGE_DIR", "generated_images"),
		ImageNaming:        strings.ToLower(getEnv("IMAGE_NAMING", ImageNamingUnique)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.HuggingFaceToken == "" {
		return nil, fmt.Errorf("%w: HUGGINGFACE_TOKEN is required", domain.ErrConfiguration)
	}
	if cfg.ImageRetries < 1 {
		return nil, fmt.Errorf("%w: IMAGE_RETRIES must be at least 1", domain.ErrConfiguration)
	}
	if cfg.ImageTimeout <= 0 || cfg.ImageRetryDelay < 0 {
		return nil, fmt.Errorf("%w: image timeout must be positive and retry delay not negative", domain.ErrConfiguration)
	}
	switch cfg.ImageNaming {
	case ImageNamingUnique, ImageNamingFixed:
	default:
		return nil, fmt.Errorf("%w: IMAGE_NAMING must be %q or %q", domain.ErrConfiguration, ImageNamingUnique, ImageNamingFixed)
	}

	budget := cfg.GenerationBudget()
	switch {
	case cfg.HTTPWriteTimeout == 0:
		cfg.HTTPWriteTimeout = budget
	case cfg.HTTPWriteTimeout < budget:
		return nil, fmt.Errorf("%w: HTTP_WRITE_TIMEOUT_SECONDS is %s but one generation may take %s", domain.ErrConfiguration, cfg.HTTPWriteTimeout, budget)
	}

	return cfg, nil
}

// GenerationBudget is the longest a single generation request can run: the
// text call, every image attempt at its full timeout, and the delays between
// them.
func (c *Config) GenerationBudget() time.Duration {
	attempts := time.Duration(c.ImageRetries)
	return c.TextTimeout + attempts*c.ImageTimeout + (attempts-1)*c.ImageRetryDelay + generationMargin
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}
