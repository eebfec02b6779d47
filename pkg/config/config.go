package config

import (
	"os"
	"strconv"

	// Load environment variables from a .env file when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Extraction    ExtractionConfig
	OCR           OCRConfig
	LLM           LLMConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// ExtractionConfig tunes the pipeline thresholds and tier ordering.
type ExtractionConfig struct {
	// MinNativeTextChars is the native-extraction length below which the
	// pipeline falls back to optical recognition.
	MinNativeTextChars int
	// MinReadableChars is the length below which a document is UNREADABLE
	// even after optical recognition.
	MinReadableChars int
	// TierPriority selects the first parser tier: "regex" or "llm".
	TierPriority string
	// DebugPreviewChars is how many characters of extracted text are logged
	// at debug level (0 disables the preview).
	DebugPreviewChars int
}

type OCRConfig struct {
	DPI         int
	Language    string
	PageSegMode int
	Pdftoppm    string // binary name or absolute path
}

type LLMConfig struct {
	APIKey string
	Model  string
	// MaxPromptChars bounds the statement text sent to the model.
	MaxPromptChars int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Extraction: ExtractionConfig{
			MinNativeTextChars: getEnvAsInt("EXTRACTION_MIN_NATIVE_CHARS", 100),
			MinReadableChars:   getEnvAsInt("EXTRACTION_MIN_READABLE_CHARS", 50),
			TierPriority:       getEnv("EXTRACTION_TIER_PRIORITY", "regex"),
			DebugPreviewChars:  getEnvAsInt("EXTRACTION_DEBUG_PREVIEW_CHARS", 0),
		},
		OCR: OCRConfig{
			DPI:         getEnvAsInt("OCR_DPI", 300),
			Language:    getEnv("OCR_LANGUAGE", "fra"),
			PageSegMode: getEnvAsInt("OCR_PAGE_SEG_MODE", 6),
			Pdftoppm:    getEnv("OCR_PDFTOPPM_PATH", "pdftoppm"),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("MISTRAL_API_KEY", ""),
			Model:          getEnv("MISTRAL_MODEL", "mistral-small-latest"),
			MaxPromptChars: getEnvAsInt("MISTRAL_MAX_PROMPT_CHARS", 8000),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// The LLM tier degrades to "no results" without a key, so a missing key
	// is not a startup error; the server logs it instead.
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
