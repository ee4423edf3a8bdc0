package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Storage StorageConfig
	Chunk   ChunkConfig
	OCR     OCRConfig
	Embed   EmbedConfig
	LLM     LLMConfig
	Sheets  SheetsConfig
}

// OCRConfig holds the external text-extraction tool settings.
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// StorageConfig holds paths for the local stores.
type StorageConfig struct {
	DataDir      string // content-addressed file store
	IndexDir     string // badger vector index
	OutputsDir   string // raw model output archive
	RegistryPath string // append-only processed content hashes
	HistoryPath  string // sqlite run history
}

// ChunkConfig holds text chunking parameters.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// EmbedConfig holds embedding backend configuration.
type EmbedConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMConfig holds extraction/answer model configuration.
type LLMConfig struct {
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// SheetsConfig holds the Google Sheets append target.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is honored if present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Storage: StorageConfig{
			DataDir:      getEnv("DATA_DIR", "./data"),
			IndexDir:     getEnv("INDEX_DIR", "./index"),
			OutputsDir:   getEnv("OUTPUTS_DIR", "./outputs"),
			RegistryPath: getEnv("REGISTRY_PATH", "./processed_doc_hashes.txt"),
			HistoryPath:  getEnv("HISTORY_PATH", "./history.db"),
		},
		Chunk: ChunkConfig{
			Size:    getEnvAsInt("CHUNK_SIZE", 800),
			Overlap: getEnvAsInt("CHUNK_OVERLAP", 80),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Embed: EmbedConfig{
			BaseURL: getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:   getEnv("EMBED_MODEL", "nomic-embed-text"),
			Timeout: getEnvAsDuration("EMBED_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:       getEnv("LLM_MODEL", "mistral"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("GS_CREDENTIALS", "gs-credentials.json"),
			SpreadsheetID:   getEnv("SHEET_ID", ""),
			SheetName:       getEnv("SHEET_NAME", "Sheet1"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return NewAppError("CONFIG_ERROR", "CHUNK_SIZE must be positive", ErrInvalidInput)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return NewAppError("CONFIG_ERROR", "CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalidInput)
	}
	if c.Storage.DataDir == "" || c.Storage.IndexDir == "" || c.Storage.RegistryPath == "" {
		return NewAppError("CONFIG_ERROR", "storage paths are required", ErrInvalidInput)
	}
	return nil
}
