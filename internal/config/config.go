package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var defaultDeliveryFee = decimal.RequireFromString("3.00")

type Config struct {
	ListenAddr        string
	DBPath            string
	TranscribeBackend string
	OllamaHost        string
	OllamaModel       string
	ClaudeAPIKey      string
	ClaudeModel       string
	PhotoPath         string
	DeliveryFee       decimal.Decimal
	LogLevel          string
	LogFormat         string
	LogFile           string
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory (or ENV_FILE) fill in variables that are not already set.
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/menuorder.db"),
		TranscribeBackend: getEnv("TRANSCRIBE_BACKEND", "none"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		PhotoPath:         getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		DeliveryFee:       getDecimal("DELIVERY_FEE", defaultDeliveryFee),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogFile:           getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getDecimal falls back to defaultVal when the variable is unset, malformed or negative.
func getDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := decimal.NewFromString(val)
	if err != nil || d.IsNegative() {
		return defaultVal
	}
	return d
}
