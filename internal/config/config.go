package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":8080"`
	GridAPIKey     string `env:"GRID_API_KEY" envDefault:"-"`
	GridAPIBaseURL string `env:"GRID_API_BASE_URL" envDefault:"https://api.gridstatus.io"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY" envDefault:"-"`
	OpenAIModel    string `env:"OPENAI_MODEL" envDefault:"gpt-4"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec int    `env:"REQUESTS_PER_SEC" envDefault:"5"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":8080")
	cfg.GridAPIKey = os.Getenv("GRID_API_KEY")
	cfg.GridAPIBaseURL = getEnvWithDefault("GRID_API_BASE_URL", "https://api.gridstatus.io")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-4")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
