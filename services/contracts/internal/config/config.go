package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL   string
	Port          string
	Env           string
	LogLevel      string
	VerifyBaseURL string
	TokenPrefix   string
}

// Load reads configuration from the environment, taking a .env file into
// account when present.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		DatabaseURL:   getenv("DATABASE_URL", ""),
		Port:          getenv("SERVICE_PORT", "8084"),
		Env:           getenv("APP_ENV", "development"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		VerifyBaseURL: getenv("VERIFY_BASE_URL", "https://contratos.locagest.com.br/verify"),
		TokenPrefix:   getenv("CONTRACT_TOKEN_PREFIX", "CTR"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
