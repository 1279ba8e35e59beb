package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	AI       AIConfig
	Storage  StorageConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret          string
	ScanCooldown       time.Duration
	CacheWindow        time.Duration
	ProMonthlyPriceUSD string
}

// AIConfig holds AI provider settings
type AIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	scanCooldown, err := strconv.Atoi(getEnv("SCAN_COOLDOWN_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_COOLDOWN_SECONDS: %w", err)
	}

	cacheDays, err := strconv.Atoi(getEnv("ANALYSIS_CACHE_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_CACHE_DAYS: %w", err)
	}

	maxRetries, err := strconv.Atoi(getEnv("AI_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid AI_MAX_RETRIES: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "careersync"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			ScanCooldown:       time.Duration(scanCooldown) * time.Second,
			CacheWindow:        time.Duration(cacheDays) * 24 * time.Hour,
			ProMonthlyPriceUSD: getEnv("PRO_MONTHLY_PRICE_USD", "12.00"),
		},
		AI: AIConfig{
			APIKey:     getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:    getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:      getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			MaxRetries: maxRetries,
		},
		Storage: StorageConfig{
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", "careersync-uploads"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			AccessKeySecret: getEnv("S3_ACCESS_KEY_SECRET", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
