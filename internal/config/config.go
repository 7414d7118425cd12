package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	CORSOrigins string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Auth configuration
	JWTSecret      string
	JWTExpiryHours int

	// AI completion configuration
	OpenRouterAPIKey  string
	OpenRouterURL     string
	OpenRouterModel   string
	AITextTimeoutSec  int
	AIChatTimeoutSec  int

	// Board configuration
	BoardTopology    string // fixed or flexible
	ChatHistoryLimit int    // messages sent to the AI per turn
	ChatMaxMessages  int    // messages retained per board
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		CORSOrigins:       getEnv("CORS_ORIGINS", ""),
		DBType:            getEnv("DB_TYPE", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiryHours:    getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterURL:     getEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "openai/gpt-oss-120b"),
		AITextTimeoutSec:  getEnvAsInt("AI_TEXT_TIMEOUT_SECONDS", 20),
		AIChatTimeoutSec:  getEnvAsInt("AI_CHAT_TIMEOUT_SECONDS", 30),
		BoardTopology:     getEnv("BOARD_TOPOLOGY", "fixed"),
		ChatHistoryLimit:  getEnvAsInt("CHAT_HISTORY_LIMIT", 20),
		ChatMaxMessages:   getEnvAsInt("CHAT_MAX_MESSAGES", 100),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.BoardTopology != "fixed" && cfg.BoardTopology != "flexible" {
		return nil, fmt.Errorf("BOARD_TOPOLOGY must be fixed or flexible, got %q", cfg.BoardTopology)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
