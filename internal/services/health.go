package services

import (
	"fmt"
	"log"

	"github.com/localnerve/jam-board/internal/config"
	"github.com/localnerve/jam-board/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Assistant    string            `json:"assistant"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck performs a comprehensive health check of the service.
// A missing AI credential degrades the assistant surface but does not make
// the service unhealthy; board CRUD keeps working without it.
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database connection error: %v", err)
		log.Printf("Health check failed - database connection: %v", err)
	} else {
		if err := sqlDB.Ping(); err != nil {
			result.Status = "unhealthy"
			result.Database = "unreachable"
			result.Details["database_ping_error"] = err.Error()
			result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
			log.Printf("Health check failed - database ping: %v", err)
		} else {
			result.Database = "ok"
			result.Details["database_type"] = cfg.DBType
			result.Details["database_name"] = cfg.DBDatabase
		}
	}

	// Check the AI completion endpoint
	if cfg.OpenRouterAPIKey == "" {
		result.Assistant = "not_configured"
		result.Details["assistant_note"] = "OPENROUTER_API_KEY is not set; chat endpoints will return 503"
	} else if err := utils.PingCompletionService(cfg.OpenRouterURL); err != nil {
		result.Assistant = "unreachable"
		result.Details["assistant_error"] = err.Error()
		log.Printf("Health check - completion endpoint unreachable: %v", err)
	} else {
		result.Assistant = "ok"
		result.Details["assistant_model"] = cfg.OpenRouterModel
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
