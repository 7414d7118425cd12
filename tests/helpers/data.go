package helpers

import (
	"testing"

	"github.com/localnerve/jam-board/internal/models"
	"github.com/localnerve/jam-board/internal/services"
	"gorm.io/gorm"
)

// CreateTestUser registers a user directly through the service layer
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user, err := services.RegisterUser(db, username, "integration-pass-1")
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

// CreateTestBoard seeds a default-template board for the user
func CreateTestBoard(t *testing.T, db *gorm.DB, userID, name string) *models.Board {
	t.Helper()
	record, err := services.CreateBoard(db, userID, name)
	if err != nil {
		t.Fatalf("Failed to create test board %s: %v", name, err)
	}
	return record
}
