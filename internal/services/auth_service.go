package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/localnerve/jam-board/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RegisterUser creates an account with a bcrypt-hashed password
func RegisterUser(db *gorm.DB, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate verifies credentials and returns the user identity.
// A missing user and a wrong password are the same failure.
func Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return &user, nil
}

// IssueToken creates a signed HS256 JWT for the user
func IssueToken(user *models.User, secret string, expiryHours int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.UserID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Duration(expiryHours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
