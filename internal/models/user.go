package models

import (
	"time"
)

// User represents an account that owns boards
type User struct {
	UserID       string `gorm:"type:char(36);primaryKey"`
	Username     string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}
