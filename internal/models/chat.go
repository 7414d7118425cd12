package models

import (
	"time"
)

// Chat message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents one turn of board conversation history.
// Messages belong to a board and are pruned oldest-first beyond the
// configured retention limit.
type ChatMessage struct {
	MessageID uint64 `gorm:"primaryKey;autoIncrement"`
	BoardID   string `gorm:"type:char(36);not null;index:idx_board_message"`
	Role      string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// TableName overrides the table name for ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}
