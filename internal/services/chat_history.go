package services

import (
	"fmt"

	"github.com/localnerve/jam-board/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// AppendChatMessage records one message of board conversation history and
// prunes the board's history down to maxMessages, oldest first. The board
// must exist and belong to the caller.
func AppendChatMessage(db *gorm.DB, userID, boardID, role, content string, maxMessages int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var record models.Board
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Where("board_id = ? AND user_id = ?", boardID, userID).
			First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("not found")
			}
			return err
		}

		message := models.ChatMessage{
			BoardID: boardID,
			Role:    role,
			Content: content,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		// Prune old messages beyond the limit
		if maxMessages > 0 {
			return tx.Exec(`
				DELETE FROM chat_messages
				WHERE board_id = ? AND message_id NOT IN (
					SELECT message_id FROM (
						SELECT message_id FROM chat_messages
						WHERE board_id = ?
						ORDER BY message_id DESC
						LIMIT ?
					) keep
				)`, boardID, boardID, maxMessages).Error
		}

		return nil
	})
}

// ListChatMessages returns the newest limit messages for a board in
// chronological order.
func ListChatMessages(db *gorm.DB, userID, boardID string, limit int) ([]models.ChatMessage, error) {
	if _, err := GetBoard(db, userID, boardID); err != nil {
		return nil, err
	}

	query := db.Model(&models.ChatMessage{})
	// MySQL occasionally picks the primary key over the board index here
	if db.Dialector.Name() == "mysql" {
		query = query.Clauses(hints.UseIndex("idx_board_message"))
	}

	var messages []models.ChatMessage
	err := query.Where("board_id = ?", boardID).
		Order("message_id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
