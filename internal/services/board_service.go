// board_service.go
//
// An AI-assisted project board service for the jam-build platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-board.
// jam-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/localnerve/jam-board/internal/board"
	"github.com/localnerve/jam-board/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// All operations are scoped to the (board, owning user) pair. A board owned
// by someone else is indistinguishable from a board that does not exist.

// CreateBoard seeds a new board from the default template at version 1
func CreateBoard(db *gorm.DB, userID, name string) (*models.Board, error) {
	doc := board.DefaultDocument()
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	record := models.Board{
		BoardID:         uuid.NewString(),
		UserID:          userID,
		BoardName:       name,
		DocumentVersion: 1,
	}
	if err := record.Document.Scan(raw); err != nil {
		return nil, err
	}

	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

// GetBoard retrieves a board record for its owner
func GetBoard(db *gorm.DB, userID, boardID string) (*models.Board, error) {
	var record models.Board
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&record).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("not found")
		}
		return nil, err
	}

	return &record, nil
}

// ListBoards returns all boards owned by the user, oldest first
func ListBoards(db *gorm.DB, userID string) ([]models.Board, error) {
	var records []models.Board
	err := db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// ResolveFirstBoard returns the id of the caller's oldest board. The legacy
// single-board endpoints resolve through here and then delegate to the
// board-id-addressed operations.
func ResolveFirstBoard(db *gorm.DB, userID string) (string, error) {
	var record models.Board
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&record).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", fmt.Errorf("not found")
		}
		return "", err
	}

	return record.BoardID, nil
}

// PutBoard writes a board document unconditionally, incrementing the version
// by exactly 1. It always succeeds when the board exists.
func PutBoard(db *gorm.DB, userID, boardID string, doc *board.Document) (uint64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}

	var newVersion uint64
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Board{}).
			Where("board_id = ? AND user_id = ?", boardID, userID).
			Updates(map[string]interface{}{
				"document":         raw,
				"document_version": gorm.Expr("document_version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("not found")
		}

		var record models.Board
		if err := tx.Where("board_id = ?", boardID).First(&record).Error; err != nil {
			return err
		}
		newVersion = record.DocumentVersion

		return nil
	})

	return newVersion, err
}

// CompareAndSwapBoard writes a board document iff the stored version still
// equals expectedVersion, incrementing it by exactly 1. The conditional
// UPDATE is the sole arbiter between racing writers: on a version mismatch
// nothing is mutated and E_VERSION is returned.
func CompareAndSwapBoard(db *gorm.DB, userID, boardID string, doc *board.Document, expectedVersion uint64) (uint64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}

	var newVersion uint64
	err = db.Transaction(func(tx *gorm.DB) error {
		var record models.Board
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("board_id = ? AND user_id = ?", boardID, userID).
			First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("not found")
			}
			return err
		}

		result := tx.Model(&models.Board{}).
			Where("board_id = ? AND user_id = ? AND document_version = ?", boardID, userID, expectedVersion).
			Updates(map[string]interface{}{
				"document":         raw,
				"document_version": expectedVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("E_VERSION")
		}
		newVersion = expectedVersion + 1

		return nil
	})

	return newVersion, err
}

// DeleteBoard removes a board and its chat history, version-checked like any
// other write
func DeleteBoard(db *gorm.DB, userID, boardID string, expectedVersion uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var record models.Board
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("board_id = ? AND user_id = ?", boardID, userID).
			First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("not found")
			}
			return err
		}

		result := tx.Where("board_id = ? AND user_id = ? AND document_version = ?", boardID, userID, expectedVersion).
			Delete(&models.Board{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("E_VERSION")
		}

		// Chat history cascades with the board
		return tx.Where("board_id = ?", boardID).Delete(&models.ChatMessage{}).Error
	})
}

// DecodeDocument decodes a stored board record into the canonical document
func DecodeDocument(record *models.Board) (*board.Document, error) {
	raw, err := record.Document.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return board.ParseDocument(raw)
}
