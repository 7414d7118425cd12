// board.go
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

package models

import (
	"time"
)

// Board represents a versioned board document owned by a single user.
// DocumentVersion is the sole concurrency-control token: it starts at 1 on
// creation and increments by exactly 1 on every successful write.
type Board struct {
	BoardID         string `gorm:"type:char(36);primaryKey"`
	UserID          string `gorm:"type:char(36);not null;index:idx_user_board,unique"`
	BoardName       string `gorm:"size:255;not null;index:idx_user_board,unique"`
	Document        JSON   `gorm:"type:json;not null"`
	DocumentVersion uint64 `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides the table name for Board
func (Board) TableName() string {
	return "boards"
}
