// legacy.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-board/internal/board"
	"github.com/localnerve/jam-board/internal/services"
	"github.com/localnerve/jam-board/internal/utils"
	"gorm.io/gorm"
)

// LegacyHandler adapts the original single-board surface onto the
// board-id-addressed routes. Each request resolves the caller's oldest
// board and delegates; a caller with no boards gets one seeded on first
// touch so the old clients keep working.
type LegacyHandler struct {
	DB       *gorm.DB
	Topology board.Topology
	Boards   *BoardHandler
	Chat     *ChatHandler
}

const legacyBoardName = "My Board"

// resolveOrSeed finds the caller's oldest board, creating a default one
// when none exists yet.
func (h *LegacyHandler) resolveOrSeed(userID string) (string, error) {
	boardID, err := services.ResolveFirstBoard(h.DB, userID)
	if err == nil {
		return boardID, nil
	}
	if !isNotFound(err) {
		return "", err
	}

	record, err := services.CreateBoard(h.DB, userID, legacyBoardName)
	if err != nil {
		return "", err
	}
	return record.BoardID, nil
}

// GetBoard handles GET /api/board
// @Summary Get the default board
// @Description Legacy single-board read; resolves the caller's oldest board, seeding one if needed
// @Tags Legacy
// @Produce json
// @Success 200 {object} boardResponse
// @Router /board [get]
func (h *LegacyHandler) GetBoard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	boardID, err := h.resolveOrSeed(userID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "legacyGetBoard")
	}

	record, err := services.GetBoard(h.DB, userID, boardID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "legacyGetBoard")
	}

	doc, err := services.DecodeDocument(record)
	healed := false
	if err == nil && h.Topology == board.TopologyFixed {
		if !board.ValidFixedColumns(doc, board.FixedColumnIDs()) || !board.ValidCardRefs(doc) {
			healed = true
		}
	}
	if err != nil || healed {
		// A corrupted or off-template stored board is replaced with a
		// fresh default rather than returned to the old clients, which
		// cannot render anything else.
		doc = board.DefaultDocument()
		newVersion, putErr := services.PutBoard(h.DB, userID, boardID, doc)
		if putErr != nil {
			return utils.ErrorResponse(c, putErr.Error(), fiber.StatusInternalServerError, "legacyGetBoard")
		}
		record.DocumentVersion = newVersion
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"boardId": record.BoardID,
		"version": record.DocumentVersion,
		"board":   doc,
	})
}

// PutBoard handles PUT /api/board
// @Summary Replace the default board
// @Description Legacy single-board write; same body and semantics as PUT /boards/{boardId}
// @Tags Legacy
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /board [put]
func (h *LegacyHandler) PutBoard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	boardID, err := h.resolveOrSeed(userID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "legacyPutBoard")
	}

	return h.Boards.putBoardByID(c, userID, boardID)
}

// ListMessages handles GET /api/chat
// @Summary List default-board chat history
// @Tags Legacy
// @Produce json
// @Success 200 {array} chatMessageView
// @Router /chat [get]
func (h *LegacyHandler) ListMessages(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	boardID, err := h.resolveOrSeed(userID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "legacyListChat")
	}

	return h.Chat.listMessagesForBoard(c, userID, boardID)
}

// Converse handles POST /api/chat
// @Summary Chat against the default board
// @Tags Legacy
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /chat [post]
func (h *LegacyHandler) Converse(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	boardID, err := h.resolveOrSeed(userID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "legacyChat")
	}

	return h.Chat.converseOnBoard(c, userID, boardID)
}
