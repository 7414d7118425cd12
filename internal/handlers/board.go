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

package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-board/internal/board"
	"github.com/localnerve/jam-board/internal/models"
	"github.com/localnerve/jam-board/internal/services"
	"github.com/localnerve/jam-board/internal/types"
	"github.com/localnerve/jam-board/internal/utils"
	"gorm.io/gorm"
)

// BoardHandler handles board CRUD routes
type BoardHandler struct {
	DB       *gorm.DB
	Topology board.Topology
}

type boardSummary struct {
	BoardID string `json:"boardId"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type boardResponse struct {
	BoardID string          `json:"boardId"`
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Board   *board.Document `json:"board"`
}

func summarize(record *models.Board) boardSummary {
	return boardSummary{
		BoardID: record.BoardID,
		Name:    record.BoardName,
		Version: fmt.Sprintf("%d", record.DocumentVersion),
	}
}

// ListBoards handles GET /api/boards
// @Summary List boards
// @Description List the caller's boards with version metadata
// @Tags Boards
// @Produce json
// @Success 200 {array} boardSummary
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /boards [get]
func (h *BoardHandler) ListBoards(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	records, err := services.ListBoards(h.DB, userID)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "listBoards")
	}

	summaries := make([]boardSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, summarize(&records[i]))
	}

	return c.Status(fiber.StatusOK).JSON(summaries)
}

// CreateBoard handles POST /api/boards
// @Summary Create a board
// @Description Create a board seeded from the default template at version 1
// @Tags Boards
// @Accept json
// @Produce json
// @Param body body object true "Board name"
// @Success 201 {object} boardResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "board.validation.input")
	}

	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || len(body.Name) > maxBoardNameLength {
		return utils.ErrorResponse(c, "Board name is required", fiber.StatusBadRequest, "board.validation.input")
	}

	record, err := services.CreateBoard(h.DB, userID, body.Name)
	if err != nil {
		return utils.ErrorResponse(c, "Failed to create board", fiber.StatusBadRequest, "createBoard")
	}

	doc, err := services.DecodeDocument(record)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "createBoard")
	}

	return c.Status(fiber.StatusCreated).JSON(boardResponse{
		BoardID: record.BoardID,
		Name:    record.BoardName,
		Version: fmt.Sprintf("%d", record.DocumentVersion),
		Board:   doc,
	})
}

// GetBoard handles GET /api/boards/:boardId
// @Summary Get a board
// @Description Get a board document with its version
// @Tags Boards
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} boardResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId} [get]
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	record, err := services.GetBoard(h.DB, userID, c.Params("boardId"))
	if err != nil {
		if isNotFound(err) {
			return utils.NotFoundResponse(c, "Board not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getBoard")
	}

	doc, err := services.DecodeDocument(record)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getBoard")
	}

	return c.Status(fiber.StatusOK).JSON(boardResponse{
		BoardID: record.BoardID,
		Name:    record.BoardName,
		Version: fmt.Sprintf("%d", record.DocumentVersion),
		Board:   doc,
	})
}

// PutBoard handles PUT /api/boards/:boardId
// @Summary Replace a board document
// @Description Replace a board document; include version for a compare-and-swap write
// @Tags Boards
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param body body object true "Board payload with optional version"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId} [put]
func (h *BoardHandler) PutBoard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	return h.putBoardByID(c, userID, c.Params("boardId"))
}

func (h *BoardHandler) putBoardByID(c *fiber.Ctx, userID, boardID string) error {
	var body struct {
		Version *types.FlexUint64 `json:"version"`
		Board   json.RawMessage   `json:"board"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "board.validation.input")
	}
	if len(body.Board) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "board.validation.input")
	}

	doc, err := board.ParseDocument(body.Board)
	if err != nil {
		return utils.ValidationErrorResponse(c, err.Error())
	}
	if !board.ValidColumnsFor(doc, h.Topology) {
		return utils.ValidationErrorResponse(c, "Board violates the column policy for this deployment")
	}
	if !board.ValidCardRefs(doc) {
		return utils.ValidationErrorResponse(c,
			"Card references are inconsistent: every cardId must exist in cards and vice versa")
	}

	var newVersion uint64
	if body.Version != nil {
		newVersion, err = services.CompareAndSwapBoard(h.DB, userID, boardID, doc, body.Version.Uint64())
	} else {
		newVersion, err = services.PutBoard(h.DB, userID, boardID, doc)
	}
	if err != nil {
		if isNotFound(err) {
			return utils.NotFoundResponse(c, "Board not found")
		}
		if isVersionConflict(err) {
			return utils.VersionErrorResponse(c)
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "putBoard")
	}

	return utils.MutationSuccessResponse(c, newVersion, 1)
}

// DeleteBoard handles DELETE /api/boards/:boardId
// @Summary Delete a board
// @Description Delete a board and its chat history, version-checked
// @Tags Boards
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param body body object true "Version check"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId} [delete]
func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	var body struct {
		Version types.FlexUint64 `json:"version"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "board.validation.input")
	}

	err = services.DeleteBoard(h.DB, userID, c.Params("boardId"), body.Version.Uint64())
	if err != nil {
		if isNotFound(err) {
			return utils.NotFoundResponse(c, "Board not found")
		}
		if isVersionConflict(err) {
			return utils.VersionErrorResponse(c)
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deleteBoard")
	}

	return utils.MutationSuccessResponse(c, 0, 1)
}
