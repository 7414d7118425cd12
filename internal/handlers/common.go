// common.go
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
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-board/internal/ai"
	"github.com/localnerve/jam-board/internal/services"
	"github.com/localnerve/jam-board/internal/utils"
)

// Request body bounds
const (
	maxChatMessageLength = 2000
	maxPromptLength      = 2000
	maxBoardNameLength   = 255
)

// getUserID extracts the authenticated user id from context (set by the
// auth middleware)
func getUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user not found in context")
	}
	return userID, nil
}

// isNotFound matches the service layer's not-found signal
func isNotFound(err error) bool {
	return err != nil && err.Error() == "not found"
}

// isVersionConflict matches the service layer's compare-and-swap failure
func isVersionConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "E_VERSION")
}

// assistantErrorResponse maps the chat pipeline's failure taxonomy onto
// distinct statuses so a client can decide whether to retry now (409),
// retry later (502/503), or surface the failure (otherwise).
func assistantErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	var statusErr *ai.UpstreamStatusError

	switch {
	case isNotFound(err):
		return utils.NotFoundResponse(c, "Board not found")
	case isVersionConflict(err):
		return utils.VersionErrorResponse(c)
	case errors.Is(err, ai.ErrMissingCredential):
		return utils.ServiceUnavailableResponse(c, err.Error())
	case errors.Is(err, ai.ErrUnavailable),
		errors.Is(err, ai.ErrMalformedResponse),
		errors.Is(err, services.ErrBadUpstreamShape),
		errors.As(err, &statusErr):
		return utils.UpstreamErrorResponse(c, err.Error())
	case errors.Is(err, services.ErrBoardCorrupted):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
	default:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
	}
}
