package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-board/internal/services"
	"github.com/localnerve/jam-board/internal/utils"
	"gorm.io/gorm"
)

// ChatHandler handles the AI chat routes
type ChatHandler struct {
	DB   *gorm.DB
	Chat *services.ChatService
}

type chatBody struct {
	Message string `json:"message"`
}

type chatMessageView struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// ListMessages handles GET /api/boards/:boardId/chat
// @Summary List chat history
// @Description List the newest chat messages for a board in chronological order
// @Tags Chat
// @Produce json
// @Param boardId path string true "Board ID"
// @Param limit query int false "Maximum messages to return"
// @Success 200 {array} chatMessageView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId}/chat [get]
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	return h.listMessagesForBoard(c, userID, c.Params("boardId"))
}

func (h *ChatHandler) listMessagesForBoard(c *fiber.Ctx, userID, boardID string) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	messages, err := services.ListChatMessages(h.DB, userID, boardID, limit)
	if err != nil {
		if isNotFound(err) {
			return utils.NotFoundResponse(c, "Board not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "listChatMessages")
	}

	views := make([]chatMessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, chatMessageView{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.Status(fiber.StatusOK).JSON(views)
}

// Converse handles POST /api/boards/:boardId/chat
// @Summary Submit a chat turn
// @Description Send a message to the assistant; a proposed board edit is validated and applied under compare-and-swap
// @Tags Chat
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param body body chatBody true "User message"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /boards/{boardId}/chat [post]
func (h *ChatHandler) Converse(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	return h.converseOnBoard(c, userID, c.Params("boardId"))
}

func (h *ChatHandler) converseOnBoard(c *fiber.Ctx, userID, boardID string) error {
	message, err := parseChatBody(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "chat.validation.input")
	}

	result, err := h.Chat.Converse(c.Context(), userID, boardID, message)
	if err != nil {
		return assistantErrorResponse(c, err, "chat")
	}

	return c.Status(fiber.StatusOK).JSON(chatResultView(result))
}

func parseChatBody(c *fiber.Ctx) (string, error) {
	var body chatBody
	if err := c.BodyParser(&body); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid input")
	}

	message := strings.TrimSpace(body.Message)
	if message == "" || len(message) > maxChatMessageLength {
		return "", fiber.NewError(fiber.StatusBadRequest, "Message is required and bounded")
	}

	return message, nil
}

func chatResultView(result *services.ChatResult) fiber.Map {
	view := fiber.Map{
		"assistant_message": result.AssistantMessage,
		"board_update":      nil,
	}
	if result.AppliedBoard != nil {
		view["board_update"] = fiber.Map{"board": result.AppliedBoard}
		view["newVersion"] = result.NewVersion
	}
	return view
}

// CheckAssistant handles POST /api/ai/check
// @Summary Probe the assistant
// @Description Send a single-turn prompt to verify the AI collaborator is reachable
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body object true "Prompt"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /ai/check [post]
func (h *ChatHandler) CheckAssistant(c *fiber.Ctx) error {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "chat.validation.input")
	}

	body.Prompt = strings.TrimSpace(body.Prompt)
	if body.Prompt == "" || len(body.Prompt) > maxPromptLength {
		return utils.ErrorResponse(c, "Prompt is required and bounded", fiber.StatusBadRequest, "chat.validation.input")
	}

	message, err := h.Chat.AI.CompleteText(c.Context(), body.Prompt)
	if err != nil {
		return assistantErrorResponse(c, err, "aiCheck")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"assistant_message": message})
}
