package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-board/internal/config"
	"github.com/localnerve/jam-board/internal/services"
	"github.com/localnerve/jam-board/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles account registration and login
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register an account
// @Description Create an account and return a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsBody true "Credentials"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "auth.validation.input")
	}

	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || len(body.Username) > 255 || len(body.Password) < 8 {
		return utils.ErrorResponse(c, "Username is required and password must be at least 8 characters",
			fiber.StatusBadRequest, "auth.validation.input")
	}

	user, err := services.RegisterUser(h.DB, body.Username, body.Password)
	if err != nil {
		// Unique index violation on username surfaces here
		return utils.ErrorResponse(c, "Username is already taken", fiber.StatusConflict, "auth.register")
	}

	token, err := services.IssueToken(user, h.Cfg.JWTSecret, h.Cfg.JWTExpiryHours)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "auth.token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":    token,
		"userId":   user.UserID,
		"username": user.Username,
	})
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Verify credentials and return a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsBody true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "auth.validation.input")
	}

	user, err := services.Authenticate(h.DB, body.Username, body.Password)
	if err != nil {
		return utils.ErrorResponse(c, "Invalid credentials", fiber.StatusUnauthorized, "auth.login")
	}

	token, err := services.IssueToken(user, h.Cfg.JWTSecret, h.Cfg.JWTExpiryHours)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "auth.token")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token":    token,
		"userId":   user.UserID,
		"username": user.Username,
	})
}
