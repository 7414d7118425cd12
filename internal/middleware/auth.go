package middleware

import (
	"fmt"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/localnerve/jam-board/internal/types"
)

// AuthUser validates the request's bearer token and stores the caller's
// user id in context under "userID"
func AuthUser(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(secret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized("token missing from context")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized("invalid token claims")
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return unauthorized("token has no subject")
			}

			c.Locals("userID", sub)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(fmt.Sprintf("invalid or missing token: %v", err))
		},
	})
}

func unauthorized(message string) error {
	return &types.CustomError{
		Code:    fiber.StatusUnauthorized,
		Message: message,
		Type:    "auth.token",
	}
}
