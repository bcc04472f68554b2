package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kormoplatform/kormo-backend/internal/utils"
)

const AuthCookieName = "km_token"

func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(AuthCookieName)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

// OptionalJWTFromCookie attaches the identity when a valid cookie is
// present and lets anonymous requests through untouched. Handlers that
// vary their response by viewer use this on public routes.
func OptionalJWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(AuthCookieName)
		if tokenStr != "" {
			if claims, err := utils.ParseJWT(secret, tokenStr); err == nil {
				c.Locals("claims", claims)
				c.Locals("userId", claims.UserID)
				c.Locals("role", claims.Role)
			}
		}
		return c.Next()
	}
}
