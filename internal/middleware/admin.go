package middleware

import (
	"strings"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/database"
	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRequired allows requests that either carry the configured admin token
// or belong to a user listed as admin (by email, id, or role column).
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return forbidden(c)
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return forbidden(c)
		}

		email, _ := claims["email"].(string)
		sub, _ := claims["sub"].(string)
		if contains(adminEmails, strings.ToLower(email)) || contains(adminIDs, sub) {
			return c.Next()
		}

		var user models.User
		if err := database.DB.Select("role").First(&user, "id = ?", sub).Error; err == nil && user.IsAdmin() {
			return c.Next()
		}

		return forbidden(c)
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Admin access required",
	})
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
