package middleware

import (
	"errors"
	"strings"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/service"
	"kitchen-backoffice/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Authenticate validates a raw token and checks it against the profile row,
// so a newer login or a disabled profile ends the session.
func Authenticate(profileRepo repository.ProfileRepository, tokenString string) (*jwt.Claims, *model.Profile, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	profile, err := profileRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, nil, service.ErrProfileNotFound
	}
	if !profile.IsActive {
		return nil, nil, service.ErrProfileInactive
	}
	if profile.TokenVersion != claims.TokenVersion {
		return nil, nil, service.ErrSessionReplaced
	}
	return claims, profile, nil
}

// RequireAuth is middleware that validates JWT token and sets profile info in context
func RequireAuth(profileRepo repository.ProfileRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, profile, err := Authenticate(profileRepo, parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrInvalidToken) || errors.Is(err, jwt.ErrMissingToken) {
				return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
			}
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", profile.DisplayName)
		c.Locals("user_role", string(profile.Role))

		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role != string(model.RoleAdmin) {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: admin only"})
		}
		return c.Next()
	}
}
