package handler

import (
	"errors"

	"kitchen-backoffice/internal/service"
	"kitchen-backoffice/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// getUserID reads the profile id stored by RequireAuth.
func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, errors.New("missing user id")
	}
	return uuid.Parse(userID)
}

func getUserName(c *fiber.Ctx) string {
	if name, ok := c.Locals("user_name").(string); ok && name != "" {
		return name
	}
	if email, ok := c.Locals("user_email").(string); ok {
		return email
	}
	return "Unknown"
}

func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(param))
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidFileName),
		errors.Is(err, service.ErrNotBread),
		errors.Is(err, service.ErrWrongPassword):
		return 400
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrProfileInactive),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, service.ErrSessionTimeout):
		return 401
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrFileNotFound),
		errors.Is(err, service.ErrMasterNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrSnapshotNotFound),
		errors.Is(err, service.ErrRecipeNotFound):
		return 404
	case errors.Is(err, service.ErrFileExists),
		errors.Is(err, service.ErrMasterNameTaken):
		return 409
	case errors.Is(err, service.ErrFileTooLarge):
		return 413
	case errors.Is(err, service.ErrNothingToSave):
		return 422
	}
	return 500
}

// fail writes the error reply. Unexpected errors are logged and hidden.
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == 500 {
		logger.Named("http").Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
}
