package handler

import (
	"kitchen-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profiles service.ProfileService
}

func NewProfileHandler(profiles service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me returns the caller's profile. With ?cached=1 the last cached copy is
// returned when there is one, so the UI can render before the database
// answers.
// GET /api/v1/auth/me
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	id, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if c.QueryBool("cached") {
		if state, ok := h.profiles.Cached(c.UserContext(), id); ok {
			return c.JSON(state)
		}
	}

	state, err := h.profiles.Load(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(state)
}

// Update changes display and store names
// PUT /api/v1/profile
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	id, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	profile, err := h.profiles.Update(c.UserContext(), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "data": profile})
}

// List returns every profile; admin only
// GET /api/v1/admin/profiles
func (h *ProfileHandler) List(c *fiber.Ctx) error {
	profiles, err := h.profiles.ListAll()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch profiles"})
	}
	return c.JSON(profiles)
}
