package handler

import (
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RecipeHandler struct {
	service service.RecipeService
}

func NewRecipeHandler(s service.RecipeService) *RecipeHandler {
	return &RecipeHandler{service: s}
}

// GET /api/v1/recipes
func (h *RecipeHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	recipes, err := h.service.List(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(recipes)
}

// GET /api/v1/recipes/:id
func (h *RecipeHandler) Get(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid recipe ID"})
	}
	recipe, err := h.service.Get(userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(recipe)
}

// POST /api/v1/recipes
func (h *RecipeHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var recipe model.Recipe
	if err := c.BodyParser(&recipe); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.Create(userID, &recipe, getUserName(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Recipe created", "data": recipe})
}

// PUT /api/v1/recipes/:id
func (h *RecipeHandler) Update(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid recipe ID"})
	}
	var recipe model.Recipe
	if err := c.BodyParser(&recipe); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.Update(userID, id, &recipe, getUserName(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Recipe updated", "data": recipe})
}

// DELETE /api/v1/recipes/:id
func (h *RecipeHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid recipe ID"})
	}
	if err := h.service.Delete(userID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Recipe deleted"})
}

// GET /api/v1/recipes/:id/cost
func (h *RecipeHandler) Cost(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid recipe ID"})
	}
	breakdown, err := h.service.CostBreakdown(userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(breakdown)
}

// GET /api/v1/recipes/:id/bakers
func (h *RecipeHandler) Bakers(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid recipe ID"})
	}
	formula, err := h.service.BakersPercentages(userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(formula)
}
