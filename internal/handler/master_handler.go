package handler

import (
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type MasterHandler struct {
	service service.UnitConversionService
	search  service.IngredientSearchService
}

func NewMasterHandler(s service.UnitConversionService, search service.IngredientSearchService) *MasterHandler {
	return &MasterHandler{service: s, search: search}
}

// GET /api/v1/masters
func (h *MasterHandler) List(c *fiber.Ctx) error {
	rows, err := h.service.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch master data"})
	}
	return c.JSON(rows)
}

// GET /api/v1/masters/:id
func (h *MasterHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid master ID"})
	}
	row, err := h.service.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(row)
}

// Save creates or replaces the record with the same ingredient name.
// POST /api/v1/masters
func (h *MasterHandler) Save(c *fiber.Ctx) error {
	var row model.UnitConversion
	if err := c.BodyParser(&row); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.Save(c.UserContext(), &row, getUserName(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Master saved", "data": row})
}

// Update edits the record by id, renaming it when ingredient_name changes.
// PUT /api/v1/masters/:id
func (h *MasterHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid master ID"})
	}
	var row model.UnitConversion
	if err := c.BodyParser(&row); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.Update(c.UserContext(), id, &row, getUserName(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Master updated", "data": row})
}

// DELETE /api/v1/masters/:id
func (h *MasterHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid master ID"})
	}
	if err := h.service.Delete(id, getUserName(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Master deleted"})
}

// BulkSave upserts many rows. Progress is pushed over the websocket while
// the request runs; the reply carries the per-row failures.
// POST /api/v1/masters/bulk
func (h *MasterHandler) BulkSave(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var rows []model.UnitConversion
	if err := c.BodyParser(&rows); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if len(rows) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No rows to save"})
	}

	res, err := h.service.BulkSave(c.UserContext(), userID, rows, getUserName(c))
	if err != nil {
		return c.Status(499).JSON(fiber.Map{"error": "Import cancelled", "data": res})
	}
	status := 200
	if res.Failed > 0 {
		status = 207
	}
	return c.Status(status).JSON(fiber.Map{"message": "Import finished", "data": res})
}

// GET /api/v1/masters/import-preview
func (h *MasterHandler) PreviewImport(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rows, err := h.service.PreviewImport(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rows)
}

// Search ranks ingredients for autocomplete.
// GET /api/v1/ingredients/search?q=
func (h *MasterHandler) Search(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	res, err := h.search.Search(c.UserContext(), userID, c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}
