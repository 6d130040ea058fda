package handler

import (
	"bytes"

	"kitchen-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SnapshotHandler struct {
	service service.SnapshotService
}

func NewSnapshotHandler(s service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{service: s}
}

// GET /api/v1/snapshots
func (h *SnapshotHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	snaps, err := h.service.List(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(snaps)
}

// GET /api/v1/snapshots/:id
func (h *SnapshotHandler) Get(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid snapshot ID"})
	}
	snap, err := h.service.Get(userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(snap)
}

// DELETE /api/v1/snapshots/:id
func (h *SnapshotHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid snapshot ID"})
	}
	trash, err := h.service.Delete(userID, id, getUserName(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Snapshot moved to trash", "data": trash})
}

// GET /api/v1/snapshots/trash
func (h *SnapshotHandler) ListTrash(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	trash, err := h.service.ListTrash(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(trash)
}

// POST /api/v1/snapshots/trash/:id/restore
func (h *SnapshotHandler) Restore(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid trash ID"})
	}
	snap, err := h.service.Restore(userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Snapshot restored", "data": snap})
}

// DELETE /api/v1/snapshots/trash/:id
func (h *SnapshotHandler) Purge(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid trash ID"})
	}
	if err := h.service.Purge(userID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Snapshot permanently deleted"})
}

// GET /api/v1/snapshots/:id/export
func (h *SnapshotHandler) ExportCSV(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid snapshot ID"})
	}
	var buf bytes.Buffer
	snap, err := h.service.ExportCSV(userID, id, &buf)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment("snapshot_" + snap.SnapshotDate.Format("20060102") + ".csv")
	return c.Send(buf.Bytes())
}
