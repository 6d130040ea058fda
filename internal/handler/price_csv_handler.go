package handler

import (
	"mime/multipart"
	"net/url"

	"kitchen-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PriceCSVHandler struct {
	service service.PurchasePriceService
}

func NewPriceCSVHandler(s service.PurchasePriceService) *PriceCSVHandler {
	return &PriceCSVHandler{service: s}
}

// GET /api/v1/price-csv
func (h *PriceCSVHandler) ListFiles(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	files, err := h.service.ListFiles(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(files)
}

// Upload stores the multipart field "file" under its own name. An existing
// file with the same name is replaced.
// POST /api/v1/price-csv
func (h *PriceCSVHandler) Upload(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Multipart field 'file' is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Unreadable upload"})
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	file, err := h.service.Upload(c.UserContext(), userID, fh.Filename, f, getUserName(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "File uploaded", "data": file})
}

// fileNameParam returns the decoded :name segment. Fiber leaves route params
// percent-encoded, and vendor file names are usually Japanese.
func fileNameParam(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("name"))
}

// GET /api/v1/price-csv/:name
func (h *PriceCSVHandler) Download(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	name, err := fileNameParam(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid file name"})
	}
	rc, err := h.service.Download(c.UserContext(), userID, name)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Attachment(name)
	// fasthttp closes the reader once the body is written.
	return c.SendStream(rc)
}

// DELETE /api/v1/price-csv/:name
func (h *PriceCSVHandler) Delete(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	name, err := fileNameParam(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid file name"})
	}
	rec, err := h.service.Delete(c.UserContext(), userID, name, getUserName(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "File moved to trash", "data": rec})
}

// GET /api/v1/price-csv/trash
func (h *PriceCSVHandler) ListTrash(c *fiber.Ctx) error {
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

// POST /api/v1/price-csv/trash/:id/restore
func (h *PriceCSVHandler) Restore(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	trashID, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid trash ID"})
	}
	file, err := h.service.RestoreFromTrash(c.UserContext(), userID, trashID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "File restored", "data": file})
}

// DELETE /api/v1/price-csv/trash/:id
func (h *PriceCSVHandler) Purge(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	trashID, err := parseUUID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid trash ID"})
	}
	if err := h.service.PurgeTrash(c.UserContext(), userID, trashID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "File permanently deleted"})
}

// Prices returns the merged price map of every uploaded file.
// GET /api/v1/prices
func (h *PriceCSVHandler) Prices(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	prices, err := h.service.LoadPrices(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(prices)
}
