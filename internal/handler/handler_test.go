package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kitchen-backoffice/internal/middleware"
	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/search"
	"kitchen-backoffice/internal/service"
	"kitchen-backoffice/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&service.ValidationError{Err: errors.New("title is required")}, 400},
		{service.ErrInvalidFileName, 400},
		{service.ErrInvalidCredentials, 401},
		{service.ErrSessionTimeout, 401},
		{service.ErrSessionReplaced, 401},
		{service.ErrProfileInactive, 401},
		{service.ErrSnapshotNotFound, 404},
		{fmt.Errorf("wrapped: %w", service.ErrFileNotFound), 404},
		{service.ErrFileExists, 409},
		{service.ErrMasterNameTaken, 409},
		{service.ErrFileTooLarge, 413},
		{service.ErrNothingToSave, 422},
		{errors.New("connection reset"), 500},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: want=%d got=%d", tc.err, tc.want, got)
		}
	}
}

func withRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", "7b1c4a52-3c52-4d6e-9d3f-0e8f3c7c1a10")
		c.Locals("user_role", role)
		return c.Next()
	}
}

func TestRequireAdmin(t *testing.T) {
	for role, want := range map[string]int{"admin": 200, "user": 403, "": 403} {
		app := fiber.New()
		app.Get("/admin", withRole(role), middleware.RequireAdmin(), func(c *fiber.Ctx) error {
			return c.SendStatus(200)
		})
		resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("role %q: want=%d got=%d", role, want, resp.StatusCode)
		}
	}
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	app := fiber.New()
	h := NewDashboardHandler(nil)
	app.Get("/stats", h.GetDashboardStats)

	resp, err := app.Test(httptest.NewRequest("GET", "/stats", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("want=401 got=%d", resp.StatusCode)
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fail(c, errors.New("pq: password authentication failed"))
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("want=500 got=%d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if got := string(body); got != `{"error":"Internal Server Error"}` {
		t.Fatalf("body: %s", got)
	}
}

func TestLoginRejectsBadBodies(t *testing.T) {
	app := fiber.New()
	app.Post("/login", NewAuthHandler(nil).Login)

	for _, body := range []string{`{`, `{"email":"not-an-email","password":"x"}`, `{"email":"chef@example.com"}`} {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 400 {
			t.Fatalf("%s: want=400 got=%d", body, resp.StatusCode)
		}
	}
}

type memTrash struct {
	repository.TrashPriceCSVRepository
	rows []model.TrashPriceCSV
}

func (m *memTrash) Create(t *model.TrashPriceCSV) error {
	m.rows = append(m.rows, *t)
	return nil
}

func TestPriceCSVJapaneseFileName(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	trash := &memTrash{}
	prices := service.NewPurchasePriceService(store, trash, search.NewCache(), nil, nil)
	userID := uuid.MustParse("7b1c4a52-3c52-4d6e-9d3f-0e8f3c7c1a10")

	const name = "仕入れ 2024.csv"
	const body = "日付,取引先,商品名,単位,単価\n2024/03/01,八百屋,玉ねぎ,kg,300\n"
	if _, err := prices.Upload(context.Background(), userID, name, strings.NewReader(body), "chef"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	h := NewPriceCSVHandler(prices)
	app := fiber.New()
	app.Get("/price-csv/:name", withRole("user"), h.Download)
	app.Delete("/price-csv/:name", withRole("user"), h.Delete)
	target := "/price-csv/" + url.PathEscape(name)

	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("GET %s: want=200 got=%d", target, resp.StatusCode)
	}
	got, _ := io.ReadAll(resp.Body)
	if string(got) != body {
		t.Fatalf("body: want=%q got=%q", body, got)
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", target, nil))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("DELETE %s: want=200 got=%d", target, resp.StatusCode)
	}
	if len(trash.rows) != 1 || trash.rows[0].FileName != name {
		t.Fatalf("trash: %+v", trash.rows)
	}
}
