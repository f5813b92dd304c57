package applog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"ledgerone/internal/store"
)

// Handler exposes the admin log viewer endpoints.
type Handler struct {
	pool   store.Querier
	logger Logger
}

func NewHandler(pool store.Querier, logger Logger) *Handler {
	return &Handler{pool: pool, logger: logger}
}

// Emit handles POST /_logs: record a log entry from a client.
func (h *Handler) Emit(c *fiber.Ctx) error {
	var body Entry
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": fiber.Map{"code": "INVALID_PAYLOAD", "message": "Invalid JSON body"}})
	}
	if body.Message == "" {
		return c.Status(422).JSON(fiber.Map{"error": fiber.Map{"code": "VALIDATION_FAILED", "message": "message is required"}})
	}
	if body.Level == "" {
		body.Level = LevelInfo
	}
	if body.Source == "" {
		body.Source = "client"
	}
	if body.Action == "" {
		body.Action = "log"
	}

	h.logger.Log(c.UserContext(), body.Level, body.Source, body.Action, body.Message, body.Details)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "ok"}})
}

// List handles GET /_logs: filterable, paginated log listing (admin only).
func (h *Handler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var conditions []string
	var args []any

	addFilter := func(clause string, val string) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if v := c.Query("level"); v != "" {
		addFilter("level = $%d", v)
	}
	if v := c.Query("source"); v != "" {
		addFilter("source = $%d", v)
	}
	if v := c.Query("action"); v != "" {
		addFilter("action = $%d", v)
	}
	if v := c.Query("from"); v != "" {
		addFilter("created_at >= $%d", v)
	}
	if v := c.Query("to"); v != "" {
		addFilter("created_at <= $%d", v)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 100 {
		perPage = 100
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countRow, err := store.QueryRow(ctx, h.pool, "SELECT COUNT(*) AS count FROM _app_logs"+where, args...)
	if err != nil {
		return fmt.Errorf("count logs: %w", err)
	}

	sql := fmt.Sprintf("SELECT * FROM _app_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := store.QueryRows(ctx, h.pool, sql, args...)
	if err != nil {
		return fmt.Errorf("list logs: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(fiber.Map{
		"data": rows,
		"meta": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    countRow["count"],
		},
	})
}

// RegisterRoutes mounts the log endpoints. Emit requires auth; List is
// additionally admin-gated by the caller-supplied middleware.
func RegisterRoutes(app *fiber.App, h *Handler, authMW fiber.Handler, adminMW fiber.Handler) {
	app.Post("/_logs", authMW, h.Emit)
	app.Get("/_logs", authMW, adminMW, h.List)
}
