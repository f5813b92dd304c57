package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"ledgerone/internal/applog"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

// Handler serves the generic per-type CRUD endpoints. Every route resolves
// its record type through the registry first; table and column names never
// come from the request.
type Handler struct {
	records  store.RecordStore
	registry *metadata.Registry
	logger   applog.Logger
}

func NewHandler(records store.RecordStore, reg *metadata.Registry, logger applog.Logger) *Handler {
	return &Handler{records: records, registry: reg, logger: logger}
}

// List handles GET /api/:recordType. An optional entity_id filter serves the
// parent/child navigation pattern on detail types.
func (h *Handler) List(c *fiber.Ctx) error {
	rt, err := h.resolveType(c)
	if err != nil {
		return err
	}

	var filter map[string]any
	if entityID := c.Query("entity_id"); entityID != "" {
		if rt.Parent == nil {
			return UnknownRecordTypeError(rt.Name + " has no parent filter")
		}
		filter = map[string]any{rt.Parent.ForeignKey: entityID}
	}

	rows, err := h.records.List(c.UserContext(), rt.Table, filter, rt.PrimaryDisplayField())
	if err != nil {
		return fmt.Errorf("list %s: %w", rt.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(fiber.Map{"data": rows})
}

// GetByID handles GET /api/:recordType/:id.
func (h *Handler) GetByID(c *fiber.Ctx) error {
	rt, err := h.resolveType(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	row, err := h.records.GetByID(c.UserContext(), rt.Table, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(rt.Name, id)
		}
		return fmt.Errorf("get %s/%s: %w", rt.Name, id, err)
	}

	return c.JSON(fiber.Map{"data": row})
}

// Create handles POST /api/:recordType.
func (h *Handler) Create(c *fiber.Ctx) error {
	rt, err := h.resolveType(c)
	if err != nil {
		return err
	}

	fields, appErr := h.parseBody(c, rt)
	if appErr != nil {
		return appErr
	}
	if details := EvaluateRules(rt, fields, true); len(details) > 0 {
		return ValidationError(details)
	}

	row, err := h.records.Insert(c.UserContext(), rt.Table, fields)
	if err != nil {
		return fmt.Errorf("create %s: %w", rt.Name, err)
	}

	h.logger.Log(c.UserContext(), applog.LevelInfo, "engine", "create",
		fmt.Sprintf("created %s", rt.Name), map[string]any{"id": row["id"], "type": rt.Name})

	return c.Status(201).JSON(fiber.Map{"data": row})
}

// Update handles PUT /api/:recordType/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	rt, err := h.resolveType(c)
	if err != nil {
		return err
	}
	id := c.Params("id")

	fields, appErr := h.parseBody(c, rt)
	if appErr != nil {
		return appErr
	}
	if details := EvaluateRules(rt, fields, false); len(details) > 0 {
		return ValidationError(details)
	}

	row, err := h.records.UpdateByID(c.UserContext(), rt.Table, id, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(rt.Name, id)
		}
		return fmt.Errorf("update %s/%s: %w", rt.Name, id, err)
	}

	h.logger.Log(c.UserContext(), applog.LevelInfo, "engine", "update",
		fmt.Sprintf("updated %s", rt.Name), map[string]any{"id": id, "type": rt.Name})

	return c.JSON(fiber.Map{"data": row})
}

// Delete handles DELETE /api/:recordType/:id. Hard delete only; links in
// entity_related_data pointing at the row are left behind on purpose and
// tolerated by the resolver's read path.
func (h *Handler) Delete(c *fiber.Ctx) error {
	rt, err := h.resolveType(c)
	if err != nil {
		return err
	}
	id := c.Params("id")

	if err := h.records.DeleteByID(c.UserContext(), rt.Table, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(rt.Name, id)
		}
		return fmt.Errorf("delete %s/%s: %w", rt.Name, id, err)
	}

	h.logger.Log(c.UserContext(), applog.LevelInfo, "engine", "delete",
		fmt.Sprintf("deleted %s", rt.Name), map[string]any{"id": id, "type": rt.Name})

	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

func (h *Handler) resolveType(c *fiber.Ctx) (*metadata.RecordType, error) {
	name := c.Params("recordType")
	rt := h.registry.Get(name)
	if rt == nil {
		return nil, UnknownRecordTypeError(name)
	}
	return rt, nil
}

// parseBody decodes the JSON payload and restricts it to the type's
// writable fields. Unknown fields are a validation error rather than being
// silently dropped.
func (h *Handler) parseBody(c *fiber.Ctx, rt *metadata.RecordType) (map[string]any, *AppError) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	var details []ErrorDetail
	fields := make(map[string]any, len(body))
	for k, v := range body {
		if !rt.HasField(k) {
			details = append(details, ErrorDetail{
				Field:   k,
				Rule:    "unknown",
				Message: fmt.Sprintf("unknown field %s", k),
			})
			continue
		}
		fields[k] = v
	}
	if len(details) > 0 {
		return nil, ValidationError(details)
	}
	return fields, nil
}
