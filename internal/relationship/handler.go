package relationship

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"ledgerone/internal/applog"
	"ledgerone/internal/engine"
	"ledgerone/internal/store"
)

// Handler serves the relationship boundary operations. Validation failures
// come back as typed AppErrors; store failures are logged with operation
// context here and surfaced opaquely by the central error handler.
type Handler struct {
	store    *Store
	links    *EntityLinkStore
	resolver *Resolver
	graph    *GraphBuilder
	logger   applog.Logger
}

func NewHandler(s *Store, links *EntityLinkStore, resolver *Resolver, graph *GraphBuilder, logger applog.Logger) *Handler {
	return &Handler{store: s, links: links, resolver: resolver, graph: graph, logger: logger}
}

type createRequest struct {
	EntityID                string `json:"entity_id"`
	RelatedDataID           string `json:"related_data_id"`
	TypeOfRecord            string `json:"type_of_record"`
	RelationshipDescription string `json:"relationship_description"`
}

type updateRequest struct {
	RelationshipDescription string `json:"relationship_description"`
}

// Create handles POST /api/relationships.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body createRequest
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	rel, err := h.store.Create(c.UserContext(), body.EntityID, body.RelatedDataID,
		body.TypeOfRecord, body.RelationshipDescription)
	if err != nil {
		return h.fail(c, "create", err, map[string]any{
			"entity_id":       body.EntityID,
			"related_data_id": body.RelatedDataID,
			"type_of_record":  body.TypeOfRecord,
		})
	}

	h.logger.Log(c.UserContext(), applog.LevelInfo, "relationship", "create",
		"linked record to entity", map[string]any{
			"relationship_id": rel.ID,
			"entity_id":       rel.EntityID,
			"related_data_id": rel.RelatedDataID,
			"type_of_record":  rel.TypeOfRecord,
		})

	return c.Status(201).JSON(fiber.Map{"data": rel})
}

// ListForEntity handles GET /api/relationships?entity_id=.
func (h *Handler) ListForEntity(c *fiber.Ctx) error {
	entityID := c.Query("entity_id")
	if entityID == "" {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "entity_id query param is required")
	}

	items, err := h.resolver.EnrichedForEntity(c.UserContext(), entityID)
	if err != nil {
		return h.fail(c, "list", err, map[string]any{"entity_id": entityID})
	}
	if items == nil {
		items = []EnrichedRelationship{}
	}
	return c.JSON(fiber.Map{"data": items})
}

// Update handles PUT /api/relationships/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	var body updateRequest
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	rel, err := h.store.Update(c.UserContext(), id, body.RelationshipDescription)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.NotFoundError("relationship", id)
		}
		return h.fail(c, "update", err, map[string]any{"relationship_id": id})
	}

	return c.JSON(fiber.Map{"data": rel})
}

// Delete handles DELETE /api/relationships/:id. A non-existent id is a 404,
// not a silent success.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.NotFoundError("relationship", id)
		}
		return h.fail(c, "delete", err, map[string]any{"relationship_id": id})
	}

	h.logger.Log(c.UserContext(), applog.LevelInfo, "relationship", "delete",
		"unlinked record from entity", map[string]any{"relationship_id": id})

	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// Available handles GET /api/relationships/available?type=&entity_id=.
func (h *Handler) Available(c *fiber.Ctx) error {
	typeOfRecord := c.Query("type")
	entityID := c.Query("entity_id")
	if typeOfRecord == "" || entityID == "" {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "type and entity_id query params are required")
	}

	rows, err := h.resolver.AvailableRecords(c.UserContext(), typeOfRecord, entityID)
	if err != nil {
		return h.fail(c, "available", err, map[string]any{
			"entity_id": entityID, "type_of_record": typeOfRecord,
		})
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return c.JSON(fiber.Map{"data": rows})
}

// ByDetailRecord handles GET /api/relationships/by-record?related_data_id=&type=.
func (h *Handler) ByDetailRecord(c *fiber.Ctx) error {
	relatedDataID := c.Query("related_data_id")
	typeOfRecord := c.Query("type")
	if relatedDataID == "" || typeOfRecord == "" {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "related_data_id and type query params are required")
	}

	refs, err := h.resolver.EntitiesForDetailRecord(c.UserContext(), relatedDataID, typeOfRecord)
	if err != nil {
		return h.fail(c, "by_record", err, map[string]any{
			"related_data_id": relatedDataID, "type_of_record": typeOfRecord,
		})
	}
	return c.JSON(fiber.Map{"data": refs})
}

// Visualize handles GET /api/visualize?root_type=&root_id=.
func (h *Handler) Visualize(c *fiber.Ctx) error {
	rootType := c.Query("root_type")
	rootID := c.Query("root_id")
	if rootType == "" || rootID == "" {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "root_type and root_id query params are required")
	}

	graph, err := h.graph.Build(c.UserContext(), rootType, rootID)
	if err != nil {
		return h.fail(c, "visualize", err, map[string]any{
			"root_type": rootType, "root_id": rootID,
		})
	}
	return c.JSON(fiber.Map{"data": graph})
}

type entityLinkRequest struct {
	FromEntityID     string `json:"from_entity_id"`
	ToEntityID       string `json:"to_entity_id"`
	RelationshipType string `json:"relationship_type"`
	Description      string `json:"description"`
}

// CreateEntityLink handles POST /api/entity-links.
func (h *Handler) CreateEntityLink(c *fiber.Ctx) error {
	var body entityLinkRequest
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	link, err := h.links.Create(c.UserContext(), body.FromEntityID, body.ToEntityID,
		body.RelationshipType, body.Description)
	if err != nil {
		return h.fail(c, "create_entity_link", err, map[string]any{
			"from_entity_id": body.FromEntityID, "to_entity_id": body.ToEntityID,
		})
	}
	return c.Status(201).JSON(fiber.Map{"data": link})
}

// DeleteEntityLink handles DELETE /api/entity-links/:id.
func (h *Handler) DeleteEntityLink(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.links.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.NotFoundError("entity link", id)
		}
		return h.fail(c, "delete_entity_link", err, map[string]any{"entity_link_id": id})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// fail passes typed AppErrors through untouched and logs everything else
// with operation context before letting it surface as an opaque 500.
func (h *Handler) fail(c *fiber.Ctx, op string, err error, details map[string]any) error {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	details["error"] = err.Error()
	h.logger.Log(c.UserContext(), applog.LevelError, "relationship", op,
		fmt.Sprintf("relationship %s failed", op), details)
	return err
}

// RegisterRoutes mounts the relationship endpoints. These fixed paths must
// be registered before the engine's dynamic /api/:recordType routes.
func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Get("/relationships/available", h.Available)
	api.Get("/relationships/by-record", h.ByDetailRecord)
	api.Get("/relationships", h.ListForEntity)
	api.Post("/relationships", h.Create)
	api.Put("/relationships/:id", h.Update)
	api.Delete("/relationships/:id", h.Delete)

	api.Get("/visualize", h.Visualize)

	api.Post("/entity-links", h.CreateEntityLink)
	api.Delete("/entity-links/:id", h.DeleteEntityLink)
}
