package search

import (
	"github.com/gofiber/fiber/v2"

	"ledgerone/internal/engine"
)

type Handler struct {
	searcher *Searcher
}

func NewHandler(searcher *Searcher) *Handler {
	return &Handler{searcher: searcher}
}

// Search handles GET /api/search?q=.
func (h *Handler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "q query param is required")
	}

	results := h.searcher.Search(c.UserContext(), query)
	if results == nil {
		results = []Result{}
	}
	return c.JSON(fiber.Map{"data": results})
}

// RegisterRoutes mounts the search endpoint. Must be registered before the
// engine's dynamic /api/:recordType routes.
func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	app.Group("/api", middleware...).Get("/search", h.Search)
}
