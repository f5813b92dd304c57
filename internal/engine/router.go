package engine

import "github.com/gofiber/fiber/v2"

func RegisterDynamicRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Get("/:recordType", h.List)
	api.Get("/:recordType/:id", h.GetByID)
	api.Post("/:recordType", h.Create)
	api.Put("/:recordType/:id", h.Update)
	api.Delete("/:recordType/:id", h.Delete)
}
