package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"ledgerone/internal/applog"
	"ledgerone/internal/auth"
	"ledgerone/internal/config"
	"ledgerone/internal/engine"
	"ledgerone/internal/metadata"
	"ledgerone/internal/relationship"
	"ledgerone/internal/search"
	"ledgerone/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s:%d/%s)", cfg.Server.Port, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Bootstrap schema and admin user
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap schema: %v", err)
	}
	log.Println("Schema ready")

	// 4. Static record-type catalog
	reg := metadata.DefaultRegistry()
	log.Printf("Registry loaded (%d record types)", len(reg.All()))

	// 5. Audit logger (fire-and-forget, buffered)
	auditLog := applog.New(db.Pool, cfg.AppLog.BufferSize, cfg.AppLog.FlushIntervalMs)
	defer auditLog.Stop()

	records := db.Records()

	// 6. Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(requestTimeout(time.Duration(cfg.Server.RequestTimeoutMs) * time.Millisecond))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Auth routes (no auth required)
	authHandler := auth.NewHandler(db.Pool, cfg.JWTSecret)
	auth.RegisterRoutes(app, authHandler)

	authMW := auth.Middleware(cfg.JWTSecret)
	adminMW := auth.RequireAdmin()

	// 9. Audit log endpoints
	logHandler := applog.NewHandler(db.Pool, auditLog)
	applog.RegisterRoutes(app, logHandler, authMW, adminMW)

	// 10. Relationship subsystem
	relStore := relationship.NewStore(records, reg)
	linkStore := relationship.NewEntityLinkStore(records)
	resolver := relationship.NewResolver(relStore, records, reg, auditLog)
	graphBuilder := relationship.NewGraphBuilder(relStore, linkStore, resolver, records, reg, auditLog)
	relHandler := relationship.NewHandler(relStore, linkStore, resolver, graphBuilder, auditLog)

	// 11. Search
	searcher := search.NewSearcher(records, reg, auditLog)
	searchHandler := search.NewHandler(searcher)

	// Fixed /api paths must be mounted before the dynamic :recordType routes.
	relationship.RegisterRoutes(app, relHandler, authMW)
	search.RegisterRoutes(app, searchHandler, authMW)

	// 12. Generic per-type CRUD
	engineHandler := engine.NewHandler(records, reg, auditLog)
	engine.RegisterDynamicRoutes(app, engineHandler, authMW)

	// 13. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

// requestTimeout bounds the store calls made by each request.
func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
