package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"ledgerone/internal/applog"
	"ledgerone/internal/engine"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

func newTestSearcher(t *testing.T) (*Searcher, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewSearcher(mem, metadata.DefaultRegistry(), applog.Nop()), mem
}

func resultFor(results []Result, typeName string) *Result {
	for i := range results {
		if results[i].Type == typeName {
			return &results[i]
		}
	}
	return nil
}

func TestSearch_GroupsByType(t *testing.T) {
	s, mem := newTestSearcher(t)

	mem.Seed("entities", map[string]any{"name": "Acme Inc", "description": "widgets"})
	mem.Seed("contacts", map[string]any{"name": "Joe Acme"})
	mem.Seed("emails", map[string]any{"email": "sales@acme.example"})
	mem.Seed("phones", map[string]any{"phone": "555-0100"})

	results := s.Search(context.Background(), "acme")
	if len(results) != 3 {
		t.Fatalf("expected 3 matching types, got %d (%v)", len(results), results)
	}

	ent := resultFor(results, "entities")
	if ent == nil || len(ent.Items) != 1 {
		t.Fatalf("expected one entity match, got %v", ent)
	}
	if ent.Label != "Entities" {
		t.Fatalf("expected humanized label, got %q", ent.Label)
	}
	if ent.Items[0].DisplayName != "Acme Inc" {
		t.Fatalf("expected display name, got %q", ent.Items[0].DisplayName)
	}

	if resultFor(results, "phones") != nil {
		t.Fatal("phones must not match, only searchable fields count")
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	s, mem := newTestSearcher(t)
	mem.Seed("entities", map[string]any{"name": "Acme Inc"})

	if results := s.Search(context.Background(), "ACME"); len(results) != 1 {
		t.Fatalf("expected case-insensitive match, got %v", results)
	}
}

func TestSearch_FailingTypeIsSkipped(t *testing.T) {
	s, mem := newTestSearcher(t)

	mem.Seed("entities", map[string]any{"name": "Acme Inc"})
	mem.Seed("contacts", map[string]any{"name": "Joe Acme"})
	mem.FailTable("contacts", errors.New("table on fire"))

	results := s.Search(context.Background(), "acme")
	if len(results) != 1 || results[0].Type != "entities" {
		t.Fatalf("failing type must be skipped, not fatal: %v", results)
	}
}

func TestHandler_RequiresQuery(t *testing.T) {
	s, _ := newTestSearcher(t)
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	RegisterRoutes(app, NewHandler(s))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/search", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 without q, got %d", resp.StatusCode)
	}
}

func TestHandler_ReturnsGroupedResults(t *testing.T) {
	s, mem := newTestSearcher(t)
	mem.Seed("entities", map[string]any{"name": "Acme Inc"})

	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	RegisterRoutes(app, NewHandler(s))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/search?q=acme", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	groups, ok := body["data"].([]any)
	if !ok || len(groups) != 1 {
		t.Fatalf("expected one result group, got %v", body["data"])
	}
}
