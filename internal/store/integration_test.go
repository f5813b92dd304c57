//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ledgerone/internal/config"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Host:     "localhost",
		Port:     5433,
		User:     "ledgerone",
		Password: "ledgerone",
		Name:     "ledgerone",
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("connect to test db: %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestRecordStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	records := s.Records()

	name := fmt.Sprintf("it-entity-%d", time.Now().UnixNano())
	row, err := records.Insert(ctx, "entities", map[string]any{
		"name": name,
		"type": "company",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := row["id"].(string)
	if id == "" {
		t.Fatalf("expected generated uuid id, got %v", row["id"])
	}
	t.Cleanup(func() { records.DeleteByID(ctx, "entities", id) })

	got, err := records.GetByID(ctx, "entities", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["name"] != name {
		t.Fatalf("expected %q, got %v", name, got["name"])
	}

	updated, err := records.UpdateByID(ctx, "entities", id, map[string]any{"type": "person"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["type"] != "person" {
		t.Fatalf("update lost: %v", updated["type"])
	}

	rows, err := records.Search(ctx, "entities", []string{"name", "type"}, name)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the inserted row back from search, got %d", len(rows))
	}

	byIDs, err := records.ListByIDs(ctx, "entities", []string{id})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(byIDs) != 1 {
		t.Fatalf("expected 1 row by id, got %d", len(byIDs))
	}

	if err := records.DeleteByID(ctx, "entities", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := records.DeleteByID(ctx, "entities", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRecordStore_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	records := s.Records()

	marker := fmt.Sprintf("it-%d", time.Now().UnixNano())
	entity, err := records.Insert(ctx, "entities", map[string]any{"name": marker})
	if err != nil {
		t.Fatalf("insert entity: %v", err)
	}
	entityID := entity["id"].(string)
	t.Cleanup(func() { records.DeleteByID(ctx, "entities", entityID) })

	for _, name := range []string{"zed", "amy"} {
		row, err := records.Insert(ctx, "contacts", map[string]any{
			"name":      name + "-" + marker,
			"entity_id": entityID,
		})
		if err != nil {
			t.Fatalf("insert contact: %v", err)
		}
		id := row["id"].(string)
		t.Cleanup(func() { records.DeleteByID(ctx, "contacts", id) })
	}

	rows, err := records.List(ctx, "contacts", map[string]any{"entity_id": entityID}, "name")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(rows))
	}
	if rows[0]["name"] != "amy-"+marker {
		t.Fatalf("expected name ordering, got %v", rows[0]["name"])
	}
}
