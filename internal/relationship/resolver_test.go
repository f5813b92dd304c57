package relationship

import (
	"context"
	"errors"
	"testing"

	"ledgerone/internal/applog"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

func newTestResolver(t *testing.T) (*Resolver, *Store, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	reg := metadata.DefaultRegistry()
	relStore := NewStore(mem, reg)
	return NewResolver(relStore, mem, reg, applog.Nop()), relStore, mem
}

func TestEnrichedForEntity_ResolvesDisplayNames(t *testing.T) {
	resolver, relStore, mem := newTestResolver(t)
	ctx := context.Background()

	eids := mem.Seed("entities", map[string]any{"name": "Acme Inc", "type": "business"})
	cids := mem.Seed("contacts", map[string]any{"name": "Jane Doe"})

	if _, err := relStore.Create(ctx, eids[0], cids[0], "contacts", "CFO"); err != nil {
		t.Fatalf("link: %v", err)
	}

	items, err := resolver.EnrichedForEntity(ctx, eids[0])
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].RelatedDataDisplayName != "Jane Doe" {
		t.Fatalf("expected display name Jane Doe, got %q", items[0].RelatedDataDisplayName)
	}
	if items[0].RelationshipDescription != "CFO" {
		t.Fatalf("expected description CFO, got %q", items[0].RelationshipDescription)
	}
}

func TestEnrichedForEntity_DanglingLinkRendersSentinel(t *testing.T) {
	resolver, relStore, mem := newTestResolver(t)
	ctx := context.Background()

	eids := mem.Seed("entities", map[string]any{"name": "Acme Inc"})
	cids := mem.Seed("contacts",
		map[string]any{"name": "Jane Doe"},
		map[string]any{"name": "John Smith"},
	)
	if _, err := relStore.Create(ctx, eids[0], cids[0], "contacts", "CFO"); err != nil {
		t.Fatal(err)
	}
	if _, err := relStore.Create(ctx, eids[0], cids[1], "contacts", "CTO"); err != nil {
		t.Fatal(err)
	}

	// delete the first contact directly, bypassing the relationship layer
	if err := mem.DeleteByID(ctx, "contacts", cids[0]); err != nil {
		t.Fatal(err)
	}

	items, err := resolver.EnrichedForEntity(ctx, eids[0])
	if err != nil {
		t.Fatalf("enrich with dangling link must not fail: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("dangling link must still be rendered, got %d items", len(items))
	}

	byID := make(map[string]EnrichedRelationship)
	for _, item := range items {
		byID[item.RelatedDataID] = item
	}
	if got := byID[cids[0]].RelatedDataDisplayName; got != DisplayUnknownRecord {
		t.Fatalf("expected %q for dangling link, got %q", DisplayUnknownRecord, got)
	}
	if got := byID[cids[1]].RelatedDataDisplayName; got != "John Smith" {
		t.Fatalf("valid sibling must still resolve, got %q", got)
	}
}

func TestEnrichedForEntity_FetchFailureDegradesOneType(t *testing.T) {
	resolver, relStore, mem := newTestResolver(t)
	ctx := context.Background()

	eids := mem.Seed("entities", map[string]any{"name": "Acme Inc"})
	cids := mem.Seed("contacts", map[string]any{"name": "Jane Doe"})
	pids := mem.Seed("phones", map[string]any{"phone": "555-0100"})

	if _, err := relStore.Create(ctx, eids[0], cids[0], "contacts", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := relStore.Create(ctx, eids[0], pids[0], "phones", ""); err != nil {
		t.Fatal(err)
	}

	mem.FailTable("phones", errors.New("connection reset"))

	items, err := resolver.EnrichedForEntity(ctx, eids[0])
	if err != nil {
		t.Fatalf("one failing type must not fail the batch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, item := range items {
		switch item.TypeOfRecord {
		case "contacts":
			if item.RelatedDataDisplayName != "Jane Doe" {
				t.Fatalf("contact should enrich, got %q", item.RelatedDataDisplayName)
			}
		case "phones":
			if item.RelatedDataDisplayName != DisplayErrorLoading {
				t.Fatalf("expected %q for failed type, got %q", DisplayErrorLoading, item.RelatedDataDisplayName)
			}
		}
	}
}

func TestEntitiesForDetailRecord_Bidirectional(t *testing.T) {
	resolver, relStore, mem := newTestResolver(t)
	ctx := context.Background()

	eids := mem.Seed("entities", map[string]any{"name": "Acme Inc", "type": "business"})
	cids := mem.Seed("contacts", map[string]any{"name": "Jane Doe"})

	if _, err := relStore.Create(ctx, eids[0], cids[0], "contacts", "CFO"); err != nil {
		t.Fatal(err)
	}

	// forward direction
	forward, err := resolver.EnrichedForEntity(ctx, eids[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(forward) != 1 || forward[0].RelatedDataID != cids[0] {
		t.Fatalf("forward lookup missing the contact: %+v", forward)
	}

	// reverse direction
	reverse, err := resolver.EntitiesForDetailRecord(ctx, cids[0], "contacts")
	if err != nil {
		t.Fatal(err)
	}
	if len(reverse) != 1 {
		t.Fatalf("expected 1 owning entity, got %d", len(reverse))
	}
	if reverse[0].EntityID != eids[0] || reverse[0].EntityName != "Acme Inc" {
		t.Fatalf("reverse lookup mismatch: %+v", reverse[0])
	}
	if reverse[0].EntityType != "business" {
		t.Fatalf("expected entity type merged in, got %q", reverse[0].EntityType)
	}
}

func TestEntitiesForDetailRecord_ZeroMatches(t *testing.T) {
	resolver, _, mem := newTestResolver(t)
	mem.Seed("contacts", map[string]any{"id": "c1", "name": "Nobody Links Me"})

	refs, err := resolver.EntitiesForDetailRecord(context.Background(), "c1", "contacts")
	if err != nil {
		t.Fatalf("zero matches must not be an error: %v", err)
	}
	if refs == nil || len(refs) != 0 {
		t.Fatalf("expected empty list, got %v", refs)
	}
}

func TestAvailableRecords_ExcludesLinked(t *testing.T) {
	resolver, relStore, mem := newTestResolver(t)
	ctx := context.Background()

	eids := mem.Seed("entities", map[string]any{"name": "Acme Inc"})
	cids := mem.Seed("contacts",
		map[string]any{"name": "Jane Doe"},
		map[string]any{"name": "John Smith"},
		map[string]any{"name": "Alice Brown"},
	)

	if _, err := relStore.Create(ctx, eids[0], cids[0], "contacts", "CFO"); err != nil {
		t.Fatal(err)
	}

	available, err := resolver.AvailableRecords(ctx, "contacts", eids[0])
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 available contacts, got %d", len(available))
	}
	// sorted by display field, linked record excluded
	if available[0]["name"] != "Alice Brown" || available[1]["name"] != "John Smith" {
		t.Fatalf("unexpected availability order: %v, %v", available[0]["name"], available[1]["name"])
	}
	for _, row := range available {
		if row["id"] == cids[0] {
			t.Fatal("linked record must be excluded from availability")
		}
	}
}

func TestAvailableRecords_UnknownType(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	_, err := resolver.AvailableRecords(context.Background(), "no_such_type", "e1")
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if code := appErrCode(t, err); code != "UNKNOWN_RECORD_TYPE" {
		t.Fatalf("expected UNKNOWN_RECORD_TYPE, got %s", code)
	}
}
