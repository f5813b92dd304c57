package relationship

import (
	"context"
	"fmt"

	"ledgerone/internal/engine"
	"ledgerone/internal/store"
)

// EntityLinkStore is the CRUD layer over entity_relationships, the direct
// (non-polymorphic) many-to-many between entities.
type EntityLinkStore struct {
	records store.RecordStore
}

func NewEntityLinkStore(records store.RecordStore) *EntityLinkStore {
	return &EntityLinkStore{records: records}
}

func (s *EntityLinkStore) Create(ctx context.Context, fromID, toID, relType, description string) (*EntityLink, error) {
	var details []engine.ErrorDetail
	if fromID == "" {
		details = append(details, engine.ErrorDetail{Field: "from_entity_id", Rule: "required", Message: "from_entity_id is required"})
	}
	if toID == "" {
		details = append(details, engine.ErrorDetail{Field: "to_entity_id", Rule: "required", Message: "to_entity_id is required"})
	}
	if fromID != "" && fromID == toID {
		details = append(details, engine.ErrorDetail{Field: "to_entity_id", Rule: "distinct", Message: "an entity cannot be related to itself"})
	}
	if len(details) > 0 {
		return nil, engine.ValidationError(details)
	}

	row, err := s.records.Insert(ctx, EntityLinkTable, map[string]any{
		"from_entity_id":    fromID,
		"to_entity_id":      toID,
		"relationship_type": relType,
		"description":       description,
	})
	if err != nil {
		return nil, fmt.Errorf("create entity link: %w", err)
	}

	link := entityLinkFromRow(row)
	return &link, nil
}

func (s *EntityLinkStore) Delete(ctx context.Context, id string) error {
	return s.records.DeleteByID(ctx, EntityLinkTable, id)
}

// ListForEntity returns all links touching the entity on either side.
// Self-links are deduplicated.
func (s *EntityLinkStore) ListForEntity(ctx context.Context, entityID string) ([]EntityLink, error) {
	from, err := s.records.List(ctx, EntityLinkTable,
		map[string]any{"from_entity_id": entityID}, "created_at")
	if err != nil {
		return nil, fmt.Errorf("list entity links from %s: %w", entityID, err)
	}
	to, err := s.records.List(ctx, EntityLinkTable,
		map[string]any{"to_entity_id": entityID}, "created_at")
	if err != nil {
		return nil, fmt.Errorf("list entity links to %s: %w", entityID, err)
	}

	seen := make(map[string]bool, len(from)+len(to))
	links := make([]EntityLink, 0, len(from)+len(to))
	for _, row := range append(from, to...) {
		link := entityLinkFromRow(row)
		if seen[link.ID] {
			continue
		}
		seen[link.ID] = true
		links = append(links, link)
	}
	return links, nil
}
