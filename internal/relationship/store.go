package relationship

import (
	"context"
	"fmt"

	"ledgerone/internal/engine"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

// Store is the raw CRUD layer over the polymorphic join. It validates link
// shape and rejects duplicates, but deliberately does not verify that the
// linked detail record exists; the resolver's read path tolerates dangling
// links instead.
type Store struct {
	records  store.RecordStore
	registry *metadata.Registry
}

func NewStore(records store.RecordStore, reg *metadata.Registry) *Store {
	return &Store{records: records, registry: reg}
}

// Create links a detail record to an entity. Duplicate triples are rejected
// with an ALREADY_LINKED error via a check-then-insert; the narrow window
// between check and insert under concurrent creates is accepted.
func (s *Store) Create(ctx context.Context, entityID, relatedDataID, typeOfRecord, description string) (*Relationship, error) {
	var details []engine.ErrorDetail
	if entityID == "" {
		details = append(details, engine.ErrorDetail{Field: "entity_id", Rule: "required", Message: "entity_id is required"})
	}
	if relatedDataID == "" {
		details = append(details, engine.ErrorDetail{Field: "related_data_id", Rule: "required", Message: "related_data_id is required"})
	}
	if typeOfRecord == "" {
		details = append(details, engine.ErrorDetail{Field: "type_of_record", Rule: "required", Message: "type_of_record is required"})
	}
	if len(details) > 0 {
		return nil, engine.ValidationError(details)
	}
	if !s.registry.Has(typeOfRecord) {
		return nil, engine.UnknownRecordTypeError(typeOfRecord)
	}

	existing, err := s.records.List(ctx, JoinTable, map[string]any{
		"entity_id":       entityID,
		"related_data_id": relatedDataID,
		"type_of_record":  typeOfRecord,
	})
	if err != nil {
		return nil, fmt.Errorf("check existing link: %w", err)
	}
	if len(existing) > 0 {
		return nil, engine.AlreadyLinkedError("This record is already linked to the entity")
	}

	row, err := s.records.Insert(ctx, JoinTable, map[string]any{
		"entity_id":                entityID,
		"related_data_id":          relatedDataID,
		"type_of_record":           typeOfRecord,
		"relationship_description": description,
	})
	if err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	rel := relationshipFromRow(row)
	return &rel, nil
}

// Update changes a relationship's description. Nothing else on a link is
// mutable after creation.
func (s *Store) Update(ctx context.Context, id, description string) (*Relationship, error) {
	row, err := s.records.UpdateByID(ctx, JoinTable, id, map[string]any{
		"relationship_description": description,
	})
	if err != nil {
		return nil, err
	}
	rel := relationshipFromRow(row)
	return &rel, nil
}

// Delete removes a link. Deleting an id that does not exist reports
// store.ErrNotFound rather than silent success.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.records.DeleteByID(ctx, JoinTable, id)
}

// GetByID fetches one link.
func (s *Store) GetByID(ctx context.Context, id string) (*Relationship, error) {
	row, err := s.records.GetByID(ctx, JoinTable, id)
	if err != nil {
		return nil, err
	}
	rel := relationshipFromRow(row)
	return &rel, nil
}

// ListByEntity returns all links owned by an entity, ordered by record type
// then insertion order so the resolver's grouping is deterministic.
func (s *Store) ListByEntity(ctx context.Context, entityID string) ([]Relationship, error) {
	rows, err := s.records.List(ctx, JoinTable,
		map[string]any{"entity_id": entityID}, "type_of_record", "created_at")
	if err != nil {
		return nil, fmt.Errorf("list links for entity %s: %w", entityID, err)
	}

	rels := make([]Relationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, relationshipFromRow(row))
	}
	return rels, nil
}

// ListByDetailRecord is the reverse lookup. The data model does not restrict
// a detail record to one owner, so this may return any number of links.
func (s *Store) ListByDetailRecord(ctx context.Context, relatedDataID, typeOfRecord string) ([]Relationship, error) {
	rows, err := s.records.List(ctx, JoinTable, map[string]any{
		"related_data_id": relatedDataID,
		"type_of_record":  typeOfRecord,
	}, "created_at")
	if err != nil {
		return nil, fmt.Errorf("list links for record %s/%s: %w", typeOfRecord, relatedDataID, err)
	}

	rels := make([]Relationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, relationshipFromRow(row))
	}
	return rels, nil
}
