package relationship

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ledgerone/internal/applog"
	"ledgerone/internal/engine"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

// Sentinel display names for links whose target can no longer be resolved.
// A dangling link is rendered, never dropped and never a hard failure.
const (
	DisplayUnknownRecord = "Unknown Record"
	DisplayErrorLoading  = "Error Loading Record"
)

// Resolver produces enriched, caller-ready relationship views by combining
// raw links with live detail-record data.
type Resolver struct {
	store    *Store
	records  store.RecordStore
	registry *metadata.Registry
	logger   applog.Logger
}

func NewResolver(s *Store, records store.RecordStore, reg *metadata.Registry, logger applog.Logger) *Resolver {
	return &Resolver{store: s, records: records, registry: reg, logger: logger}
}

// EnrichedForEntity returns every link owned by an entity with the linked
// record's display name resolved. Detail rows are fetched one batch per
// distinct record type. A failed batch or a missing row degrades that item
// to a sentinel display name; it never fails the rest of the result.
func (r *Resolver) EnrichedForEntity(ctx context.Context, entityID string) ([]EnrichedRelationship, error) {
	rels, err := r.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	idsByType := make(map[string][]string)
	for _, rel := range rels {
		idsByType[rel.TypeOfRecord] = append(idsByType[rel.TypeOfRecord], rel.RelatedDataID)
	}

	rowsByType := make(map[string]map[string]map[string]any, len(idsByType))
	failedTypes := make(map[string]bool)
	for typeName, ids := range idsByType {
		rt := r.registry.Get(typeName)
		if rt == nil {
			// Type tag no longer in the catalog: treat every link in the
			// group as dangling.
			continue
		}
		rows, err := r.records.ListByIDs(ctx, rt.Table, ids)
		if err != nil {
			r.logger.Log(ctx, applog.LevelError, "relationship", "enrich",
				fmt.Sprintf("failed to load %s records for entity %s", typeName, entityID),
				map[string]any{"entity_id": entityID, "type_of_record": typeName, "error": err.Error()})
			failedTypes[typeName] = true
			continue
		}
		indexed := make(map[string]map[string]any, len(rows))
		for _, row := range rows {
			indexed[str(row["id"])] = row
		}
		rowsByType[typeName] = indexed
	}

	enriched := make([]EnrichedRelationship, 0, len(rels))
	for _, rel := range rels {
		item := EnrichedRelationship{Relationship: rel}
		switch {
		case failedTypes[rel.TypeOfRecord]:
			item.RelatedDataDisplayName = DisplayErrorLoading
		default:
			row := rowsByType[rel.TypeOfRecord][rel.RelatedDataID]
			if row == nil {
				item.RelatedDataDisplayName = DisplayUnknownRecord
			} else {
				item.RelatedDataDisplayName = r.registry.ResolveDisplayField(rel.TypeOfRecord, row)
				item.RelatedData = row
			}
		}
		enriched = append(enriched, item)
	}
	return enriched, nil
}

// EntitiesForDetailRecord is the reverse lookup: all entities linked to a
// given detail record, with entity info merged in. Zero matches is an empty
// list, not an error.
func (r *Resolver) EntitiesForDetailRecord(ctx context.Context, relatedDataID, typeOfRecord string) ([]EnrichedEntityRef, error) {
	rels, err := r.store.ListByDetailRecord(ctx, relatedDataID, typeOfRecord)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return []EnrichedEntityRef{}, nil
	}

	entityIDs := make([]string, 0, len(rels))
	seen := make(map[string]bool, len(rels))
	for _, rel := range rels {
		if !seen[rel.EntityID] {
			seen[rel.EntityID] = true
			entityIDs = append(entityIDs, rel.EntityID)
		}
	}

	entityType := r.registry.Get(metadata.TypeEntities)
	rows, err := r.records.ListByIDs(ctx, entityType.Table, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("load entities for record %s/%s: %w", typeOfRecord, relatedDataID, err)
	}
	byID := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		byID[str(row["id"])] = row
	}

	refs := make([]EnrichedEntityRef, 0, len(rels))
	for _, rel := range rels {
		ref := EnrichedEntityRef{
			RelationshipID:          rel.ID,
			EntityID:                rel.EntityID,
			RelationshipDescription: rel.RelationshipDescription,
		}
		if row := byID[rel.EntityID]; row != nil {
			ref.EntityName = r.registry.ResolveDisplayField(metadata.TypeEntities, row)
			ref.EntityType = str(row["type"])
		} else {
			ref.EntityName = DisplayUnknownRecord
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// AvailableRecords returns all records of a type not yet linked to the
// entity, sorted by display name. Scans the whole record-type table.
func (r *Resolver) AvailableRecords(ctx context.Context, typeOfRecord, entityID string) ([]map[string]any, error) {
	rt := r.registry.Get(typeOfRecord)
	if rt == nil {
		return nil, engine.UnknownRecordTypeError(typeOfRecord)
	}

	linked, err := r.records.List(ctx, JoinTable, map[string]any{
		"entity_id":      entityID,
		"type_of_record": typeOfRecord,
	})
	if err != nil {
		return nil, fmt.Errorf("list existing links: %w", err)
	}
	linkedIDs := make(map[string]bool, len(linked))
	for _, row := range linked {
		linkedIDs[str(row["related_data_id"])] = true
	}

	all, err := r.records.List(ctx, rt.Table, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", typeOfRecord, err)
	}

	available := make([]map[string]any, 0, len(all))
	for _, row := range all {
		if !linkedIDs[str(row["id"])] {
			available = append(available, row)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		a := r.registry.ResolveDisplayField(typeOfRecord, available[i])
		b := r.registry.ResolveDisplayField(typeOfRecord, available[j])
		return strings.ToLower(a) < strings.ToLower(b)
	})
	return available, nil
}
