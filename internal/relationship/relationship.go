// Package relationship implements the polymorphic join between entities and
// detail records: the raw link store over entity_related_data, the enriched
// bidirectional resolver, the entity-to-entity link store, and the
// visualization graph built from all of them.
package relationship

import (
	"fmt"
	"time"
)

const (
	// JoinTable holds the polymorphic links. The (related_data_id,
	// type_of_record) pair acts as the de facto foreign key into one of
	// several tables; nothing at the store level enforces that the target
	// row exists.
	JoinTable = "entity_related_data"

	// EntityLinkTable holds direct entity-to-entity links.
	EntityLinkTable = "entity_relationships"
)

// Relationship is one row of the polymorphic join.
type Relationship struct {
	ID                      string    `json:"id"`
	EntityID                string    `json:"entity_id"`
	RelatedDataID           string    `json:"related_data_id"`
	TypeOfRecord            string    `json:"type_of_record"`
	RelationshipDescription string    `json:"relationship_description,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// EnrichedRelationship is a relationship merged with the live display name
// of its linked detail record.
type EnrichedRelationship struct {
	Relationship
	RelatedDataDisplayName string         `json:"related_data_display_name"`
	RelatedData            map[string]any `json:"related_data,omitempty"`
}

// EnrichedEntityRef is the reverse view: an owning entity merged with the
// relationship that links it to a detail record.
type EnrichedEntityRef struct {
	RelationshipID          string `json:"relationship_id"`
	EntityID                string `json:"entity_id"`
	EntityName              string `json:"entity_name"`
	EntityType              string `json:"entity_type,omitempty"`
	RelationshipDescription string `json:"relationship_description,omitempty"`
}

// EntityLink is one row of the direct entity-to-entity join.
type EntityLink struct {
	ID               string    `json:"id"`
	FromEntityID     string    `json:"from_entity_id"`
	ToEntityID       string    `json:"to_entity_id"`
	RelationshipType string    `json:"relationship_type,omitempty"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func relationshipFromRow(row map[string]any) Relationship {
	return Relationship{
		ID:                      str(row["id"]),
		EntityID:                str(row["entity_id"]),
		RelatedDataID:           str(row["related_data_id"]),
		TypeOfRecord:            str(row["type_of_record"]),
		RelationshipDescription: str(row["relationship_description"]),
		CreatedAt:               timestamp(row["created_at"]),
		UpdatedAt:               timestamp(row["updated_at"]),
	}
}

func entityLinkFromRow(row map[string]any) EntityLink {
	return EntityLink{
		ID:               str(row["id"]),
		FromEntityID:     str(row["from_entity_id"]),
		ToEntityID:       str(row["to_entity_id"]),
		RelationshipType: str(row["relationship_type"]),
		Description:      str(row["description"]),
		CreatedAt:        timestamp(row["created_at"]),
		UpdatedAt:        timestamp(row["updated_at"]),
	}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func timestamp(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
