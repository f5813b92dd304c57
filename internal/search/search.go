// Package search implements the cross-type full-text search endpoint: one
// substring query matched against every record type's searchable columns.
package search

import (
	"context"
	"fmt"

	"ledgerone/internal/applog"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

// Result groups matches for one record type.
type Result struct {
	Type  string      `json:"type"`
	Label string      `json:"label"`
	Items []ResultRow `json:"items"`
}

type ResultRow struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Record      map[string]any `json:"record"`
}

type Searcher struct {
	records  store.RecordStore
	registry *metadata.Registry
	logger   applog.Logger
}

func NewSearcher(records store.RecordStore, reg *metadata.Registry, logger applog.Logger) *Searcher {
	return &Searcher{records: records, registry: reg, logger: logger}
}

// Search runs the query against every type in the registry, one store call
// per type. A failing type is logged and skipped; the other types' results
// are still returned.
func (s *Searcher) Search(ctx context.Context, query string) []Result {
	var results []Result
	for _, rt := range s.registry.All() {
		rows, err := s.records.Search(ctx, rt.Table, rt.SearchFields, query)
		if err != nil {
			s.logger.Log(ctx, applog.LevelError, "search", "query",
				fmt.Sprintf("search failed for %s", rt.Name),
				map[string]any{"type": rt.Name, "query": query, "error": err.Error()})
			continue
		}
		if len(rows) == 0 {
			continue
		}

		result := Result{Type: rt.Name, Label: metadata.HumanizeLabel(rt.Name)}
		for _, row := range rows {
			result.Items = append(result.Items, ResultRow{
				ID:          fmt.Sprintf("%v", row["id"]),
				DisplayName: s.registry.ResolveDisplayField(rt.Name, row),
				Record:      row,
			})
		}
		results = append(results, result)
	}
	return results
}
