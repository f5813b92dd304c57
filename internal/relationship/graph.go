package relationship

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"ledgerone/internal/applog"
	"ledgerone/internal/engine"
	"ledgerone/internal/metadata"
	"ledgerone/internal/store"
)

// GraphNode is one node of the visualization graph.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// GraphBranch groups nodes under one category with a stable color tag.
type GraphBranch struct {
	Category string      `json:"category"`
	Color    string      `json:"color"`
	Items    []GraphNode `json:"items"`
}

// Graph is the categorized fan-out of everything related to one root node.
type Graph struct {
	CentralNode   GraphNode     `json:"central_node"`
	Relationships []GraphBranch `json:"relationships"`
}

const relatedEntitiesCategory = "Related Entities"

var branchPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// colorFor picks a stable palette color per category name.
func colorFor(category string) string {
	h := fnv.New32a()
	h.Write([]byte(category))
	return branchPalette[h.Sum32()%uint32(len(branchPalette))]
}

// GraphBuilder assembles the visualization graph. Each of its gathering
// steps is independent: a failed fetch in one step is logged and skipped,
// and the graph returns whatever the remaining steps produced.
type GraphBuilder struct {
	store    *Store
	links    *EntityLinkStore
	resolver *Resolver
	records  store.RecordStore
	registry *metadata.Registry
	logger   applog.Logger
}

func NewGraphBuilder(s *Store, links *EntityLinkStore, resolver *Resolver, records store.RecordStore, reg *metadata.Registry, logger applog.Logger) *GraphBuilder {
	return &GraphBuilder{store: s, links: links, resolver: resolver, records: records, registry: reg, logger: logger}
}

// Build produces the graph rooted at the given record. The root itself must
// exist; everything hanging off it is gathered best-effort.
func (g *GraphBuilder) Build(ctx context.Context, rootType, rootID string) (*Graph, error) {
	rt := g.registry.Get(rootType)
	if rt == nil {
		return nil, engine.UnknownRecordTypeError(rootType)
	}

	rootRow, err := g.records.GetByID(ctx, rt.Table, rootID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, engine.NotFoundError(rootType, rootID)
		}
		return nil, fmt.Errorf("load graph root %s/%s: %w", rootType, rootID, err)
	}

	graph := &Graph{
		CentralNode: GraphNode{
			ID:    rootID,
			Label: g.registry.ResolveDisplayField(rootType, rootRow),
			Type:  rootType,
		},
	}

	graph.Relationships = append(graph.Relationships, g.childBranches(ctx, rt, rootID)...)

	if branch := g.parentBranch(ctx, rt, rootRow); branch != nil {
		graph.Relationships = append(graph.Relationships, *branch)
	}

	if rootType == metadata.TypeEntities {
		graph.Relationships = append(graph.Relationships, g.polymorphicBranches(ctx, rootID)...)
		if branch := g.relatedEntitiesBranch(ctx, rootID); branch != nil {
			graph.Relationships = append(graph.Relationships, *branch)
		}
	}

	return graph, nil
}

// childBranches emits one branch per child-link type that has rows pointing
// at the root via its direct foreign key.
func (g *GraphBuilder) childBranches(ctx context.Context, rt *metadata.RecordType, rootID string) []GraphBranch {
	var branches []GraphBranch
	for _, link := range rt.Children {
		childType := g.registry.Get(link.Type)
		if childType == nil {
			continue
		}
		rows, err := g.records.List(ctx, childType.Table,
			map[string]any{link.ForeignKey: rootID}, childType.PrimaryDisplayField())
		if err != nil {
			g.logStepFailure(ctx, "graph.children", rootID, link.Type, err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		category := metadata.HumanizeLabel(link.Type)
		branch := GraphBranch{Category: category, Color: colorFor(category)}
		for _, row := range rows {
			branch.Items = append(branch.Items, GraphNode{
				ID:    str(row["id"]),
				Label: g.registry.ResolveDisplayField(link.Type, row),
				Type:  link.Type,
			})
		}
		branches = append(branches, branch)
	}
	return branches
}

// parentBranch emits a one-item branch for the root's direct parent, when
// the root type has a parent link and the foreign key is set.
func (g *GraphBuilder) parentBranch(ctx context.Context, rt *metadata.RecordType, rootRow map[string]any) *GraphBranch {
	if rt.Parent == nil {
		return nil
	}
	parentID := str(rootRow[rt.Parent.ForeignKey])
	if parentID == "" {
		return nil
	}
	parentType := g.registry.Get(rt.Parent.Type)
	if parentType == nil {
		return nil
	}

	row, err := g.records.GetByID(ctx, parentType.Table, parentID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			g.logStepFailure(ctx, "graph.parent", parentID, rt.Parent.Type, err)
		}
		return nil
	}

	category := metadata.HumanizeLabel(rt.Parent.Type)
	return &GraphBranch{
		Category: category,
		Color:    colorFor(category),
		Items: []GraphNode{{
			ID:    parentID,
			Label: g.registry.ResolveDisplayField(rt.Parent.Type, row),
			Type:  rt.Parent.Type,
		}},
	}
}

// polymorphicBranches emits one branch per distinct type_of_record present
// among the entity's links, reusing the resolver's degradation rules for
// dangling targets.
func (g *GraphBuilder) polymorphicBranches(ctx context.Context, entityID string) []GraphBranch {
	enriched, err := g.resolver.EnrichedForEntity(ctx, entityID)
	if err != nil {
		g.logStepFailure(ctx, "graph.links", entityID, JoinTable, err)
		return nil
	}

	// ListByEntity orders by type, so grouping preserves a stable branch order.
	var branches []GraphBranch
	index := make(map[string]int)
	for _, item := range enriched {
		category := metadata.HumanizeLabel(item.TypeOfRecord)
		i, ok := index[category]
		if !ok {
			branches = append(branches, GraphBranch{Category: category, Color: colorFor(category)})
			i = len(branches) - 1
			index[category] = i
		}
		branches[i].Items = append(branches[i].Items, GraphNode{
			ID:    item.RelatedDataID,
			Label: item.RelatedDataDisplayName,
			Type:  item.TypeOfRecord,
		})
	}
	return branches
}

// relatedEntitiesBranch emits a single branch for direct entity-to-entity
// links, listing the entity on the other side of each link.
func (g *GraphBuilder) relatedEntitiesBranch(ctx context.Context, entityID string) *GraphBranch {
	links, err := g.links.ListForEntity(ctx, entityID)
	if err != nil {
		g.logStepFailure(ctx, "graph.entity_links", entityID, EntityLinkTable, err)
		return nil
	}
	if len(links) == 0 {
		return nil
	}

	otherIDs := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, link := range links {
		other := link.ToEntityID
		if other == entityID {
			other = link.FromEntityID
		}
		if other != entityID && !seen[other] {
			seen[other] = true
			otherIDs = append(otherIDs, other)
		}
	}
	if len(otherIDs) == 0 {
		return nil
	}

	entityType := g.registry.Get(metadata.TypeEntities)
	rows, err := g.records.ListByIDs(ctx, entityType.Table, otherIDs)
	if err != nil {
		g.logStepFailure(ctx, "graph.entity_links", entityID, entityType.Table, err)
		return nil
	}
	byID := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		byID[str(row["id"])] = row
	}

	branch := &GraphBranch{Category: relatedEntitiesCategory, Color: colorFor(relatedEntitiesCategory)}
	for _, id := range otherIDs {
		label := DisplayUnknownRecord
		if row := byID[id]; row != nil {
			label = g.registry.ResolveDisplayField(metadata.TypeEntities, row)
		}
		branch.Items = append(branch.Items, GraphNode{ID: id, Label: label, Type: metadata.TypeEntities})
	}
	return branch
}

func (g *GraphBuilder) logStepFailure(ctx context.Context, step, id, subject string, err error) {
	g.logger.Log(ctx, applog.LevelError, "relationship", step,
		fmt.Sprintf("graph step failed for %s", subject),
		map[string]any{"id": id, "subject": subject, "error": err.Error()})
}
