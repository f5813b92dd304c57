package metadata

import (
	"fmt"
	"strings"
)

// Registry is the static catalog of record types. It is built once at
// startup and never mutated, so lookups need no locking.
type Registry struct {
	types map[string]*RecordType
	order []string
}

// NewRegistry builds a registry from the given record types. Registration
// order is preserved by All.
func NewRegistry(types []*RecordType) *Registry {
	r := &Registry{types: make(map[string]*RecordType, len(types))}
	for _, rt := range types {
		if _, dup := r.types[rt.Name]; dup {
			continue
		}
		r.types[rt.Name] = rt
		r.order = append(r.order, rt.Name)
	}
	return r
}

// Get returns the record type with the given name, or nil.
func (r *Registry) Get(name string) *RecordType {
	return r.types[name]
}

// Has returns true if the given type name is registered.
func (r *Registry) Has(name string) bool {
	return r.types[name] != nil
}

// All returns all record types in registration order.
func (r *Registry) All() []*RecordType {
	out := make([]*RecordType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// GetParentLink returns the parent link for a type, or nil for root types
// and unknown names.
func (r *Registry) GetParentLink(name string) *ParentLink {
	rt := r.types[name]
	if rt == nil {
		return nil
	}
	return rt.Parent
}

// GetChildLinks returns the child links for a type. Unknown names yield nil.
func (r *Registry) GetChildLinks(name string) []ChildLink {
	rt := r.types[name]
	if rt == nil {
		return nil
	}
	return rt.Children
}

// ResolveDisplayField produces a human-readable label for a record by trying
// the type's display-field candidates in priority order. It is total: any
// record shape, including nil and rows missing every candidate, resolves to
// a formatted ID fallback rather than an error.
func (r *Registry) ResolveDisplayField(typeName string, record map[string]any) string {
	if rt := r.types[typeName]; rt != nil {
		for _, field := range rt.DisplayFields {
			if label := nonEmptyString(record[field]); label != "" {
				return label
			}
		}
	}
	if id := nonEmptyString(record["id"]); id != "" {
		return "ID: " + id
	}
	return "ID: unknown"
}

func nonEmptyString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// HumanizeLabel converts a snake_case type name into a display label,
// e.g. "bank_accounts" -> "Bank Accounts". Unknown names are formatted
// best-effort, never rejected.
func HumanizeLabel(typeName string) string {
	parts := strings.Split(typeName, "_")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, strings.ToUpper(p[:1])+p[1:])
	}
	if len(out) == 0 {
		return typeName
	}
	return strings.Join(out, " ")
}
