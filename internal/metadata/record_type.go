package metadata

// ParentLink describes a direct (non-polymorphic) foreign key from a record
// type to a single parent type. Most detail tables point at entities.
type ParentLink struct {
	Type       string `json:"type"`
	ForeignKey string `json:"foreign_key"`
}

// ChildLink is the inverse of a ParentLink on the parent side.
type ChildLink struct {
	Type       string `json:"type"`
	ForeignKey string `json:"foreign_key"`
}

// ValidationRule is an expression evaluated against a record on write.
// The expression sees the record as `record` and must evaluate to true.
type ValidationRule struct {
	Field   string `json:"field"`
	Expr    string `json:"expr"`
	Message string `json:"message"`
}

// RecordType describes one participating table: its writable columns, the
// priority-ordered display fields used to label a row, the columns the
// search endpoint matches against, and its linkage to a parent type.
type RecordType struct {
	Name          string
	Table         string
	Fields        []string // writable columns, excludes id and timestamps
	DisplayFields []string // tried in order by ResolveDisplayField
	SearchFields  []string
	Required      []string
	Parent        *ParentLink
	Children      []ChildLink
	Rules         []ValidationRule
}

// HasField returns true if the record type has a writable field with the given name.
func (rt *RecordType) HasField(name string) bool {
	for _, f := range rt.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// PrimaryDisplayField returns the first display-field candidate, used as the
// default sort column for listings.
func (rt *RecordType) PrimaryDisplayField() string {
	if len(rt.DisplayFields) > 0 {
		return rt.DisplayFields[0]
	}
	return "id"
}
