package metadata

import "testing"

func TestResolveDisplayField_PriorityOrder(t *testing.T) {
	reg := DefaultRegistry()

	// websites tries name before url
	got := reg.ResolveDisplayField(TypeWebsites, map[string]any{
		"id": "w1", "name": "Company Site", "url": "https://example.com",
	})
	if got != "Company Site" {
		t.Fatalf("expected first candidate, got %q", got)
	}

	// first candidate empty falls through to the next
	got = reg.ResolveDisplayField(TypeWebsites, map[string]any{
		"id": "w1", "name": "", "url": "https://example.com",
	})
	if got != "https://example.com" {
		t.Fatalf("expected fallthrough to url, got %q", got)
	}
}

func TestResolveDisplayField_FallbackToID(t *testing.T) {
	reg := DefaultRegistry()

	got := reg.ResolveDisplayField(TypeContacts, map[string]any{"id": "c-123"})
	if got != "ID: c-123" {
		t.Fatalf("expected ID fallback, got %q", got)
	}
}

func TestResolveDisplayField_Total(t *testing.T) {
	reg := DefaultRegistry()

	// malformed inputs must never panic and always yield something
	cases := []struct {
		name   string
		typ    string
		record map[string]any
		want   string
	}{
		{"nil record", TypeContacts, nil, "ID: unknown"},
		{"unknown type", "no_such_type", map[string]any{"id": "x"}, "ID: x"},
		{"empty record", TypeEmails, map[string]any{}, "ID: unknown"},
		{"non-string value", TypePhones, map[string]any{"id": "p1", "phone": 5551234}, "5551234"},
		{"whitespace only", TypeContacts, map[string]any{"id": "c1", "name": "   "}, "ID: c1"},
	}
	for _, tc := range cases {
		if got := reg.ResolveDisplayField(tc.typ, tc.record); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestHumanizeLabel(t *testing.T) {
	cases := map[string]string{
		"bank_accounts":   "Bank Accounts",
		"contacts":        "Contacts",
		"entity_related_data": "Entity Related Data",
		"":                "",
		"_":               "_",
		"weird__name":     "Weird Name",
	}
	for in, want := range cases {
		if got := HumanizeLabel(in); got != want {
			t.Errorf("HumanizeLabel(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDefaultRegistry_Linkage(t *testing.T) {
	reg := DefaultRegistry()

	entities := reg.Get(TypeEntities)
	if entities == nil {
		t.Fatal("entities type missing")
	}
	if entities.Parent != nil {
		t.Fatal("entities must be a root type")
	}

	// every non-root type has exactly one parent link pointing at entities,
	// and entities carries the matching child link
	childTypes := make(map[string]bool)
	for _, link := range entities.Children {
		childTypes[link.Type] = true
	}

	for _, rt := range reg.All() {
		if rt.Name == TypeEntities {
			continue
		}
		if rt.Parent == nil {
			t.Errorf("%s: detail type missing parent link", rt.Name)
			continue
		}
		if rt.Parent.Type != TypeEntities {
			t.Errorf("%s: parent is %s, expected entities", rt.Name, rt.Parent.Type)
		}
		if !childTypes[rt.Name] {
			t.Errorf("%s: entities has no inverse child link", rt.Name)
		}
		if len(rt.DisplayFields) == 0 {
			t.Errorf("%s: no display field candidates", rt.Name)
		}
	}
}

func TestRegistry_UnknownLookups(t *testing.T) {
	reg := DefaultRegistry()

	if reg.Get("nope") != nil {
		t.Fatal("expected nil for unknown type")
	}
	if reg.GetParentLink("nope") != nil {
		t.Fatal("expected nil parent link for unknown type")
	}
	if reg.GetChildLinks("nope") != nil {
		t.Fatal("expected nil child links for unknown type")
	}
}
