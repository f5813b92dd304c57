package engine

import (
	"testing"

	"ledgerone/internal/metadata"
)

func ruleFields(details []ErrorDetail) map[string]string {
	out := make(map[string]string, len(details))
	for _, d := range details {
		out[d.Field] = d.Rule
	}
	return out
}

func TestEvaluateRules_RequiredOnCreate(t *testing.T) {
	rt := metadata.DefaultRegistry().Get(metadata.TypeEntities)

	details := EvaluateRules(rt, map[string]any{}, true)
	if rules := ruleFields(details); rules["name"] != "required" {
		t.Fatalf("expected required error on name, got %v", details)
	}

	details = EvaluateRules(rt, map[string]any{"name": ""}, true)
	if rules := ruleFields(details); rules["name"] != "required" {
		t.Fatalf("empty string must count as missing, got %v", details)
	}

	if details := EvaluateRules(rt, map[string]any{"name": "Acme Inc"}, true); len(details) != 0 {
		t.Fatalf("expected clean pass, got %v", details)
	}
}

func TestEvaluateRules_RequiredSkippedOnPartialUpdate(t *testing.T) {
	rt := metadata.DefaultRegistry().Get(metadata.TypeEntities)

	// absent required field is fine on update
	if details := EvaluateRules(rt, map[string]any{"description": "updated"}, false); len(details) != 0 {
		t.Fatalf("partial update must not require absent fields, got %v", details)
	}

	// but an explicit empty value is still rejected
	details := EvaluateRules(rt, map[string]any{"name": ""}, false)
	if rules := ruleFields(details); rules["name"] != "required" {
		t.Fatalf("expected required error on explicit empty name, got %v", details)
	}
}

func TestEvaluateRules_ExpressionRules(t *testing.T) {
	rt := metadata.DefaultRegistry().Get(metadata.TypeEmails)

	details := EvaluateRules(rt, map[string]any{"email": "not-an-address"}, true)
	if rules := ruleFields(details); rules["email"] != "expression" {
		t.Fatalf("expected expression failure, got %v", details)
	}
	if details[0].Message != "email must be a valid address" {
		t.Fatalf("rule message must surface, got %q", details[0].Message)
	}

	if details := EvaluateRules(rt, map[string]any{"email": "jane@example.com"}, true); len(details) != 0 {
		t.Fatalf("expected clean pass, got %v", details)
	}
}

func TestEvaluateRules_ExpressionSkippedWhenFieldAbsentOnUpdate(t *testing.T) {
	rt := metadata.DefaultRegistry().Get(metadata.TypeCreditCards)

	// last_four untouched by this update, so its rule must not run
	if details := EvaluateRules(rt, map[string]any{"issuer": "Visa"}, false); len(details) != 0 {
		t.Fatalf("rule on absent field must be skipped, got %v", details)
	}

	details := EvaluateRules(rt, map[string]any{"last_four": "12345"}, false)
	if rules := ruleFields(details); rules["last_four"] != "expression" {
		t.Fatalf("expected last_four rejection, got %v", details)
	}
}
