package engine

import (
	"fmt"

	"github.com/expr-lang/expr"

	"ledgerone/internal/metadata"
)

// EvaluateRules checks a write payload against a record type's required
// fields and expression rules. On update, required fields are only checked
// when present in the payload (partial updates are allowed).
func EvaluateRules(rt *metadata.RecordType, fields map[string]any, isCreate bool) []ErrorDetail {
	var errs []ErrorDetail

	for _, name := range rt.Required {
		val, present := fields[name]
		if !present {
			if isCreate {
				errs = append(errs, ErrorDetail{
					Field:   name,
					Rule:    "required",
					Message: fmt.Sprintf("%s is required", name),
				})
			}
			continue
		}
		if isEmpty(val) {
			errs = append(errs, ErrorDetail{
				Field:   name,
				Rule:    "required",
				Message: fmt.Sprintf("%s must not be empty", name),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	env := map[string]any{"record": fields}
	for _, rule := range rt.Rules {
		// Skip expression rules whose field isn't in a partial update.
		if rule.Field != "" {
			if _, present := fields[rule.Field]; !present && !isCreate {
				continue
			}
		}

		program, err := expr.Compile(rule.Expr, expr.Env(env), expr.AsBool())
		if err != nil {
			errs = append(errs, ErrorDetail{
				Field:   rule.Field,
				Rule:    "expression",
				Message: fmt.Sprintf("invalid rule expression: %v", err),
			})
			continue
		}

		out, err := expr.Run(program, env)
		if err != nil {
			errs = append(errs, ErrorDetail{
				Field:   rule.Field,
				Rule:    "expression",
				Message: ruleMessage(rule),
			})
			continue
		}
		if pass, ok := out.(bool); !ok || !pass {
			errs = append(errs, ErrorDetail{
				Field:   rule.Field,
				Rule:    "expression",
				Message: ruleMessage(rule),
			})
		}
	}

	return errs
}

func ruleMessage(rule metadata.ValidationRule) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fmt.Sprintf("field %s failed validation", rule.Field)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
