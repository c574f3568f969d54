package conditions

import (
	"strings"

	"github.com/dukex/convoflow/pkg/template"
)

type operator struct {
	token   string
	compare func(left, right string) bool
}

// Longer tokens first so "===" is not read as "==".
var operators = []operator{
	{token: "!==", compare: func(l, r string) bool { return l != r }},
	{token: "===", compare: func(l, r string) bool { return l == r }},
	{token: "!=", compare: func(l, r string) bool { return l != r }},
	{token: "==", compare: func(l, r string) bool { return l == r }},
	{token: " contains ", compare: func(l, r string) bool {
		return strings.Contains(strings.ToLower(l), strings.ToLower(r))
	}},
}

// evaluateVariable evaluates "left OP right" where OP is ===, !== or
// contains. Any other input is judged by the truthiness of its interpolation.
// An operand that still holds an unresolved placeholder makes the whole
// expression not met.
func evaluateVariable(expression string, vars map[string]any) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return false
	}

	for _, op := range operators {
		idx := strings.Index(expression, op.token)
		if idx < 0 {
			continue
		}

		left, okLeft := operand(expression[:idx], vars)
		right, okRight := operand(expression[idx+len(op.token):], vars)

		if !okLeft || !okRight {
			return false
		}

		return op.compare(left, right)
	}

	value, ok := operand(expression, vars)
	if !ok {
		return false
	}

	return truthy(value)
}

func operand(raw string, vars map[string]any) (string, bool) {
	value := strings.TrimSpace(template.Interpolate(raw, vars))
	if template.HasPlaceholders(value) {
		return "", false
	}

	return unquote(value), true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}

func truthy(value string) bool {
	switch strings.ToLower(value) {
	case "", "false", "0", "null", "undefined", "nil":
		return false
	default:
		return true
	}
}
