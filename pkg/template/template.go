// Package template substitutes {{name}} placeholders in node text with values
// from an execution's variable bag.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukex/convoflow/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// HasPlaceholders reports whether input contains at least one {{name}} placeholder.
func HasPlaceholders(input string) bool {
	return placeholderPattern.MatchString(input)
}

// Interpolate replaces every {{name}} in text with the string form of
// vars[name]. Dotted names walk nested maps ({{trigger.name}}). Unknown
// placeholders are left untouched.
func Interpolate(text string, vars map[string]any) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := Lookup(vars, name)
		if !ok {
			return match
		}

		return Stringify(value)
	})
}

// InterpolateAll interpolates each entry of texts.
func InterpolateAll(texts []string, vars map[string]any) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = Interpolate(text, vars)
	}

	return out
}

// RenderWithContext interpolates text against the execution's variables,
// exposing the trigger payload under "trigger".
func RenderWithContext(text string, executionCtx *models.ExecutionContext) string {
	return Interpolate(text, Scope(executionCtx))
}

// Scope builds the lookup map used for interpolation of an execution.
func Scope(executionCtx *models.ExecutionContext) map[string]any {
	scope := make(map[string]any, len(executionCtx.Variables)+4)
	scope[models.VarContactID] = executionCtx.ContactID
	scope[models.VarConversationID] = executionCtx.ConversationID

	if executionCtx.TriggerData != nil {
		scope["trigger"] = executionCtx.TriggerData
	}

	for k, v := range executionCtx.Variables {
		scope[k] = v
	}

	return scope
}

// Lookup resolves name in vars. A literal key wins over a dotted path.
func Lookup(vars map[string]any, name string) (any, bool) {
	if value, ok := vars[name]; ok {
		return value, true
	}

	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return nil, false
	}

	var current any = vars

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Stringify renders a variable value as message text.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case fmt.Stringer:
		return v.String()
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(raw)
}
