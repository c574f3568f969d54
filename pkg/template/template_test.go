package template

import (
	"testing"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	vars := map[string]any{
		"name":  "John",
		"age":   30,
		"score": 7.5,
		"total": float64(120),
		"vip":   true,
		"trigger": map[string]any{
			"profile": map[string]any{"city": "Lisbon"},
		},
		"tags": []any{"a", "b"},
		"none": nil,
	}

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no placeholders", input: "Hello there!", expected: "Hello there!"},
		{name: "braces without placeholder", input: "use {curly} braces", expected: "use {curly} braces"},
		{name: "simple", input: "Hi {{name}}", expected: "Hi John"},
		{name: "whitespace tolerated", input: "Hi {{ name }}!", expected: "Hi John!"},
		{name: "int", input: "{{age}} years", expected: "30 years"},
		{name: "float", input: "score {{score}}", expected: "score 7.5"},
		{name: "integral float", input: "total {{total}}", expected: "total 120"},
		{name: "bool", input: "vip={{vip}}", expected: "vip=true"},
		{name: "nested path", input: "from {{trigger.profile.city}}", expected: "from Lisbon"},
		{name: "slice as json", input: "{{tags}}", expected: `["a","b"]`},
		{name: "nil value", input: "[{{none}}]", expected: "[]"},
		{name: "unknown placeholder", input: "Hi {{missing}}", expected: "Hi {{missing}}"},
		{name: "unknown nested", input: "{{trigger.profile.zip}}", expected: "{{trigger.profile.zip}}"},
		{name: "multiple", input: "{{name}} is {{age}}, {{missing}}", expected: "John is 30, {{missing}}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Interpolate(tc.input, vars))
		})
	}
}

func TestInterpolate_NilVars(t *testing.T) {
	assert.Equal(t, "Hi {{name}}", Interpolate("Hi {{name}}", nil))
}

func TestInterpolate_Idempotent(t *testing.T) {
	vars := map[string]any{"name": "John"}

	once := Interpolate("Hello {{name}} and {{missing}}", vars)
	twice := Interpolate(once, vars)

	assert.Equal(t, once, twice)
}

func TestInterpolateAll(t *testing.T) {
	out := InterpolateAll([]string{"{{a}}", "b", "{{c}}"}, map[string]any{"a": "x"})
	assert.Equal(t, []string{"x", "b", "{{c}}"}, out)
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders("Hi {{ name }}"))
	assert.False(t, HasPlaceholders("Hi {name}"))
}

func TestRenderWithContext(t *testing.T) {
	execCtx := &models.ExecutionContext{
		ContactID:      "contact-1",
		ConversationID: "conv-1",
		TriggerData:    map[string]any{"source": "ad"},
		Variables:      map[string]any{"answer": "Yes"},
	}

	out := RenderWithContext("{{answer}} from {{trigger.source}} ({{contactId}}/{{conversationId}})", execCtx)
	assert.Equal(t, "Yes from ad (contact-1/conv-1)", out)
}
