package conditions

import (
	"sync"
	"testing"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func keyword(matchType models.MatchType, values ...string) *models.ConditionData {
	return &models.ConditionData{ConditionType: models.ConditionKeyword, MatchType: matchType, Values: values}
}

func TestEvaluate_Keyword(t *testing.T) {
	testCases := []struct {
		name     string
		data     *models.ConditionData
		message  string
		expected Result
	}{
		{
			name:     "any matches",
			data:     keyword(models.MatchAny, "refund", "cancel"),
			message:  "I want to cancel my order",
			expected: Result{ConditionMet: true, MatchedKeyword: "cancel"},
		},
		{
			name:     "any no match",
			data:     keyword(models.MatchAny, "refund", "cancel"),
			message:  "hello",
			expected: Result{},
		},
		{
			name:     "any is default match type",
			data:     keyword("", "Refund"),
			message:  "REFUND please",
			expected: Result{ConditionMet: true, MatchedKeyword: "refund"},
		},
		{
			name:     "all requires every keyword",
			data:     keyword(models.MatchAll, "order", "cancel"),
			message:  "cancel my order",
			expected: Result{ConditionMet: true, MatchedKeyword: "order,cancel"},
		},
		{
			name:     "all missing one",
			data:     keyword(models.MatchAll, "order", "refund"),
			message:  "cancel my order",
			expected: Result{},
		},
		{
			name:     "exact match trims and lowers",
			data:     keyword(models.MatchExact, "yes", "sim"),
			message:  "  YES ",
			expected: Result{ConditionMet: true, MatchedKeyword: "yes"},
		},
		{
			name:     "exact rejects substring",
			data:     keyword(models.MatchExact, "yes"),
			message:  "yes please",
			expected: Result{},
		},
		{
			name:     "empty keyword list",
			data:     keyword(models.MatchAny),
			message:  "anything",
			expected: Result{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Evaluate(tc.data, tc.message, nil))
		})
	}
}

func TestEvaluate_Regex(t *testing.T) {
	regex := func(pattern string) *models.ConditionData {
		return &models.ConditionData{ConditionType: models.ConditionRegex, Values: []string{pattern}}
	}

	result := Evaluate(regex(`order #?(\d+)`), "Where is ORDER #123?", nil)
	assert.True(t, result.ConditionMet)
	assert.Equal(t, "ORDER #123", result.MatchedKeyword)

	assert.False(t, Evaluate(regex(`^\d{5}$`), "1234", nil).ConditionMet)
	assert.False(t, Evaluate(regex(`([unclosed`), "([unclosed", nil).ConditionMet)
	assert.False(t, Evaluate(&models.ConditionData{ConditionType: models.ConditionRegex}, "x", nil).ConditionMet)
}

func TestEvaluate_Variable(t *testing.T) {
	vars := map[string]any{
		"plan":    "premium",
		"answer":  "Yes please",
		"count":   0,
		"enabled": true,
	}

	testCases := []struct {
		expression string
		expected   bool
	}{
		{expression: "{{plan}} === premium", expected: true},
		{expression: `{{plan}} === "premium"`, expected: true},
		{expression: "{{plan}} === basic", expected: false},
		{expression: "{{plan}} !== basic", expected: true},
		{expression: "{{answer}} contains yes", expected: true},
		{expression: "{{answer}} contains no", expected: false},
		{expression: "{{enabled}}", expected: true},
		{expression: "{{count}}", expected: false},
		{expression: "{{missing}}", expected: false},
		{expression: "{{missing}} !== basic", expected: false},
		{expression: "", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.expression, func(t *testing.T) {
			data := &models.ConditionData{ConditionType: models.ConditionVariable, Values: []string{tc.expression}}
			assert.Equal(t, tc.expected, Evaluate(data, "", vars).ConditionMet)
		})
	}
}

func TestEvaluate_Expression(t *testing.T) {
	expression := func(source string) *models.ConditionData {
		return &models.ConditionData{ConditionType: models.ConditionExpression, Values: []string{source}}
	}

	vars := map[string]any{"age": 21, "plan": "premium"}

	assert.True(t, Evaluate(expression(`age >= 18 && plan == "premium"`), "", vars).ConditionMet)
	assert.False(t, Evaluate(expression(`age < 18`), "", vars).ConditionMet)
	assert.True(t, Evaluate(expression(`lastUserMessage contains "help"`), "I need help", vars).ConditionMet)
	assert.False(t, Evaluate(expression(`age +`), "", vars).ConditionMet, "compile errors are not met")
	assert.False(t, Evaluate(expression(`plan`), "", vars).ConditionMet, "non-boolean results are not met")
}

func TestEvaluate_UnknownType(t *testing.T) {
	data := &models.ConditionData{ConditionType: "sentiment", Values: []string{"positive"}}
	assert.Equal(t, Result{}, Evaluate(data, "great!", nil))
	assert.Equal(t, Result{}, Evaluate(nil, "great!", nil))
}

func TestEvaluator_ConcurrentUse(t *testing.T) {
	evaluator := NewEvaluator()
	data := &models.ConditionData{ConditionType: models.ConditionRegex, Values: []string{`hel+o`}}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.True(t, evaluator.Evaluate(data, "hello", nil).ConditionMet)
		}()
	}

	wg.Wait()
}
