package pending

import (
	"testing"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveAnswer(t *testing.T) {
	wait := &models.PendingWait{
		Buttons: []models.Button{{ID: "b1", Text: "Yes"}, {ID: "b2", Text: "No"}},
	}

	testCases := []struct {
		name     string
		msg      models.InboundMessage
		expected Answer
	}{
		{name: "numeric index", msg: models.InboundMessage{Text: "1"}, expected: Answer{Text: "Yes", ButtonID: "b1"}},
		{name: "second index", msg: models.InboundMessage{Text: " 2 "}, expected: Answer{Text: "No", ButtonID: "b2"}},
		{name: "exact text ignoring case", msg: models.InboundMessage{Text: "no"}, expected: Answer{Text: "No", ButtonID: "b2"}},
		{name: "substring", msg: models.InboundMessage{Text: "yes, please"}, expected: Answer{Text: "Yes", ButtonID: "b1"}},
		{name: "unrelated text falls back", msg: models.InboundMessage{Text: "maybe"}, expected: Answer{Text: "maybe"}},
		{name: "index out of range", msg: models.InboundMessage{Text: "3"}, expected: Answer{Text: "3"}},
		{
			name:     "structured reply wins over text",
			msg:      models.InboundMessage{Text: "1", ButtonReply: &models.ButtonReply{ID: "b2", Title: "No"}},
			expected: Answer{Text: "No", ButtonID: "b2"},
		},
		{
			name:     "structured reply without title uses button text",
			msg:      models.InboundMessage{ButtonReply: &models.ButtonReply{ID: "b1"}},
			expected: Answer{Text: "Yes", ButtonID: "b1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ResolveAnswer(wait, tc.msg))
		})
	}
}

func TestResolveAnswer_NoButtons(t *testing.T) {
	answer := ResolveAnswer(&models.PendingWait{}, models.InboundMessage{Text: "  Maria  "})
	assert.Equal(t, Answer{Text: "Maria"}, answer)
}

func TestApply(t *testing.T) {
	vars := map[string]any{}
	wait := &models.PendingWait{SaveAs: "confirm"}

	Apply(vars, wait, Answer{Text: "Yes", ButtonID: "b1"})

	assert.Equal(t, "Yes", vars["confirm"])
	assert.Equal(t, "b1", vars["confirm_button_id"])

	vars = map[string]any{}
	Apply(vars, wait, Answer{Text: "maybe"})
	assert.Equal(t, map[string]any{"confirm": "maybe"}, vars)

	vars = map[string]any{}
	Apply(vars, &models.PendingWait{}, Answer{Text: "maybe"})
	assert.Empty(t, vars)
}
