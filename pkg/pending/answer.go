package pending

import (
	"strconv"
	"strings"

	"github.com/dukex/convoflow/pkg/models"
)

// Answer is the effective reply to a question.
type Answer struct {
	Text     string
	ButtonID string
}

// ResolveAnswer turns an inbound message into the answer to wait. A
// structured button reply wins; free text is matched against the expected
// buttons by exact text, then 1-based index, then substring. Unmatched text
// is returned as is.
func ResolveAnswer(wait *models.PendingWait, msg models.InboundMessage) Answer {
	if reply := msg.ButtonReply; reply != nil && reply.ID != "" {
		text := reply.Title

		for _, button := range wait.Buttons {
			if button.ID == reply.ID && text == "" {
				text = button.Text
			}
		}

		if text == "" {
			text = strings.TrimSpace(msg.Text)
		}

		return Answer{Text: text, ButtonID: reply.ID}
	}

	raw := strings.TrimSpace(msg.Text)
	if len(wait.Buttons) == 0 || raw == "" {
		return Answer{Text: raw}
	}

	lowered := strings.ToLower(raw)

	for _, button := range wait.Buttons {
		if strings.ToLower(strings.TrimSpace(button.Text)) == lowered {
			return Answer{Text: button.Text, ButtonID: button.ID}
		}
	}

	if index, err := strconv.Atoi(raw); err == nil && index >= 1 && index <= len(wait.Buttons) {
		button := wait.Buttons[index-1]

		return Answer{Text: button.Text, ButtonID: button.ID}
	}

	for _, button := range wait.Buttons {
		label := strings.ToLower(strings.TrimSpace(button.Text))
		if label != "" && strings.Contains(lowered, label) {
			return Answer{Text: button.Text, ButtonID: button.ID}
		}
	}

	return Answer{Text: raw}
}

// Apply stores answer in vars under the wait's saveAs name, plus
// <saveAs>_button_id when a button was resolved.
func Apply(vars map[string]any, wait *models.PendingWait, answer Answer) {
	if wait.SaveAs == "" {
		return
	}

	vars[wait.SaveAs] = answer.Text

	if answer.ButtonID != "" {
		vars[wait.SaveAs+"_button_id"] = answer.ButtonID
	}
}
