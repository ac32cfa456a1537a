package chat

import "github.com/alexanderramin/jupytutor/internal/notebook"

const (
	outputSeparator = "\nThe above code produced the following output:\n"

	textbookIntro = "The following is reference material from the course textbook " +
		"linked in this notebook. Use it to ground explanations in the terms " +
		"and methods the course teaches, and do not cite material from outside it " +
		"when the textbook covers the topic."
)

// CellMessage renders one cell as a hidden system message. Code cells that
// produced non-empty output carry the source followed by the output as a
// second part.
func CellMessage(c notebook.Cell) Message {
	if c.Kind == notebook.KindCode && c.OutputText != nil && *c.OutputText != "" {
		return Message{
			Role: RoleSystem,
			Content: []Part{
				{Text: c.Text + outputSeparator},
				{Text: *c.OutputText},
			},
			Hidden: true,
		}
	}
	return NewMessage(RoleSystem, c.Text, true)
}

// MergeContext orders the hidden context for a conversation: textbook
// material first, then the windowed cells in sequence order, then the
// instructor note. An empty textbook string contributes nothing, so callers
// pass "" when retrieval is disabled, pending or failed. A nil note is
// omitted; a non-nil empty note is kept.
func MergeContext(cells []notebook.Cell, textbook string, instructorNote *string) []Message {
	msgs := make([]Message, 0, len(cells)+3)

	if textbook != "" {
		msgs = append(msgs,
			NewMessage(RoleSystem, textbookIntro, true),
			NewMessage(RoleSystem, textbook, true),
		)
	}

	for _, c := range cells {
		msgs = append(msgs, CellMessage(c))
	}

	if instructorNote != nil {
		msgs = append(msgs, NewMessage(RoleSystem, *instructorNote, true))
	}

	return msgs
}
