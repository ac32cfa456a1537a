package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/repository"
)

// FormatThreads lists the chat threads stored for a notebook.
func FormatThreads(notebookPath string, threads []repository.ThreadSummary) string {
	if len(threads) == 0 {
		return Dim("No conversations for "+notebookPath) + "\n"
	}
	rows := make([][]string, len(threads))
	for i, th := range threads {
		rows[i] = []string{
			th.CellID,
			strconv.Itoa(th.Visible),
			Dim(strconv.Itoa(th.Messages - th.Visible)),
		}
	}
	return Header(notebookPath) + "\n" + RenderTable([]string{"CELL", "SHOWN", "HIDDEN"}, rows)
}

// FormatMessages renders a conversation transcript. Hidden messages are
// skipped unless showHidden is set.
func FormatMessages(msgs []chat.Message, showHidden bool, now time.Time) string {
	var b strings.Builder
	shown := 0
	for _, m := range msgs {
		if m.Hidden && !showHidden {
			continue
		}
		shown++
		fmt.Fprintf(&b, "%s  %s\n", RoleLabel(m.Role, m.Hidden), Dim(HumanTimestamp(m.CreatedAt, now)))
		b.WriteString(Indent(messageBody(m), "  "))
		b.WriteString("\n\n")
	}
	if shown == 0 {
		return Dim("No messages.") + "\n"
	}
	return b.String()
}

// FormatReply renders the tutor's answer to a question.
func FormatReply(reply chat.Message, firstQuery bool, images int) string {
	var meta []string
	if firstQuery {
		meta = append(meta, "new conversation")
	}
	if images > 0 {
		meta = append(meta, fmt.Sprintf("%d images attached", images))
	}
	title := "tutor"
	if len(meta) > 0 {
		title += " · " + strings.Join(meta, ", ")
	}
	return RenderBox(title, strings.TrimSpace(reply.Text())) + "\n"
}
