package formatter

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/repository"
	"github.com/alexanderramin/jupytutor/internal/rules"
	"github.com/alexanderramin/jupytutor/internal/service"
	"github.com/alexanderramin/jupytutor/internal/testutil"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestRenderTable_AlignsStyledCells(t *testing.T) {
	out := stripANSI(RenderTable(
		[]string{"A", "LONGER"},
		[][]string{
			{StyleGreen.Render("green"), "x"},
			{"b"},
		},
	))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A"+strings.Repeat(" ", 6)+"LONGER", lines[0])
	assert.Equal(t, "─────  ──────", lines[1])
	assert.Equal(t, "green  x", lines[2])
	assert.Equal(t, "b"+strings.Repeat(" ", 6), lines[3])

	assert.Empty(t, RenderTable(nil, nil))
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a  b\n\tc", 10, "a b c"},
		{"abcdefghij", 5, "abcd…"},
		{"héllo wörld", 6, "héllo…"},
		{"abc", 0, "abc"},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Snippet(tt.in, tt.n), "Snippet(%q, %d)", tt.in, tt.n)
	}
}

func TestHumanTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "--", HumanTimestamp(time.Time{}, now))
	assert.Equal(t, "Just now", HumanTimestamp(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", HumanTimestamp(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", HumanTimestamp(now.Add(-3*time.Hour), now))
	assert.Contains(t, HumanTimestamp(now.Add(-72*time.Hour), now), "2026")
}

func TestChatBadge(t *testing.T) {
	on := rules.ResolvedCellConfig{ChatEnabled: true}
	pro := rules.ResolvedCellConfig{ChatEnabled: true, ChatProactive: true}

	assert.Equal(t, "○ off", stripANSI(ChatBadge(rules.ResolvedCellConfig{}, false)))
	assert.Equal(t, "◐ on", stripANSI(ChatBadge(on, false)))
	assert.Equal(t, "● proactive", stripANSI(ChatBadge(pro, true)))
	assert.Equal(t, "◐ on (muted)", stripANSI(ChatBadge(pro, false)))
}

func TestFormatDecisions(t *testing.T) {
	nb := testutil.NewHomeworkNotebook()
	rs := rules.DefaultRuleSet()
	cfgs := rules.ResolveAll(rs, nb.Cells)
	decisions := make([]service.Decision, len(cfgs))
	for i, cfg := range cfgs {
		_, matched := rules.Explain(rs, i, nb.Cells)
		decisions[i] = service.Decision{CellIndex: i, CellID: nb.Cells[i].ID, Config: cfg, Matched: matched, Proactive: cfg.ChatProactive}
	}

	out := stripANSI(FormatDecisions(nb, decisions, rs))
	assert.Contains(t, out, "HW01.IPYNB")
	assert.Contains(t, out, "errored-code")
	assert.Contains(t, out, "grader-passed")
	assert.Contains(t, out, "free-response")
	assert.Contains(t, out, "mean = sum(xs) / len(ys)")
	assert.Contains(t, out, "3 of 7 cells have chat enabled")

	detail := stripANSI(FormatDecision(nb, decisions[2], rs))
	assert.Contains(t, detail, "CELL 2")
	assert.Contains(t, detail, "● proactive")
	assert.Contains(t, detail, "disabled-by-default always")
	assert.Contains(t, detail, "errored-code AND(cellType=code, hasError=true)")
	assert.Contains(t, detail, "• What does this error mean?")
	assert.NotContains(t, detail, "Instructor note")
}

func TestFormatContext(t *testing.T) {
	bundle := &service.ContextBundle{
		Messages: []chat.Message{
			chat.NewMessage(chat.RoleSystem, "# Homework 1", true),
			{Role: chat.RoleSystem, Hidden: true, Content: []chat.Part{{Text: "x = 1\n"}, {Text: "1"}}},
		},
		Images:          []string{"data:image/png;base64,iVBORw0K", "https://example.com/plot.png"},
		TextbookSources: []string{"https://inferentialthinking.com/ch1"},
	}

	out := stripANSI(FormatContext(bundle))
	assert.Contains(t, out, "CONTEXT (2 MESSAGES)")
	assert.Contains(t, out, "[1] system (hidden)")
	assert.Contains(t, out, "    # Homework 1")
	assert.Contains(t, out, "    x = 1\n    1")
	assert.Contains(t, out, "image/png (8 bytes inline)")
	assert.Contains(t, out, "https://example.com/plot.png")
	assert.Contains(t, out, "https://inferentialthinking.com/ch1")
}

func TestFormatThreadsAndMessages(t *testing.T) {
	assert.Contains(t, stripANSI(FormatThreads("hw.ipynb", nil)), "No conversations for hw.ipynb")

	threads := []repository.ThreadSummary{{
		Thread:   repository.Thread{NotebookPath: "hw.ipynb", CellID: "cell-2"},
		Messages: 5, Visible: 2,
	}}
	out := stripANSI(FormatThreads("hw.ipynb", threads))
	assert.Contains(t, out, "cell-2")
	assert.Regexp(t, `cell-2\s+2\s+3`, out)

	now := time.Now()
	msgs := []chat.Message{
		chat.NewMessage(chat.RoleSystem, "context", true),
		{Role: chat.RoleUser, Content: []chat.Part{{Text: "Why?"}}, CreatedAt: now},
		{Role: chat.RoleAssistant, Content: []chat.Part{{Text: "Because."}}, CreatedAt: now},
	}
	visible := stripANSI(FormatMessages(msgs, false, now))
	assert.NotContains(t, visible, "context")
	assert.Contains(t, visible, "student  Just now\n  Why?")
	assert.Contains(t, visible, "tutor  Just now\n  Because.")

	all := stripANSI(FormatMessages(msgs, true, now))
	assert.Contains(t, all, "system (hidden)")

	assert.Contains(t, stripANSI(FormatMessages(msgs[:1], false, now)), "No messages.")
}

func TestFormatReply(t *testing.T) {
	out := stripANSI(FormatReply(chat.NewMessage(chat.RoleAssistant, "  Check len(ys).\n", false), true, 2))
	assert.Contains(t, out, "TUTOR · NEW CONVERSATION, 2 IMAGES ATTACHED")
	assert.Contains(t, out, "Check len(ys).")
}

func TestFormatRuleSet(t *testing.T) {
	out := stripANSI(FormatRuleSet("default rules", rules.DefaultRuleSet()))
	assert.Contains(t, out, "DEFAULT RULES")
	assert.Contains(t, out, "chat=false proactive=false")
	assert.Contains(t, out, "chat=true proactive=true quick=2")
	assert.Contains(t, out, "✔ 6 rules valid")
}

func TestStartSpinner_DisabledDrawsNothing(t *testing.T) {
	var buf bytes.Buffer
	stop := StartSpinner(&buf, "thinking", false)
	stop()
	assert.Empty(t, buf.String())
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "thinking")
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()
	s.Stop()
	// Stop waits for the drawing goroutine, so buf is safe to read.
	assert.Contains(t, stripANSI(buf.String()), "thinking")
}
