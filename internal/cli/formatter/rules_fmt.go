package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/jupytutor/internal/predicate"
	"github.com/alexanderramin/jupytutor/internal/rules"
)

// FormatRuleSet summarises a rule set in evaluation order.
func FormatRuleSet(source string, rs rules.RuleSet) string {
	rows := make([][]string, len(rs))
	for i, r := range rs {
		rows[i] = []string{
			strconv.Itoa(i),
			r.Label(i),
			patchSummary(r.Config),
			Snippet(predicate.Describe(r.When), previewWidth),
		}
	}
	var b strings.Builder
	b.WriteString(Header(source))
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"#", "RULE", "SETS", "WHEN"}, rows))
	b.WriteString(StyleGreen.Render(fmt.Sprintf("✔ %d rules valid", len(rs))))
	b.WriteString("\n")
	return b.String()
}

func patchSummary(p rules.ConfigPatch) string {
	if p.IsEmpty() {
		return Dim("nothing")
	}
	var parts []string
	if p.ChatEnabled != nil {
		parts = append(parts, fmt.Sprintf("chat=%t", *p.ChatEnabled))
	}
	if p.ChatProactive != nil {
		parts = append(parts, fmt.Sprintf("proactive=%t", *p.ChatProactive))
	}
	if p.QuickResponses != nil {
		parts = append(parts, fmt.Sprintf("quick=%d", len(p.QuickResponses)))
	}
	if p.InstructorNote != nil {
		parts = append(parts, "note")
	}
	return strings.Join(parts, " ")
}
