package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/predicate"
	"github.com/alexanderramin/jupytutor/internal/rules"
	"github.com/alexanderramin/jupytutor/internal/service"
)

const previewWidth = 48

// FormatDecisions renders one row per cell: position, kind, chat badge, the
// last matching rule and a source preview.
func FormatDecisions(nb *notebook.Notebook, decisions []service.Decision, rs rules.RuleSet) string {
	rows := make([][]string, 0, len(decisions))
	enabled := 0
	for _, d := range decisions {
		c := nb.Cells[d.CellIndex]
		if d.Config.ChatEnabled {
			enabled++
		}
		rows = append(rows, []string{
			strconv.Itoa(d.CellIndex),
			KindLabel(c.Kind),
			ChatBadge(d.Config, d.Proactive),
			lastRule(rs, d.Matched),
			cellPreview(c),
		})
	}

	var b strings.Builder
	b.WriteString(Header(nb.Path))
	b.WriteString("\n")
	b.WriteString(RenderTable([]string{"#", "KIND", "CHAT", "RULE", "CELL"}, rows))
	b.WriteString(Dim(fmt.Sprintf("%d of %d cells have chat enabled", enabled, len(decisions))))
	b.WriteString("\n")
	return b.String()
}

// FormatDecision explains the resolution for a single cell: every matching
// rule in order and the resulting configuration.
func FormatDecision(nb *notebook.Notebook, d service.Decision, rs rules.RuleSet) string {
	c := nb.Cells[d.CellIndex]

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Header(fmt.Sprintf("cell %d", d.CellIndex)))
	fmt.Fprintf(&b, "%s %s  %s\n", KindLabel(c.Kind), TruncID(d.CellID), Dim(cellPreview(c)))
	fmt.Fprintf(&b, "Chat:  %s\n", ChatBadge(d.Config, d.Proactive))

	if len(d.Matched) == 0 {
		b.WriteString(Dim("No rules matched; defaults apply.") + "\n")
	} else {
		b.WriteString("\nMatched rules (later wins):\n")
		for _, i := range d.Matched {
			r := rs[i]
			fmt.Fprintf(&b, "  %s %s\n", StyleYellow.Render(r.Label(i)), Dim(predicate.Describe(r.When)))
		}
	}

	if qr := d.Config.QuickResponses; len(qr) > 0 {
		b.WriteString("\nQuick responses:\n")
		for _, q := range qr {
			fmt.Fprintf(&b, "  • %s\n", q)
		}
	}
	if note := d.Config.InstructorNote; note != "" {
		fmt.Fprintf(&b, "\nInstructor note:\n%s\n", Indent(note, "  "))
	}
	return b.String()
}

func lastRule(rs rules.RuleSet, matched []int) string {
	if len(matched) == 0 {
		return Dim("--")
	}
	i := matched[len(matched)-1]
	if i < 0 || i >= len(rs) {
		return Dim("rule " + strconv.Itoa(i))
	}
	return rs[i].Label(i)
}

func cellPreview(c notebook.Cell) string {
	if c.IsBlank() {
		return "(blank)"
	}
	if c.Text == "" {
		return fmt.Sprintf("(%d images)", len(c.ImageSources))
	}
	return Snippet(c.Text, previewWidth)
}
