package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/rules"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ChatBadge summarises a resolved cell config: off, on, or proactive.
// proactive is the effective flag after the notebook preference.
func ChatBadge(cfg rules.ResolvedCellConfig, proactive bool) string {
	switch {
	case !cfg.ChatEnabled:
		return StyleDim.Render("○ off")
	case proactive:
		return StyleGreen.Render("● proactive")
	case cfg.ChatProactive:
		// Proactive by rule but muted by preference.
		return StyleBlue.Render("◐ on (muted)")
	default:
		return StyleBlue.Render("◐ on")
	}
}

// KindLabel renders a short cell kind marker.
func KindLabel(kind notebook.CellKind) string {
	switch kind {
	case notebook.KindCode:
		return StylePurple.Render("code")
	case notebook.KindMarkdown:
		return StyleFg.Render("md")
	default:
		return StyleDim.Render(string(kind))
	}
}

// RoleLabel renders a message role, marking hidden messages.
func RoleLabel(role chat.Role, hidden bool) string {
	var s string
	switch role {
	case chat.RoleAssistant:
		s = StyleGreen.Render("tutor")
	case chat.RoleUser:
		s = StyleYellow.Render("student")
	default:
		s = StylePurple.Render(string(role))
	}
	if hidden {
		s += Dim(" (hidden)")
	}
	return s
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
