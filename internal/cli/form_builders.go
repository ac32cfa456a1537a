package cli

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
)

// ownQuestion is the sentinel option value for typing a free-form question.
const ownQuestion = "\x00own"

func tutorHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// quickResponseForm offers the cell's quick responses plus a free-form
// option. The chosen response (or ownQuestion) is written to choice.
func quickResponseForm(quick []string, choice *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(quick)+1)
	for _, q := range quick {
		options = append(options, huh.NewOption(q, q))
	}
	options = append(options, huh.NewOption("Something else…", ownQuestion))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What would you like to ask?").
				Options(options...).
				Value(choice),
		),
	).WithTheme(tutorHuhTheme()).WithShowHelp(false)
}

// questionForm collects a free-form question. firstQuery allows a blank
// answer, which lets the tutor look at the attempt unprompted.
func questionForm(firstQuery bool, question *string) *huh.Form {
	input := huh.NewInput().
		Title("Your question").
		Value(question)
	if firstQuery {
		input = input.Description("Leave blank to have the tutor review your attempt.")
	} else {
		input = input.Validate(validateQuestion)
	}
	return huh.NewForm(huh.NewGroup(input)).WithTheme(tutorHuhTheme()).WithShowHelp(false)
}
