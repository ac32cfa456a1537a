package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/service"
)

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <notebook.ipynb>",
		Short: "Browse cells, tutor decisions and context in a terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := loadNotebook(args[0])
			if err != nil {
				return err
			}
			p := tea.NewProgram(
				newBrowseModel(cmd.Context(), app, nb),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			return err
		},
	}
}

// decisionsLoadedMsg carries the per-cell decisions for the whole notebook.
type decisionsLoadedMsg struct {
	decisions []service.Decision
	err       error
}

// contextLoadedMsg carries the rendered context preview for one cell.
type contextLoadedMsg struct {
	cell    int
	content string
	err     error
}

// browseModel lists the notebook's cells with their chat badges and shows
// the hidden context for the selected cell in a scrollable pane.
type browseModel struct {
	ctx context.Context
	app *App
	nb  *notebook.Notebook

	decisions []service.Decision
	cursor    int
	offset    int
	loading   bool
	err       error
	status    string

	preview     viewport.Model
	previewCell int

	width, height int
}

func newBrowseModel(ctx context.Context, app *App, nb *notebook.Notebook) *browseModel {
	vp := viewport.New(0, 0)
	vp.KeyMap = previewKeyMap()
	return &browseModel{
		ctx:         ctx,
		app:         app,
		nb:          nb,
		loading:     true,
		preview:     vp,
		previewCell: -1,
	}
}

// previewKeyMap leaves letters and arrows to the cell list; only paging
// keys scroll the preview.
func previewKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
	}
}

var browseKeys = struct {
	Up, Down, Proactive, Refresh, Quit key.Binding
}{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Proactive: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "toggle proactive")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadDecisions()
}

func (m *browseModel) loadDecisions() tea.Cmd {
	ctx, tutor, nb := m.ctx, m.app.Tutor, m.nb
	return func() tea.Msg {
		ds, err := tutor.DecideAll(ctx, nb)
		return decisionsLoadedMsg{decisions: ds, err: err}
	}
}

func (m *browseModel) loadPreview(cell int) tea.Cmd {
	ctx, tutor, nb := m.ctx, m.app.Tutor, m.nb
	return func() tea.Msg {
		bundle, err := tutor.BuildContext(ctx, nb, cell, service.ContextOptions{})
		if err != nil {
			return contextLoadedMsg{cell: cell, err: err}
		}
		return contextLoadedMsg{cell: cell, content: formatter.FormatContext(bundle)}
	}
}

func (m *browseModel) toggleProactive() tea.Cmd {
	ctx, prefs, path := m.ctx, m.app.Preferences, m.nb.Path
	return func() tea.Msg {
		p, err := prefs.Get(ctx, path)
		if err == nil {
			err = prefs.SetProactive(ctx, path, !p.ProactiveEnabled)
		}
		if err != nil {
			return decisionsLoadedMsg{err: err}
		}
		return refreshMsg{}
	}
}

// refreshMsg asks the model to reload decisions.
type refreshMsg struct{}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.preview.Width = msg.Width
		m.preview.Height = max(m.height-m.listHeight()-4, 3)
		return m, nil

	case decisionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.decisions = msg.decisions
		m.cursor = min(m.cursor, max(len(m.decisions)-1, 0))
		m.previewCell = -1
		return m, m.selectCell()

	case contextLoadedMsg:
		if msg.cell != m.cursor {
			return m, nil
		}
		m.previewCell = msg.cell
		if msg.err != nil {
			m.preview.SetContent(formatter.StyleRed.Render(msg.err.Error()))
		} else {
			m.preview.SetContent(msg.content)
		}
		m.preview.GotoTop()
		return m, nil

	case refreshMsg:
		m.loading = true
		m.status = ""
		return m, m.loadDecisions()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browseKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, m.selectCell()
		case key.Matches(msg, browseKeys.Down):
			if m.cursor < len(m.decisions)-1 {
				m.cursor++
			}
			return m, m.selectCell()
		case key.Matches(msg, browseKeys.Proactive):
			m.status = "updating preference…"
			return m, m.toggleProactive()
		case key.Matches(msg, browseKeys.Refresh):
			return m, func() tea.Msg { return refreshMsg{} }
		}
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

// selectCell keeps the cursor visible and loads its preview if needed.
func (m *browseModel) selectCell() tea.Cmd {
	if len(m.decisions) == 0 {
		return nil
	}
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.previewCell == m.cursor {
		return nil
	}
	return m.loadPreview(m.cursor)
}

// listHeight is the number of cell rows shown; a third of the screen, or
// every cell before the first WindowSizeMsg.
func (m *browseModel) listHeight() int {
	if m.height == 0 {
		return max(len(m.nb.Cells), 1)
	}
	return max(m.height/3, 3)
}

func (m *browseModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.StyleHeader.Render(m.nb.Path))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.loading:
		b.WriteString(formatter.Dim("Resolving cells…"))
		b.WriteString("\n")
	default:
		end := min(m.offset+m.listHeight(), len(m.decisions))
		for i := m.offset; i < end; i++ {
			b.WriteString(m.renderRow(i))
			b.WriteString("\n")
		}
	}

	rule := strings.Repeat("─", max(m.width, 20))
	b.WriteString(formatter.Dim(rule))
	b.WriteString("\n")
	b.WriteString(m.preview.View())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *browseModel) renderRow(i int) string {
	d := m.decisions[i]
	c := m.nb.Cells[d.CellIndex]

	marker := "  "
	if i == m.cursor {
		marker = formatter.StyleHeader.Render("▸ ")
	}
	text := formatter.Snippet(c.Text, 50)
	if c.HasError {
		text = formatter.StyleRed.Render(text)
	}
	kind := lipgloss.NewStyle().Width(5).Render(formatter.KindLabel(c.Kind))
	badge := lipgloss.NewStyle().Width(14).Render(formatter.ChatBadge(d.Config, d.Proactive))
	row := fmt.Sprintf("%s%3s %s%s%s", marker, strconv.Itoa(d.CellIndex), kind, badge, text)
	if m.width > 0 {
		row = lipgloss.NewStyle().MaxWidth(m.width).Render(row)
	}
	return row
}

func (m *browseModel) renderHelp() string {
	parts := make([]string, 0, 5)
	for _, k := range []key.Binding{browseKeys.Up, browseKeys.Down, browseKeys.Proactive, browseKeys.Refresh, browseKeys.Quit} {
		h := k.Help()
		parts = append(parts, formatter.Bold(h.Key)+" "+formatter.Dim(h.Desc))
	}
	line := strings.Join(parts, formatter.Dim(" · "))
	if m.status != "" {
		line += "  " + formatter.StyleYellow.Render(m.status)
	}
	return line
}
