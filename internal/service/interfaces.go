package service

import (
	"context"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/repository"
	"github.com/alexanderramin/jupytutor/internal/rules"
	"github.com/alexanderramin/jupytutor/internal/textbook"
	"github.com/alexanderramin/jupytutor/internal/window"
)

// Decision is the tutor's behaviour for one cell.
type Decision struct {
	CellIndex int
	CellID    string
	Config    rules.ResolvedCellConfig
	// Matched holds the indices of the rules that applied, in order.
	Matched []int
	// Proactive is the resolved flag gated by the notebook preference.
	Proactive bool
}

// ContextOptions tunes BuildContext. Zero values use the service defaults.
type ContextOptions struct {
	Scope           window.Scope
	IncludeTextbook *bool
}

// ContextBundle is the hidden context and images for one cell.
type ContextBundle struct {
	Window          []notebook.Cell
	Messages        []chat.Message
	Images          []string
	TextbookSources []string
}

// AskResult describes one completed query.
type AskResult struct {
	Decision   Decision
	FirstQuery bool
	// Added holds the messages persisted before the model call.
	Added  []chat.Message
	Reply  chat.Message
	Images int
}

type TutorService interface {
	Decide(ctx context.Context, nb *notebook.Notebook, cellIndex int) (Decision, error)
	DecideAll(ctx context.Context, nb *notebook.Notebook) ([]Decision, error)
	BuildContext(ctx context.Context, nb *notebook.Notebook, cellIndex int, opts ContextOptions) (*ContextBundle, error)
	Ask(ctx context.Context, nb *notebook.Notebook, cellIndex int, question string) (*AskResult, error)
}

type HistoryService interface {
	List(ctx context.Context, notebookPath, cellID string) ([]chat.Message, error)
	Threads(ctx context.Context, notebookPath string) ([]repository.ThreadSummary, error)
	Clear(ctx context.Context, notebookPath, cellID string) (int, error)
}

type PreferenceService interface {
	Get(ctx context.Context, notebookPath string) (repository.Preferences, error)
	SetProactive(ctx context.Context, notebookPath string, enabled bool) error
}

// TextbookSource hands out the retriever for a notebook's linked material.
// *textbook.Service satisfies it.
type TextbookSource interface {
	ForNotebook(nb *notebook.Notebook) textbook.Retriever
}
