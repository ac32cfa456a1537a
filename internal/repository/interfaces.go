package repository

import (
	"context"

	"github.com/alexanderramin/jupytutor/internal/chat"
)

// Thread identifies one chat history: a cell within a notebook.
type Thread struct {
	NotebookPath string
	CellID       string
}

// ThreadSummary describes a stored thread for listings.
type ThreadSummary struct {
	Thread
	Messages int
	Visible  int
}

// Preferences are per-notebook settings the student can change.
type Preferences struct {
	NotebookPath     string
	ProactiveEnabled bool
}

type HistoryRepo interface {
	// Append stores msgs at the end of the thread, assigning ids and
	// timestamps where missing. The stored messages are returned.
	Append(ctx context.Context, th Thread, msgs ...chat.Message) ([]chat.Message, error)
	List(ctx context.Context, th Thread) ([]chat.Message, error)
	ListThreads(ctx context.Context, notebookPath string) ([]ThreadSummary, error)
	Delete(ctx context.Context, ids ...string) error
	Clear(ctx context.Context, th Thread) (int, error)
}

type PreferenceRepo interface {
	// Get returns the stored preferences, or the defaults when none exist.
	Get(ctx context.Context, notebookPath string) (Preferences, error)
	Upsert(ctx context.Context, p Preferences) error
}
