package service

import "errors"

var (
	// ErrNotebookInactive indicates the activation or deactivation flag
	// turned the tutor off for this notebook.
	ErrNotebookInactive = errors.New("tutor is not active for this notebook")

	// ErrCellOutOfRange indicates a cell index outside the notebook.
	ErrCellOutOfRange = errors.New("cell index out of range")

	// ErrChatDisabled indicates the resolved config disables chat for the cell.
	ErrChatDisabled = errors.New("chat is disabled for this cell")

	// ErrEmptyQuestion indicates a follow-up query with no text.
	ErrEmptyQuestion = errors.New("question is empty")
)
