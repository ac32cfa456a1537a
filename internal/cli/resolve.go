package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

// notebookKey normalises a notebook path so history and preferences are
// keyed the same way regardless of the working directory.
func notebookKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving notebook path %s: %w", path, err)
	}
	return abs, nil
}

// loadNotebook parses path and sets the notebook's Path to its key.
func loadNotebook(path string) (*notebook.Notebook, error) {
	key, err := notebookKey(path)
	if err != nil {
		return nil, err
	}
	return notebook.LoadFile(key)
}

// resolveCellIndex resolves a cell identifier which can be:
//   - A zero-based position ("3")
//   - A position written the way history keys unnamed cells ("#3")
//   - An nbformat cell id
func resolveCellIndex(nb *notebook.Notebook, input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("a cell is required (use --cell with an index or cell id)")
	}
	if i := nb.CellByID(input); i >= 0 {
		return i, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(input, "#")); err == nil {
		if n < 0 || n >= len(nb.Cells) {
			return 0, fmt.Errorf("cell %d out of range (notebook has %d cells)", n, len(nb.Cells))
		}
		return n, nil
	}
	return 0, fmt.Errorf("no cell with id %q in %s", input, filepath.Base(nb.Path))
}
