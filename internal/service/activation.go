package service

import (
	"strings"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

// Activation gates the tutor per notebook.
type Activation struct {
	// Flag, when set, must appear as a tag on some cell.
	Flag string
	// DeactivationFlag, when set and found in any code cell's source,
	// turns the tutor off.
	DeactivationFlag string
}

// Active reports whether the tutor should run for nb.
func (a Activation) Active(nb *notebook.Notebook) bool {
	if a.Flag != "" {
		found := false
		for _, c := range nb.Cells {
			if c.HasTag(a.Flag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if a.DeactivationFlag != "" {
		for _, c := range nb.Cells {
			if c.Kind == notebook.KindCode && strings.Contains(c.Text, a.DeactivationFlag) {
				return false
			}
		}
	}
	return true
}
