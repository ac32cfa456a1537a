// Package window selects which notebook cells and images around an active
// cell become conversation context.
package window

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

// Scope is a slicing policy around the active cell.
type Scope string

const (
	ScopeWhole      Scope = "whole"
	ScopeUpToGrader Scope = "upToGrader"
	ScopeFiveAround Scope = "fiveAround"
	ScopeTenAround  Scope = "tenAround"
	ScopeNone       Scope = "none"
)

// DefaultScope is the scope used when none is configured.
const DefaultScope = ScopeUpToGrader

var validScopes = map[Scope]bool{
	ScopeWhole: true, ScopeUpToGrader: true, ScopeFiveAround: true,
	ScopeTenAround: true, ScopeNone: true,
}

// ParseScope accepts a scope name case-insensitively.
func ParseScope(s string) (Scope, error) {
	for scope := range validScopes {
		if strings.EqualFold(string(scope), s) {
			return scope, nil
		}
	}
	return "", fmt.Errorf("unknown context scope %q (want whole, upToGrader, fiveAround, tenAround or none)", s)
}

// SelectWindow drops blank cells, locates the active cell among the
// survivors by its original position, and slices per scope. Bounds are
// clamped; when the active cell is blank or out of range the filtered index
// is -1 and the around scopes degrade to a window anchored at the start.
// The returned slice never aliases cells.
func SelectWindow(cells []notebook.Cell, activeIndex int, scope Scope) []notebook.Cell {
	filtered := make([]notebook.Cell, 0, len(cells))
	i := -1
	for idx, c := range cells {
		if c.IsBlank() {
			continue
		}
		if idx == activeIndex {
			i = len(filtered)
		}
		filtered = append(filtered, c)
	}
	n := len(filtered)

	switch scope {
	case ScopeWhole:
		return filtered
	case ScopeUpToGrader:
		return filtered[:clamp(i+1, 0, n)]
	case ScopeFiveAround:
		return around(filtered, i, 5)
	case ScopeTenAround:
		return around(filtered, i, 10)
	case ScopeNone:
		if i < 0 {
			return []notebook.Cell{}
		}
		return filtered[i : i+1]
	}
	return []notebook.Cell{}
}

func around(cells []notebook.Cell, i, radius int) []notebook.Cell {
	n := len(cells)
	lo := clamp(i-radius, 0, n)
	hi := clamp(i+radius, 0, n)
	return cells[lo:hi]
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
