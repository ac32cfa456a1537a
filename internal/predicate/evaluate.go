package predicate

import "github.com/alexanderramin/jupytutor/internal/notebook"

// Evaluate reports whether p holds for the cell at focalIndex within cells.
// It never panics: relative lookups outside the sequence are false, and any
// cell-reading predicate evaluated at an out-of-range focal index is false.
func Evaluate(p Predicate, focalIndex int, cells []notebook.Cell) bool {
	switch p := p.(type) {
	case And:
		for _, child := range p {
			if !Evaluate(child, focalIndex, cells) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range p {
			if Evaluate(child, focalIndex, cells) {
				return true
			}
		}
		return false
	case Not:
		return !Evaluate(p.P, focalIndex, cells)
	case NearbyCell:
		target := focalIndex + p.RelativePosition
		if target < 0 || target >= len(cells) {
			return false
		}
		return Evaluate(p.Matches, target, cells)
	}

	if focalIndex < 0 || focalIndex >= len(cells) {
		return false
	}
	cell := &cells[focalIndex]

	switch p := p.(type) {
	case CellTypeIs:
		return cell.Kind == p.Kind
	case HasError:
		return cell.HasError == p.Want
	case IsEditable:
		return cell.Editable == p.Want
	case ContentMatches:
		return p.Matcher.Match(cell.Text)
	case OutputMatches:
		if cell.OutputText == nil {
			return false
		}
		return p.Matcher.Match(*cell.OutputText)
	case TagsMatch:
		return evaluateTags(p, cell.Tags)
	}

	return false
}

func evaluateTags(p TagsMatch, tags []string) bool {
	anyTagMatches := func(m StringMatcher) bool {
		for _, tag := range tags {
			if m.Match(tag) {
				return true
			}
		}
		return false
	}

	switch p.Quantifier {
	case QuantAll:
		for _, m := range p.Matchers {
			if !anyTagMatches(m) {
				return false
			}
		}
		return true
	case QuantAny:
		for _, m := range p.Matchers {
			if anyTagMatches(m) {
				return true
			}
		}
	}
	return false
}
