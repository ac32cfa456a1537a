package predicate

import (
	"fmt"
	"strings"
)

// Describe renders p as a compact single-line expression for logs and CLI
// output, e.g. AND(cellType=code, hasError=true).
func Describe(p Predicate) string {
	var b strings.Builder
	describe(&b, p)
	return b.String()
}

func describe(b *strings.Builder, p Predicate) {
	switch p := p.(type) {
	case And:
		if len(p) == 0 {
			b.WriteString("always")
			return
		}
		describeList(b, "AND", p)
	case Or:
		describeList(b, "OR", p)
	case Not:
		b.WriteString("NOT(")
		describe(b, p.P)
		b.WriteByte(')')
	case NearbyCell:
		fmt.Fprintf(b, "cell[%+d](", p.RelativePosition)
		describe(b, p.Matches)
		b.WriteByte(')')
	case CellTypeIs:
		fmt.Fprintf(b, "cellType=%s", p.Kind)
	case HasError:
		fmt.Fprintf(b, "hasError=%t", p.Want)
	case IsEditable:
		fmt.Fprintf(b, "isEditable=%t", p.Want)
	case ContentMatches:
		fmt.Fprintf(b, "content~%s", p.Matcher)
	case OutputMatches:
		fmt.Fprintf(b, "output~%s", p.Matcher)
	case TagsMatch:
		parts := make([]string, len(p.Matchers))
		for i, m := range p.Matchers {
			parts[i] = m.String()
		}
		fmt.Fprintf(b, "tags.%s[%s]", p.Quantifier, strings.Join(parts, ", "))
	default:
		fmt.Fprintf(b, "<%T>", p)
	}
}

func describeList(b *strings.Builder, op string, children []Predicate) {
	b.WriteString(op)
	b.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			b.WriteString(", ")
		}
		describe(b, c)
	}
	b.WriteByte(')')
}
