// Package predicate implements the boolean expression language used by rule
// sets to select notebook cells. A Predicate is a closed tree of variants; the
// only behaviour is Evaluate, which is pure and total.
package predicate

import "github.com/alexanderramin/jupytutor/internal/notebook"

// Predicate is a boolean expression over a focal cell and the cell sequence
// around it. The set of implementations is closed to this package.
type Predicate interface {
	isPredicate()
}

// And is true when every child is true. An empty And is vacuously true.
type And []Predicate

// Or is true when some child is true. An empty Or is false.
type Or []Predicate

// Not negates its child.
type Not struct {
	P Predicate
}

// CellTypeIs matches the focal cell's kind.
type CellTypeIs struct {
	Kind notebook.CellKind
}

// HasError matches the focal cell's error state.
type HasError struct {
	Want bool
}

// IsEditable matches the focal cell's editable flag.
type IsEditable struct {
	Want bool
}

// ContentMatches tests the focal cell's source text.
type ContentMatches struct {
	Matcher StringMatcher
}

// OutputMatches tests the focal cell's output text. It is always false for
// cells without output.
type OutputMatches struct {
	Matcher StringMatcher
}

type Quantifier string

const (
	QuantAny Quantifier = "any"
	QuantAll Quantifier = "all"
)

// TagsMatch tests the focal cell's tag set. With QuantAny some matcher must
// match some tag; with QuantAll every matcher must match at least one tag.
type TagsMatch struct {
	Quantifier Quantifier
	Matchers   []StringMatcher
}

// NearbyCell evaluates Matches against the cell at focal+RelativePosition.
// Positions outside the sequence are false.
type NearbyCell struct {
	RelativePosition int
	Matches          Predicate
}

func (And) isPredicate()            {}
func (Or) isPredicate()             {}
func (Not) isPredicate()            {}
func (CellTypeIs) isPredicate()     {}
func (HasError) isPredicate()       {}
func (IsEditable) isPredicate()     {}
func (ContentMatches) isPredicate() {}
func (OutputMatches) isPredicate()  {}
func (TagsMatch) isPredicate()      {}
func (NearbyCell) isPredicate()     {}

// Always is the unconditional predicate used by catch-all rules.
var Always Predicate = And{}
