package notebook

type CellKind string

const (
	KindCode     CellKind = "code"
	KindMarkdown CellKind = "markdown"
	KindUnknown  CellKind = "unknown"
)

// ValidCellKinds is the canonical set of accepted cell kind strings.
var ValidCellKinds = map[string]bool{
	"code": true, "markdown": true, "unknown": true,
}

// Cell is one notebook cell in document order. Cells are treated as
// immutable values once parsed.
type Cell struct {
	ID       string
	Kind     CellKind
	Text     string
	Tags     []string
	Editable bool

	// OutputText is nil when the cell has not produced output.
	OutputText *string
	HasError   bool

	// ImageSources are opaque references (URLs or data URLs), not image bytes.
	ImageSources []string
	Links        []string

	// Position is the zero-based index within the full cell sequence.
	Position int
}

// HasOutput reports whether the cell carries executed output.
func (c Cell) HasOutput() bool {
	return c.OutputText != nil
}

// HasTag reports whether tag is in the cell's tag set.
func (c Cell) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsBlank reports whether the cell contributes nothing to a conversation:
// no image sources and no text.
func (c Cell) IsBlank() bool {
	return len(c.ImageSources) == 0 && c.Text == ""
}

// Notebook is an ordered, parsed view of a notebook file.
type Notebook struct {
	Path  string
	Cells []Cell
}

// Links returns every unique link across all cells, in document order.
func (nb *Notebook) Links() []string {
	seen := make(map[string]bool)
	var links []string
	for _, c := range nb.Cells {
		for _, l := range c.Links {
			if !seen[l] {
				seen[l] = true
				links = append(links, l)
			}
		}
	}
	return links
}

// CellByID returns the index of the cell with the given id, or -1.
// Cells saved without an id never match.
func (nb *Notebook) CellByID(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range nb.Cells {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// StrPtr returns a pointer to s. Useful for building cells with output.
func StrPtr(s string) *string {
	return &s
}
