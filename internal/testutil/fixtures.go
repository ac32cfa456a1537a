package testutil

import (
	"fmt"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

// Cell options
type CellOption func(*notebook.Cell)

func WithID(id string) CellOption {
	return func(c *notebook.Cell) {
		c.ID = id
	}
}

func WithOutput(text string) CellOption {
	return func(c *notebook.Cell) {
		c.OutputText = notebook.StrPtr(text)
	}
}

func WithError(text string) CellOption {
	return func(c *notebook.Cell) {
		c.OutputText = notebook.StrPtr(text)
		c.HasError = true
	}
}

func WithTags(tags ...string) CellOption {
	return func(c *notebook.Cell) {
		c.Tags = tags
	}
}

func WithImages(srcs ...string) CellOption {
	return func(c *notebook.Cell) {
		c.ImageSources = srcs
	}
}

func WithLinks(links ...string) CellOption {
	return func(c *notebook.Cell) {
		c.Links = links
	}
}

func ReadOnly() CellOption {
	return func(c *notebook.Cell) {
		c.Editable = false
	}
}

func NewCodeCell(text string, opts ...CellOption) notebook.Cell {
	return newCell(notebook.KindCode, text, opts)
}

func NewMarkdownCell(text string, opts ...CellOption) notebook.Cell {
	return newCell(notebook.KindMarkdown, text, opts)
}

func newCell(kind notebook.CellKind, text string, opts []CellOption) notebook.Cell {
	c := notebook.Cell{Kind: kind, Text: text, Editable: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewTestNotebook numbers the cells, filling in ids and positions.
func NewTestNotebook(path string, cells ...notebook.Cell) *notebook.Notebook {
	nb := &notebook.Notebook{Path: path, Cells: make([]notebook.Cell, len(cells))}
	for i, c := range cells {
		if c.ID == "" {
			c.ID = fmt.Sprintf("cell-%d", i)
		}
		c.Position = i
		nb.Cells[i] = c
	}
	return nb
}

// NewHomeworkNotebook returns a small assignment: a question prompt, a
// failing attempt, a passing grader check and a free-response answer.
func NewHomeworkNotebook() *notebook.Notebook {
	return NewTestNotebook("hw01.ipynb",
		NewMarkdownCell("# Homework 1", ReadOnly(), WithLinks("https://inferentialthinking.com/chapters/01/what-is-data-science.html")),
		NewMarkdownCell("**Question 1.** Compute the mean of `xs`.", ReadOnly()),
		NewCodeCell("mean = sum(xs) / len(ys)", WithError("NameError: name 'ys' is not defined")),
		NewCodeCell("grader.check(\"q1\")", ReadOnly(), WithOutput("q1 results: All test cases passed!")),
		NewMarkdownCell("**Question 2.** Explain your answer. (2 points)", ReadOnly()),
		NewMarkdownCell("_Type your answer here._"),
		NewCodeCell("plt.hist(xs)", WithOutput("[Image output]"), WithImages("data:image/png;base64,iVBOR")),
	)
}
