package window

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

func codeWithImages(imgs ...string) notebook.Cell {
	return notebook.Cell{Kind: notebook.KindCode, Text: "plot()", ImageSources: imgs}
}

func markdownWithImages(imgs ...string) notebook.Cell {
	return notebook.Cell{Kind: notebook.KindMarkdown, Text: "figure", ImageSources: imgs}
}

func plain() notebook.Cell {
	return notebook.Cell{Kind: notebook.KindCode, Text: "x = 1"}
}

func TestGatherImages(t *testing.T) {
	tests := []struct {
		name      string
		cells     []notebook.Cell
		active    int
		maxGoBack int
		maxImages int
		want      []string
	}{
		{
			name: "lookback exhausts before boundary cell",
			cells: []notebook.Cell{
				plain(), plain(), markdownWithImages("md"),
				codeWithImages("c3a", "c3b"), codeWithImages("c4a", "c4b"), codeWithImages("c5a", "c5b"),
			},
			active: 5, maxGoBack: 3, maxImages: 5,
			want: []string{"c5a", "c5b", "c4a", "c4b", "c3a"},
		},
		{
			name: "non-code cell with images stops the scan",
			cells: []notebook.Cell{
				codeWithImages("old"), markdownWithImages("md1", "md2"), plain(), codeWithImages("new"),
			},
			active: 3, maxGoBack: 10, maxImages: 5,
			want: []string{"new", "md1", "md2"},
		},
		{
			name: "cells without images are skipped",
			cells: []notebook.Cell{
				codeWithImages("a"), plain(), plain(), plain(),
			},
			active: 3, maxGoBack: 10, maxImages: 5,
			want: []string{"a"},
		},
		{
			name:   "index zero is reachable",
			cells:  []notebook.Cell{codeWithImages("zero"), plain()},
			active: 1, maxGoBack: 2, maxImages: 5,
			want: []string{"zero"},
		},
		{
			name:   "active markdown cell contributes and stops",
			cells:  []notebook.Cell{codeWithImages("before"), markdownWithImages("self")},
			active: 1, maxGoBack: 10, maxImages: 5,
			want: []string{"self"},
		},
		{
			name:   "zero lookback visits nothing",
			cells:  []notebook.Cell{codeWithImages("a")},
			active: 0, maxGoBack: 0, maxImages: 5,
			want: []string{},
		},
		{
			name:   "zero max images",
			cells:  []notebook.Cell{codeWithImages("a")},
			active: 0, maxGoBack: 5, maxImages: 0,
			want: []string{},
		},
		{
			name:   "active past end skips missing cells",
			cells:  []notebook.Cell{codeWithImages("a"), codeWithImages("b")},
			active: 4, maxGoBack: 4, maxImages: 5,
			want: []string{"b"},
		},
		{
			name:   "negative active",
			cells:  []notebook.Cell{codeWithImages("a")},
			active: -1, maxGoBack: 10, maxImages: 5,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GatherImages(tt.cells, tt.active, tt.maxGoBack, tt.maxImages)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GatherImages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGatherImages_Defaults(t *testing.T) {
	cells := make([]notebook.Cell, 0, 12)
	for i := 0; i < 12; i++ {
		cells = append(cells, codeWithImages(string(rune('a'+i))))
	}

	got := GatherImages(cells, 11, DefaultMaxGoBack, DefaultMaxImages)
	assert.Equal(t, []string{"l", "k", "j", "i", "h"}, got)
}
