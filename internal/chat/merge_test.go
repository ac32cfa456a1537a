package chat

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

func TestCellMessage(t *testing.T) {
	tests := []struct {
		name string
		cell notebook.Cell
		want []Part
	}{
		{
			name: "code with output",
			cell: notebook.Cell{Kind: notebook.KindCode, Text: "print(1)", OutputText: notebook.StrPtr("1")},
			want: []Part{{Text: "print(1)\nThe above code produced the following output:\n"}, {Text: "1"}},
		},
		{
			name: "code without output",
			cell: notebook.Cell{Kind: notebook.KindCode, Text: "x = 1"},
			want: []Part{{Text: "x = 1"}},
		},
		{
			name: "code with empty output",
			cell: notebook.Cell{Kind: notebook.KindCode, Text: "x = 1", OutputText: notebook.StrPtr("")},
			want: []Part{{Text: "x = 1"}},
		},
		{
			name: "markdown keeps raw text",
			cell: notebook.Cell{Kind: notebook.KindMarkdown, Text: "# Title\n\nbody", OutputText: notebook.StrPtr("ignored")},
			want: []Part{{Text: "# Title\n\nbody"}},
		},
		{
			name: "unknown kind",
			cell: notebook.Cell{Kind: notebook.KindUnknown, Text: "raw"},
			want: []Part{{Text: "raw"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := CellMessage(tt.cell)
			assert.Equal(t, RoleSystem, msg.Role)
			assert.True(t, msg.Hidden)
			if diff := cmp.Diff(tt.want, msg.Content); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeContext_Ordering(t *testing.T) {
	cells := []notebook.Cell{
		{Kind: notebook.KindMarkdown, Text: "question"},
		{Kind: notebook.KindCode, Text: "answer", OutputText: notebook.StrPtr("42")},
	}
	note := "Do not reveal the answer."

	msgs := MergeContext(cells, "chapter text", &note)
	require.Len(t, msgs, 5)

	assert.Equal(t, textbookIntro, msgs[0].Text())
	assert.Equal(t, "chapter text", msgs[1].Text())
	assert.Equal(t, "question", msgs[2].Text())
	assert.Equal(t, "answer"+outputSeparator+"42", msgs[3].Text())
	assert.Equal(t, note, msgs[4].Text())

	for _, m := range msgs {
		assert.True(t, m.Hidden)
		assert.Equal(t, RoleSystem, m.Role)
	}
}

func TestMergeContext_OptionalParts(t *testing.T) {
	cells := []notebook.Cell{{Kind: notebook.KindCode, Text: "x"}}
	empty := ""

	tests := []struct {
		name     string
		textbook string
		note     *string
		want     []string
	}{
		{"no textbook no note", "", nil, []string{"x"}},
		{"empty note is kept", "", &empty, []string{"x", ""}},
		{"textbook only", "tb", nil, []string{textbookIntro, "tb", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := MergeContext(cells, tt.textbook, tt.note)
			got := make([]string, len(msgs))
			for i, m := range msgs {
				got[i] = m.Text()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeContext_NoCells(t *testing.T) {
	assert.Empty(t, MergeContext(nil, "", nil))
}

func TestTransportFunc(t *testing.T) {
	var seen Request
	tr := TransportFunc(func(_ context.Context, req Request) (Message, error) {
		seen = req
		return NewMessage(RoleAssistant, "hi", false), nil
	})

	reply, err := tr.Send(context.Background(), Request{CellID: "c1", Images: []string{"a.png"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Text())
	assert.Equal(t, "c1", seen.CellID)
}
