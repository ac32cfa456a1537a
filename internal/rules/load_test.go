package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/predicate"
)

func TestParse_JSONAndYAMLAgree(t *testing.T) {
	jsonSrc := `{"rules": [
		{"when": {"AND": []}, "config": {"chatEnabled": false}},
		{"name": "errors", "when": {"hasError": true}, "config": {"chatEnabled": true, "quickResponses": ["why?"], "instructorNote": "be brief"}}
	]}`
	yamlSrc := `
rules:
  - when: {AND: []}
    config: {chatEnabled: false}
  - name: errors
    when: {hasError: true}
    config:
      chatEnabled: true
      quickResponses: [why?]
      instructorNote: be brief
`
	fromJSON, err := Parse([]byte(jsonSrc), FormatJSON)
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(yamlSrc), FormatYAML)
	require.NoError(t, err)

	require.Len(t, fromJSON, 2)
	require.Len(t, fromYAML, 2)
	assert.Equal(t, "errors", fromJSON[1].Name)

	cells := testCells()
	for i := range cells {
		assert.Equal(t, Resolve(fromJSON, i, cells), Resolve(fromYAML, i, cells))
	}

	got := Resolve(fromYAML, 2, cells)
	assert.True(t, got.ChatEnabled)
	assert.Equal(t, []string{"why?"}, got.QuickResponses)
	assert.Equal(t, "be brief", got.InstructorNote)
}

func TestParse_PatchFieldsAreOptional(t *testing.T) {
	rs, err := Parse([]byte(`rules: [{when: {AND: []}, config: {}}]`), FormatYAML)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.True(t, rs[0].Config.IsEmpty())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantIs  []error
		wantMsg []string
	}{
		{
			name:   "invalid yaml",
			src:    "rules: [\n",
			wantIs: []error{ErrInvalidRuleSet},
		},
		{
			name:   "top level list",
			src:    "- when: {AND: []}\n",
			wantIs: []error{ErrInvalidRuleSet},
		},
		{
			name:    "unknown config field",
			src:     "rules: [{when: {AND: []}, config: {chatEnabld: true}}]",
			wantIs:  []error{ErrInvalidRuleSet},
			wantMsg: []string{"chatEnabld"},
		},
		{
			name:   "wrong config type",
			src:    "rules: [{when: {AND: []}, config: {chatEnabled: 'yes'}}]",
			wantIs: []error{ErrInvalidRuleSet},
		},
		{
			name:   "missing when",
			src:    "rules: [{config: {chatEnabled: true}}]",
			wantIs: []error{ErrInvalidRuleSet},
		},
		{
			name:    "bad predicate",
			src:     "rules: [{when: {cellKind: code}, config: {}}]",
			wantIs:  []error{ErrInvalidRuleSet, predicate.ErrInvalidPredicate},
			wantMsg: []string{"rules[0].when.cellKind"},
		},
		{
			name: "all regex errors reported",
			src: `
rules:
  - when: {output: {matchesRegex: {pattern: '(', flags: i}}}
    config: {}
  - when: {AND: []}
    config: {}
  - when: {content: {matchesRegex: {pattern: 'x', flags: z}}}
    config: {}
`,
			wantIs:  []error{ErrInvalidRuleSet, predicate.ErrInvalidPattern},
			wantMsg: []string{"rules[0].when.output", "rules[2].when.content"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Parse([]byte(tt.src), FormatYAML)
			require.Error(t, err)
			assert.Nil(t, rs)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, err, target)
			}
			for _, msg := range tt.wantMsg {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "rules.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"rules": [{"when": {"isEditable": true}, "config": {"chatEnabled": true}}]}`), 0o644))

	rs, err := LoadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, predicate.IsEditable{Want: true}, rs[0].When)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	badPath := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badPath, []byte("rules: [{when: 3, config: {}}]"), 0o644))
	_, err = LoadFile(badPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRuleSet)
	assert.Contains(t, err.Error(), badPath)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("a/b.json"))
	assert.Equal(t, FormatYAML, FormatForPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("rules"))
}

func TestDefaultRuleSet(t *testing.T) {
	rs := DefaultRuleSet()
	require.NotEmpty(t, rs)
	assert.Equal(t, "disabled-by-default", rs[0].Label(0))
	assert.NotEmpty(t, DefaultRulesYAML())

	cells := []notebook.Cell{
		{Kind: notebook.KindCode, Text: "import numpy as np", Editable: true},
		{Kind: notebook.KindCode, Text: "1/0", OutputText: notebook.StrPtr("ZeroDivisionError: division by zero"), HasError: true, Editable: true},
		{Kind: notebook.KindCode, Text: `grader.check("q1")`, OutputText: notebook.StrPtr("q1 results: All test cases PASSED!")},
		{Kind: notebook.KindCode, Text: `grader.check("q2")`, OutputText: notebook.StrPtr("q2 results:\n  q2 - 1 result: Test case failed")},
		{Kind: notebook.KindMarkdown, Text: "**Question 2.1.** Interpret the plot. (3 points)"},
		{Kind: notebook.KindMarkdown, Text: "_Type your answer here_", Editable: true},
		{Kind: notebook.KindCode, Text: "raise ValueError", OutputText: notebook.StrPtr("ValueError"), HasError: true, Tags: []string{"jupytutor: false"}},
		{Kind: notebook.KindMarkdown, Text: "**Question 3.** Why does the curve flatten?\n\nBecause", Editable: true},
		{Kind: notebook.KindCode, Text: "x = 1", Editable: true},
		{Kind: notebook.KindMarkdown, Text: "scratch notes", Editable: true},
	}

	tests := []struct {
		name      string
		focal     int
		enabled   bool
		proactive bool
	}{
		{"plain code stays disabled", 0, false, false},
		{"errored code is proactive", 1, true, true},
		{"passing grader", 2, true, false},
		{"failing grader is proactive", 3, true, true},
		{"prompt itself is disabled", 4, false, false},
		{"free response answer", 5, true, false},
		{"opted out by tag", 6, false, false},
		{"answer written under the prompt in the same cell", 7, true, false},
		{"editable markdown away from any question", 9, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(rs, tt.focal, cells)
			assert.Equal(t, tt.enabled, got.ChatEnabled)
			assert.Equal(t, tt.proactive, got.ChatProactive)
			if tt.enabled {
				assert.NotEmpty(t, got.QuickResponses)
			}
		})
	}
}
