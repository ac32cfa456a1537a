package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/predicate"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func isCode() predicate.Predicate { return predicate.CellTypeIs{Kind: notebook.KindCode} }

func testCells() []notebook.Cell {
	return []notebook.Cell{
		{Kind: notebook.KindMarkdown, Text: "Question 1"},
		{Kind: notebook.KindCode, Text: "x = 1", Editable: true},
		{Kind: notebook.KindCode, Text: "1/0", OutputText: notebook.StrPtr("ZeroDivisionError"), HasError: true, Editable: true},
	}
}

func TestResolve_EmptyRuleSetYieldsDefaults(t *testing.T) {
	got := Resolve(nil, 0, testCells())
	assert.Equal(t, Defaults(), got)
	assert.NotNil(t, got.QuickResponses)
	assert.Empty(t, got.QuickResponses)
}

func TestResolve_LastMatchWinsPerField(t *testing.T) {
	rs := RuleSet{
		{When: predicate.Always, Config: ConfigPatch{ChatEnabled: boolPtr(false), InstructorNote: strPtr("base")}},
		{When: isCode(), Config: ConfigPatch{ChatEnabled: boolPtr(true), QuickResponses: []string{"a", "b"}}},
		{When: predicate.HasError{Want: true}, Config: ConfigPatch{ChatProactive: boolPtr(true), QuickResponses: []string{"c"}}},
	}

	tests := []struct {
		name  string
		focal int
		want  ResolvedCellConfig
	}{
		{"markdown only catch-all", 0, ResolvedCellConfig{ChatEnabled: false, QuickResponses: []string{}, InstructorNote: "base"}},
		{"code cell", 1, ResolvedCellConfig{ChatEnabled: true, QuickResponses: []string{"a", "b"}, InstructorNote: "base"}},
		{"errored code replaces list wholesale", 2, ResolvedCellConfig{ChatEnabled: true, ChatProactive: true, QuickResponses: []string{"c"}, InstructorNote: "base"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(rs, tt.focal, testCells()))
		})
	}
}

func TestResolve_CatchAllFirstDisableLastAlwaysDisabled(t *testing.T) {
	middles := []ConfigPatch{
		{ChatEnabled: boolPtr(true)},
		{ChatEnabled: boolPtr(true), ChatProactive: boolPtr(true)},
		{},
	}
	for _, mid := range middles {
		rs := RuleSet{
			{When: predicate.Always, Config: ConfigPatch{ChatEnabled: boolPtr(true)}},
			{When: isCode(), Config: mid},
			{When: predicate.Always, Config: ConfigPatch{ChatEnabled: boolPtr(false)}},
		}
		for i := range testCells() {
			assert.False(t, Resolve(rs, i, testCells()).ChatEnabled)
		}
	}
}

func TestResolve_PerFieldOverlay(t *testing.T) {
	rs := RuleSet{
		{When: predicate.Always, Config: ConfigPatch{ChatEnabled: boolPtr(true)}},
		{When: predicate.Always, Config: ConfigPatch{QuickResponses: []string{"hint?"}}},
	}

	got := Resolve(rs, 0, testCells())
	assert.True(t, got.ChatEnabled)
	assert.Equal(t, []string{"hint?"}, got.QuickResponses)
}

func TestResolve_EmptyQuickResponsesClears(t *testing.T) {
	rs := RuleSet{
		{When: predicate.Always, Config: ConfigPatch{QuickResponses: []string{"x"}}},
		{When: predicate.Always, Config: ConfigPatch{QuickResponses: []string{}}},
	}
	assert.Empty(t, Resolve(rs, 0, testCells()).QuickResponses)
}

func TestResolve_Idempotent(t *testing.T) {
	rs := DefaultRuleSet()
	cells := testCells()
	for i := range cells {
		assert.Equal(t, Resolve(rs, i, cells), Resolve(rs, i, cells))
	}
}

func TestResolve_ReturnedSliceIsACopy(t *testing.T) {
	responses := []string{"one", "two"}
	rs := RuleSet{{When: predicate.Always, Config: ConfigPatch{QuickResponses: responses}}}

	got := Resolve(rs, 0, testCells())
	got.QuickResponses[0] = "mutated"

	assert.Equal(t, "one", responses[0])
	assert.Equal(t, "one", Resolve(rs, 0, testCells()).QuickResponses[0])
}

func TestExplain_ReportsMatchedRules(t *testing.T) {
	rs := RuleSet{
		{Name: "all", When: predicate.Always},
		{When: predicate.CellTypeIs{Kind: notebook.KindMarkdown}},
		{When: isCode()},
	}
	_, matched := Explain(rs, 1, testCells())
	assert.Equal(t, []int{0, 2}, matched)
	assert.Equal(t, "all", rs[0].Label(0))
	assert.Equal(t, "rule 2", rs[2].Label(2))
}

func TestResolveAll(t *testing.T) {
	rs := RuleSet{{When: predicate.HasError{Want: true}, Config: ConfigPatch{ChatEnabled: boolPtr(true)}}}
	got := ResolveAll(rs, testCells())
	assert.Len(t, got, 3)
	assert.False(t, got[0].ChatEnabled)
	assert.False(t, got[1].ChatEnabled)
	assert.True(t, got[2].ChatEnabled)
}

func TestConfigPatch_IsEmpty(t *testing.T) {
	assert.True(t, ConfigPatch{}.IsEmpty())
	assert.False(t, ConfigPatch{QuickResponses: []string{}}.IsEmpty())
}
