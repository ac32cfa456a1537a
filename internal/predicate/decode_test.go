package predicate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

func decodeJSON(t *testing.T, src string) (Predicate, error) {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(src), &v))
	return Decode(v, "when")
}

func TestDecode_Variants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"cellType string", `{"cellType": "code"}`, "cellType=code"},
		{"cellType is", `{"cellType": {"is": "markdown"}}`, "cellType=markdown"},
		{"hasError", `{"hasError": true}`, "hasError=true"},
		{"isEditable", `{"isEditable": false}`, "isEditable=false"},
		{"content literal", `{"content": "x = 1"}`, `content~"x = 1"`},
		{"output is", `{"output": {"is": "done"}}`, `output~"done"`},
		{"output regex", `{"output": {"matchesRegex": {"pattern": " passed!", "flags": "i"}}}`, "output~/ passed!/i"},
		{"regex flags default", `{"content": {"matchesRegex": {"pattern": "^#"}}}`, "content~/^#/"},
		{"legacy regex shape", `{"content": {"matchesRegex": "foo", "regexFlags": "im"}}`, "content~/foo/im"},
		{"tags single matcher", `{"tags": {"any": "otter"}}`, `tags.any["otter"]`},
		{"tags list", `{"tags": {"all": ["a", {"is": "b"}]}}`, `tags.all["a", "b"]`},
		{"AND", `{"AND": [{"hasError": true}, {"cellType": "code"}]}`, "AND(hasError=true, cellType=code)"},
		{"empty AND", `{"AND": []}`, "always"},
		{"OR", `{"OR": [{"hasError": true}]}`, "OR(hasError=true)"},
		{"NOT", `{"NOT": {"isEditable": true}}`, "NOT(isEditable=true)"},
		{"nearbyCell", `{"nearbyCell": {"relativePosition": -2, "matches": {"cellType": "markdown"}}}`, "cell[-2](cellType=markdown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := decodeJSON(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Describe(p))
		})
	}
}

func TestDecode_YAMLDocument(t *testing.T) {
	src := `
AND:
  - cellType: code
  - nearbyCell:
      relativePosition: -1
      matches:
        content:
          matchesRegex:
            pattern: 'question\s+\d+'
            flags: i
`
	var v any
	require.NoError(t, yaml.Unmarshal([]byte(src), &v))

	p, err := Decode(v, "when")
	require.NoError(t, err)

	cells := []notebook.Cell{
		{Kind: notebook.KindMarkdown, Text: "QUESTION 2: explain"},
		{Kind: notebook.KindCode, Text: "..."},
	}
	assert.True(t, Evaluate(p, 1, cells))
	assert.False(t, Evaluate(p, 0, cells))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		wantMsg string
	}{
		{"not an object", `"code"`, ErrInvalidPredicate, "when: predicate must be an object, got string"},
		{"two keys", `{"hasError": true, "isEditable": true}`, ErrInvalidPredicate, "exactly one key"},
		{"unknown key", `{"colour": "red"}`, ErrInvalidPredicate, `unknown predicate key "colour"`},
		{"AND not list", `{"AND": {"hasError": true}}`, ErrInvalidPredicate, "when.AND"},
		{"nested path", `{"OR": [{"hasError": true}, {"hasError": "yes"}]}`, ErrInvalidPredicate, "when.OR[1].hasError: must be a boolean"},
		{"bad cell kind", `{"cellType": "raw"}`, ErrInvalidPredicate, `unknown cell kind "raw"`},
		{"nearby missing matches", `{"nearbyCell": {"relativePosition": 1}}`, ErrInvalidPredicate, "when.nearbyCell.matches: is required"},
		{"nearby fractional", `{"nearbyCell": {"relativePosition": 1.5, "matches": {"AND": []}}}`, ErrInvalidPredicate, "must be an integer"},
		{"bad quantifier", `{"tags": {"some": "x"}}`, ErrInvalidPredicate, "unknown quantifier"},
		{"bad matcher", `{"content": 42}`, ErrInvalidPredicate, "when.content"},
		{"regex missing pattern", `{"content": {"matchesRegex": {"flags": "i"}}}`, ErrInvalidPredicate, "pattern: is required"},
		{"regex does not compile", `{"output": {"matchesRegex": {"pattern": "(unclosed"}}}`, ErrInvalidPattern, "when.output.matchesRegex"},
		{"regex bad flag", `{"output": {"matchesRegex": {"pattern": "x", "flags": "q"}}}`, ErrInvalidPattern, "unsupported flag"},
		{"deep regex error", `{"NOT": {"tags": {"all": [{"matchesRegex": {"pattern": "[z-a]"}}]}}}`, ErrInvalidPattern, "when.NOT.tags.all[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeJSON(t, tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRegex_Flags(t *testing.T) {
	m := MustRegex("^b", "m")
	assert.True(t, m.Match("a\nb"))

	m = MustRegex("a.b", "s")
	assert.True(t, m.Match("a\nb"))

	m = MustRegex("a.b", "")
	assert.False(t, m.Match("a\nb"))

	m = MustRegex("x", "gy")
	assert.True(t, m.Match("yxz"))
	assert.True(t, m.IsRegex())
	assert.False(t, Literal("x").IsRegex())
}
