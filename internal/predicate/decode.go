package predicate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

// Decode builds a Predicate from a generic decoded document value, as
// produced by encoding/json or yaml.v3 unmarshalling into any. path prefixes
// error messages so callers can report where in a larger document the
// problem sits.
//
// Each predicate node is an object with exactly one key:
//
//	AND: [p...]            OR: [p...]            NOT: p
//	nearbyCell: {relativePosition: int, matches: p}
//	cellType: "code" | {is: "code"}
//	content: matcher       output: matcher
//	hasError: bool         isEditable: bool
//	tags: {any: matcher | [matcher...]} | {all: ...}
//
// A matcher is a string, {is: string}, {matchesRegex: {pattern, flags}}, or
// the legacy {matchesRegex: string, regexFlags: string}.
func Decode(v any, path string) (Predicate, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalidf(path, "predicate must be an object, got %s", describeKind(v))
	}
	if len(m) != 1 {
		return nil, invalidf(path, "predicate must have exactly one key, got %v", sortedKeys(m))
	}

	for key, val := range m {
		sub := path + "." + key
		switch key {
		case "AND", "OR":
			list, ok := val.([]any)
			if !ok {
				return nil, invalidf(sub, "must be a list of predicates")
			}
			children := make([]Predicate, 0, len(list))
			for i, item := range list {
				child, err := Decode(item, fmt.Sprintf("%s[%d]", sub, i))
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			if key == "AND" {
				return And(children), nil
			}
			return Or(children), nil

		case "NOT":
			child, err := Decode(val, sub)
			if err != nil {
				return nil, err
			}
			return Not{P: child}, nil

		case "nearbyCell":
			return decodeNearby(val, sub)

		case "cellType":
			return decodeCellType(val, sub)

		case "content", "output":
			matcher, err := DecodeMatcher(val, sub)
			if err != nil {
				return nil, err
			}
			if key == "content" {
				return ContentMatches{Matcher: matcher}, nil
			}
			return OutputMatches{Matcher: matcher}, nil

		case "hasError", "isEditable":
			b, ok := val.(bool)
			if !ok {
				return nil, invalidf(sub, "must be a boolean")
			}
			if key == "hasError" {
				return HasError{Want: b}, nil
			}
			return IsEditable{Want: b}, nil

		case "tags":
			return decodeTags(val, sub)

		default:
			return nil, invalidf(sub, "unknown predicate key %q", key)
		}
	}
	panic("unreachable")
}

func decodeNearby(v any, path string) (Predicate, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalidf(path, "must be an object with relativePosition and matches")
	}
	for k := range m {
		if k != "relativePosition" && k != "matches" {
			return nil, invalidf(path+"."+k, "unknown field")
		}
	}

	rawPos, ok := m["relativePosition"]
	if !ok {
		return nil, invalidf(path+".relativePosition", "is required")
	}
	pos, err := toInt(rawPos)
	if err != nil {
		return nil, invalidf(path+".relativePosition", "%v", err)
	}

	rawInner, ok := m["matches"]
	if !ok {
		return nil, invalidf(path+".matches", "is required")
	}
	inner, err := Decode(rawInner, path+".matches")
	if err != nil {
		return nil, err
	}

	return NearbyCell{RelativePosition: pos, Matches: inner}, nil
}

func decodeCellType(v any, path string) (Predicate, error) {
	var kind string
	switch t := v.(type) {
	case string:
		kind = t
	case map[string]any:
		is, ok := t["is"].(string)
		if !ok || len(t) != 1 {
			return nil, invalidf(path, "must be a cell kind or {is: kind}")
		}
		kind = is
	default:
		return nil, invalidf(path, "must be a cell kind or {is: kind}")
	}
	if !notebook.ValidCellKinds[kind] {
		return nil, invalidf(path, "unknown cell kind %q", kind)
	}
	return CellTypeIs{Kind: notebook.CellKind(kind)}, nil
}

func decodeTags(v any, path string) (Predicate, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, invalidf(path, "must be {any: ...} or {all: ...}")
	}

	for key, val := range m {
		q := Quantifier(key)
		if q != QuantAny && q != QuantAll {
			return nil, invalidf(path+"."+key, "unknown quantifier")
		}

		sub := path + "." + key
		var matchers []StringMatcher
		if list, ok := val.([]any); ok {
			for i, item := range list {
				matcher, err := DecodeMatcher(item, fmt.Sprintf("%s[%d]", sub, i))
				if err != nil {
					return nil, err
				}
				matchers = append(matchers, matcher)
			}
		} else {
			matcher, err := DecodeMatcher(val, sub)
			if err != nil {
				return nil, err
			}
			matchers = []StringMatcher{matcher}
		}
		return TagsMatch{Quantifier: q, Matchers: matchers}, nil
	}
	panic("unreachable")
}

// DecodeMatcher builds a StringMatcher from a generic document value.
// Regex compilation errors wrap ErrInvalidPattern.
func DecodeMatcher(v any, path string) (StringMatcher, error) {
	switch t := v.(type) {
	case string:
		return Literal(t), nil
	case map[string]any:
		if is, ok := t["is"]; ok {
			s, isStr := is.(string)
			if !isStr || len(t) != 1 {
				return StringMatcher{}, invalidf(path, "{is} must hold a single string")
			}
			return Literal(s), nil
		}
		if raw, ok := t["matchesRegex"]; ok {
			pattern, flags, err := regexFields(raw, t, path)
			if err != nil {
				return StringMatcher{}, err
			}
			m, err := Regex(pattern, flags)
			if err != nil {
				return StringMatcher{}, fmt.Errorf("%s.matchesRegex: %w", path, err)
			}
			return m, nil
		}
	}
	return StringMatcher{}, invalidf(path, "must be a string, {is}, or {matchesRegex}")
}

func regexFields(raw any, parent map[string]any, path string) (pattern, flags string, err error) {
	switch r := raw.(type) {
	case map[string]any:
		if len(parent) != 1 {
			return "", "", invalidf(path, "matchesRegex object form takes no sibling keys")
		}
		p, ok := r["pattern"].(string)
		if !ok {
			return "", "", invalidf(path+".matchesRegex.pattern", "is required and must be a string")
		}
		if f, present := r["flags"]; present {
			fs, ok := f.(string)
			if !ok {
				return "", "", invalidf(path+".matchesRegex.flags", "must be a string")
			}
			flags = fs
		}
		return p, flags, nil
	case string:
		// Legacy shape: {matchesRegex: "pattern", regexFlags: "i"}.
		for k := range parent {
			if k != "matchesRegex" && k != "regexFlags" {
				return "", "", invalidf(path+"."+k, "unknown field")
			}
		}
		if f, present := parent["regexFlags"]; present {
			fs, ok := f.(string)
			if !ok {
				return "", "", invalidf(path+".regexFlags", "must be a string")
			}
			flags = fs
		}
		return r, flags, nil
	}
	return "", "", invalidf(path+".matchesRegex", "must be {pattern, flags} or a pattern string")
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("must be an integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %s", n)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("must be an integer, got %s", describeKind(v))
}

func invalidf(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidPredicate, path, fmt.Sprintf(format, args...))
}

func describeKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	case int, int64, uint64, float64, json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
