package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/jupytutor/internal/predicate"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the document format from a file extension. Anything
// that is not .json is read as YAML, which also accepts JSON input.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadFile reads and parses a rule set file.
func LoadFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule set %s: %w", path, err)
	}
	rs, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes, schema-checks and compiles a rule set document. All
// problems found across rules are reported together; the returned error
// wraps ErrInvalidRuleSet and, for bad regexes, predicate.ErrInvalidPattern.
func Parse(data []byte, format Format) (RuleSet, error) {
	var doc any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing JSON: %v", ErrInvalidRuleSet, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidRuleSet, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidRuleSet, format)
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: document is not JSON-compatible: %v", ErrInvalidRuleSet, err)
	}
	if err := ValidateSchema(canonical); err != nil {
		return nil, err
	}

	return decodeRuleSet(doc)
}

func decodeRuleSet(doc any) (RuleSet, error) {
	root, _ := doc.(map[string]any)
	list, _ := root["rules"].([]any)

	var errs []error
	rs := make(RuleSet, 0, len(list))
	for i, item := range list {
		rule, err := decodeRule(item, fmt.Sprintf("rules[%d]", i))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rs = append(rs, rule)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, errors.Join(errs...))
	}
	return rs, nil
}

func decodeRule(v any, path string) (Rule, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Rule{}, fmt.Errorf("%s: rule must be an object", path)
	}

	when, err := predicate.Decode(m["when"], path+".when")
	if err != nil {
		return Rule{}, err
	}

	cfg, _ := m["config"].(map[string]any)
	name, _ := m["name"].(string)

	return Rule{Name: name, When: when, Config: decodePatch(cfg)}, nil
}

// decodePatch assumes the schema already checked field types.
func decodePatch(m map[string]any) ConfigPatch {
	var p ConfigPatch
	if b, ok := m["chatEnabled"].(bool); ok {
		p.ChatEnabled = &b
	}
	if b, ok := m["chatProactive"].(bool); ok {
		p.ChatProactive = &b
	}
	if list, ok := m["quickResponses"].([]any); ok {
		p.QuickResponses = make([]string, 0, len(list))
		for _, item := range list {
			s, _ := item.(string)
			p.QuickResponses = append(p.QuickResponses, s)
		}
	}
	if s, ok := m["instructorNote"].(string); ok {
		p.InstructorNote = &s
	}
	return p
}
