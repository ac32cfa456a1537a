package rules

import (
	_ "embed"
	"sync"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

var defaultRuleSet = sync.OnceValues(func() (RuleSet, error) {
	return Parse(defaultRulesYAML, FormatYAML)
})

// DefaultRulesYAML returns the embedded default rule set document.
func DefaultRulesYAML() []byte {
	return append([]byte(nil), defaultRulesYAML...)
}

// DefaultRuleSet returns the compiled embedded rule set. It panics if the
// embedded document is invalid, which the package tests rule out.
func DefaultRuleSet() RuleSet {
	rs, err := defaultRuleSet()
	if err != nil {
		panic(err)
	}
	return rs
}
