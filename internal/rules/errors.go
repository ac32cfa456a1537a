package rules

import "errors"

// ErrInvalidRuleSet wraps every structural problem found while loading a
// rule set. Regex compilation failures additionally wrap
// predicate.ErrInvalidPattern.
var ErrInvalidRuleSet = errors.New("invalid rule set")
