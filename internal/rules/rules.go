// Package rules resolves per-cell tutor behaviour from an ordered rule set.
// Each rule pairs a predicate with a partial config; matching patches are
// overlaid front to back so the last match wins per field.
package rules

import (
	"strconv"

	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/predicate"
)

// ConfigPatch is a partial override. Nil fields leave the accumulator
// untouched; a nil QuickResponses is absent while an empty non-nil slice
// clears the list.
type ConfigPatch struct {
	ChatEnabled    *bool
	ChatProactive  *bool
	QuickResponses []string
	InstructorNote *string
}

// IsEmpty reports whether the patch would change nothing.
func (p ConfigPatch) IsEmpty() bool {
	return p.ChatEnabled == nil && p.ChatProactive == nil && p.QuickResponses == nil && p.InstructorNote == nil
}

// Rule pairs a predicate with the patch it applies. Name is optional and
// only used for diagnostics.
type Rule struct {
	Name   string
	When   predicate.Predicate
	Config ConfigPatch
}

// Label returns the rule's name or, when unnamed, its position.
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return "rule " + strconv.Itoa(index)
}

// RuleSet is an ordered list of rules. Order is significant.
type RuleSet []Rule

// ResolvedCellConfig is the fully defaulted behaviour for one cell.
type ResolvedCellConfig struct {
	ChatEnabled    bool
	ChatProactive  bool
	QuickResponses []string
	InstructorNote string
}

// Defaults returns the configuration every resolution starts from.
func Defaults() ResolvedCellConfig {
	return ResolvedCellConfig{QuickResponses: []string{}}
}

// Resolve evaluates every rule against the focal cell in order and overlays
// the patches of the matching ones. It never mutates rs or cells, and the
// returned QuickResponses never aliases a rule's slice.
func Resolve(rs RuleSet, focalIndex int, cells []notebook.Cell) ResolvedCellConfig {
	cfg, _ := Explain(rs, focalIndex, cells)
	return cfg
}

// Explain is Resolve that also reports the indices of the rules that
// matched, in evaluation order.
func Explain(rs RuleSet, focalIndex int, cells []notebook.Cell) (ResolvedCellConfig, []int) {
	acc := Defaults()
	var matched []int

	for i, rule := range rs {
		if !predicate.Evaluate(rule.When, focalIndex, cells) {
			continue
		}
		matched = append(matched, i)
		acc = overlay(acc, rule.Config)
	}

	return acc, matched
}

func overlay(acc ResolvedCellConfig, p ConfigPatch) ResolvedCellConfig {
	if p.ChatEnabled != nil {
		acc.ChatEnabled = *p.ChatEnabled
	}
	if p.ChatProactive != nil {
		acc.ChatProactive = *p.ChatProactive
	}
	if p.QuickResponses != nil {
		acc.QuickResponses = append([]string{}, p.QuickResponses...)
	}
	if p.InstructorNote != nil {
		acc.InstructorNote = *p.InstructorNote
	}
	return acc
}

// ResolveAll resolves every cell of the sequence.
func ResolveAll(rs RuleSet, cells []notebook.Cell) []ResolvedCellConfig {
	out := make([]ResolvedCellConfig, len(cells))
	for i := range cells {
		out[i] = Resolve(rs, i, cells)
	}
	return out
}
