package rules

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSrc string

type compiledSchema struct {
	ctx     *cue.Context
	ruleSet cue.Value
}

var loadSchema = sync.OnceValues(func() (compiledSchema, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return compiledSchema{}, err
	}
	def := schema.LookupPath(cue.ParsePath("#RuleSet"))
	if err := def.Err(); err != nil {
		return compiledSchema{}, err
	}
	return compiledSchema{ctx: ctx, ruleSet: def}, nil
})

// schemaMu serialises use of the shared cue.Context, which is not safe for
// concurrent use.
var schemaMu sync.Mutex

// ValidateSchema checks the shape of a JSON rule-set document: a top-level
// rules list whose entries carry a when object and a config patch with only
// known, correctly typed fields. Predicate trees are checked by the decoder.
func ValidateSchema(doc []byte) error {
	s, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile rule schema: %w", err)
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	value := s.ctx.CompileBytes(doc, cue.Filename("rules.json"))
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRuleSet, cueDetails(err))
	}
	if err := s.ruleSet.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRuleSet, cueDetails(err))
	}
	return nil
}

func cueDetails(err error) string {
	return strings.TrimSpace(cueerrors.Details(err, nil))
}
