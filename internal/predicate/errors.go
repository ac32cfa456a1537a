package predicate

import "errors"

var (
	// ErrInvalidPredicate indicates a structurally invalid predicate tree.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrInvalidPattern indicates a regex matcher whose pattern or flags
	// could not be compiled.
	ErrInvalidPattern = errors.New("invalid regex pattern")

	// ErrMatchTimeout indicates a regex that did not finish within the
	// match timeout.
	ErrMatchTimeout = errors.New("regex match timed out")
)
