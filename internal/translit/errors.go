package translit

import "errors"

// Table construction errors.
var (
	// ErrDuplicateCodePoint is returned when a table declares the same code
	// point more than once.
	ErrDuplicateCodePoint = errors.New("duplicate code point")

	// ErrInvalidReplacement is returned when a substitution does not map to
	// an ASCII letter.
	ErrInvalidReplacement = errors.New("replacement is not an ASCII letter")
)
