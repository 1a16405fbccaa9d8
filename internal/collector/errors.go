package collector

import "errors"

var (
	// ErrZeroTotal is returned by Distribute when the counts sum to zero.
	// The returned distribution is still usable; its percentages are n/a.
	ErrZeroTotal = errors.New("distribution total is zero")

	// ErrPageLimit is returned when a category has more pages than the
	// configured limit.
	ErrPageLimit = errors.New("page limit reached")
)
