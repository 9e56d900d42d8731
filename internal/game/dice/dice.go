// Package dice provides the randomness abstraction for the veteran combat engine.
// Every random draw in the engine goes through a Source so battle resolution is
// reproducible given a fixed sequence.
package dice

// Source is the randomness provider for move resolution and injury checks.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a uniformly distributed float in [0, 1).
	Float64() float64
}

// Uniform draws a float uniformly from [lo, hi] using src.
//
// Precondition: lo <= hi; src must be non-nil.
// Postcondition: lo <= result <= hi.
func Uniform(src Source, lo, hi float64) float64 {
	v := lo + (hi-lo)*src.Float64()
	if v > hi {
		return hi
	}
	return v
}

// Choice returns a random element of items.
//
// Precondition: len(items) > 0; src must be non-nil.
func Choice[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}
