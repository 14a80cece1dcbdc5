package memory

import "golang.org/x/exp/constraints"

// Align rounds a up to the next multiple of b, where b is a power of
// two, the way callers size a RAM budget to a whole number of regions.
// Exported so drivers can round a user-supplied size to this package's
// region granularity without duplicating the arithmetic.
func Align[I constraints.Integer](a, b I) I {
	return (a + b - 1) &^ (b - 1)
}

// alignDown rounds a down to the previous multiple of b, where b is a
// power of two.
func alignDown[I constraints.Integer](a, b I) I {
	return a &^ (b - 1)
}

// isPowerOfTwo reports whether v is a power of two (v > 0 and exactly
// one bit set).
func isPowerOfTwo[I constraints.Integer](v I) bool {
	return v > 0 && v&(v-1) == 0
}
