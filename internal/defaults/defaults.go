// Package defaults holds option-defaulting helpers shared by the cache packages.
package defaults

// Coalesce returns def when v is the zero value of T - otherwise v.
func Coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Positive returns def unless v > 0. Used for durations where a negative
// value is as meaningless as zero.
func Positive[T ~int | ~int64](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}
