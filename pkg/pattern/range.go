package pattern

import (
	"fmt"
	"strconv"
)

// Unsigned is the element type of a Range.
type Unsigned interface {
	~uint32 | ~uint64
}

// Range is a half-open interval [Start, End).
type Range[T Unsigned] struct {
	Start T
	End   T
}

// NewRange returns the range [start, end).
func NewRange[T Unsigned](start, end T) Range[T] {
	return Range[T]{Start: start, End: end}
}

// Width returns End-Start, or zero when the range is inverted.
func (r Range[T]) Width() T {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// IsEmpty reports whether the range contains no values.
func (r Range[T]) IsEmpty() bool {
	return r.Start >= r.End
}

func (r Range[T]) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// FormatRange renders r relative to the full range of its domain:
//
//	full      -> "", false
//	empty     -> "empty range"
//	[n, n+1)  -> "n"
//	[n, max)  -> "n.."
//	[n, m)    -> "n..m"
func FormatRange[T Unsigned](r, full Range[T]) (string, bool) {
	switch {
	case r == full:
		return "", false
	case r.Start == r.End:
		return "empty range", true
	case r.End > 0 && r.Start == r.End-1:
		return formatUint(r.Start), true
	case r.End == full.End:
		return formatUint(r.Start) + "..", true
	default:
		return formatUint(r.Start) + ".." + formatUint(r.End), true
	}
}

// FormatRangeWithLabel renders r as a comparison against label, for example
// "generation >= 3" or "2 <= parents < 4".
func FormatRangeWithLabel[T Unsigned](label string, r, full Range[T]) (string, bool) {
	switch {
	case r == full:
		return "", false
	case r.Start == r.End:
		return label + " always out of range", true
	case r.End > 0 && r.Start == r.End-1:
		return label + " == " + formatUint(r.Start), true
	case r.End == full.End:
		return label + " >= " + formatUint(r.Start), true
	case r.Start == full.Start:
		return label + " < " + formatUint(r.End), true
	default:
		return formatUint(r.Start) + " <= " + label + " < " + formatUint(r.End), true
	}
}

func formatUint[T Unsigned](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}
