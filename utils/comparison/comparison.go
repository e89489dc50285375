package comparison

import "golang.org/x/exp/constraints"

func Min[V constraints.Ordered](a, b V) V {
	if a < b {
		return a
	} else {
		return b
	}
}

func Max[V constraints.Ordered](a, b V) V {
	if a > b {
		return a
	} else {
		return b
	}
}

// CeilDiv divides a by b, rounding up.
func CeilDiv[V constraints.Integer](a, b V) V {
	return (a + b - 1) / b
}

// Clamp limits v to the range [lo, hi].
func Clamp[V constraints.Ordered](v, lo, hi V) V {
	return Min(Max(v, lo), hi)
}
