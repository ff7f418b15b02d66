// Package economy provides resource amounts, hourly production, and
// warehouse capacity clamps.
package economy

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// ResourceType enumerates the raw resources a settlement stockpiles.
type ResourceType uint8

const (
	Wood ResourceType = iota
	Clay
	Iron

	NumResources = 3
)

// ResourceOrder is the fixed order used wherever resources are drawn one by
// one (plunder, cost checks, logs).
var ResourceOrder = [NumResources]ResourceType{Wood, Clay, Iron}

// String returns the lowercase resource name.
func (r ResourceType) String() string {
	switch r {
	case Wood:
		return "wood"
	case Clay:
		return "clay"
	case Iron:
		return "iron"
	default:
		return fmt.Sprintf("resource(%d)", uint8(r))
	}
}

// Amounts holds one quantity per resource type. It is a value type, so
// copying a struct that embeds it never aliases the stock.
type Amounts [NumResources]float64

// NewAmounts builds an Amounts from wood, clay and iron values.
func NewAmounts(wood, clay, iron float64) Amounts {
	return Amounts{Wood: wood, Clay: clay, Iron: iron}
}

// Add returns a + b.
func (a Amounts) Add(b Amounts) Amounts {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

// Sub returns a - b. Callers check Covers first when the result must stay
// non-negative.
func (a Amounts) Sub(b Amounts) Amounts {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

// Scale returns a with every entry multiplied by f.
func (a Amounts) Scale(f float64) Amounts {
	for i := range a {
		a[i] *= f
	}
	return a
}

// Covers reports whether a holds at least cost of every resource.
func (a Amounts) Covers(cost Amounts) bool {
	for i := range a {
		if a[i] < cost[i] {
			return false
		}
	}
	return true
}

// Clamp bounds every entry to [0, capacity].
func (a Amounts) Clamp(capacity float64) Amounts {
	for i := range a {
		a[i] = Clamp(a[i], 0, capacity)
	}
	return a
}

// Floor truncates every entry toward zero.
func (a Amounts) Floor() Amounts {
	for i := range a {
		a[i] = math.Floor(a[i])
	}
	return a
}

// Total sums all resources.
func (a Amounts) Total() float64 {
	t := 0.0
	for _, v := range a {
		t += v
	}
	return t
}

// IsZero reports whether every entry is zero.
func (a Amounts) IsZero() bool {
	return a == Amounts{}
}

// Within reports whether every entry lies in [0, capacity].
func (a Amounts) Within(capacity float64) bool {
	for _, v := range a {
		if v < 0 || v > capacity || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
