// Package army provides unit stacks, their arithmetic, and the movement
// records for armies in transit.
package army

import (
	"github.com/talgya/hexfront/internal/balance"
)

// Stack is a count of one unit type.
type Stack struct {
	Type  balance.UnitType `json:"type"`
	Count int              `json:"count"`
}

// Stacks is a list of stacks holding at most one entry per unit type.
type Stacks []Stack

// Clone returns an independent copy.
func (s Stacks) Clone() Stacks {
	if s == nil {
		return nil
	}
	out := make(Stacks, len(s))
	copy(out, s)
	return out
}

// Count returns how many units of t the list holds.
func (s Stacks) Count(t balance.UnitType) int {
	for _, st := range s {
		if st.Type == t {
			return st.Count
		}
	}
	return 0
}

// Total returns the number of units across all stacks.
func (s Stacks) Total() int {
	n := 0
	for _, st := range s {
		n += st.Count
	}
	return n
}

// Merge adds other into s, summing counts per type and keeping only stacks
// with a positive count. Existing order is kept; new types are appended in
// the order they appear in other.
func (s Stacks) Merge(other Stacks) Stacks {
	out := s.Clone()
	for _, add := range other {
		found := false
		for i := range out {
			if out[i].Type == add.Type {
				out[i].Count += add.Count
				found = true
				break
			}
		}
		if !found {
			out = append(out, add)
		}
	}
	return out.Prune()
}

// Deduct subtracts other from s per type, flooring at zero, and prunes empty
// stacks.
func (s Stacks) Deduct(other Stacks) Stacks {
	out := s.Clone()
	for i := range out {
		out[i].Count -= other.Count(out[i].Type)
		if out[i].Count < 0 {
			out[i].Count = 0
		}
	}
	return out.Prune()
}

// Covers reports whether s holds at least the requested count of each type.
func (s Stacks) Covers(want Stacks) bool {
	for _, w := range want {
		if w.Count < 0 || s.Count(w.Type) < w.Count {
			return false
		}
	}
	return true
}

// Prune drops stacks whose count is not positive.
func (s Stacks) Prune() Stacks {
	out := s[:0:0]
	for _, st := range s {
		if st.Count > 0 {
			out = append(out, st)
		}
	}
	return out
}

// FromCounts builds stacks from a type->count map in balance.UnitOrder,
// skipping unknown types and non-positive counts.
func FromCounts(counts map[balance.UnitType]int) Stacks {
	var out Stacks
	for _, t := range balance.UnitOrder {
		if n := counts[t]; n > 0 {
			out = append(out, Stack{Type: t, Count: n})
		}
	}
	return out
}

// AttackPower sums count × attack value.
func (s Stacks) AttackPower(cfg *balance.Config) float64 {
	p := 0.0
	for _, st := range s {
		if u, ok := cfg.Unit(st.Type); ok {
			p += float64(st.Count) * u.Attack
		}
	}
	return p
}

// DefensePower sums count × defense value.
func (s Stacks) DefensePower(cfg *balance.Config) float64 {
	p := 0.0
	for _, st := range s {
		if u, ok := cfg.Unit(st.Type); ok {
			p += float64(st.Count) * u.Defense
		}
	}
	return p
}

// CarryCapacity sums count × carry capacity.
func (s Stacks) CarryCapacity(cfg *balance.Config) float64 {
	c := 0.0
	for _, st := range s {
		if u, ok := cfg.Unit(st.Type); ok {
			c += float64(st.Count) * u.Carry
		}
	}
	return c
}

// SlowestSpeed returns the lowest speed (fields per hour) among stacks with a
// positive count, or 0 when there are none or a type is unknown.
func (s Stacks) SlowestSpeed(cfg *balance.Config) float64 {
	slowest := 0.0
	for _, st := range s {
		if st.Count <= 0 {
			continue
		}
		u, ok := cfg.Unit(st.Type)
		if !ok {
			return 0
		}
		if slowest == 0 || u.Speed < slowest {
			slowest = u.Speed
		}
	}
	return slowest
}
