package army

import (
	"time"

	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/world"
)

// Kind distinguishes outbound attacks from homeward returns.
type Kind uint8

const (
	KindAttack Kind = iota
	KindReturn
)

func (k Kind) String() string {
	if k == KindReturn {
		return "return"
	}
	return "attack"
}

// Movement is an army in transit. An attack travels from the player's
// settlement to an opponent; a return travels from the opponent back home,
// so TargetID always names the settlement the army arrives at.
type Movement struct {
	ID         string           `json:"id"`
	Kind       Kind             `json:"kind"`
	Units      Stacks           `json:"units"`
	OriginID   uint64           `json:"origin_id"`
	TargetID   uint64           `json:"target_id"`
	Origin     world.HexCoord   `json:"origin"`
	Target     world.HexCoord   `json:"target"`
	TargetName string           `json:"target_name"`
	Departure  time.Time        `json:"departure"`
	Arrival    time.Time        `json:"arrival"`
	Plunder    *economy.Amounts `json:"plunder,omitempty"`
}

// Clone returns a deep copy.
func (m Movement) Clone() Movement {
	m.Units = m.Units.Clone()
	if m.Plunder != nil {
		p := *m.Plunder
		m.Plunder = &p
	}
	return m
}

// Arrived reports whether the movement reaches its target at or before now.
func (m Movement) Arrived(now time.Time) bool {
	return !m.Arrival.After(now)
}

// Duration is the one-way travel time.
func (m Movement) Duration() time.Duration {
	return m.Arrival.Sub(m.Departure)
}

// Partition splits movements into those arrived by now and those still in
// transit, preserving order in both.
func Partition(ms []Movement, now time.Time) (arrived, transit []Movement) {
	for _, m := range ms {
		if m.Arrived(now) {
			arrived = append(arrived, m)
		} else {
			transit = append(transit, m)
		}
	}
	return arrived, transit
}
