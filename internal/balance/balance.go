// Package balance holds the static building and unit tables the simulation
// reads. Tables are built once and never mutated after Default returns.
package balance

import "github.com/talgya/hexfront/internal/economy"

// BuildingType identifies a kind of building.
type BuildingType string

const (
	Headquarters BuildingType = "headquarters"
	Barracks     BuildingType = "barracks"
	Warehouse    BuildingType = "warehouse"
	Woodcutter   BuildingType = "woodcutter"
	ClayPit      BuildingType = "clayPit"
	IronMine     BuildingType = "ironMine"
	Wall         BuildingType = "wall"
)

// UnitType identifies a kind of unit.
type UnitType string

const (
	Spearman     UnitType = "spearman"
	Swordsman    UnitType = "swordsman"
	Axeman       UnitType = "axeman"
	Scout        UnitType = "scout"
	HeavyCavalry UnitType = "heavyCavalry"
)

// UnitOrder lists unit types in display and iteration order.
var UnitOrder = []UnitType{Spearman, Swordsman, Axeman, Scout, HeavyCavalry}

// BuildingSpec describes one building type. Per-level slices are indexed by
// level-1 for effects (production, capacity, defense) and by the current
// level for upgrade costs.
type BuildingSpec struct {
	Name      string
	MaxLevel  int
	Cost      [economy.NumResources][]float64
	BuildTime []int // seconds

	// Producers only.
	Produces   bool
	Resource   economy.ResourceType
	Production []float64 // per hour

	Capacity     []float64 // Warehouse only
	DefenseBonus []float64 // Wall only
}

// UnitSpec describes one unit type.
type UnitSpec struct {
	Name        string
	Cost        economy.Amounts
	Attack      float64
	Defense     float64
	Speed       float64 // fields per hour
	Carry       float64
	RecruitTime int // seconds
}

// Config is the full balance table set.
type Config struct {
	Buildings map[BuildingType]BuildingSpec
	Units     map[UnitType]UnitSpec
}

// Building returns the spec for t and whether it exists.
func (c *Config) Building(t BuildingType) (BuildingSpec, bool) {
	s, ok := c.Buildings[t]
	return s, ok
}

// Unit returns the spec for t and whether it exists.
func (c *Config) Unit(t UnitType) (UnitSpec, bool) {
	s, ok := c.Units[t]
	return s, ok
}

// UpgradeCost returns the cost of raising a building from level to level+1.
// ok is false when the table has no entry for that step.
func (s BuildingSpec) UpgradeCost(level int) (cost economy.Amounts, ok bool) {
	for _, r := range economy.ResourceOrder {
		table := s.Cost[r]
		if level < 0 || level >= len(table) {
			return economy.Amounts{}, false
		}
		cost[r] = table[level]
	}
	return cost, true
}

// ProductionAt returns the hourly output at level. Levels past the end of the
// table use the last entry; level 0 produces nothing.
func (s BuildingSpec) ProductionAt(level int) float64 {
	if !s.Produces {
		return 0
	}
	return lookup(s.Production, level)
}

// CapacityAt returns the warehouse capacity unlocked at level.
func (s BuildingSpec) CapacityAt(level int) float64 {
	return lookup(s.Capacity, level)
}

// DefenseBonusAt returns the wall bonus at level (0.05 = +5%).
func (s BuildingSpec) DefenseBonusAt(level int) float64 {
	return lookup(s.DefenseBonus, level)
}

func lookup(table []float64, level int) float64 {
	if level <= 0 || len(table) == 0 {
		return 0
	}
	idx := level - 1
	if idx >= len(table) {
		idx = len(table) - 1
	}
	return table[idx]
}
