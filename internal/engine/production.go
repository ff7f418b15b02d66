// Building-based production and warehouse capacity.
package engine

import (
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/economy"
)

// HourlyProduction sums the per-hour output of every producing building
// with a positive level.
func HourlyProduction(cfg *balance.Config, buildings []Building) economy.Amounts {
	var rate economy.Amounts
	for _, b := range buildings {
		if b.Level <= 0 {
			continue
		}
		spec, ok := cfg.Building(b.Type)
		if !ok || !spec.Produces {
			continue
		}
		rate[spec.Resource] += spec.ProductionAt(b.Level)
	}
	return rate
}

// PoolProduction is the combined hourly output of all player settlements,
// which share one resource pool.
func PoolProduction(cfg *balance.Config, settlements []Settlement) economy.Amounts {
	var rate economy.Amounts
	for _, s := range settlements {
		rate = rate.Add(HourlyProduction(cfg, s.Buildings))
	}
	return rate
}

// Capacity returns the largest capacity unlocked by any warehouse in
// settlements, never below prev and never below the level-1 baseline.
func Capacity(cfg *balance.Config, settlements []Settlement, prev float64) float64 {
	best := prev
	spec, ok := cfg.Building(balance.Warehouse)
	if !ok {
		return best
	}
	if len(spec.Capacity) > 0 {
		best = max(best, spec.Capacity[0])
	}
	for _, s := range settlements {
		if lvl := s.BuildingLevel(balance.Warehouse); lvl > 0 {
			best = max(best, spec.CapacityAt(lvl))
		}
	}
	return best
}
