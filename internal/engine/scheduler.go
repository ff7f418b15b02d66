package engine

import (
	"log/slog"
	"time"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/economy"
)

// Deps are the read-only collaborators a tick needs.
type Deps struct {
	Balance *balance.Config
	Combat  *combat.Resolver
}

// TickResult summarizes what one tick did, for logging and callbacks.
type TickResult struct {
	Elapsed  time.Duration
	Battles  int
	Returns  int
	Dropped  int
	Rejected bool
}

// AdvanceTick moves the world from prev.LastUpdate to now. prev is never
// modified. If the new state fails validation prev is returned unchanged.
func AdvanceTick(prev *State, now time.Time, deps Deps) *State {
	next, _ := advance(prev, now, deps)
	return next
}

func advance(prev *State, now time.Time, deps Deps) (*State, TickResult) {
	var res TickResult

	elapsed := now.Sub(prev.LastUpdate)
	if prev.LastUpdate.IsZero() || elapsed < 0 {
		elapsed = 0
	}
	res.Elapsed = elapsed
	secs := elapsed.Seconds()

	next := prev.Clone()

	// Player pool.
	next.WarehouseCapacity = Capacity(deps.Balance, prev.Settlements, prev.WarehouseCapacity)
	rate := PoolProduction(deps.Balance, prev.Settlements)
	next.Resources = economy.Accrue(prev.Resources, rate, secs, next.WarehouseCapacity)

	// Opponents accrue on their own rates and capacity.
	for id, e := range prev.OpponentEconomies {
		e.Resources = economy.Accrue(e.Resources, e.ProductionPerHour, secs, e.Capacity)
		next.OpponentEconomies[id] = e
	}

	arrived, transit := army.Partition(next.Movements, now)
	next.Movements = transit

	for _, m := range arrived {
		var ok bool
		switch m.Kind {
		case army.KindAttack:
			ok = resolveAttack(next, m, now, deps)
			if ok {
				res.Battles++
			}
		case army.KindReturn:
			ok = applyReturn(next, m)
			if ok {
				res.Returns++
			}
		}
		if !ok {
			res.Dropped++
			slog.Warn("dropped malformed movement",
				"id", m.ID, "kind", m.Kind, "origin", m.OriginID, "target", m.TargetID)
		}
	}

	next.LastUpdate = now

	if next.WarehouseCapacity < prev.WarehouseCapacity {
		slog.Error("tick rejected: warehouse capacity regressed",
			"prev", prev.WarehouseCapacity, "next", next.WarehouseCapacity)
		res.Rejected = true
		return prev, res
	}
	if err := next.Validate(); err != nil {
		slog.Error("tick rejected", "error", err)
		res.Rejected = true
		return prev, res
	}
	return next, res
}

// resolveAttack fights m against its target and folds the outcome into s.
// It reports false when the movement references nothing it can resolve.
func resolveAttack(s *State, m army.Movement, now time.Time, deps Deps) bool {
	oi := s.Settlement(m.OriginID)
	ti := s.Opponent(m.TargetID)
	if oi < 0 || ti < 0 {
		return false
	}
	target := &s.Opponents[ti]

	def := combat.Defender{
		Name:      target.Name,
		Units:     target.Units,
		WallLevel: target.BuildingLevel(balance.Wall),
	}
	econ, tracked := s.OpponentEconomies[target.ID]
	if tracked {
		stock := econ.Resources
		def.Stock = &stock
	}

	out := deps.Combat.Resolve(m, s.Settlements[oi].Name, def, now)

	target.Units = out.DefenderUnits
	if tracked && out.Stock != nil {
		econ.Resources = *out.Stock
		s.OpponentEconomies[target.ID] = econ
	}
	s.Reports = s.Reports.Prepend(out.Report)
	if out.Return != nil {
		s.Movements = append(s.Movements, *out.Return)
	}

	slog.Debug("battle resolved",
		"attacker", out.Report.Attacker, "defender", out.Report.Defender,
		"won", out.Report.AttackerWon, "plunder", out.Plunder.Total())
	return true
}

// applyReturn merges a homecoming army and its plunder into its settlement.
func applyReturn(s *State, m army.Movement) bool {
	i := s.Settlement(m.TargetID)
	if i < 0 {
		return false
	}
	s.Settlements[i].Units = s.Settlements[i].Units.Merge(m.Units)
	if m.Plunder != nil {
		s.Resources = s.Resources.Add(*m.Plunder).Clamp(s.WarehouseCapacity)
	}
	return true
}
