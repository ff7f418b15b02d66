package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/world"
)

// Building is one building in a settlement.
type Building struct {
	ID    uint64               `json:"id"`
	Type  balance.BuildingType `json:"type"`
	Level int                  `json:"level"`
}

// Settlement is a village on the map, either the player's or an opponent's.
type Settlement struct {
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	Position  world.HexCoord `json:"position"`
	Buildings []Building     `json:"buildings"`
	Units     army.Stacks    `json:"units"`
}

// Clone returns a deep copy.
func (s Settlement) Clone() Settlement {
	s.Buildings = slices.Clone(s.Buildings)
	s.Units = s.Units.Clone()
	return s
}

// BuildingLevel returns the highest level of any building of type t, 0 if none.
func (s Settlement) BuildingLevel(t balance.BuildingType) int {
	lvl := 0
	for _, b := range s.Buildings {
		if b.Type == t && b.Level > lvl {
			lvl = b.Level
		}
	}
	return lvl
}

// OpponentEconomy is the tracked stockpile of an opponent settlement.
type OpponentEconomy struct {
	ID                uint64          `json:"id"`
	Resources         economy.Amounts `json:"resources"`
	Capacity          float64         `json:"capacity"`
	ProductionPerHour economy.Amounts `json:"production_per_hour"`
}

// State is one immutable snapshot of the world. Every mutation goes through
// Clone, so a published *State is never written again.
type State struct {
	Settlements       []Settlement               `json:"settlements"`
	Opponents         []Settlement               `json:"opponents"`
	OpponentEconomies map[uint64]OpponentEconomy `json:"opponent_economies"`
	Resources         economy.Amounts            `json:"resources"`
	WarehouseCapacity float64                    `json:"warehouse_capacity"`
	Movements         []army.Movement            `json:"movements"`
	Reports           combat.Log                 `json:"reports"`
	LastUpdate        time.Time                  `json:"last_update"`

	// Grid is shared between snapshots and replaced, never edited.
	Grid    *world.Grid `json:"-"`
	GridKey string      `json:"-"`
}

// Clone returns a deep copy sharing only the immutable grid.
func (s *State) Clone() *State {
	next := *s
	next.Settlements = cloneSettlements(s.Settlements)
	next.Opponents = cloneSettlements(s.Opponents)
	next.OpponentEconomies = make(map[uint64]OpponentEconomy, len(s.OpponentEconomies))
	for id, e := range s.OpponentEconomies {
		next.OpponentEconomies[id] = e
	}
	next.Movements = make([]army.Movement, len(s.Movements))
	for i, m := range s.Movements {
		next.Movements[i] = m.Clone()
	}
	next.Reports = s.Reports.Clone()
	return &next
}

func cloneSettlements(in []Settlement) []Settlement {
	if in == nil {
		return nil
	}
	out := make([]Settlement, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// Settlement returns the index of the player settlement with id, or -1.
func (s *State) Settlement(id uint64) int {
	return slices.IndexFunc(s.Settlements, func(st Settlement) bool { return st.ID == id })
}

// Opponent returns the index of the opponent with id, or -1.
func (s *State) Opponent(id uint64) int {
	return slices.IndexFunc(s.Opponents, func(st Settlement) bool { return st.ID == id })
}

// Home returns the first player settlement, if any.
func (s *State) Home() (Settlement, bool) {
	if len(s.Settlements) == 0 {
		return Settlement{}, false
	}
	return s.Settlements[0], true
}

// AllyPositions lists player settlement tiles.
func (s *State) AllyPositions() []world.HexCoord {
	return positions(s.Settlements)
}

// EnemyPositions lists opponent settlement tiles.
func (s *State) EnemyPositions() []world.HexCoord {
	return positions(s.Opponents)
}

func positions(ss []Settlement) []world.HexCoord {
	out := make([]world.HexCoord, len(ss))
	for i, st := range ss {
		out[i] = st.Position
	}
	return out
}

// gridKey identifies the inputs the grid depends on besides its GenConfig.
func (s *State) gridKey(cfg world.GenConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d/%d/%t", cfg.Width, cfg.Height, cfg.Seed, cfg.Noise)
	for _, c := range s.AllyPositions() {
		b.WriteString(";a" + c.String())
	}
	for _, c := range s.EnemyPositions() {
		b.WriteString(";e" + c.String())
	}
	return b.String()
}

// WithGrid returns s with a grid for cfg, regenerating only when settlement
// positions or cfg changed since the last one.
func (s *State) WithGrid(cfg world.GenConfig) *State {
	key := s.gridKey(cfg)
	if s.Grid != nil && s.GridKey == key {
		return s
	}
	next := s.Clone()
	next.Grid = world.Generate(cfg, s.AllyPositions(), s.EnemyPositions())
	next.GridKey = key
	return next
}

// Validate checks the invariants every published state must hold.
func (s *State) Validate() error {
	if !s.Resources.Within(s.WarehouseCapacity) {
		return fmt.Errorf("resources %v outside [0, %v]", s.Resources, s.WarehouseCapacity)
	}
	for id, e := range s.OpponentEconomies {
		if !e.Resources.Within(e.Capacity) {
			return fmt.Errorf("opponent %d resources %v outside [0, %v]", id, e.Resources, e.Capacity)
		}
	}
	for _, group := range [][]Settlement{s.Settlements, s.Opponents} {
		for _, st := range group {
			for _, u := range st.Units {
				if u.Count < 0 {
					return fmt.Errorf("settlement %d has %d %s", st.ID, u.Count, u.Type)
				}
			}
		}
	}
	for _, m := range s.Movements {
		for _, u := range m.Units {
			if u.Count < 0 {
				return fmt.Errorf("movement %s has %d %s", m.ID, u.Count, u.Type)
			}
		}
	}
	if len(s.Reports) > combat.LogCap {
		return fmt.Errorf("report log holds %d entries", len(s.Reports))
	}
	return nil
}
