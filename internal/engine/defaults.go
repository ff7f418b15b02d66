package engine

import (
	"time"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/world"
)

// Starting values for a fresh world.
const (
	StartingStock    = 500
	StartingCapacity = 1000
	HomeID           = 1
)

// NewDefaultState builds the starting world: one player village, two
// opponents with tracked economies, and a grid for gen.
func NewDefaultState(now time.Time, gen world.GenConfig) *State {
	home := Settlement{
		ID:       HomeID,
		Name:     "Erstes Dorf",
		Position: world.HexCoord{Q: 23, R: 15},
		Buildings: []Building{
			{ID: 1, Type: balance.Headquarters, Level: 1},
			{ID: 2, Type: balance.Barracks, Level: 1},
			{ID: 3, Type: balance.Warehouse, Level: 1},
			{ID: 4, Type: balance.Woodcutter, Level: 1},
			{ID: 5, Type: balance.ClayPit, Level: 1},
			{ID: 6, Type: balance.IronMine, Level: 1},
			{ID: 7, Type: balance.Wall, Level: 0},
		},
		Units: army.FromCounts(map[balance.UnitType]int{
			balance.Spearman:  20,
			balance.Swordsman: 15,
			balance.Scout:     5,
		}),
	}

	opponents := []Settlement{
		{
			ID:        101,
			Name:      "Barbarendorf",
			Position:  world.HexCoord{Q: 25, R: 14},
			Buildings: []Building{{ID: 1, Type: balance.Wall, Level: 2}},
			Units:     army.Stacks{{Type: balance.Spearman, Count: 50}},
		},
		{
			ID:        102,
			Name:      "Verlassene Mine",
			Position:  world.HexCoord{Q: 21, R: 17},
			Buildings: []Building{{ID: 1, Type: balance.Wall, Level: 1}},
			Units: army.Stacks{
				{Type: balance.Swordsman, Count: 25},
				{Type: balance.Axeman, Count: 10},
			},
		},
	}

	econ := make(map[uint64]OpponentEconomy, len(opponents))
	for _, o := range opponents {
		econ[o.ID] = OpponentEconomy{
			ID:                o.ID,
			Resources:         economy.NewAmounts(StartingStock, StartingStock, StartingStock),
			Capacity:          StartingCapacity,
			ProductionPerHour: economy.NewAmounts(30, 30, 30),
		}
	}

	s := &State{
		Settlements:       []Settlement{home},
		Opponents:         opponents,
		OpponentEconomies: econ,
		Resources:         economy.NewAmounts(StartingStock, StartingStock, StartingStock),
		WarehouseCapacity: StartingCapacity,
		LastUpdate:        now,
	}
	return s.WithGrid(gen)
}

// SeedOpponents adds up to n barbarian villages on open ground of s.Grid,
// at least four hexes from every existing settlement. IDs continue after
// the highest opponent ID. The grid is regenerated for the new positions.
func SeedOpponents(s *State, gen world.GenConfig, n int) *State {
	if n <= 0 || s.Grid == nil {
		return s
	}
	taken := append(s.AllyPositions(), s.EnemyPositions()...)
	seeds := world.PlaceSettlements(s.Grid, gen.Seed, n, 4, taken)
	if len(seeds) == 0 {
		return s
	}

	next := s.Clone()
	var maxID uint64
	for _, o := range next.Opponents {
		maxID = max(maxID, o.ID)
	}
	for i, ss := range seeds {
		id := maxID + uint64(i) + 1
		next.Opponents = append(next.Opponents, Settlement{
			ID:        id,
			Name:      ss.Name,
			Position:  ss.Coord,
			Buildings: []Building{{ID: 1, Type: balance.Wall, Level: 1}},
			Units: army.FromCounts(map[balance.UnitType]int{
				balance.Spearman: 30,
				balance.Axeman:   5,
			}),
		})
		next.OpponentEconomies[id] = OpponentEconomy{
			ID:                id,
			Resources:         economy.NewAmounts(StartingStock, StartingStock, StartingStock),
			Capacity:          StartingCapacity,
			ProductionPerHour: economy.NewAmounts(30, 30, 30),
		}
	}
	return next.WithGrid(gen)
}
