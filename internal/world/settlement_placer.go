// Settlement placement: finds open tiles for additional opponent villages.
package world

import (
	"fmt"
	"math/rand"
	"sort"
)

// SettlementSeed holds the parameters for a generated settlement placement.
type SettlementSeed struct {
	Coord HexCoord
	Score float64 // Desirability score
	Name  string
}

// PlaceSettlements picks up to count passable tiles for new settlements,
// best-scored first, keeping at least minDist from every taken position and
// from each other. The result depends only on the grid, seed and inputs.
func PlaceSettlements(g *Grid, seed int64, count, minDist int, taken []HexCoord) []SettlementSeed {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		coord HexCoord
		score float64
	}
	var candidates []scored

	// Row-major scan, so equal scores keep a stable order.
	for _, t := range g.tiles {
		if t.Blocked || t.Owner != OwnerNeutral {
			continue
		}
		if s := settlementScore(g, t); s > 0 {
			// Small jitter spreads villages instead of clustering on identical scores.
			candidates = append(candidates, scored{t.Coord, s + rng.Float64()*0.25})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	occupied := append([]HexCoord(nil), taken...)
	var seeds []SettlementSeed
	for _, c := range candidates {
		if len(seeds) >= count {
			break
		}
		if tooClose(c.coord, occupied, minDist) {
			continue
		}
		occupied = append(occupied, c.coord)
		seeds = append(seeds, SettlementSeed{Coord: c.coord, Score: c.score})
	}

	names := generateNames(rng, len(seeds))
	for i := range seeds {
		seeds[i].Name = names[i]
	}
	return seeds
}

// settlementScore prefers easy ground with open approaches.
func settlementScore(g *Grid, t Tile) float64 {
	score := 0.0
	switch t.Terrain {
	case TerrainPlain:
		score += 3.0
	case TerrainWoods:
		score += 2.0
	case TerrainHills:
		score += 1.5
	case TerrainSwamp:
		score += 0.5
	default:
		return 0
	}

	open := 0
	for _, n := range g.Neighbors(t.Coord) {
		if g.Passable(n) {
			open++
		}
	}
	if open == 0 {
		return 0 // Unreachable pocket.
	}
	score += float64(open) * 0.3
	return score
}

func tooClose(coord HexCoord, existing []HexCoord, minDist int) bool {
	for _, c := range existing {
		if Distance(coord, c) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural settlement names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "High", "Low", "Old",
		"Far", "Deep", "Broad", "Frost", "Storm", "Thorn", "Oak",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "moor",
		"ridge", "watch", "fall", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	combos := len(prefixes) * len(suffixes)
	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if used[name] {
			if len(used) < combos {
				continue
			}
			// Pool exhausted: number the repeats.
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		used[name] = true
		names = append(names, name)
	}

	return names
}
