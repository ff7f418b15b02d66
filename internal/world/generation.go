// World generation: seeded per-tile terrain draws mapped through fixed
// probability bands, with settlement tiles exempt from blocking terrain.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainPlain Terrain = iota
	TerrainWoods
	TerrainHills
	TerrainSwamp
	TerrainCliff // impassable
)

// Cost returns the movement cost of entering a tile of this terrain.
func (t Terrain) Cost() float64 {
	switch t {
	case TerrainWoods:
		return 1.35
	case TerrainHills:
		return 1.6
	case TerrainSwamp:
		return 1.9
	default:
		return 1.0
	}
}

// Blocked reports whether the terrain cannot be entered.
func (t Terrain) Blocked() bool {
	return t == TerrainCliff
}

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width  int   // axial q range
	Height int   // axial r range
	Seed   int64 // used as given; callers pick a random seed up front

	// Upper bounds of each band on the [0,1) draw. A draw below CliffBand
	// becomes cliff unless a settlement sits there.
	CliffBand float64
	SwampBand float64
	HillsBand float64
	WoodsBand float64

	// Noise draws from layered simplex noise instead of the sequential
	// generator, giving coherent regions rather than salt-and-pepper terrain.
	Noise bool
}

// DefaultGenConfig returns the standard world size and bands.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     46,
		Height:    30,
		Seed:      2025,
		CliffBand: 0.05,
		SwampBand: 0.22,
		HillsBand: 0.45,
		WoodsBand: 0.68,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 8
	cfg.Height = 6
	cfg.Seed = 42
	return cfg
}

// Generate creates a grid whose terrain is a pure function of cfg and the
// settlement positions. Allies take precedence over enemies on a shared tile.
func Generate(cfg GenConfig, allies, enemies []HexCoord) *Grid {
	seed := cfg.Seed
	g := NewGrid(cfg.Width, cfg.Height)
	g.Seed = seed

	owners := make(map[HexCoord]OwnerMark, len(allies)+len(enemies))
	for _, c := range enemies {
		owners[c] = OwnerEnemy
	}
	for _, c := range allies {
		owners[c] = OwnerAlly
	}

	draw := sequentialDraw(seed)
	if cfg.Noise {
		draw = noiseDraw(seed)
	}

	// Row-major order keeps the sequential draw stable for a given seed.
	for r := 0; r < g.Height; r++ {
		for q := 0; q < g.Width; q++ {
			coord := HexCoord{Q: q, R: r}
			v := draw(coord)
			owner, settled := owners[coord]
			terrain := band(cfg, v, settled)
			g.Set(Tile{
				Coord:        coord,
				Terrain:      terrain,
				MovementCost: terrain.Cost(),
				Blocked:      terrain.Blocked(),
				Owner:        owner,
				Variant:      int(v * 100),
			})
		}
	}

	return g
}

func band(cfg GenConfig, v float64, settled bool) Terrain {
	switch {
	case !settled && v < cfg.CliffBand:
		return TerrainCliff
	case v < cfg.SwampBand:
		return TerrainSwamp
	case v < cfg.HillsBand:
		return TerrainHills
	case v < cfg.WoodsBand:
		return TerrainWoods
	default:
		return TerrainPlain
	}
}

// sequentialDraw consumes one value per tile regardless of settlement
// placement, so moving a settlement never shifts other tiles' terrain.
func sequentialDraw(seed int64) func(HexCoord) float64 {
	rng := rand.New(rand.NewSource(seed))
	return func(HexCoord) float64 {
		return rng.Float64()
	}
}

func noiseDraw(seed int64) func(HexCoord) float64 {
	noise := opensimplex.NewNormalized(seed)
	return func(c HexCoord) float64 {
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(c.Q) + float64(c.R)*0.5
		y := float64(c.R) * math.Sqrt(3.0) / 2.0
		v := octaveNoise(noise, x, y, 4, 0.12, 0.5)
		// Stretch around the mean so the outer bands are reachable.
		v = (v-0.5)*1.8 + 0.5
		return math.Min(math.Max(v, 0), 0.999999)
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range g.tiles {
		counts[t.Terrain]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlain:
		return "Plain"
	case TerrainWoods:
		return "Woods"
	case TerrainHills:
		return "Hills"
	case TerrainSwamp:
		return "Swamp"
	case TerrainCliff:
		return "Cliff"
	default:
		return "Unknown"
	}
}
