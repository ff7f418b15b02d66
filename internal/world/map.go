package world

import "fmt"

// OwnerMark records who holds the settlement on a tile, if anyone.
type OwnerMark uint8

const (
	OwnerNeutral OwnerMark = iota
	OwnerAlly
	OwnerEnemy
)

func (o OwnerMark) String() string {
	switch o {
	case OwnerAlly:
		return "ally"
	case OwnerEnemy:
		return "enemy"
	default:
		return "neutral"
	}
}

// Tile is a single cell on the grid.
type Tile struct {
	Coord        HexCoord  `json:"coord"`
	Terrain      Terrain   `json:"terrain"`
	MovementCost float64   `json:"movement_cost"` // price of entering, >= 1
	Blocked      bool      `json:"blocked"`
	Owner        OwnerMark `json:"owner"`
	Variant      int       `json:"variant"` // cosmetic, 0-99
}

// Grid is a dense width × height array of tiles addressed by axial
// coordinate with 0 <= q < Width and 0 <= r < Height.
type Grid struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Seed   int64 `json:"seed"`

	tiles []Tile
}

// NewGrid creates a grid of plain tiles.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g := &Grid{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
	}
	for r := 0; r < height; r++ {
		for q := 0; q < width; q++ {
			g.tiles[r*width+q] = Tile{
				Coord:        HexCoord{Q: q, R: r},
				Terrain:      TerrainPlain,
				MovementCost: TerrainPlain.Cost(),
			}
		}
	}
	return g
}

// InBounds returns true if the coordinate lies on the grid.
func (g *Grid) InBounds(c HexCoord) bool {
	return g != nil && c.Q >= 0 && c.R >= 0 && c.Q < g.Width && c.R < g.Height
}

// Get returns the tile at c, or nil if c is out of bounds.
// The pointer aliases grid storage; callers outside generation must not write through it.
func (g *Grid) Get(c HexCoord) *Tile {
	if !g.InBounds(c) {
		return nil
	}
	return &g.tiles[c.R*g.Width+c.Q]
}

// Set overwrites the tile at tile.Coord. Out-of-bounds tiles are ignored.
func (g *Grid) Set(t Tile) {
	if !g.InBounds(t.Coord) {
		return
	}
	g.tiles[t.Coord.R*g.Width+t.Coord.Q] = t
}

// Passable reports whether c is on the grid and not blocked.
func (g *Grid) Passable(c HexCoord) bool {
	t := g.Get(c)
	return t != nil && !t.Blocked
}

// Neighbors returns the in-bounds neighbors of c in HexNeighborDirections order.
func (g *Grid) Neighbors(c HexCoord) []HexCoord {
	out := make([]HexCoord, 0, 6)
	for _, n := range c.Neighbors() {
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Tiles returns a copy of all tiles in row-major order.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// HexCount returns the total number of tiles.
func (g *Grid) HexCount() int {
	return len(g.tiles)
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, seed=%d)", g.Width, g.Height, g.Seed)
}
