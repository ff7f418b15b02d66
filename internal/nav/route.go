package nav

import (
	"math"

	"github.com/talgya/hexfront/internal/world"
)

// EntrenchedMultiplier scales the cost of a segment that starts on an
// entrenched tile.
const EntrenchedMultiplier = 0.85

// Segment is one leg of a composed route.
type Segment struct {
	From       world.HexCoord `json:"from"`
	To         world.HexCoord `json:"to"`
	Cost       float64        `json:"cost"`        // after the origin multiplier
	ETASeconds float64        `json:"eta_seconds"` // Cost at SecondsPerCost
}

// Route is a multi-waypoint path.
type Route struct {
	Path      []world.HexCoord `json:"path"`
	TotalCost float64          `json:"total_cost"` // +Inf when any leg fails
	Segments  []Segment        `json:"segments"`
}

// Reachable reports whether every leg of the route was found.
func (r Route) Reachable() bool {
	return !math.IsInf(r.TotalCost, 1)
}

// ComposeRoute chains FindPath across consecutive points, dropping the
// duplicated junction tile between legs. Zero points give an empty route and
// one point a single-tile route, both with cost 0.
func ComposeRoute(g *world.Grid, points []world.HexCoord, entrenched HexSet) Route {
	switch len(points) {
	case 0:
		return Route{}
	case 1:
		return Route{Path: []world.HexCoord{points[0]}}
	}

	path := []world.HexCoord{points[0]}
	total := 0.0
	segs := make([]Segment, 0, len(points)-1)

	for i := 0; i < len(points)-1; i++ {
		leg := FindPath(g, points[i], points[i+1])
		if !leg.Reachable() {
			return Route{TotalCost: math.Inf(1)}
		}
		mult := 1.0
		if entrenched.Has(points[i]) {
			mult = EntrenchedMultiplier
		}
		cost := leg.Cost * mult
		path = append(path, leg.Coords[1:]...)
		total += cost
		segs = append(segs, Segment{
			From:       points[i],
			To:         points[i+1],
			Cost:       cost,
			ETASeconds: cost * SecondsPerCost,
		})
	}

	return Route{Path: path, TotalCost: total, Segments: segs}
}
