package nav

import (
	"math"
	"slices"
	"time"

	"github.com/talgya/hexfront/internal/world"
)

// SecondsPerCost converts route cost into travel seconds for planning display.
const SecondsPerCost = 6

// RouteMetrics summarizes a planned route.
type RouteMetrics struct {
	TotalCost  float64 `json:"total_cost"`  // +Inf when unreachable
	ETASeconds float64 `json:"eta_seconds"` // +Inf when unreachable
	Distance   int     `json:"distance"`    // summed hex distance between points
}

// PlanRoute computes metrics for start followed by waypoints. A nil start
// yields zero metrics.
func PlanRoute(g *world.Grid, start *world.HexCoord, waypoints, entrenchments []world.HexCoord) RouteMetrics {
	if start == nil {
		return RouteMetrics{}
	}
	points := append([]world.HexCoord{*start}, waypoints...)
	route := ComposeRoute(g, points, NewHexSet(entrenchments...))

	dist := 0
	for i := 1; i < len(points); i++ {
		dist += world.Distance(points[i-1], points[i])
	}
	eta := route.TotalCost * SecondsPerCost
	if !route.Reachable() {
		eta = math.Inf(1)
	}
	return RouteMetrics{TotalCost: route.TotalCost, ETASeconds: eta, Distance: dist}
}

// RouteState is the planning overlay: a start, waypoints, entrenched tiles
// and scans. It is a value that every edit replaces, and Metrics is always
// recomputed from the other fields plus the grid.
type RouteState struct {
	Start         *world.HexCoord  `json:"start,omitempty"`
	Waypoints     []world.HexCoord `json:"waypoints"`
	Entrenchments []world.HexCoord `json:"entrenchments"`
	Scans         []Scan           `json:"scans"`
	Metrics       RouteMetrics     `json:"metrics"`
}

// NewRouteState starts a plan at home (nil for no start).
func NewRouteState(g *world.Grid, home *world.HexCoord) RouteState {
	var rs RouteState
	if home != nil {
		h := *home
		rs.Start = &h
	}
	return rs.recompute(g)
}

func (rs RouteState) clone() RouteState {
	if rs.Start != nil {
		s := *rs.Start
		rs.Start = &s
	}
	rs.Waypoints = slices.Clone(rs.Waypoints)
	rs.Entrenchments = slices.Clone(rs.Entrenchments)
	rs.Scans = slices.Clone(rs.Scans)
	return rs
}

func (rs RouteState) recompute(g *world.Grid) RouteState {
	rs.Metrics = PlanRoute(g, rs.Start, rs.Waypoints, rs.Entrenchments)
	return rs
}

// WithStart moves the route origin. Out-of-bounds coordinates are ignored.
func (rs RouteState) WithStart(g *world.Grid, c world.HexCoord) RouteState {
	if !g.InBounds(c) {
		return rs
	}
	next := rs.clone()
	next.Start = &c
	return next.recompute(g)
}

// AddWaypoint appends c to the route.
func (rs RouteState) AddWaypoint(g *world.Grid, c world.HexCoord) RouteState {
	if !g.InBounds(c) {
		return rs
	}
	next := rs.clone()
	next.Waypoints = append(next.Waypoints, c)
	return next.recompute(g)
}

// SetEnd replaces the last waypoint with c, or adds it when there is none.
func (rs RouteState) SetEnd(g *world.Grid, c world.HexCoord) RouteState {
	if !g.InBounds(c) {
		return rs
	}
	next := rs.clone()
	if n := len(next.Waypoints); n > 0 {
		next.Waypoints[n-1] = c
	} else {
		next.Waypoints = []world.HexCoord{c}
	}
	return next.recompute(g)
}

// MoveWaypoint relocates waypoint i.
func (rs RouteState) MoveWaypoint(g *world.Grid, i int, c world.HexCoord) RouteState {
	if !g.InBounds(c) || i < 0 || i >= len(rs.Waypoints) {
		return rs
	}
	next := rs.clone()
	next.Waypoints[i] = c
	return next.recompute(g)
}

// Undo drops the last waypoint.
func (rs RouteState) Undo(g *world.Grid) RouteState {
	if len(rs.Waypoints) == 0 {
		return rs
	}
	next := rs.clone()
	next.Waypoints = next.Waypoints[:len(next.Waypoints)-1]
	return next.recompute(g)
}

// Reset clears waypoints and restarts at home.
func (rs RouteState) Reset(g *world.Grid, home *world.HexCoord) RouteState {
	next := rs.clone()
	next.Waypoints = nil
	next.Start = nil
	if home != nil {
		h := *home
		next.Start = &h
	}
	return next.recompute(g)
}

// ToggleEntrenchment adds c to the entrenched set or removes it.
func (rs RouteState) ToggleEntrenchment(g *world.Grid, c world.HexCoord) RouteState {
	if !g.InBounds(c) {
		return rs
	}
	next := rs.clone()
	if i := slices.Index(next.Entrenchments, c); i >= 0 {
		next.Entrenchments = slices.Delete(next.Entrenchments, i, i+1)
	} else {
		next.Entrenchments = append(next.Entrenchments, c)
	}
	return next.recompute(g)
}

// AddScan reveals the area around c until now+ScanDuration. Expired scans
// are dropped.
func (rs RouteState) AddScan(g *world.Grid, c world.HexCoord, now time.Time) RouteState {
	if !g.InBounds(c) {
		return rs
	}
	next := rs.clone()
	next.Scans = slices.DeleteFunc(next.Scans, func(s Scan) bool { return !s.Active(now) })
	next.Scans = append(next.Scans, Scan{Center: c, ExpiresAt: now.Add(ScanDuration)})
	return next
}

// Points returns start followed by waypoints.
func (rs RouteState) Points() []world.HexCoord {
	if rs.Start == nil {
		return slices.Clone(rs.Waypoints)
	}
	return append([]world.HexCoord{*rs.Start}, rs.Waypoints...)
}

// Visible returns the fog-of-war reveal for the owned settlement tiles plus
// this plan's entrenchments and active scans.
func (rs RouteState) Visible(g *world.Grid, owned []world.HexCoord, now time.Time) HexSet {
	return VisibleSet(g, VisionCenters(owned, rs.Entrenchments, rs.Scans, now), SightRadius)
}
