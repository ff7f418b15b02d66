package engine

import (
	"time"

	"github.com/talgya/hexfront/internal/nav"
	"github.com/talgya/hexfront/internal/world"
)

// RoutePlan is a planned route with the opponent it ends on, if any.
type RoutePlan struct {
	Route   nav.Route        `json:"route"`
	Metrics nav.RouteMetrics `json:"metrics"`
	// TargetID is the opponent at the last point, 0 when the route ends
	// elsewhere.
	TargetID   uint64 `json:"target_id,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

// PlanRoute projects a route over s without touching it. A nil start
// begins at the home settlement.
func (s *State) PlanRoute(start *world.HexCoord, waypoints, entrenchments []world.HexCoord) RoutePlan {
	if start == nil {
		if home, ok := s.Home(); ok {
			pos := home.Position
			start = &pos
		}
	}
	var plan RoutePlan
	plan.Metrics = nav.PlanRoute(s.Grid, start, waypoints, entrenchments)
	if start == nil {
		return plan
	}

	points := append([]world.HexCoord{*start}, waypoints...)
	plan.Route = nav.ComposeRoute(s.Grid, points, nav.NewHexSet(entrenchments...))

	end := points[len(points)-1]
	for _, o := range s.Opponents {
		if o.Position == end {
			plan.TargetID = o.ID
			plan.TargetName = o.Name
			break
		}
	}
	return plan
}

// Visible returns the tiles the player sees at now from settlements,
// entrenchments and active scans.
func (s *State) Visible(entrenchments []world.HexCoord, scans []nav.Scan, now time.Time) nav.HexSet {
	centers := nav.VisionCenters(s.AllyPositions(), entrenchments, scans, now)
	return nav.VisibleSet(s.Grid, centers, nav.SightRadius)
}
