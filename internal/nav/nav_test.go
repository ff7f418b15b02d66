package nav

import (
	"math"
	"testing"
	"time"

	"github.com/talgya/hexfront/internal/world"
)

func hc(q, r int) world.HexCoord { return world.HexCoord{Q: q, R: r} }

func blockTile(g *world.Grid, c world.HexCoord) {
	t := *g.Get(c)
	t.Blocked = true
	t.Terrain = world.TerrainCliff
	g.Set(t)
}

func setCost(g *world.Grid, c world.HexCoord, cost float64) {
	t := *g.Get(c)
	t.MovementCost = cost
	g.Set(t)
}

func TestFindPath_SamePoint(t *testing.T) {
	g := world.NewGrid(5, 5)
	p := FindPath(g, hc(2, 2), hc(2, 2))
	if p.Cost != 0 || len(p.Coords) != 1 || p.Coords[0] != hc(2, 2) {
		t.Fatalf("expected single-point zero-cost path, got %+v", p)
	}
}

func TestFindPath_OpenGridCostMatchesDistance(t *testing.T) {
	g := world.NewGrid(10, 10)
	a, b := hc(1, 1), hc(7, 4)
	p := FindPath(g, a, b)
	want := float64(world.Distance(a, b))
	if p.Cost != want {
		t.Fatalf("cost = %v, want %v on uniform plain grid", p.Cost, want)
	}
	if len(p.Coords) != world.Distance(a, b)+1 {
		t.Fatalf("path length %d, want %d", len(p.Coords), world.Distance(a, b)+1)
	}
	for i := 1; i < len(p.Coords); i++ {
		if world.Distance(p.Coords[i-1], p.Coords[i]) != 1 {
			t.Fatalf("path step %d not adjacent: %v -> %v", i, p.Coords[i-1], p.Coords[i])
		}
	}
}

func TestFindPath_CostIsSumOfEnteredTiles(t *testing.T) {
	g := world.Generate(world.DefaultGenConfig(), nil, nil)
	p := FindPath(g, hc(3, 3), hc(12, 8))
	if !p.Reachable() {
		t.Skip("seeded grid disconnected between probe points")
	}
	sum := 0.0
	for _, c := range p.Coords[1:] {
		sum += g.Get(c).MovementCost
	}
	if math.Abs(sum-p.Cost) > 1e-9 {
		t.Fatalf("reported cost %v, summed %v", p.Cost, sum)
	}
}

func TestFindPath_SymmetricOnUniformTerrain(t *testing.T) {
	g := world.NewGrid(12, 12)
	for _, c := range []world.HexCoord{hc(3, 3), hc(4, 5), hc(6, 2)} {
		setCost(g, c, 1.9)
	}
	ab := FindPath(g, hc(1, 1), hc(9, 7))
	ba := FindPath(g, hc(9, 7), hc(1, 1))
	// Both endpoints are plain, so entered-tile cost is the same either way.
	if math.Abs(ab.Cost-ba.Cost) > 1e-9 {
		t.Fatalf("asymmetric cost %v vs %v", ab.Cost, ba.Cost)
	}
}

func TestFindPath_AvoidsExpensiveTiles(t *testing.T) {
	g := world.NewGrid(5, 3)
	// Straight line along r=1 is expensive; detour via r=0 is cheaper.
	for q := 1; q <= 3; q++ {
		setCost(g, hc(q, 1), 5)
	}
	p := FindPath(g, hc(0, 1), hc(4, 1))
	if p.Cost >= 15 {
		t.Fatalf("expected detour cheaper than straight line, got %v", p.Cost)
	}
}

func TestFindPath_BlockedGoalUnreachable(t *testing.T) {
	g := world.NewGrid(5, 5)
	blockTile(g, hc(3, 3))
	p := FindPath(g, hc(0, 0), hc(3, 3))
	if !math.IsInf(p.Cost, 1) || len(p.Coords) != 0 {
		t.Fatalf("expected unreachable, got %+v", p)
	}
}

func TestFindPath_WalledOffUnreachable(t *testing.T) {
	g := world.NewGrid(5, 5)
	for r := 0; r < 5; r++ {
		blockTile(g, hc(2, r))
	}
	if p := FindPath(g, hc(0, 2), hc(4, 2)); p.Reachable() {
		t.Fatalf("wall should disconnect the grid, got %+v", p)
	}
}

func TestFindPath_OutOfBounds(t *testing.T) {
	g := world.NewGrid(5, 5)
	if p := FindPath(g, hc(-1, 0), hc(2, 2)); p.Reachable() {
		t.Fatal("out-of-bounds start must be unreachable")
	}
	if p := FindPath(g, hc(0, 0), hc(9, 9)); p.Reachable() {
		t.Fatal("out-of-bounds goal must be unreachable")
	}
}

func TestFindPath_DeterministicTies(t *testing.T) {
	g := world.NewGrid(8, 8)
	first := FindPath(g, hc(0, 0), hc(5, 5))
	for i := 0; i < 20; i++ {
		again := FindPath(g, hc(0, 0), hc(5, 5))
		if len(again.Coords) != len(first.Coords) {
			t.Fatal("path length changed between runs")
		}
		for j := range first.Coords {
			if again.Coords[j] != first.Coords[j] {
				t.Fatalf("run %d chose a different tie path at step %d", i, j)
			}
		}
	}
}

func TestComposeRoute_SumsSegments(t *testing.T) {
	g := world.Generate(world.DefaultGenConfig(), nil, nil)
	a, b, c := hc(2, 2), hc(10, 6), hc(15, 12)
	ab := FindPath(g, a, b)
	bc := FindPath(g, b, c)
	if !ab.Reachable() || !bc.Reachable() {
		t.Skip("probe points not connected on seeded grid")
	}
	r := ComposeRoute(g, []world.HexCoord{a, b, c}, nil)
	if math.Abs(r.TotalCost-(ab.Cost+bc.Cost)) > 1e-9 {
		t.Fatalf("route cost %v, want %v", r.TotalCost, ab.Cost+bc.Cost)
	}
	if len(r.Path) != len(ab.Coords)+len(bc.Coords)-1 {
		t.Fatalf("junction not deduplicated: %d tiles", len(r.Path))
	}
	if len(r.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(r.Segments))
	}
}

func TestComposeRoute_EntrenchedOrigin(t *testing.T) {
	g := world.NewGrid(10, 10)
	a, b := hc(1, 1), hc(5, 1)
	plain := ComposeRoute(g, []world.HexCoord{a, b}, nil)
	dug := ComposeRoute(g, []world.HexCoord{a, b}, NewHexSet(a))
	if math.Abs(dug.TotalCost-plain.TotalCost*EntrenchedMultiplier) > 1e-9 {
		t.Fatalf("entrenched cost %v, want %v", dug.TotalCost, plain.TotalCost*EntrenchedMultiplier)
	}
	if len(dug.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(dug.Segments))
	}
	if seg := dug.Segments[0]; seg.ETASeconds != seg.Cost*SecondsPerCost {
		t.Fatalf("segment eta %v, want %v", seg.ETASeconds, seg.Cost*SecondsPerCost)
	}
	// 4 plain tiles at 0.85: 3.4 cost, 20.4 s.
	if math.Abs(dug.Segments[0].ETASeconds-20.4) > 1e-9 {
		t.Fatalf("segment eta %v, want 20.4", dug.Segments[0].ETASeconds)
	}
	// Entrenching the destination does not discount the leg.
	far := ComposeRoute(g, []world.HexCoord{a, b}, NewHexSet(b))
	if far.TotalCost != plain.TotalCost {
		t.Fatal("only the segment origin should be discounted")
	}
}

func TestComposeRoute_FailingLegIsInfinite(t *testing.T) {
	g := world.NewGrid(6, 6)
	blockTile(g, hc(4, 4))
	r := ComposeRoute(g, []world.HexCoord{hc(0, 0), hc(2, 2), hc(4, 4)}, nil)
	if r.Reachable() || len(r.Path) != 0 {
		t.Fatalf("expected infinite empty route, got %+v", r)
	}
}

func TestComposeRoute_Trivial(t *testing.T) {
	g := world.NewGrid(4, 4)
	if r := ComposeRoute(g, nil, nil); r.TotalCost != 0 || len(r.Path) != 0 {
		t.Fatalf("empty route = %+v", r)
	}
	r := ComposeRoute(g, []world.HexCoord{hc(1, 1)}, nil)
	if r.TotalCost != 0 || len(r.Path) != 1 {
		t.Fatalf("single point route = %+v", r)
	}
}

func TestVisibleSet_Radius(t *testing.T) {
	g := world.NewGrid(20, 20)
	center := hc(10, 10)
	set := VisibleSet(g, []world.HexCoord{center}, 2)
	// A full radius-2 hexagon has 1 + 6 + 12 tiles.
	if len(set) != 19 {
		t.Fatalf("expected 19 visible tiles, got %d", len(set))
	}
	for c := range set {
		if world.Distance(c, center) > 2 {
			t.Fatalf("%v outside radius", c)
		}
	}
}

func TestVisibleSet_ClippedAndUnion(t *testing.T) {
	g := world.NewGrid(10, 10)
	set := VisibleSet(g, []world.HexCoord{hc(0, 0), hc(9, 9)}, 1)
	if !set.Has(hc(0, 0)) || !set.Has(hc(9, 9)) {
		t.Fatal("centers must be visible")
	}
	for c := range set {
		if !g.InBounds(c) {
			t.Fatalf("%v out of bounds", c)
		}
	}
	if set.Has(hc(5, 5)) {
		t.Fatal("middle should be fogged")
	}
}

func TestVisionCenters_ScanExpiry(t *testing.T) {
	now := time.Unix(5000, 0)
	scans := []Scan{
		{Center: hc(1, 1), ExpiresAt: now.Add(time.Second)},
		{Center: hc(2, 2), ExpiresAt: now},
	}
	centers := VisionCenters([]world.HexCoord{hc(0, 0)}, []world.HexCoord{hc(3, 3)}, scans, now)
	if len(centers) != 3 {
		t.Fatalf("expected owned+entrenched+1 active scan, got %v", centers)
	}
	later := VisionCenters(nil, nil, scans, now.Add(2*time.Second))
	if len(later) != 0 {
		t.Fatalf("all scans expired, got %v", later)
	}
}

func TestPlanRoute(t *testing.T) {
	g := world.NewGrid(10, 10)
	if m := PlanRoute(g, nil, []world.HexCoord{hc(1, 1)}, nil); m != (RouteMetrics{}) {
		t.Fatalf("nil start should give zero metrics, got %+v", m)
	}
	start := hc(0, 0)
	m := PlanRoute(g, &start, []world.HexCoord{hc(3, 0), hc(3, 3)}, nil)
	if m.TotalCost != 6 || m.ETASeconds != 36 || m.Distance != 6 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestRouteState_EditsRecompute(t *testing.T) {
	g := world.NewGrid(10, 10)
	home := hc(0, 0)
	rs := NewRouteState(g, &home)
	rs2 := rs.AddWaypoint(g, hc(4, 0))
	if rs2.Metrics.TotalCost != 4 {
		t.Fatalf("cost after waypoint = %v", rs2.Metrics.TotalCost)
	}
	if len(rs.Waypoints) != 0 {
		t.Fatal("edits must not mutate the previous state")
	}
	rs3 := rs2.ToggleEntrenchment(g, home)
	if math.Abs(rs3.Metrics.TotalCost-4*EntrenchedMultiplier) > 1e-9 {
		t.Fatalf("entrenched cost = %v", rs3.Metrics.TotalCost)
	}
	rs4 := rs3.ToggleEntrenchment(g, home)
	if rs4.Metrics.TotalCost != 4 {
		t.Fatal("toggling twice should restore the cost")
	}
	rs5 := rs4.SetEnd(g, hc(2, 0)).Undo(g)
	if len(rs5.Waypoints) != 0 || rs5.Metrics.TotalCost != 0 {
		t.Fatalf("undo after set-end = %+v", rs5)
	}
	if same := rs5.AddWaypoint(g, hc(50, 50)); len(same.Waypoints) != 0 {
		t.Fatal("out-of-bounds waypoint should be ignored")
	}
}

func TestRouteState_VisibleWithScan(t *testing.T) {
	g := world.NewGrid(30, 30)
	now := time.Unix(100, 0)
	rs := NewRouteState(g, nil).AddScan(g, hc(20, 20), now)
	if !rs.Visible(g, nil, now).Has(hc(20, 20)) {
		t.Fatal("scan should reveal its center")
	}
	if rs.Visible(g, nil, now.Add(ScanDuration)).Has(hc(20, 20)) {
		t.Fatal("scan should expire at ExpiresAt")
	}
}
