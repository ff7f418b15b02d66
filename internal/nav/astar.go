// Package nav computes least-cost routes and visible tile sets over the hex
// grid. Everything here is a pure function of its inputs.
package nav

import (
	"container/heap"
	"math"

	"github.com/talgya/hexfront/internal/world"
)

// Path is the result of a single search.
type Path struct {
	Coords []world.HexCoord `json:"coords"`
	Cost   float64          `json:"cost"` // +Inf when unreachable
}

// Reachable reports whether the search found a path.
func (p Path) Reachable() bool {
	return !math.IsInf(p.Cost, 1) && len(p.Coords) > 0
}

func unreachable() Path {
	return Path{Cost: math.Inf(1)}
}

type pathNode struct {
	coord world.HexCoord
	g, f  float64
	seq   uint64 // discovery order, breaks f ties
	index int
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	if ol[i].f != ol[j].f {
		return ol[i].f < ol[j].f
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int)       { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// FindPath runs A* from start to goal minimizing the summed movement cost of
// entered tiles. Blocked and out-of-bounds tiles are never entered. When two
// frontier nodes share an f score the one discovered first expands first, and
// a node's parent only changes on a strictly cheaper route, so results do not
// depend on map iteration order.
func FindPath(g *world.Grid, start, goal world.HexCoord) Path {
	if !g.InBounds(start) || !g.InBounds(goal) {
		return unreachable()
	}
	if start == goal {
		return Path{Coords: []world.HexCoord{start}, Cost: 0}
	}
	if !g.Passable(goal) {
		return unreachable()
	}

	var seq uint64
	gScore := map[world.HexCoord]float64{start: 0}
	came := make(map[world.HexCoord]world.HexCoord)
	closed := make(map[world.HexCoord]bool)

	ol := &openList{{coord: start, g: 0, f: float64(world.Distance(start, goal)), seq: seq}}
	heap.Init(ol)

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if closed[cur.coord] || cur.g > gScore[cur.coord] {
			continue // stale entry
		}
		if cur.coord == goal {
			return Path{Coords: rebuild(came, start, goal), Cost: cur.g}
		}
		closed[cur.coord] = true

		for _, n := range g.Neighbors(cur.coord) {
			if closed[n] {
				continue
			}
			tile := g.Get(n)
			if tile.Blocked {
				continue
			}
			tentative := cur.g + tile.MovementCost
			if old, seen := gScore[n]; seen && tentative >= old {
				continue
			}
			gScore[n] = tentative
			came[n] = cur.coord
			seq++
			heap.Push(ol, &pathNode{
				coord: n,
				g:     tentative,
				f:     tentative + float64(world.Distance(n, goal)),
				seq:   seq,
			})
		}
	}

	return unreachable()
}

func rebuild(came map[world.HexCoord]world.HexCoord, start, goal world.HexCoord) []world.HexCoord {
	path := []world.HexCoord{goal}
	for cur := goal; cur != start; {
		cur = came[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
