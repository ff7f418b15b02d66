package nav

import (
	"time"

	"github.com/talgya/hexfront/internal/world"
)

const (
	// SightRadius is how far settlements, entrenchments and scans see.
	SightRadius = 4
	// ScanDuration is how long a scan keeps its area visible.
	ScanDuration = 10 * time.Second
)

// HexSet is a set of coordinates.
type HexSet map[world.HexCoord]struct{}

// NewHexSet builds a set from coords.
func NewHexSet(coords ...world.HexCoord) HexSet {
	s := make(HexSet, len(coords))
	for _, c := range coords {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set is empty.
func (s HexSet) Has(c world.HexCoord) bool {
	_, ok := s[c]
	return ok
}

// Scan is a time-limited vision source.
type Scan struct {
	Center    world.HexCoord `json:"center"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Active reports whether the scan still grants vision at now.
func (s Scan) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// VisionCenters collects owned settlement tiles, entrenchments and the
// centers of scans still active at now. Expiry is evaluated on every call.
func VisionCenters(owned, entrenchments []world.HexCoord, scans []Scan, now time.Time) []world.HexCoord {
	centers := make([]world.HexCoord, 0, len(owned)+len(entrenchments)+len(scans))
	centers = append(centers, owned...)
	centers = append(centers, entrenchments...)
	for _, s := range scans {
		if s.Active(now) {
			centers = append(centers, s.Center)
		}
	}
	return centers
}

// VisibleSet returns every in-bounds tile within radius hex steps of any
// center.
func VisibleSet(g *world.Grid, centers []world.HexCoord, radius int) HexSet {
	set := make(HexSet)
	if radius < 0 {
		return set
	}
	for _, c := range centers {
		for dr := -radius; dr <= radius; dr++ {
			for dq := -radius; dq <= radius; dq++ {
				p := world.HexCoord{Q: c.Q + dq, R: c.R + dr}
				if g.InBounds(p) && world.Distance(c, p) <= radius {
					set[p] = struct{}{}
				}
			}
		}
	}
	return set
}
