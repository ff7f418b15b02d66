package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/nav"
	"github.com/talgya/hexfront/internal/world"
)

// ErrorKind classifies a rejected order.
type ErrorKind string

const (
	// KindInvalidReference means an ID did not resolve.
	KindInvalidReference ErrorKind = "invalid_reference"
	// KindInvariantGuard means applying the order would break a world rule.
	KindInvariantGuard ErrorKind = "invariant_guard"
)

var (
	ErrUnknownSettlement     = errors.New("unknown settlement")
	ErrUnknownTarget         = errors.New("unknown target")
	ErrUnknownBuilding       = errors.New("unknown building")
	ErrUnknownUnit           = errors.New("unknown unit type")
	ErrNoUnits               = errors.New("no units selected")
	ErrInsufficientUnits     = errors.New("insufficient units")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrMaxLevel              = errors.New("building at maximum level")
	ErrNoTravelTime          = errors.New("travel time is not positive")
)

// OrderError is returned by order operations. The state passed in is
// returned alongside it untouched.
type OrderError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

func invalidRef(op string, err error) error {
	return &OrderError{Kind: KindInvalidReference, Op: op, Err: err}
}

func guard(op string, err error) error {
	return &OrderError{Kind: KindInvariantGuard, Op: op, Err: err}
}

// KindOf returns the kind of an order error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// TravelTime is how long units need to cover cost fields at speed fields
// per hour.
func TravelTime(cost, speed float64) time.Duration {
	if speed <= 0 || math.IsInf(cost, 0) || math.IsNaN(cost) {
		return 0
	}
	return time.Duration(cost / speed * float64(time.Hour))
}

// routeCost is the path cost between two settlements on g, falling
// back to hex distance when there is no grid or no path.
func routeCost(g *world.Grid, from, to world.HexCoord) float64 {
	if g != nil {
		if r := nav.ComposeRoute(g, []world.HexCoord{from, to}, nil); r.Reachable() {
			return r.TotalCost
		}
	}
	return float64(world.Distance(from, to))
}

// IssueAttack sends counts units from the player settlement originID to the
// opponent targetID. On success the units leave the settlement immediately.
func IssueAttack(s *State, cfg *balance.Config, originID, targetID uint64, counts map[balance.UnitType]int, now time.Time) (*State, error) {
	const op = "issue attack"

	oi := s.Settlement(originID)
	if oi < 0 {
		return s, invalidRef(op, fmt.Errorf("%w: %d", ErrUnknownSettlement, originID))
	}
	ti := s.Opponent(targetID)
	if ti < 0 {
		return s, invalidRef(op, fmt.Errorf("%w: %d", ErrUnknownTarget, targetID))
	}
	for t, n := range counts {
		if _, ok := cfg.Unit(t); !ok {
			return s, invalidRef(op, fmt.Errorf("%w: %s", ErrUnknownUnit, t))
		}
		if n < 0 {
			return s, guard(op, fmt.Errorf("%w: negative %s count", ErrInsufficientUnits, t))
		}
	}

	units := army.FromCounts(counts)
	if units.Total() == 0 {
		return s, guard(op, ErrNoUnits)
	}
	origin, target := s.Settlements[oi], s.Opponents[ti]
	if !origin.Units.Covers(units) {
		return s, guard(op, fmt.Errorf("%w at %s", ErrInsufficientUnits, origin.Name))
	}

	travel := TravelTime(routeCost(s.Grid, origin.Position, target.Position), units.SlowestSpeed(cfg))
	if travel <= 0 {
		return s, guard(op, fmt.Errorf("%w: %s to %s", ErrNoTravelTime, origin.Name, target.Name))
	}

	next := s.Clone()
	next.Settlements[oi].Units = origin.Units.Deduct(units)
	next.Movements = append(next.Movements, army.Movement{
		ID:         uuid.NewString(),
		Kind:       army.KindAttack,
		Units:      units,
		OriginID:   origin.ID,
		TargetID:   target.ID,
		Origin:     origin.Position,
		Target:     target.Position,
		TargetName: target.Name,
		Departure:  now,
		Arrival:    now.Add(travel),
	})
	return next, nil
}

// UpgradeBuilding raises one building by a level, paying from the shared
// pool. Upgrades complete immediately.
func UpgradeBuilding(s *State, cfg *balance.Config, settlementID, buildingID uint64) (*State, error) {
	const op = "upgrade building"

	si := s.Settlement(settlementID)
	if si < 0 {
		return s, invalidRef(op, fmt.Errorf("%w: %d", ErrUnknownSettlement, settlementID))
	}
	bi := -1
	for i, b := range s.Settlements[si].Buildings {
		if b.ID == buildingID {
			bi = i
			break
		}
	}
	if bi < 0 {
		return s, invalidRef(op, fmt.Errorf("%w: %d", ErrUnknownBuilding, buildingID))
	}
	b := s.Settlements[si].Buildings[bi]
	spec, ok := cfg.Building(b.Type)
	if !ok {
		return s, invalidRef(op, fmt.Errorf("%w: %s", ErrUnknownBuilding, b.Type))
	}
	if b.Level >= spec.MaxLevel {
		return s, guard(op, fmt.Errorf("%w: %s %d", ErrMaxLevel, b.Type, b.Level))
	}
	cost, ok := spec.UpgradeCost(b.Level)
	if !ok || !s.Resources.Covers(cost) {
		return s, guard(op, fmt.Errorf("%w for %s level %d", ErrInsufficientResources, b.Type, b.Level+1))
	}

	next := s.Clone()
	next.Resources = s.Resources.Sub(cost)
	next.Settlements[si].Buildings[bi].Level++
	next.WarehouseCapacity = Capacity(cfg, next.Settlements, s.WarehouseCapacity)
	return next, nil
}
