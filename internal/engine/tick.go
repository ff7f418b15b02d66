// Package engine owns the authoritative world state: the tick scheduler,
// player orders, and the loop that applies both on a single goroutine.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/world"
)

// DefaultSummaryEvery is how many ticks pass between summary log lines.
const DefaultSummaryEvery = 300

type command struct {
	apply func(*State) (*State, error)
	done  chan error
}

// Engine drives the simulation forward. It is the only writer of the world
// state; readers take snapshots.
type Engine struct {
	Interval     time.Duration // wall time between ticks
	SummaryEvery uint64
	Deps         Deps
	Gen          world.GenConfig
	Clock        func() time.Time

	// Callbacks run on the engine goroutine after each tick and each
	// summary. They must not block.
	OnTick    func(tick uint64, s *State, res TickResult)
	OnSummary func(tick uint64, s *State)

	// mu serializes every write of state; Step and apply hold it.
	mu      sync.Mutex
	tick    atomic.Uint64 // ticks processed, monotonic
	state   atomic.Pointer[State]
	cmds    chan command
	running atomic.Bool
}

// NewEngine creates an engine around initial.
func NewEngine(initial *State, deps Deps, gen world.GenConfig) *Engine {
	e := &Engine{
		Interval:     time.Second,
		SummaryEvery: DefaultSummaryEvery,
		Deps:         deps,
		Gen:          gen,
		Clock:        time.Now,
		cmds:         make(chan command),
	}
	e.state.Store(initial.WithGrid(gen))
	return e
}

// Snapshot returns the current published state. Callers must not modify it.
func (e *Engine) Snapshot() *State {
	return e.state.Load()
}

// CurrentTick returns the number of ticks processed.
func (e *Engine) CurrentTick() uint64 {
	return e.tick.Load()
}

// SetTick resumes the tick counter, e.g. after restoring from the archive.
func (e *Engine) SetTick(n uint64) {
	e.tick.Store(n)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run applies ticks and queued orders until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	slog.Info("simulation engine started", "tick", e.CurrentTick(), "interval", e.Interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.CurrentTick())
			return ctx.Err()
		case <-ticker.C:
			e.Step(e.Clock())
		case cmd := <-e.cmds:
			cmd.done <- e.apply(cmd.apply)
		}
	}
}

// Step runs one tick at now. Run calls it on every ticker fire; it is
// exported for callers that drive time themselves.
func (e *Engine) Step(now time.Time) TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state.Load()
	next, res := advance(prev, now, e.Deps)
	next = next.WithGrid(e.Gen)
	e.state.Store(next)
	tick := e.tick.Add(1)

	if res.Battles > 0 || res.Dropped > 0 {
		slog.Debug("tick", "tick", tick, "battles", res.Battles, "returns", res.Returns, "dropped", res.Dropped)
	}
	if e.OnTick != nil {
		e.OnTick(tick, next, res)
	}
	if e.SummaryEvery > 0 && tick%e.SummaryEvery == 0 {
		logSummary(tick, next)
		if e.OnSummary != nil {
			e.OnSummary(tick, next)
		}
	}
	return res
}

func (e *Engine) apply(fn func(*State) (*State, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.state.Load())
	if err != nil {
		return err
	}
	e.state.Store(next.WithGrid(e.Gen))
	return nil
}

// submit hands fn to the engine goroutine and waits for its result. When
// the loop is not running the order is applied on the caller's goroutine,
// still serialized with ticks and other orders by e.mu.
func (e *Engine) submit(ctx context.Context, fn func(*State) (*State, error)) error {
	if !e.Running() {
		return e.apply(fn)
	}
	cmd := command{apply: fn, done: make(chan error, 1)}
	select {
	case e.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attack queues an attack order and returns the movement it created.
func (e *Engine) Attack(ctx context.Context, originID, targetID uint64, counts map[balance.UnitType]int) (army.Movement, error) {
	var sent army.Movement
	err := e.submit(ctx, func(s *State) (*State, error) {
		next, err := IssueAttack(s, e.Deps.Balance, originID, targetID, counts, e.Clock())
		if err != nil {
			return s, err
		}
		sent = next.Movements[len(next.Movements)-1]
		return next, nil
	})
	if err != nil {
		slog.Warn("attack rejected", "origin", originID, "target", targetID, "error", err)
	}
	return sent, err
}

// Upgrade queues a building upgrade.
func (e *Engine) Upgrade(ctx context.Context, settlementID, buildingID uint64) error {
	err := e.submit(ctx, func(s *State) (*State, error) {
		return UpgradeBuilding(s, e.Deps.Balance, settlementID, buildingID)
	})
	if err != nil {
		slog.Warn("upgrade rejected", "settlement", settlementID, "building", buildingID, "error", err)
	}
	return err
}

func logSummary(tick uint64, s *State) {
	attrs := []any{
		"tick", tick,
		"capacity", humanize.Comma(int64(s.WarehouseCapacity)),
		"movements", len(s.Movements),
		"reports", len(s.Reports),
	}
	for _, r := range economy.ResourceOrder {
		attrs = append(attrs, r.String(), humanize.Comma(int64(s.Resources[r])))
	}
	if len(s.Reports) > 0 {
		attrs = append(attrs, "last_battle", humanize.Time(s.Reports[0].Timestamp))
	}
	slog.Info("world summary", attrs...)
}
