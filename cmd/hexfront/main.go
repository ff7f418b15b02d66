// Command hexfront runs the hex-grid strategy simulation and its HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/hexfront/internal/api"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/config"
	"github.com/talgya/hexfront/internal/engine"
	"github.com/talgya/hexfront/internal/entropy"
	"github.com/talgya/hexfront/internal/persistence"
	"github.com/talgya/hexfront/internal/world"
)

func main() {
	if err := run(); err != nil {
		slog.Error("hexfront failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.InitLogger(cfg.Logging, os.Stdout)
	slog.Info("hexfront starting",
		"seed", cfg.World.Seed,
		"grid", fmt.Sprintf("%dx%d", cfg.World.Width, cfg.World.Height),
		"noise", cfg.World.Noise,
		"tick", cfg.Engine.TickInterval,
	)

	// ── Randomness ────────────────────────────────────────────────────
	src := entropy.FromConfig(cfg.Entropy.RandomOrgAPIKey)
	if _, ok := src.(*entropy.Pool); ok {
		slog.Info("combat randomness from random.org")
	} else {
		slog.Warn("RANDOM_ORG_API_KEY not set, combat randomness from crypto/rand")
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	// ── Load or Generate World State ─────────────────────────────────
	gen := cfg.GenConfig()
	state, startTick, ok, err := db.LoadWorldState()
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	if ok {
		seed, found, err := db.WorldSeed()
		if err != nil {
			return fmt.Errorf("load world seed: %w", err)
		}
		if found && seed != gen.Seed {
			slog.Info("using archived world seed", "seed", seed, "configured", gen.Seed)
			gen.Seed = seed
		}
		state = state.WithGrid(gen)
		slog.Info("world state restored",
			"tick", startTick,
			"settlements", len(state.Settlements),
			"opponents", len(state.Opponents),
			"movements", len(state.Movements),
		)
	} else {
		slog.Info("no saved state found, generating new world")
		state = engine.NewDefaultState(time.Now(), gen)
		state = engine.SeedOpponents(state, gen, cfg.World.ExtraOpponents)
		if err := db.SaveWorldSeed(gen.Seed); err != nil {
			slog.Error("saving world seed failed", "error", err)
		}
		if err := db.SaveWorldState(state, 0); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	for t, c := range world.TerrainCounts(state.Grid) {
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}
	slog.Info("world ready", "hexes", state.Grid.HexCount())

	// ── Engine ────────────────────────────────────────────────────────
	bal := balance.Default()
	eng := engine.NewEngine(state, engine.Deps{
		Balance: bal,
		Combat:  combat.NewResolver(bal, src),
	}, gen)
	eng.Interval = cfg.Engine.TickInterval
	eng.SummaryEvery = cfg.Engine.SummaryEvery
	eng.SetTick(startTick)

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Eng:         eng,
		DB:          db,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit: api.RateLimitConfig{
			Enabled:           cfg.RateLimit.Enabled,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			TrustProxy:        cfg.RateLimit.TrustProxy,
		},
	}

	saveEvery := cfg.Storage.SaveEvery
	eng.OnTick = func(tick uint64, s *engine.State, res engine.TickResult) {
		if saveEvery > 0 && tick%saveEvery == 0 {
			if err := db.SaveWorldState(s, tick); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		}
		apiServer.Publish()
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d\n", startTick)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("engine: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api shutdown", "error", err)
	}

	slog.Info("final save...")
	if err := db.SaveWorldState(eng.Snapshot(), eng.CurrentTick()); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	fmt.Println("Simulation stopped. World state saved.")
	return nil
}
