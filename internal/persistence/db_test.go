package persistence

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/engine"
	"github.com/talgya/hexfront/internal/world"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hexfront.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadWorldState_Empty(t *testing.T) {
	db := openTemp(t)
	_, _, ok, err := db.LoadWorldState()
	if err != nil || ok {
		t.Fatalf("empty archive: ok=%v err=%v", ok, err)
	}
}

func TestSaveLoadWorldState(t *testing.T) {
	db := openTemp(t)

	s := engine.NewDefaultState(t0, world.SmallTestConfig())
	s.Resources = economy.NewAmounts(123.5, 456, 789)
	loot := economy.NewAmounts(10, 0, 0)
	s.Movements = []army.Movement{{
		ID:        "m1",
		Kind:      army.KindReturn,
		Units:     army.Stacks{{Type: balance.Axeman, Count: 4}},
		TargetID:  engine.HomeID,
		Departure: t0,
		Arrival:   t0.Add(time.Hour),
		Plunder:   &loot,
	}}
	s.Reports = s.Reports.Prepend(combat.Report{ID: "r1", Attacker: "a", Defender: "d", Timestamp: t0})

	if err := db.SaveWorldState(s, 42); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, tick, ok, err := db.LoadWorldState()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if tick != 42 {
		t.Fatalf("tick = %d, want 42", tick)
	}
	if got.Resources != s.Resources || got.WarehouseCapacity != s.WarehouseCapacity {
		t.Fatalf("pool = %v/%v", got.Resources, got.WarehouseCapacity)
	}
	if !got.LastUpdate.Equal(t0) {
		t.Fatalf("last update = %v", got.LastUpdate)
	}
	if len(got.Settlements) != 1 || got.Settlements[0].Name != "Erstes Dorf" {
		t.Fatalf("settlements = %+v", got.Settlements)
	}
	if got.Settlements[0].Units.Count(balance.Spearman) != 20 || len(got.Settlements[0].Buildings) != 7 {
		t.Fatal("settlement contents lost")
	}
	if len(got.Opponents) != 2 || got.Opponents[0].ID != 101 {
		t.Fatalf("opponents = %+v", got.Opponents)
	}
	if got.OpponentEconomies[102] != s.OpponentEconomies[102] {
		t.Fatalf("economy = %+v", got.OpponentEconomies[102])
	}
	if len(got.Movements) != 1 || got.Movements[0].Plunder == nil || *got.Movements[0].Plunder != loot {
		t.Fatalf("movements = %+v", got.Movements)
	}
	if len(got.Reports) != 1 || got.Reports[0].ID != "r1" {
		t.Fatalf("reports = %+v", got.Reports)
	}
}

func TestSaveReports_ArchiveOutlivesLog(t *testing.T) {
	db := openTemp(t)

	var all []combat.Report
	for i := 0; i < combat.LogCap+5; i++ {
		all = append(all, combat.Report{ID: fmt.Sprintf("r%02d", i), Timestamp: t0.Add(time.Duration(i) * time.Minute)})
	}
	if err := db.SaveReports(all[:10]); err != nil {
		t.Fatal(err)
	}
	// Re-saving overlapping reports must not duplicate them.
	if err := db.SaveReports(all); err != nil {
		t.Fatal(err)
	}

	n, err := db.ReportCount()
	if err != nil || n != len(all) {
		t.Fatalf("count = %d (%v), want %d", n, err, len(all))
	}
	recent, err := db.RecentReports(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 || recent[0].ID != "r24" || recent[2].ID != "r22" {
		t.Fatalf("recent = %v", recent)
	}
}

func TestMeta(t *testing.T) {
	db := openTemp(t)
	if err := db.SaveMeta("seed", "2025"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("seed", "7"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("seed")
	if err != nil || v != "7" {
		t.Fatalf("seed = %q (%v)", v, err)
	}
}

func TestWorldSeed(t *testing.T) {
	db := openTemp(t)
	if _, ok, err := db.WorldSeed(); ok || err != nil {
		t.Fatalf("empty archive: ok=%v err=%v", ok, err)
	}
	if err := db.SaveWorldSeed(-8675309); err != nil {
		t.Fatal(err)
	}
	seed, ok, err := db.WorldSeed()
	if err != nil || !ok || seed != -8675309 {
		t.Fatalf("seed = %d ok=%v err=%v", seed, ok, err)
	}

	// A restart with the archived seed rebuilds the same terrain.
	gen := world.DefaultGenConfig()
	gen.Seed = seed
	a := engine.NewDefaultState(t0, gen)
	b := engine.NewDefaultState(t0, gen)
	at, bt := a.Grid.Tiles(), b.Grid.Tiles()
	for i := range at {
		if at[i] != bt[i] {
			t.Fatalf("tile %d differs for the same seed", i)
		}
	}
}
