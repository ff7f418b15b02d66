package combat

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/entropy"
	"github.com/talgya/hexfront/internal/world"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func attackOf(units army.Stacks) army.Movement {
	return army.Movement{
		ID:         "atk-1",
		Kind:       army.KindAttack,
		Units:      units,
		OriginID:   1,
		TargetID:   101,
		Origin:     world.HexCoord{Q: 23, R: 15},
		Target:     world.HexCoord{Q: 25, R: 14},
		TargetName: "Barbarendorf",
		Departure:  t0,
		Arrival:    t0.Add(10 * time.Minute),
	}
}

func newTestResolver() *Resolver {
	return NewResolver(balance.Default(), entropy.Fixed(0.5))
}

func TestResolve_DefenderHolds(t *testing.T) {
	r := newTestResolver()
	atk := attackOf(army.Stacks{{Type: balance.Spearman, Count: 20}})
	stock := economy.NewAmounts(400, 400, 400)
	def := Defender{
		Name:  "Barbarendorf",
		Units: army.Stacks{{Type: balance.Spearman, Count: 50}},
		Stock: &stock,
	}

	out := r.Resolve(atk, "Erstes Dorf", def, t0)

	if out.Report.AttackerWon {
		t.Fatal("attacker should lose at ratio 0.267")
	}
	if math.Abs(out.Report.AttackerPower-200) > 1e-9 || math.Abs(out.Report.DefenderPower-750) > 1e-9 {
		t.Fatalf("powers = %v / %v, want 200 / 750", out.Report.AttackerPower, out.Report.DefenderPower)
	}
	if out.Return != nil || len(out.Survivors) != 0 {
		t.Fatal("no survivors, no return trip")
	}
	if got := out.Report.AttackerLosses.Count(balance.Spearman); got != 20 {
		t.Fatalf("attacker losses = %d, want 20", got)
	}
	if got := out.Report.DefenderLosses.Count(balance.Spearman); got != 13 {
		t.Fatalf("defender losses = %d, want 13", got)
	}
	if got := out.DefenderUnits.Count(balance.Spearman); got != 37 {
		t.Fatalf("defender remaining = %d, want 37", got)
	}
	if !out.Plunder.IsZero() || *out.Stock != stock {
		t.Fatal("a failed attack takes nothing")
	}
}

func TestResolve_WallStrengthensDefense(t *testing.T) {
	r := newTestResolver()
	atk := attackOf(army.Stacks{{Type: balance.Spearman, Count: 20}})
	def := Defender{Units: army.Stacks{{Type: balance.Spearman, Count: 50}}, WallLevel: 2}
	out := r.Resolve(atk, "a", def, t0)
	if want := 750 * 1.10; math.Abs(out.Report.DefenderPower-want) > 1e-9 {
		t.Fatalf("defender power = %v, want %v", out.Report.DefenderPower, want)
	}
}

func TestResolve_AttackerWins(t *testing.T) {
	r := newTestResolver()
	atk := attackOf(army.Stacks{
		{Type: balance.Axeman, Count: 100},
		{Type: balance.Spearman, Count: 30},
	})
	stock := economy.NewAmounts(1000, 1000, 1000)
	def := Defender{
		Name:  "Barbarendorf",
		Units: army.Stacks{{Type: balance.Spearman, Count: 10}},
		Stock: &stock,
	}

	out := r.Resolve(atk, "Erstes Dorf", def, t0)
	if !out.Report.AttackerWon {
		t.Fatal("attacker should win")
	}

	ratio := out.Report.AttackerPower / out.Report.DefenderPower
	for _, st := range atk.Units {
		wantLost := int(math.Round(float64(st.Count) / ratio))
		if got := out.Report.AttackerLosses.Count(st.Type); got != wantLost {
			t.Errorf("%s losses = %d, want %d", st.Type, got, wantLost)
		}
		if got := out.Survivors.Count(st.Type); got != st.Count-wantLost {
			t.Errorf("%s survivors = %d, want %d", st.Type, got, st.Count-wantLost)
		}
	}
	if out.Report.DefenderLosses.Count(balance.Spearman) != 10 || out.DefenderUnits.Total() != 0 {
		t.Fatal("defender should lose every unit")
	}

	carry := out.Survivors.CarryCapacity(r.Balance)
	if out.Plunder.Total() > carry {
		t.Fatalf("plunder %v exceeds carry %v", out.Plunder.Total(), carry)
	}
	for _, res := range economy.ResourceOrder {
		if out.Plunder[res] > stock[res] {
			t.Fatalf("%s plunder exceeds stock", res)
		}
		if out.Plunder[res] != math.Floor(out.Plunder[res]) {
			t.Fatalf("%s plunder not whole: %v", res, out.Plunder[res])
		}
		if out.Stock[res] != stock[res]-out.Plunder[res] {
			t.Fatalf("%s not deducted from defender", res)
		}
	}

	ret := out.Return
	if ret == nil {
		t.Fatal("survivors must return")
	}
	if ret.Kind != army.KindReturn || ret.ID != "return-atk-1" {
		t.Fatalf("return = %+v", ret)
	}
	if ret.TargetID != atk.OriginID || ret.Target != atk.Origin {
		t.Fatal("return must head home")
	}
	if !ret.Departure.Equal(atk.Arrival) || ret.Duration() != atk.Duration() {
		t.Fatal("return should take the same time as the attack")
	}
	if ret.Plunder == nil || *ret.Plunder != out.Plunder {
		t.Fatal("return carries the plunder")
	}
}

func TestResolve_UndefendedIsDecisive(t *testing.T) {
	r := newTestResolver()
	atk := attackOf(army.Stacks{{Type: balance.Spearman, Count: 5}})
	out := r.Resolve(atk, "a", Defender{Name: "empty"}, t0)
	if !out.Report.AttackerWon {
		t.Fatal("attacking an empty settlement wins")
	}
	if out.Report.AttackerLosses.Total() != 0 || out.Survivors.Count(balance.Spearman) != 5 {
		t.Fatalf("no losses expected, got %+v", out.Report.AttackerLosses)
	}
	if !out.Plunder.IsZero() || out.Stock != nil {
		t.Fatal("untracked stock yields no plunder")
	}
}

func TestResolve_ZeroVersusZeroDefenderHolds(t *testing.T) {
	r := newTestResolver()
	atk := attackOf(army.Stacks{{Type: balance.Scout, Count: 3}}) // attack 0
	out := r.Resolve(atk, "a", Defender{Name: "empty"}, t0)
	if out.Report.AttackerWon || out.Return != nil {
		t.Fatal("zero attack cannot win")
	}
}

func TestResolve_ReportIDDeterministic(t *testing.T) {
	r := newTestResolver()
	atk := attackOf(army.Stacks{{Type: balance.Spearman, Count: 1}})
	a := r.Resolve(atk, "a", Defender{}, t0)
	b := r.Resolve(atk, "a", Defender{}, t0)
	if a.Report.ID == "" || a.Report.ID != b.Report.ID {
		t.Fatalf("report IDs %q / %q", a.Report.ID, b.Report.ID)
	}
}

func TestRatio(t *testing.T) {
	if !math.IsInf(Ratio(10, 0), 1) {
		t.Fatal("x/0 should be +Inf")
	}
	if Ratio(0, 0) != 0 {
		t.Fatal("0/0 should be 0")
	}
	if Ratio(3, 2) != 1.5 {
		t.Fatal("plain division")
	}
}

func TestMultiplierRange(t *testing.T) {
	r := NewResolver(balance.Default(), entropy.NewSeeded(1))
	for i := 0; i < 500; i++ {
		m := r.Multiplier()
		if m < 0.9 || m >= 1.1 {
			t.Fatalf("multiplier %v out of [0.9, 1.1)", m)
		}
	}
}

func TestPlunder_OrderAndCaps(t *testing.T) {
	loot := Plunder(economy.NewAmounts(300, 50.7, 900), 500)
	if loot[economy.Wood] != 300 || loot[economy.Clay] != 50 || loot[economy.Iron] != 150 {
		t.Fatalf("loot = %v", loot)
	}
	if Plunder(economy.NewAmounts(10, 10, 10), 0) != (economy.Amounts{}) {
		t.Fatal("no carry, no loot")
	}
}

func TestLog_Cap(t *testing.T) {
	var l Log
	for i := 1; i <= LogCap+1; i++ {
		l = l.Prepend(Report{ID: fmt.Sprintf("r%d", i)})
	}
	if len(l) != LogCap {
		t.Fatalf("log length = %d, want %d", len(l), LogCap)
	}
	if l[0].ID != "r21" {
		t.Fatalf("newest first, got %s", l[0].ID)
	}
	for _, r := range l {
		if r.ID == "r1" {
			t.Fatal("oldest report should be evicted")
		}
	}
}
