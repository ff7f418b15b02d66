// Package combat resolves an arriving attack against a defending settlement.
package combat

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/balance"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/entropy"
)

// Attacker power is scaled by a uniform draw in [MinMultiplier, MinMultiplier+MultiplierSpread).
const (
	MinMultiplier    = 0.9
	MultiplierSpread = 0.2
)

// ReturnIDPrefix prefixes the ID of the return trip spawned by an attack.
const ReturnIDPrefix = "return-"

// Defender is the target of an attack as seen at arrival time.
type Defender struct {
	Name      string
	Units     army.Stacks
	WallLevel int
	// Stock is the defender's tracked resources. Nil means nothing can be
	// plundered.
	Stock *economy.Amounts
}

// Outcome is everything a resolved battle changes.
type Outcome struct {
	Report Report
	// Survivors are the attacking units still alive.
	Survivors army.Stacks
	// DefenderUnits are the defender's units after losses.
	DefenderUnits army.Stacks
	// Stock is the defender's stock after plunder, nil if none was tracked.
	Stock   *economy.Amounts
	Plunder economy.Amounts
	// Return is the homeward movement, nil when no attacker survived.
	Return *army.Movement
}

// Resolver resolves battles with a fixed balance table and random source.
type Resolver struct {
	Balance *balance.Config
	Rand    entropy.Source
}

// NewResolver creates a resolver. A nil source falls back to crypto/rand.
func NewResolver(cfg *balance.Config, src entropy.Source) *Resolver {
	if src == nil {
		src = entropy.Crypto{}
	}
	return &Resolver{Balance: cfg, Rand: src}
}

// Multiplier draws the attacker power multiplier.
func (r *Resolver) Multiplier() float64 {
	return MinMultiplier + MultiplierSpread*r.Rand.Float()
}

// Ratio divides attacker by defender power. An undefended target against
// a real attack is an infinite ratio; zero against zero is 0 and the
// defender holds.
func Ratio(attack, defense float64) float64 {
	if defense <= 0 {
		if attack > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return attack / defense
}

// Resolve fights attack against def. now stamps the report.
func (r *Resolver) Resolve(attack army.Movement, attacker string, def Defender, now time.Time) Outcome {
	wallBonus := 0.0
	if wall, ok := r.Balance.Building(balance.Wall); ok {
		wallBonus = wall.DefenseBonusAt(def.WallLevel)
	}

	attackPower := attack.Units.AttackPower(r.Balance) * r.Multiplier()
	defensePower := def.Units.DefensePower(r.Balance) * (1 + wallBonus)
	ratio := Ratio(attackPower, defensePower)

	out := Outcome{Stock: cloneStock(def.Stock)}
	var attackerLosses, defenderLosses army.Stacks

	if ratio > 1 {
		defenderLosses = def.Units.Clone().Prune()
		out.DefenderUnits = nil

		lossRate := 1 / ratio
		for _, st := range attack.Units {
			lost := int(math.Round(float64(st.Count) * lossRate))
			if lost > 0 {
				attackerLosses = append(attackerLosses, army.Stack{Type: st.Type, Count: lost})
			}
			if alive := st.Count - lost; alive > 0 {
				out.Survivors = append(out.Survivors, army.Stack{Type: st.Type, Count: alive})
			}
		}

		if out.Stock != nil {
			out.Plunder = Plunder(*out.Stock, out.Survivors.CarryCapacity(r.Balance))
			remaining := out.Stock.Sub(out.Plunder)
			out.Stock = &remaining
		}
	} else {
		attackerLosses = attack.Units.Clone().Prune()
		for _, st := range def.Units {
			lost := int(math.Round(float64(st.Count) * ratio))
			if lost > 0 {
				defenderLosses = append(defenderLosses, army.Stack{Type: st.Type, Count: lost})
			}
		}
		out.DefenderUnits = def.Units.Deduct(defenderLosses)
	}

	out.Report = Report{
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(attack.ID)).String(),
		Attacker:       attacker,
		Defender:       def.Name,
		AttackerUnits:  attack.Units.Clone(),
		DefenderUnits:  def.Units.Clone(),
		AttackerLosses: attackerLosses,
		DefenderLosses: defenderLosses,
		Plunder:        out.Plunder,
		AttackerPower:  attackPower,
		DefenderPower:  defensePower,
		Timestamp:      now,
		AttackerWon:    ratio > 1,
	}

	if len(out.Survivors) > 0 {
		loot := out.Plunder
		out.Return = &army.Movement{
			ID:         ReturnIDPrefix + attack.ID,
			Kind:       army.KindReturn,
			Units:      out.Survivors.Clone(),
			OriginID:   attack.TargetID,
			TargetID:   attack.OriginID,
			Origin:     attack.Target,
			Target:     attack.Origin,
			TargetName: attacker,
			Departure:  attack.Arrival,
			Arrival:    attack.Arrival.Add(attack.Duration()),
			Plunder:    &loot,
		}
	}

	return out
}

// Plunder takes resources from stock in wood, clay, iron order until
// carry is used up. Each take is capped at the available stock and
// truncated to a whole number.
func Plunder(stock economy.Amounts, carry float64) economy.Amounts {
	var loot economy.Amounts
	left := carry
	for _, res := range economy.ResourceOrder {
		if left <= 0 {
			break
		}
		take := math.Floor(min(left, max(stock[res], 0)))
		loot[res] = take
		left -= take
	}
	return loot
}

func cloneStock(s *economy.Amounts) *economy.Amounts {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
