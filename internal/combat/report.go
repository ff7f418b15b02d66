package combat

import (
	"time"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/economy"
)

// LogCap is the number of reports kept, newest first.
const LogCap = 20

// Report records one resolved battle.
type Report struct {
	ID             string          `json:"id"`
	Attacker       string          `json:"attacker"`
	Defender       string          `json:"defender"`
	AttackerUnits  army.Stacks     `json:"attacker_units"`
	DefenderUnits  army.Stacks     `json:"defender_units"`
	AttackerLosses army.Stacks     `json:"attacker_losses"`
	DefenderLosses army.Stacks     `json:"defender_losses"`
	Plunder        economy.Amounts `json:"plunder"`
	AttackerPower  float64         `json:"attacker_power"`
	DefenderPower  float64         `json:"defender_power"`
	Timestamp      time.Time       `json:"timestamp"`
	AttackerWon    bool            `json:"attacker_won"`
}

// Log is the capped, newest-first report history.
type Log []Report

// Prepend returns a new log with r in front, truncated to LogCap.
func (l Log) Prepend(r Report) Log {
	n := min(len(l)+1, LogCap)
	out := make(Log, 0, n)
	out = append(out, r)
	out = append(out, l[:n-1]...)
	return out
}

// Clone returns a copy that shares no slices with l.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	for i, r := range l {
		r.AttackerUnits = r.AttackerUnits.Clone()
		r.DefenderUnits = r.DefenderUnits.Clone()
		r.AttackerLosses = r.AttackerLosses.Clone()
		r.DefenderLosses = r.DefenderLosses.Clone()
		out[i] = r
	}
	return out
}
