package entropy

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool defaults.
const (
	DefaultBatch    = 100
	DefaultLowWater = 10
	fetchTimeout    = 15 * time.Second
)

// Fetcher returns up to n values in [0, 1) from a remote generator.
type Fetcher interface {
	Fetch(ctx context.Context, n int) ([]float64, error)
}

// Pool buffers draws from a Fetcher and serves them one at a time. When the
// buffer runs low it refills in batches; while the fetcher fails, draws come
// from the fallback source.
type Pool struct {
	Batch    int
	LowWater int

	fetch    Fetcher
	fallback Source

	mu      sync.Mutex
	buf     []float64
	failing bool
}

// NewPool creates a pool over f. A nil fallback means crypto/rand.
func NewPool(f Fetcher, fallback Source) *Pool {
	if fallback == nil {
		fallback = Crypto{}
	}
	return &Pool{Batch: DefaultBatch, LowWater: DefaultLowWater, fetch: f, fallback: fallback}
}

// Float returns the next buffered value, refilling first when fewer than
// LowWater remain.
func (p *Pool) Float() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) < p.LowWater {
		p.refill()
	}
	if len(p.buf) == 0 {
		return p.fallback.Float()
	}
	v := p.buf[0]
	p.buf = p.buf[1:]
	return v
}

// Buffered returns how many values are waiting.
func (p *Pool) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

func (p *Pool) refill() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	vals, err := p.fetch.Fetch(ctx, p.Batch)
	if err != nil {
		// Log the transition only, not every failed draw.
		if !p.failing {
			slog.Warn("entropy pool refill failed, using fallback", "error", err)
		}
		p.failing = true
		return
	}
	if p.failing {
		slog.Info("entropy pool recovered")
	}
	p.failing = false

	for _, v := range vals {
		if v >= 0 && v < 1 {
			p.buf = append(p.buf, v)
		}
	}
	slog.Debug("entropy pool refilled", "buffered", len(p.buf))
}
