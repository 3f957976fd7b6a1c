// Package market supplies per-symbol market snapshots to the agents. The
// data is simulated: a seeded random walk for demos and fixed snapshots for
// tests.
package market

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"cryptointel/agency"
)

// ErrUnknownSymbol is returned by sources that have no data for a symbol
var ErrUnknownSymbol = errors.New("unknown symbol")

// Snapshot is the state of one symbol at a point in time
type Snapshot struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	PriceChange24h float64   `json:"price_change_24h"` // percent
	Volume24h      float64   `json:"volume_24h"`
	AvgVolume      float64   `json:"avg_volume"`
	Volatility     float64   `json:"volatility"`     // fraction
	WhaleNetFlow   float64   `json:"whale_net_flow"` // USD, positive = accumulation
	Sentiment      float64   `json:"sentiment"`      // -1..1
	At             time.Time `json:"at"`
}

// VolumeRatio is 24h volume relative to the average; 1 when no average is known
func (s Snapshot) VolumeRatio() float64 {
	if s.AvgVolume <= 0 {
		return 1
	}
	return s.Volume24h / s.AvgVolume
}

// Conditions reduces the snapshot to regime classification inputs
func (s Snapshot) Conditions() agency.MarketConditions {
	return agency.MarketConditions{
		PriceChange24h: s.PriceChange24h,
		Volatility:     s.Volatility,
		VolumeRatio:    s.VolumeRatio(),
		Sentiment:      s.Sentiment,
	}
}

// Source yields snapshots for symbols
type Source interface {
	Snapshot(ctx context.Context, symbol string) (Snapshot, error)
}

// Conditions maps snapshots to regime inputs
func Conditions(snaps []Snapshot) []agency.MarketConditions {
	out := make([]agency.MarketConditions, len(snaps))
	for i, s := range snaps {
		out[i] = s.Conditions()
	}
	return out
}

var basePrices = map[string]float64{
	"BTC":  65000,
	"ETH":  3200,
	"SOL":  150,
	"AVAX": 35,
	"LINK": 15,
	"DOT":  7,
	"ADA":  0.45,
}

var baseVolumes = map[string]float64{
	"BTC":  2.5e10,
	"ETH":  1.2e10,
	"SOL":  2.5e9,
	"AVAX": 4e8,
	"LINK": 3e8,
	"DOT":  2e8,
	"ADA":  3e8,
}

type walk struct {
	rng       *rand.Rand
	price     float64
	avgVolume float64
}

// Simulated is a seeded random walk per symbol. Each symbol draws from its
// own generator, so a symbol's sequence depends only on the seed and how
// often that symbol was fetched, not on the order of fetches.
type Simulated struct {
	seed    uint64
	symbols map[string]*walk
	mu      sync.Mutex
	now     func() time.Time
}

// NewSimulated creates a simulated source
func NewSimulated(seed uint64) *Simulated {
	return &Simulated{
		seed:    seed,
		symbols: make(map[string]*walk),
		now:     time.Now,
	}
}

func symbolStream(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum64()
}

// Snapshot advances the symbol's walk one step
func (s *Simulated) Snapshot(ctx context.Context, symbol string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.symbols[symbol]
	if !ok {
		price, known := basePrices[symbol]
		if !known {
			price = 10
		}
		vol, known := baseVolumes[symbol]
		if !known {
			vol = 1e8
		}
		w = &walk{
			rng:       rand.New(rand.NewPCG(s.seed, symbolStream(symbol))),
			price:     price,
			avgVolume: vol,
		}
		s.symbols[symbol] = w
	}

	// Fat tails: one step in ten is a shock
	change := w.rng.NormFloat64() * 4
	if w.rng.Float64() < 0.1 {
		change *= 3
	}
	volatility := 0.02 + math.Abs(w.rng.NormFloat64())*0.025
	volumeRatio := math.Exp(w.rng.NormFloat64()*0.45 + math.Abs(change)/25)
	whale := w.rng.NormFloat64() * 8e5
	if w.rng.Float64() < 0.15 {
		whale += 1.2e6
	}
	sentiment := clampUnit(change/15 + w.rng.NormFloat64()*0.25)

	w.price = math.Max(w.price*(1+change/100), 0.0001)
	volume := w.avgVolume * volumeRatio
	// Slow-moving average so breakouts stand out
	w.avgVolume = 0.9*w.avgVolume + 0.1*volume

	return Snapshot{
		Symbol:         symbol,
		Price:          w.price,
		PriceChange24h: change,
		Volume24h:      volume,
		AvgVolume:      w.avgVolume,
		Volatility:     volatility,
		WhaleNetFlow:   whale,
		Sentiment:      sentiment,
		At:             s.now().UTC(),
	}, nil
}

// Static serves fixed snapshots
type Static struct {
	snaps map[string]Snapshot
	mu    sync.RWMutex
}

// NewStatic creates a static source keyed by symbol
func NewStatic(snaps ...Snapshot) *Static {
	s := &Static{snaps: make(map[string]Snapshot)}
	for _, snap := range snaps {
		s.snaps[snap.Symbol] = snap
	}
	return s
}

// Set replaces the snapshot for a symbol
func (s *Static) Set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Symbol] = snap
}

// Symbols lists the known symbols
func (s *Static) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.snaps))
	for sym := range s.snaps {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the stored snapshot or ErrUnknownSymbol
func (s *Static) Snapshot(ctx context.Context, symbol string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[symbol]
	if !ok {
		return Snapshot{}, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	return snap, nil
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
