// Package agents contains the concrete agents that make up a cycle.
package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cryptointel/agency"
	"cryptointel/agent"
	"cryptointel/config"
	"cryptointel/core/audit"
	"cryptointel/database"
	"cryptointel/market"
)

// MarketHunterName is the hunter's registry name
const MarketHunterName = "market-hunter"

// MarketHunter scans the watchlist for alpha discoveries and turns the
// confident ones into suggestions
type MarketHunter struct {
	*agent.BaseAgent
	source market.Source
	cfg    config.HunterConfig
}

// NewMarketHunter creates the hunter and seeds its threshold
func NewMarketHunter(deps agent.Deps, source market.Source, cfg config.HunterConfig) *MarketHunter {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if deps.Thresholds != nil {
		deps.Thresholds.Seed(MarketHunterName, cfg.MinConfidence)
	}
	return &MarketHunter{
		BaseAgent: agent.NewBaseAgent(MarketHunterName, agent.RoleHunter, deps),
		source:    source,
		cfg:       cfg,
	}
}

// CanHandle accepts hunt tasks
func (h *MarketHunter) CanHandle(task *agent.Task) bool {
	return task.Type == agent.TaskTypeHunt
}

// Execute scans every watchlist symbol
func (h *MarketHunter) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	res := h.NewResult(task)

	snaps, err := h.scan(ctx)
	if err != nil {
		return h.Fail(res, err)
	}
	res.Market = snaps

	threshold := h.Threshold()
	store := h.Store()
	m := h.Deps().Metrics

	for _, snap := range snaps {
		for _, sig := range Detect(snap, h.cfg.WhaleFlow) {
			d := &database.AlphaDiscovery{
				AgentID:       h.Name(),
				Symbol:        snap.Symbol,
				Kind:          sig.Kind,
				ExpectedValue: sig.ExpectedValue,
				Confidence:    sig.Confidence,
				Timeframe:     sig.Timeframe,
				Data: map[string]interface{}{
					"price":        snap.Price,
					"change_24h":   snap.PriceChange24h,
					"volume_ratio": snap.VolumeRatio(),
					"whale_flow":   snap.WhaleNetFlow,
					"direction":    sig.Direction,
					"reason":       sig.Reason,
					"cycle":        task.Cycle,
				},
			}
			if err := store.LogAlphaDiscovery(ctx, d); err != nil {
				return h.Fail(res, fmt.Errorf("failed to log discovery: %w", err))
			}
			if m != nil {
				m.Discoveries.WithLabelValues(string(d.Kind)).Inc()
			}
			h.Audit(audit.ActionDiscovery, snap.Symbol, d.Confidence, map[string]interface{}{
				"kind": string(d.Kind),
				"id":   d.ID,
			})
			res.Discoveries = append(res.Discoveries, *d)

			if !threshold.Accepts(sig.Confidence) {
				continue
			}

			sg := &database.Suggestion{
				Type: database.SuggestionAlphaOpportunity,
				Data: map[string]interface{}{
					"symbol":         snap.Symbol,
					"kind":           string(sig.Kind),
					"discovery_id":   d.ID,
					"direction":      sig.Direction,
					"expected_value": sig.ExpectedValue,
					"timeframe":      sig.Timeframe,
					"price":          snap.Price,
				},
				Confidence: sig.Confidence,
				Urgency:    agency.UrgencyFor(sig.Confidence),
				Rationale:  fmt.Sprintf("%s %s: %s", snap.Symbol, sig.Kind, sig.Reason),
			}
			if err := h.Suggest(ctx, sg); err != nil {
				return h.Fail(res, err)
			}
			res.Suggestions = append(res.Suggestions, *sg)
		}
	}

	if err := h.RecordMetric(ctx, "", database.MetricDiscoveries, float64(len(res.Discoveries)), map[string]interface{}{
		"cycle":       task.Cycle,
		"suggestions": len(res.Suggestions),
		"threshold":   threshold.Value,
	}); err != nil {
		h.Logger().Warn("metric not recorded", zap.Error(err))
	}

	res.Summary = fmt.Sprintf("scanned %d symbols: %d discoveries, %d above %.2f",
		len(snaps), len(res.Discoveries), len(res.Suggestions), threshold.Value)
	h.Logger().Info("hunt complete",
		zap.Int("symbols", len(snaps)),
		zap.Int("discoveries", len(res.Discoveries)),
		zap.Int("suggestions", len(res.Suggestions)),
		zap.Float64("threshold", threshold.Value))

	return res, nil
}

// scan fetches snapshots concurrently. Unknown symbols are skipped; the
// scan fails only when nothing could be fetched or ctx ends.
func (h *MarketHunter) scan(ctx context.Context) ([]market.Snapshot, error) {
	watchlist := h.cfg.Watchlist
	snaps := make([]market.Snapshot, len(watchlist))
	ok := make([]bool, len(watchlist))

	var mu sync.Mutex
	var skipped []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)
	for i, sym := range watchlist {
		g.Go(func() error {
			s, err := h.source.Snapshot(gctx, sym)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				mu.Lock()
				skipped = append(skipped, err)
				mu.Unlock()
				h.Logger().Warn("snapshot unavailable", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			snaps[i], ok[i] = s, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to scan market: %w", err)
	}

	out := make([]market.Snapshot, 0, len(snaps))
	for i, s := range snaps {
		if ok[i] {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(watchlist) > 0 {
		return nil, fmt.Errorf("no market data: %w", errors.Join(skipped...))
	}
	return out, nil
}
