package market

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptointel/agency"
)

func TestSimulatedDeterministic(t *testing.T) {
	ctx := context.Background()
	a, b := NewSimulated(7), NewSimulated(7)

	for i := 0; i < 20; i++ {
		for _, sym := range []string{"BTC", "ETH", "NEW"} {
			sa, err := a.Snapshot(ctx, sym)
			require.NoError(t, err)
			sb, err := b.Snapshot(ctx, sym)
			require.NoError(t, err)

			sb.At = sa.At
			if diff := cmp.Diff(sa, sb); diff != "" {
				t.Fatalf("step %d %s mismatch (-a +b):\n%s", i, sym, diff)
			}
		}
	}
}

func TestSimulatedIndependentOfFetchOrder(t *testing.T) {
	ctx := context.Background()
	a, b := NewSimulated(11), NewSimulated(11)
	symbols := []string{"BTC", "ETH", "SOL", "NEW"}

	for i := 0; i < 5; i++ {
		got := map[string]Snapshot{}
		for _, sym := range symbols {
			s, err := a.Snapshot(ctx, sym)
			require.NoError(t, err)
			got[sym] = s
		}
		for j := len(symbols) - 1; j >= 0; j-- {
			s, err := b.Snapshot(ctx, symbols[j])
			require.NoError(t, err)
			s.At = got[symbols[j]].At
			if diff := cmp.Diff(got[symbols[j]], s); diff != "" {
				t.Fatalf("step %d %s mismatch (-forward +reverse):\n%s", i, symbols[j], diff)
			}
		}
	}
}

func TestSimulatedRanges(t *testing.T) {
	ctx := context.Background()
	src := NewSimulated(42)

	for i := 0; i < 200; i++ {
		s, err := src.Snapshot(ctx, "SOL")
		require.NoError(t, err)
		assert.Equal(t, "SOL", s.Symbol)
		assert.Greater(t, s.Price, 0.0)
		assert.GreaterOrEqual(t, s.Volatility, 0.02)
		assert.Greater(t, s.VolumeRatio(), 0.0)
		assert.GreaterOrEqual(t, s.Sentiment, -1.0)
		assert.LessOrEqual(t, s.Sentiment, 1.0)
	}
}

func TestSimulatedDifferentSeeds(t *testing.T) {
	ctx := context.Background()
	a, _ := NewSimulated(1).Snapshot(ctx, "BTC")
	b, _ := NewSimulated(2).Snapshot(ctx, "BTC")
	assert.NotEqual(t, a.PriceChange24h, b.PriceChange24h)
}

func TestSimulatedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulated(1).Snapshot(ctx, "BTC")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	src := NewStatic(
		Snapshot{Symbol: "BTC", PriceChange24h: 4, Volume24h: 300, AvgVolume: 100},
		Snapshot{Symbol: "ETH"},
	)

	s, err := src.Snapshot(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.VolumeRatio())
	assert.Equal(t, []string{"BTC", "ETH"}, src.Symbols())

	eth, err := src.Snapshot(ctx, "ETH")
	require.NoError(t, err)
	assert.Equal(t, 1.0, eth.VolumeRatio(), "no average means neutral ratio")

	_, err = src.Snapshot(ctx, "DOGE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	src.Set(Snapshot{Symbol: "DOGE", Price: 0.1})
	_, err = src.Snapshot(ctx, "DOGE")
	assert.NoError(t, err)
}

func TestConditions(t *testing.T) {
	snaps := []Snapshot{
		{PriceChange24h: 5, Volatility: 0.03, Volume24h: 200, AvgVolume: 100, Sentiment: 0.2},
	}
	want := []agency.MarketConditions{{PriceChange24h: 5, Volatility: 0.03, VolumeRatio: 2, Sentiment: 0.2}}

	if diff := cmp.Diff(want, Conditions(snaps)); diff != "" {
		t.Errorf("Conditions mismatch (-want +got):\n%s", diff)
	}
}
