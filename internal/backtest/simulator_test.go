package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoin/internal/market"
	"quoin/internal/strategy"
)

func candlesFromCloses(closes []float64) market.Candles {
	out := make(market.Candles, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i)*60_000 + 59_999,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
		}
	}
	return out
}

func sig(idx int, price float64, dir strategy.Direction) strategy.Signal {
	return strategy.Signal{Timestamp: int64(idx) * 60_000, Price: price, Direction: dir}
}

func TestSimulateCapitalConservation(t *testing.T) {
	closes := []float64{100, 105, 103, 110, 95, 97}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 105, strategy.DirectionNone),
		sig(2, 103, strategy.DirectionSell),
		sig(3, 110, strategy.DirectionNone),
		sig(4, 95, strategy.DirectionBuy),
		sig(5, 97, strategy.DirectionNone),
	}
	cfg := SimConfig{InitialCapital: 10000, PositionFraction: 0.5, FeeRate: 0.001}
	res, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, cfg)
	require.NoError(t, err)

	var pnl, fees float64
	for _, tr := range res.Trades {
		pnl += tr.PnL
		fees += tr.Fees
	}
	assert.InDelta(t, 10000+pnl-fees, res.FinalCapital, 1e-9)
	assert.Equal(t, len(res.Trades), res.TotalTrades)
	assert.Equal(t, res.WinningTrades+res.LosingTrades, res.TotalTrades)
}

func TestSimulateTradesDoNotOverlap(t *testing.T) {
	closes := []float64{100, 101, 99, 102, 98, 103, 97}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 101, strategy.DirectionSell),
		sig(2, 99, strategy.DirectionBuy),
		sig(3, 102, strategy.DirectionSell),
		sig(4, 98, strategy.DirectionBuy),
		sig(5, 103, strategy.DirectionSell),
		sig(6, 97, strategy.DirectionNone),
	}
	res, err := Simulate("ETHUSDT", candlesFromCloses(closes), signals, SimConfig{InitialCapital: 5000, PositionFraction: 0.3, FeeRate: 0.0004})
	require.NoError(t, err)
	require.Greater(t, len(res.Trades), 1)

	for i := 0; i < len(res.Trades)-1; i++ {
		assert.LessOrEqual(t, res.Trades[i].ExitTime, res.Trades[i+1].EntryTime)
		assert.LessOrEqual(t, res.Trades[i].EntryTime, res.Trades[i].ExitTime)
	}
}

func TestSimulateStopLossForcesExit(t *testing.T) {
	closes := []float64{100, 99.5, 98, 97, 96}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 99.5, strategy.DirectionNone),
		sig(2, 98, strategy.DirectionNone),
		sig(3, 97, strategy.DirectionNone),
		sig(4, 96, strategy.DirectionNone),
	}
	cfg := SimConfig{InitialCapital: 10000, PositionFraction: 0.5, FeeRate: 0, StopLossPct: 2}
	res, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, cfg)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, ExitStopLoss, tr.ExitReason)
	// 第一次触及 98（恰好 -2%）即强平，而不是等到更深的回撤。
	assert.Equal(t, 98.0, tr.ExitPrice)
	assert.Equal(t, int64(2*60_000), tr.ExitTime)
}

func TestSimulateTakeProfitForcesExit(t *testing.T) {
	closes := []float64{100, 102, 105, 108}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 102, strategy.DirectionNone),
		sig(2, 105, strategy.DirectionNone),
		sig(3, 108, strategy.DirectionNone),
	}
	cfg := SimConfig{InitialCapital: 10000, PositionFraction: 0.5, TakeProfitPct: 5}
	res, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, cfg)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, ExitTakeProfit, res.Trades[0].ExitReason)
	assert.Equal(t, 105.0, res.Trades[0].ExitPrice)
}

func TestSimulateShortProfitsWhenPriceFalls(t *testing.T) {
	closes := []float64{100, 90}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionSell),
		sig(1, 90, strategy.DirectionNone),
	}
	res, err := Simulate("SOLUSDT", candlesFromCloses(closes), signals, SimConfig{InitialCapital: 1000, PositionFraction: 1, FeeRate: 0})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, SideShort, tr.Side)
	assert.Equal(t, ExitEndOfPeriod, tr.ExitReason)
	assert.Greater(t, tr.PnL, 0.0)
	assert.InDelta(t, 10.0, tr.ReturnPct, 1e-9)
}

func TestSimulateOpposingSignalFlipsPosition(t *testing.T) {
	closes := []float64{100, 110, 105}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 110, strategy.DirectionSell),
		sig(2, 105, strategy.DirectionNone),
	}
	res, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, SimConfig{InitialCapital: 10000, PositionFraction: 0.5})
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, SideLong, res.Trades[0].Side)
	assert.Equal(t, ExitSignal, res.Trades[0].ExitReason)
	assert.Equal(t, SideShort, res.Trades[1].Side)
	assert.Equal(t, ExitEndOfPeriod, res.Trades[1].ExitReason)
}

func TestSimulateZeroPriceEntrySkipped(t *testing.T) {
	closes := []float64{0, 100}
	signals := []strategy.Signal{
		sig(0, 0, strategy.DirectionBuy),
		sig(1, 100, strategy.DirectionNone),
	}
	res, err := Simulate("BADUSDT", candlesFromCloses(closes), signals, SimConfig{InitialCapital: 1000})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 1000.0, res.FinalCapital)
}

func TestSimulateIdempotent(t *testing.T) {
	closes := []float64{100, 103, 99, 104, 101, 96, 107, 102}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 103, strategy.DirectionNone),
		sig(2, 99, strategy.DirectionSell),
		sig(3, 104, strategy.DirectionBuy),
		sig(4, 101, strategy.DirectionNone),
		sig(5, 96, strategy.DirectionNone),
		sig(6, 107, strategy.DirectionSell),
		sig(7, 102, strategy.DirectionNone),
	}
	cfg := SimConfig{InitialCapital: 10000, PositionFraction: 0.4, FeeRate: 0.001, StopLossPct: 3, TakeProfitPct: 6}
	first, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, cfg)
	require.NoError(t, err)
	second, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateEntryFeeChargedAtOpen(t *testing.T) {
	closes := []float64{100, 100}
	signals := []strategy.Signal{
		sig(0, 100, strategy.DirectionBuy),
		sig(1, 100, strategy.DirectionNone),
	}
	cfg := SimConfig{InitialCapital: 10000, PositionFraction: 0.5, FeeRate: 0.001}
	res, err := Simulate("BTCUSDT", candlesFromCloses(closes), signals, cfg)
	require.NoError(t, err)

	// 价格不动：pnl=0，双边手续费各 5（名义 5000 × 0.001）。
	require.Len(t, res.Trades, 1)
	assert.InDelta(t, 0.0, res.Trades[0].PnL, 1e-9)
	assert.InDelta(t, 10.0, res.Trades[0].Fees, 1e-9)
	assert.InDelta(t, 9990.0, res.FinalCapital, 1e-9)
}
