package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoin/internal/backtest"
)

func okResult(symbol string, totalReturn float64) backtest.SymbolResult {
	final := 10000 * (1 + totalReturn/100)
	return backtest.SymbolResult{
		Symbol:         symbol,
		Status:         backtest.StatusOK,
		InitialCapital: 10000,
		FinalCapital:   final,
		TotalReturn:    totalReturn,
		TotalTrades:    4,
		WinningTrades:  2,
		LosingTrades:   2,
		SignalCount:    8,
		CapitalCurve:   []float64{10000, final},
	}
}

func TestComputeEmptyInputIsZeroStruct(t *testing.T) {
	out := Compute(nil)
	assert.Equal(t, 0, out.Symbols)
	assert.Equal(t, 0.0, out.SuccessRate)
	assert.Equal(t, 0.0, out.MeanReturn)
	assert.Equal(t, Performer{}, out.BestPerformer)
	require.Len(t, out.Distribution, 6)
	for _, b := range out.Distribution {
		assert.Equal(t, 0, b.Count)
	}
}

func TestComputeTwoSymbolScenario(t *testing.T) {
	results := []backtest.SymbolResult{
		okResult("ETHUSDT", -5),
		okResult("BTCUSDT", 10),
	}
	out := Compute(results)

	assert.Equal(t, 2, out.Symbols)
	assert.Equal(t, 50.0, out.SuccessRate)
	assert.Equal(t, "BTCUSDT", out.BestPerformer.Symbol)
	assert.Equal(t, "ETHUSDT", out.WorstPerformer.Symbol)
	assert.InDelta(t, 2.5, out.MeanReturn, 1e-9)
	assert.InDelta(t, 2.5, out.MedianReturn, 1e-9)
	assert.Equal(t, 8, out.TotalTrades)
	assert.Equal(t, 50.0, out.OverallWinRate)
}

func TestComputeSkippedAndFailedExcluded(t *testing.T) {
	results := []backtest.SymbolResult{
		okResult("BTCUSDT", 3),
		{Symbol: "NEWUSDT", Status: backtest.StatusSkipped},
		{Symbol: "BADUSDT", Status: backtest.StatusFailed, Error: "boom"},
	}
	out := Compute(results)
	assert.Equal(t, 1, out.Symbols)
	require.Len(t, out.TopPerformers, 1)
	assert.Equal(t, "BTCUSDT", out.TopPerformers[0].Symbol)
}

func TestComputeTieBrokenLexically(t *testing.T) {
	results := []backtest.SymbolResult{
		okResult("ZZZUSDT", 5),
		okResult("AAAUSDT", 5),
	}
	out := Compute(results)
	assert.Equal(t, "AAAUSDT", out.BestPerformer.Symbol)
	assert.Equal(t, "ZZZUSDT", out.WorstPerformer.Symbol)
}

func TestDistributionBuckets(t *testing.T) {
	results := []backtest.SymbolResult{
		okResult("A1", -20), // <-10
		okResult("A2", -7),  // -10..-5
		okResult("A3", -1),  // -5..0
		okResult("A4", 2),   // 0..5
		okResult("A5", 9),   // 5..15
		okResult("A6", 30),  // >=15
		okResult("A7", 0),   // 0..5（边界归右）
	}
	out := Compute(results)
	counts := make([]int, len(out.Distribution))
	for i, b := range out.Distribution {
		counts[i] = b.Count
	}
	assert.Equal(t, []int{1, 1, 1, 2, 1, 1}, counts)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 110, 120}))
	assert.InDelta(t, 25.0, MaxDrawdown([]float64{100, 120, 90, 110}), 1e-9)
	assert.InDelta(t, 50.0, MaxDrawdown([]float64{100, 50, 75}), 1e-9)
}

func TestProfitFactorExclusions(t *testing.T) {
	onlyWins := []backtest.Trade{{PnL: 10}, {PnL: 5}}
	_, ok := profitFactor(onlyWins)
	assert.False(t, ok)

	mixed := []backtest.Trade{{PnL: 10}, {PnL: -5}}
	pf, ok := profitFactor(mixed)
	require.True(t, ok)
	assert.InDelta(t, 2.0, pf, 1e-9)
}

func TestPearsonCorrelation(t *testing.T) {
	// 完全正相关
	assert.InDelta(t, 1.0, pearson([]float64{1, 2, 3}, []float64{10, 20, 30}), 1e-9)
	// 完全负相关
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	// 零方差
	assert.Equal(t, 0.0, pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
}

func TestComputeSignalReturnCorrelation(t *testing.T) {
	a := okResult("AUSDT", 2)
	a.SignalCount = 2
	b := okResult("BUSDT", 4)
	b.SignalCount = 4
	c := okResult("CUSDT", 6)
	c.SignalCount = 6
	out := Compute([]backtest.SymbolResult{a, b, c})
	assert.InDelta(t, 1.0, out.SignalReturnCorr, 1e-9)
}
