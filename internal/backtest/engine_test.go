package backtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoin/internal/market"
	"quoin/internal/strategy"
)

type stubProvider struct {
	data map[string]market.Candles
	errs map[string]error
}

func (p *stubProvider) Candles(_ context.Context, symbol, _ string, _, _ int64) (market.Candles, error) {
	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	return p.data[symbol], nil
}

type stubStrategy struct {
	min int
}

func (s *stubStrategy) Name() string    { return "stub" }
func (s *stubStrategy) MinCandles() int { return s.min }

// 偶数位买入、奇数位卖出，保证每个符号都有成交。
func (s *stubStrategy) Signals(candles market.Candles) ([]strategy.Signal, error) {
	out := make([]strategy.Signal, 0, len(candles))
	for i, c := range candles {
		dir := strategy.DirectionBuy
		if i%2 == 1 {
			dir = strategy.DirectionSell
		}
		out = append(out, strategy.Signal{Timestamp: c.OpenTime, Price: c.Close, Direction: dir})
	}
	return out, nil
}

func engineCandles(n int, base float64) market.Candles {
	out := make(market.Candles, n)
	for i := range out {
		price := base + float64(i%5)
		out[i] = market.Candle{
			OpenTime:  int64(i) * 3_600_000,
			CloseTime: int64(i)*3_600_000 + 3_599_999,
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    10,
		}
	}
	return out
}

func newTestEngine(t *testing.T, provider CandleProvider, concurrent int) *Engine {
	t.Helper()
	eng, err := NewEngine(EngineConfig{
		Provider:      provider,
		Strategy:      &stubStrategy{min: 10},
		Sim:           SimConfig{InitialCapital: 10000, PositionFraction: 0.5, FeeRate: 0.0004},
		Timeframe:     "1h",
		StartTS:       3_600_000,
		EndTS:         100 * 3_600_000,
		MaxConcurrent: concurrent,
	})
	require.NoError(t, err)
	return eng
}

func TestEnginePartialFailure(t *testing.T) {
	provider := &stubProvider{
		data: map[string]market.Candles{
			"BTCUSDT": engineCandles(50, 100),
			"DOGEUSDT": engineCandles(3, 0.1), // 不足最小数量
		},
		errs: map[string]error{
			"ETHUSDT": fmt.Errorf("upstream timeout"),
		},
	}
	eng := newTestEngine(t, provider, 2)

	batch, err := eng.Run(context.Background(), []string{"ETHUSDT", "BTCUSDT", "DOGEUSDT"})
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, 1, batch.Failed)

	// 结果按符号字典序排列，与提交顺序无关。
	assert.Equal(t, "BTCUSDT", batch.Results[0].Symbol)
	assert.Equal(t, StatusOK, batch.Results[0].Status)
	assert.Equal(t, "DOGEUSDT", batch.Results[1].Symbol)
	assert.Equal(t, StatusSkipped, batch.Results[1].Status)
	assert.Equal(t, "ETHUSDT", batch.Results[2].Symbol)
	assert.Equal(t, StatusFailed, batch.Results[2].Status)
	assert.Contains(t, batch.Results[2].Error, "upstream")
}

func TestEngineEmptyCandlesSkipped(t *testing.T) {
	provider := &stubProvider{data: map[string]market.Candles{"NEWUSDT": nil}}
	eng := newTestEngine(t, provider, 1)

	batch, err := eng.Run(context.Background(), []string{"NEWUSDT"})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, StatusSkipped, batch.Results[0].Status)
	assert.Empty(t, batch.Completed())
}

func TestEngineDeterministicAcrossConcurrency(t *testing.T) {
	provider := &stubProvider{data: map[string]market.Candles{
		"AUSDT": engineCandles(40, 10),
		"BUSDT": engineCandles(40, 20),
		"CUSDT": engineCandles(40, 30),
	}}
	sequential := newTestEngine(t, provider, 1)
	parallel := newTestEngine(t, provider, 3)

	symbols := []string{"CUSDT", "AUSDT", "BUSDT"}
	first, err := sequential.Run(context.Background(), symbols)
	require.NoError(t, err)
	second, err := parallel.Run(context.Background(), symbols)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
}

func TestEngineDedupesSymbols(t *testing.T) {
	provider := &stubProvider{data: map[string]market.Candles{"BTCUSDT": engineCandles(40, 100)}}
	eng := newTestEngine(t, provider, 2)

	batch, err := eng.Run(context.Background(), []string{"BTCUSDT", "BTCUSDT", ""})
	require.NoError(t, err)
	assert.Len(t, batch.Results, 1)
}

func TestNewEngineRejectsBadRange(t *testing.T) {
	provider := &stubProvider{}
	_, err := NewEngine(EngineConfig{
		Provider:  provider,
		Strategy:  &stubStrategy{min: 10},
		Timeframe: "1h",
		StartTS:   100,
		EndTS:     100,
	})
	require.Error(t, err)
}
