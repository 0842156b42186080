package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoin/internal/market"
)

func makeCandles(prices []float64) market.Candles {
	candles := make(market.Candles, len(prices))
	for i, p := range prices {
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i)*60_000 + 59_999,
			Open:      p,
			High:      p + 1,
			Low:       p - 1,
			Close:     p,
			Volume:    100,
		}
	}
	return candles
}

func TestNewKnownStrategies(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name, Params{})
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
		assert.Greater(t, s.MinCandles(), 0, name)
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("bollinger", Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	errs := Validate(NameMACrossover, Params{FastPeriod: 30, SlowPeriod: 10})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "must be smaller than slow period")

	errs = Validate(NameRSI, Params{RSIPeriod: 14, RSIOversold: 80, RSIOverbought: 70})
	require.Len(t, errs, 1)

	errs = Validate("nope", Params{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unknown strategy")
}

func TestValidateAcceptsDefaults(t *testing.T) {
	for _, name := range Names() {
		assert.Empty(t, Validate(name, Params{}), name)
	}
}

func TestMACrossoverDetectsTurn(t *testing.T) {
	prices := []float64{10, 9, 8, 7, 6, 5, 4, 5, 6, 7, 8, 9, 10, 11}
	s := &MACrossover{Fast: 2, Slow: 3}
	signals, err := s.Signals(makeCandles(prices))
	require.NoError(t, err)

	// 稠密输出：从 slow SMA 的第二个有效点开始，每根 K 线一个信号。
	require.Len(t, signals, len(prices)-3)

	var buys []Signal
	for _, sig := range signals {
		if sig.Direction == DirectionBuy {
			buys = append(buys, sig)
		}
		assert.NotEqual(t, DirectionSell, sig.Direction)
	}
	require.Len(t, buys, 1)
	assert.Equal(t, int64(8*60_000), buys[0].Timestamp)
	assert.Equal(t, 6.0, buys[0].Price)
	assert.Equal(t, "crossover_up", buys[0].Kind)
}

func TestMACrossoverInsufficientData(t *testing.T) {
	s := &MACrossover{Fast: 10, Slow: 30}
	_, err := s.Signals(makeCandles([]float64{1, 2, 3}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need at least")
}

func TestSignalsAreDenseAndOrdered(t *testing.T) {
	prices := make([]float64, 120)
	for i := range prices {
		// 锯齿序列，保证各指标都有值可算。
		prices[i] = 100 + float64(i%11) - float64(i%7)
	}
	candles := makeCandles(prices)

	for _, name := range Names() {
		s, err := New(name, Params{FastPeriod: 5, SlowPeriod: 10, MACDFast: 5, MACDSlow: 10, MACDSignal: 4, RSIPeriod: 7, KPeriod: 7, DPeriod: 3, SMIPeriod: 7, SMISignalPeriod: 3})
		require.NoError(t, err, name)
		signals, err := s.Signals(candles)
		require.NoError(t, err, name)
		require.NotEmpty(t, signals, name)

		prev := int64(-1)
		for _, sig := range signals {
			assert.Greater(t, sig.Timestamp, prev, name)
			prev = sig.Timestamp
			assert.Contains(t, []Direction{DirectionBuy, DirectionSell, DirectionNone}, sig.Direction, name)
			if sig.Direction == DirectionNone {
				assert.Empty(t, sig.Kind, name)
			} else {
				assert.NotEmpty(t, sig.Kind, name)
			}
		}
		// 结尾必须对齐到最后一根 K 线。
		assert.Equal(t, candles[len(candles)-1].OpenTime, signals[len(signals)-1].Timestamp, name)
	}
}

func TestSignalsDeterministic(t *testing.T) {
	prices := make([]float64, 150)
	for i := range prices {
		prices[i] = 50 + float64((i*13)%17) - float64((i*7)%5)
	}
	candles := makeCandles(prices)

	for _, name := range Names() {
		s, err := New(name, Params{})
		require.NoError(t, err)
		first, err := s.Signals(candles)
		require.NoError(t, err)
		second, err := s.Signals(candles)
		require.NoError(t, err)
		assert.Equal(t, first, second, name)
	}
}

func TestSMIMomentumSingleConditionPerCandle(t *testing.T) {
	prices := make([]float64, 120)
	for i := range prices {
		prices[i] = 100 + 20*float64(i%30)/30 - 10
	}
	s := &SMIMomentum{Period: 7, SignalPeriod: 3, Oversold: -40, Overbought: 40}
	signals, err := s.Signals(makeCandles(prices))
	require.NoError(t, err)

	for _, sig := range signals {
		switch sig.Kind {
		case "", "oversold_cross", "overbought_cross", "oversold_turn", "overbought_turn":
		default:
			t.Fatalf("unexpected signal kind %q", sig.Kind)
		}
		if sig.Kind == "" {
			assert.Equal(t, DirectionNone, sig.Direction)
		}
	}
}
