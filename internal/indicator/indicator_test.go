package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoin/internal/market"
)

func TestSMAOmitConvention(t *testing.T) {
	s := SMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []float64{2, 3, 4}, s.Values)
	assert.Equal(t, 2, s.Offset)

	v, ok := s.At(2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-12)
	_, ok = s.At(1)
	assert.False(t, ok)
}

func TestSMAInsufficientData(t *testing.T) {
	s := SMA([]float64{1, 2}, 5)
	assert.Zero(t, s.Len())
}

func TestEMASeededWithFirstPrice(t *testing.T) {
	prices := []float64{10, 11, 12}
	s := EMA(prices, 3)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.Offset)
	assert.InDelta(t, 10.0, s.Values[0], 1e-12)
	// k = 2/(3+1) = 0.5
	assert.InDelta(t, 10.5, s.Values[1], 1e-12)
	assert.InDelta(t, 11.25, s.Values[2], 1e-12)
}

func TestRSIBounds(t *testing.T) {
	prices := []float64{44, 44.5, 43.8, 44.2, 44.9, 45.1, 44.7, 45.3, 45.8, 45.5, 46.0, 46.2, 45.9, 46.5, 46.8, 47.0}
	s := RSI(prices, 14)
	require.NotZero(t, s.Len())
	for _, v := range s.Values {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	assert.Equal(t, 14, s.Offset)
}

func TestRSIAllGainsIs100(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	s := RSI(prices, 3)
	require.NotZero(t, s.Len())
	for _, v := range s.Values {
		assert.Equal(t, 100.0, v)
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	prices := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	s := RSI(prices, 3)
	require.NotZero(t, s.Len())
	for _, v := range s.Values {
		assert.Equal(t, 0.0, v)
	}
}

func TestMACDHistogramFullLength(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i%7)
	}
	s := MACDHistogram(prices, 12, 26, 9)
	assert.Equal(t, len(prices), s.Len())
	assert.Equal(t, 0, s.Offset)
}

func testCandles(hlc ...[3]float64) market.Candles {
	out := make(market.Candles, len(hlc))
	for i, v := range hlc {
		out[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			High:     v[0],
			Low:      v[1],
			Close:    v[2],
		}
	}
	return out
}

func TestStochasticBounds(t *testing.T) {
	candles := testCandles(
		[3]float64{10, 8, 9}, [3]float64{11, 9, 10}, [3]float64{12, 10, 11},
		[3]float64{13, 11, 12}, [3]float64{12, 10, 10.5}, [3]float64{11, 9, 9.5},
		[3]float64{12, 10, 11.5}, [3]float64{13, 11, 12.5},
	)
	k, d := Stochastic(candles, 3, 2)
	require.NotZero(t, k.Len())
	require.NotZero(t, d.Len())
	for _, v := range k.Values {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	for _, v := range d.Values {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	assert.Equal(t, 2, k.Offset)
	assert.Equal(t, 3, d.Offset)
}

func TestStochasticFlatRangeIsZero(t *testing.T) {
	candles := testCandles(
		[3]float64{10, 10, 10}, [3]float64{10, 10, 10}, [3]float64{10, 10, 10},
		[3]float64{10, 10, 10},
	)
	k, _ := Stochastic(candles, 3, 2)
	require.NotZero(t, k.Len())
	for _, v := range k.Values {
		assert.Equal(t, 0.0, v)
	}
}

func TestSMIAlignmentAndBounds(t *testing.T) {
	var candles market.Candles
	for i := 0; i < 40; i++ {
		base := 100 + 5*float64(i%9)
		candles = append(candles, market.Candle{
			OpenTime: int64(i) * 60_000,
			High:     base + 2,
			Low:      base - 2,
			Close:    base,
		})
	}
	osc, signal := SMI(candles, 14, 3)
	require.NotZero(t, osc.Len())
	assert.Equal(t, osc.Len(), signal.Len())
	assert.Equal(t, 26, osc.Offset)
	assert.Equal(t, osc.Offset, signal.Offset)
}

func TestSMIFlatRangeIsZero(t *testing.T) {
	var candles market.Candles
	for i := 0; i < 20; i++ {
		candles = append(candles, market.Candle{OpenTime: int64(i) * 60_000, High: 10, Low: 10, Close: 10})
	}
	osc, _ := SMI(candles, 5, 3)
	require.NotZero(t, osc.Len())
	for _, v := range osc.Values {
		assert.Equal(t, 0.0, v)
	}
}

func TestSeriesIndexing(t *testing.T) {
	s := Series{Values: []float64{7, 8, 9}, Offset: 5}
	assert.Equal(t, 5, s.FirstIndex())
	assert.Equal(t, 7, s.LastIndex())
	assert.Equal(t, 9.0, s.Last())
	_, ok := s.At(8)
	assert.False(t, ok)
}
