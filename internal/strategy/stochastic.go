package strategy

import (
	"fmt"

	"quoin/internal/indicator"
	"quoin/internal/market"
)

// StochasticCross 随机指标交叉策略：
// %K 在超卖区上穿 %D 做多，在超买区下穿 %D 做空。
type StochasticCross struct {
	KPeriod    int
	DPeriod    int
	Oversold   float64
	Overbought float64
}

func (s *StochasticCross) Name() string { return NameStochastic }

func (s *StochasticCross) MinCandles() int {
	return s.KPeriod + s.DPeriod + minCandleMargin
}

func (s *StochasticCross) Signals(candles market.Candles) ([]Signal, error) {
	if len(candles) < s.MinCandles() {
		return nil, fmt.Errorf("need at least %d candles, got %d", s.MinCandles(), len(candles))
	}
	k, d := indicator.Stochastic(candles, s.KPeriod, s.DPeriod)

	start := d.Offset + 1
	signals := make([]Signal, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		curK, _ := k.At(i)
		curD, _ := d.At(i)
		prevK, _ := k.At(i - 1)
		prevD, _ := d.At(i - 1)

		sig := Signal{
			Timestamp: candles[i].OpenTime,
			Price:     candles[i].Close,
			Direction: DirectionNone,
		}
		switch {
		case prevK <= prevD && curK > curD && curK < s.Oversold:
			sig.Direction = DirectionBuy
			sig.Kind = "oversold_kd_cross"
		case prevK >= prevD && curK < curD && curK > s.Overbought:
			sig.Direction = DirectionSell
			sig.Kind = "overbought_kd_cross"
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
