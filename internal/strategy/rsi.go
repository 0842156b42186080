package strategy

import (
	"fmt"

	"quoin/internal/indicator"
	"quoin/internal/market"
)

// RSIReversal 超买超卖反转策略。
// 阈值类策略只在序列带方向地穿越水平线时触发一次，
// 避免停留在区间内时每根 K 线重复触发。
type RSIReversal struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func (s *RSIReversal) Name() string { return NameRSI }

func (s *RSIReversal) MinCandles() int {
	return s.Period + 1 + minCandleMargin
}

func (s *RSIReversal) Signals(candles market.Candles) ([]Signal, error) {
	if len(candles) < s.MinCandles() {
		return nil, fmt.Errorf("need at least %d candles, got %d", s.MinCandles(), len(candles))
	}
	rsi := indicator.RSI(candles.Closes(), s.Period)

	start := rsi.Offset + 1
	signals := make([]Signal, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		cur, _ := rsi.At(i)
		prev, _ := rsi.At(i - 1)

		sig := Signal{
			Timestamp: candles[i].OpenTime,
			Price:     candles[i].Close,
			Direction: DirectionNone,
		}
		switch {
		case prev < s.Oversold && cur >= s.Oversold:
			// 自下向上脱离超卖区
			sig.Direction = DirectionBuy
			sig.Kind = "oversold_exit"
		case prev > s.Overbought && cur <= s.Overbought:
			// 自上向下脱离超买区
			sig.Direction = DirectionSell
			sig.Kind = "overbought_exit"
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
