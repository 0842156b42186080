package strategy

import (
	"fmt"

	"quoin/internal/indicator"
	"quoin/internal/market"
)

// SMIMomentum 随机动量指标策略。
// 每根K线按固定顺序最多触发一个条件：先看振荡线与信号线的交叉，
// 再看极值区内的背离回升/回落；命中即停，后续条件不再评估。
type SMIMomentum struct {
	Period       int
	SignalPeriod int
	Oversold     float64
	Overbought   float64
}

func (s *SMIMomentum) Name() string { return NameSMI }

func (s *SMIMomentum) MinCandles() int {
	return 2*(s.Period-1) + 1 + minCandleMargin
}

func (s *SMIMomentum) Signals(candles market.Candles) ([]Signal, error) {
	if len(candles) < s.MinCandles() {
		return nil, fmt.Errorf("need at least %d candles, got %d", s.MinCandles(), len(candles))
	}
	osc, sigLine := indicator.SMI(candles, s.Period, s.SignalPeriod)

	start := osc.Offset + 1
	signals := make([]Signal, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		cur, _ := osc.At(i)
		prev, _ := osc.At(i - 1)
		curSig, _ := sigLine.At(i)
		prevSig, _ := sigLine.At(i - 1)

		out := Signal{
			Timestamp: candles[i].OpenTime,
			Price:     candles[i].Close,
			Direction: DirectionNone,
		}
		if prev <= prevSig && cur > curSig && cur < s.Oversold {
			out.Direction = DirectionBuy
			out.Kind = "oversold_cross"
		} else if prev >= prevSig && cur < curSig && cur > s.Overbought {
			out.Direction = DirectionSell
			out.Kind = "overbought_cross"
		} else if cur < s.Oversold && cur > prev {
			out.Direction = DirectionBuy
			out.Kind = "oversold_turn"
		} else if cur > s.Overbought && cur < prev {
			out.Direction = DirectionSell
			out.Kind = "overbought_turn"
		}
		signals = append(signals, out)
	}
	return signals, nil
}
