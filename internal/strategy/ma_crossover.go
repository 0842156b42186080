package strategy

import (
	"fmt"

	"quoin/internal/indicator"
	"quoin/internal/market"
)

// MACrossover 双均线交叉策略：快线上穿慢线做多，下穿做空。
type MACrossover struct {
	Fast int
	Slow int
}

func (s *MACrossover) Name() string { return NameMACrossover }

func (s *MACrossover) MinCandles() int {
	slow := s.Slow
	if s.Fast > slow {
		slow = s.Fast
	}
	return slow + minCandleMargin
}

func (s *MACrossover) Signals(candles market.Candles) ([]Signal, error) {
	if len(candles) < s.MinCandles() {
		return nil, fmt.Errorf("need at least %d candles, got %d", s.MinCandles(), len(candles))
	}
	closes := candles.Closes()
	fast := indicator.SMA(closes, s.Fast)
	slow := indicator.SMA(closes, s.Slow)

	// 首个可判定下标需要当前值和前一个值都在两条序列的覆盖范围内。
	start := slow.Offset + 1
	if fast.Offset+1 > start {
		start = fast.Offset + 1
	}
	signals := make([]Signal, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		curFast, _ := fast.At(i)
		curSlow, _ := slow.At(i)
		prevFast, _ := fast.At(i - 1)
		prevSlow, _ := slow.At(i - 1)

		sig := Signal{
			Timestamp: candles[i].OpenTime,
			Price:     candles[i].Close,
			Direction: DirectionNone,
		}
		switch {
		case prevFast <= prevSlow && curFast > curSlow:
			sig.Direction = DirectionBuy
			sig.Kind = "crossover_up"
		case prevFast >= prevSlow && curFast < curSlow:
			sig.Direction = DirectionSell
			sig.Kind = "crossover_down"
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
