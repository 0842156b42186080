package strategy

import (
	"fmt"

	"quoin/internal/indicator"
	"quoin/internal/market"
)

// MACD 柱状图零轴交叉策略：柱由负转正做多，由正转负做空。
type MACD struct {
	Fast   int
	Slow   int
	Signal int
}

func (s *MACD) Name() string { return NameMACD }

func (s *MACD) MinCandles() int {
	return s.Slow + s.Signal + minCandleMargin
}

func (s *MACD) Signals(candles market.Candles) ([]Signal, error) {
	if len(candles) < s.MinCandles() {
		return nil, fmt.Errorf("need at least %d candles, got %d", s.MinCandles(), len(candles))
	}
	hist := indicator.MACDHistogram(candles.Closes(), s.Fast, s.Slow, s.Signal)

	// EMA 从首价起即有定义；慢线周期之前的柱值视为预热，不参与判定。
	start := s.Slow
	signals := make([]Signal, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		cur, _ := hist.At(i)
		prev, _ := hist.At(i - 1)

		sig := Signal{
			Timestamp: candles[i].OpenTime,
			Price:     candles[i].Close,
			Direction: DirectionNone,
		}
		switch {
		case cur > 0 && prev <= 0:
			sig.Direction = DirectionBuy
			sig.Kind = "hist_cross_up"
		case cur < 0 && prev >= 0:
			sig.Direction = DirectionSell
			sig.Kind = "hist_cross_down"
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
