// Package indicator 基于 TALib 生成符号级的技术面快照，
// 通过 HTTP 诊断接口暴露。回测引擎本身不消费这里的输出，
// 两侧的预热/对齐约定互不影响。
package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"quoin/internal/market"
)

// Settings 描述计算快照所需的最小配置。
type Settings struct {
	Symbol   string
	Interval string
	EMA      EMASettings
	RSI      RSISettings
}

// EMASettings 描述 EMA 指标参数。
type EMASettings struct {
	Fast int `json:"fast,omitempty"`
	Mid  int `json:"mid,omitempty"`
	Slow int `json:"slow,omitempty"`
}

// RSISettings 描述 RSI 指标参数。
type RSISettings struct {
	Period     int     `json:"period,omitempty"`
	Oversold   float64 `json:"oversold,omitempty"`
	Overbought float64 `json:"overbought,omitempty"`
}

// Value 保存单个指标的最新值与状态。
type Value struct {
	Latest float64 `json:"latest"`
	State  string  `json:"state,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// Snapshot 汇总单个 symbol+interval 的指标输出。
type Snapshot struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Count    int              `json:"count"`
	Values   map[string]Value `json:"values"`
}

// Compute 计算常用指标并返回结构化快照。
func Compute(candles market.Candles, cfg Settings) (Snapshot, error) {
	snap := Snapshot{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Count:    len(candles),
		Values:   make(map[string]Value),
	}
	if len(candles) == 0 {
		return snap, fmt.Errorf("no candles")
	}
	closes := candles.Closes()
	highs := candles.Highs()
	lows := candles.Lows()
	volumes := candles.Volumes()
	lastClose := closes[len(closes)-1]

	if cfg.EMA.Fast <= 0 {
		cfg.EMA.Fast = 21
	}
	if cfg.EMA.Mid <= 0 {
		cfg.EMA.Mid = 50
	}
	if cfg.EMA.Slow <= 0 {
		cfg.EMA.Slow = 200
	}
	for name, period := range map[string]int{
		"ema_fast": cfg.EMA.Fast,
		"ema_mid":  cfg.EMA.Mid,
		"ema_slow": cfg.EMA.Slow,
	} {
		if len(closes) < period {
			continue
		}
		val := lastValid(talib.Ema(closes, period))
		snap.Values[name] = Value{
			Latest: round4(val),
			State:  relativeState(lastClose, val),
			Note:   fmt.Sprintf("EMA%d vs price", period),
		}
	}

	if cfg.RSI.Period <= 0 {
		cfg.RSI.Period = 14
	}
	if cfg.RSI.Overbought == 0 {
		cfg.RSI.Overbought = 70
	}
	if cfg.RSI.Oversold == 0 {
		cfg.RSI.Oversold = 30
	}
	if len(closes) > cfg.RSI.Period {
		rsiVal := lastValid(talib.Rsi(closes, cfg.RSI.Period))
		state := "neutral"
		switch {
		case rsiVal >= cfg.RSI.Overbought:
			state = "overbought"
		case rsiVal <= cfg.RSI.Oversold:
			state = "oversold"
		}
		snap.Values["rsi"] = Value{
			Latest: round4(rsiVal),
			State:  state,
			Note:   fmt.Sprintf("period=%d thresholds=%.1f/%.1f", cfg.RSI.Period, cfg.RSI.Oversold, cfg.RSI.Overbought),
		}
	}

	if len(closes) > 35 {
		_, signal, hist := talib.Macd(closes, 12, 26, 9)
		histVal := lastValid(hist)
		state := "flat"
		switch {
		case histVal > 0:
			state = "bullish"
		case histVal < 0:
			state = "bearish"
		}
		snap.Values["macd"] = Value{
			Latest: round4(histVal),
			State:  state,
			Note:   fmt.Sprintf("signal=%.4f", lastValid(signal)),
		}
	}

	if len(closes) > 20 {
		k, d := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
		kVal := lastValid(k)
		snap.Values["stoch_k"] = Value{
			Latest: round4(kVal),
			State:  stochasticState(kVal),
			Note:   fmt.Sprintf("d=%.2f", lastValid(d)),
		}
		atrVal := lastValid(talib.Atr(highs, lows, closes, 14))
		snap.Values["atr"] = Value{
			Latest: round4(atrVal),
			State:  "volatility",
			Note:   "period=14",
		}
		obvVal := lastValid(talib.Obv(closes, volumes))
		rocVal := lastValid(talib.Roc(closes, 9))
		snap.Values["roc"] = Value{
			Latest: round4(rocVal),
			State:  polarityState(rocVal),
			Note:   "period=9",
		}
		snap.Values["obv"] = Value{
			Latest: round4(obvVal),
			State:  polarityState(rocVal),
			Note:   "volume thrust",
		}
	}

	return snap, nil
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	if ref == 0 {
		return "unknown"
	}
	switch {
	case price > ref*1.002:
		return "above"
	case price < ref*0.998:
		return "below"
	default:
		return "touch"
	}
}

func polarityState(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	default:
		return "flat"
	}
}

func stochasticState(v float64) string {
	switch {
	case v >= 80:
		return "overbought"
	case v <= 20:
		return "oversold"
	default:
		return "neutral"
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
