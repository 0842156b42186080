package market

import (
	"fmt"
	"sort"
	"time"
)

// Candle 表示一根 K 线（固定时间桶内的 OHLCV 观测）。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

func (c Candle) TimeString() string {
	ts := c.OpenTime
	if ts <= 0 {
		return "-"
	}
	return time.UnixMilli(ts).UTC().Format("01-02 15:04") + "Z"
}

type Candles []Candle

// Closes 提取收盘价序列。
func (cs Candles) Closes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Highs 提取最高价序列。
func (cs Candles) Highs() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.High
	}
	return out
}

// Lows 提取最低价序列。
func (cs Candles) Lows() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Low
	}
	return out
}

// Volumes 提取成交量序列。
func (cs Candles) Volumes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}

// Normalize 按 open_time 升序排序并去重，保证序列严格递增。
func (cs Candles) Normalize() Candles {
	if len(cs) <= 1 {
		return cs
	}
	sorted := append(Candles(nil), cs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OpenTime < sorted[j].OpenTime })
	out := sorted[:1]
	for _, c := range sorted[1:] {
		if c.OpenTime == out[len(out)-1].OpenTime {
			out[len(out)-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// Validate 检查序列是否按 open_time 严格递增。
func (cs Candles) Validate() error {
	for i := 1; i < len(cs); i++ {
		if cs[i].OpenTime <= cs[i-1].OpenTime {
			return fmt.Errorf("candle series not strictly increasing at index %d (%d <= %d)", i, cs[i].OpenTime, cs[i-1].OpenTime)
		}
	}
	return nil
}
