// Package metrics 把多符号的回测产出汇总成横截面统计。
// 所有计算都是纯函数：每次整体重算，不做增量维护。
package metrics

import (
	"math"
	"sort"

	"quoin/internal/backtest"
)

// Bucket 是收益分布直方图的一格。
type Bucket struct {
	Label string  `json:"label"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// Performer 是排行榜中的一项。
type Performer struct {
	Symbol    string  `json:"symbol"`
	Return    float64 `json:"return"`
	Trades    int     `json:"trades"`
	WinRate   float64 `json:"win_rate"`
	Drawdown  float64 `json:"drawdown"`
	FinalCap  float64 `json:"final_capital"`
	TotalFees float64 `json:"total_fees"`
}

// Overall 是跨符号的聚合指标。空输入得到零值结构。
type Overall struct {
	Symbols           int     `json:"symbols"`
	ProfitableSymbols int     `json:"profitable_symbols"`
	SuccessRate       float64 `json:"success_rate"`

	MeanReturn   float64 `json:"mean_return"`
	MedianReturn float64 `json:"median_return"`
	StdDevReturn float64 `json:"stddev_return"`

	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	OverallWinRate float64 `json:"overall_win_rate"`
	TotalFees      float64 `json:"total_fees"`

	AvgDrawdown     float64 `json:"avg_drawdown"`
	AvgProfitFactor float64 `json:"avg_profit_factor"`

	BestPerformer  Performer `json:"best_performer"`
	WorstPerformer Performer `json:"worst_performer"`

	TopPerformers []Performer `json:"top_performers"`
	Distribution  []Bucket    `json:"distribution"`

	// SignalReturnCorr 是各符号信号数量与收益率之间的皮尔逊相关系数。
	SignalReturnCorr float64 `json:"signal_return_corr"`
}

// Compute 只统计状态为 ok 的符号；skipped/failed 不进入任何榜单。
func Compute(results []backtest.SymbolResult) Overall {
	completed := make([]backtest.SymbolResult, 0, len(results))
	for _, r := range results {
		if r.Succeeded() {
			completed = append(completed, r)
		}
	}
	if len(completed) == 0 {
		return Overall{Distribution: emptyBuckets()}
	}

	performers := make([]Performer, 0, len(completed))
	returns := make([]float64, 0, len(completed))
	signalCounts := make([]float64, 0, len(completed))
	out := Overall{Symbols: len(completed)}

	var drawdownSum float64
	var pfSum float64
	var pfCount int
	for _, r := range completed {
		dd := MaxDrawdown(r.CapitalCurve)
		performers = append(performers, Performer{
			Symbol:    r.Symbol,
			Return:    r.TotalReturn,
			Trades:    r.TotalTrades,
			WinRate:   r.WinRate,
			Drawdown:  dd,
			FinalCap:  r.FinalCapital,
			TotalFees: r.TotalFees,
		})
		returns = append(returns, r.TotalReturn)
		signalCounts = append(signalCounts, float64(r.SignalCount))

		if r.TotalReturn > 0 {
			out.ProfitableSymbols++
		}
		out.TotalTrades += r.TotalTrades
		out.WinningTrades += r.WinningTrades
		out.LosingTrades += r.LosingTrades
		out.TotalFees += r.TotalFees
		drawdownSum += dd
		if pf, ok := profitFactor(r.Trades); ok {
			pfSum += pf
			pfCount++
		}
	}

	out.SuccessRate = float64(out.ProfitableSymbols) / float64(len(completed)) * 100
	out.MeanReturn = mean(returns)
	out.MedianReturn = median(returns)
	out.StdDevReturn = stddev(returns)
	if out.TotalTrades > 0 {
		out.OverallWinRate = float64(out.WinningTrades) / float64(out.TotalTrades) * 100
	}
	out.AvgDrawdown = drawdownSum / float64(len(completed))
	if pfCount > 0 {
		out.AvgProfitFactor = pfSum / float64(pfCount)
	}
	out.SignalReturnCorr = pearson(signalCounts, returns)

	// 收益相同按符号字典序稳定排序。
	sort.Slice(performers, func(i, j int) bool {
		if performers[i].Return != performers[j].Return {
			return performers[i].Return > performers[j].Return
		}
		return performers[i].Symbol < performers[j].Symbol
	})
	out.TopPerformers = performers
	out.BestPerformer = performers[0]
	out.WorstPerformer = performers[len(performers)-1]
	out.Distribution = distribution(returns)
	return out
}

// MaxDrawdown 返回资金曲线相对运行峰值的最大回撤百分比（非负）。
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0]
	maxDD := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// profitFactor 返回 |平均盈利/平均亏损|；没有亏损交易或比值发散时
// 返回 ok=false，不参与均值。
func profitFactor(trades []backtest.Trade) (float64, bool) {
	var winSum, lossSum float64
	var wins, losses int
	for _, t := range trades {
		if t.PnL > 0 {
			winSum += t.PnL
			wins++
		} else if t.PnL < 0 {
			lossSum += t.PnL
			losses++
		}
	}
	if wins == 0 || losses == 0 {
		return 0, false
	}
	avgWin := winSum / float64(wins)
	avgLoss := lossSum / float64(losses)
	if avgLoss == 0 {
		return 0, false
	}
	pf := math.Abs(avgWin / avgLoss)
	if math.IsInf(pf, 0) || math.IsNaN(pf) {
		return 0, false
	}
	return pf, true
}

var bucketBounds = []struct {
	label    string
	from, to float64
}{
	{"<-10%", math.Inf(-1), -10},
	{"-10%..-5%", -10, -5},
	{"-5%..0%", -5, 0},
	{"0%..5%", 0, 5},
	{"5%..15%", 5, 15},
	{">=15%", 15, math.Inf(1)},
}

func emptyBuckets() []Bucket {
	out := make([]Bucket, len(bucketBounds))
	for i, b := range bucketBounds {
		out[i] = Bucket{Label: b.label, From: b.from, To: b.to}
	}
	return out
}

func distribution(returns []float64) []Bucket {
	buckets := emptyBuckets()
	for _, r := range returns {
		for i, b := range bucketBounds {
			if r >= b.from && r < b.to {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}

// pearson 计算两组样本的线性相关系数；方差为零时返回 0。
func pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
