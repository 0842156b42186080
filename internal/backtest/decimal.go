package backtest

import (
	"math"

	"github.com/shopspring/decimal"
)

var decHundred = decimal.NewFromInt(100)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

// changePct 返回 price 相对 entry 的有利变动百分比。
// 做多时价格上涨为正，做空时价格下跌为正。
func changePct(side Side, entry, price float64) float64 {
	if entry <= 0 {
		return 0
	}
	diff := decFromFloat(price).Sub(decFromFloat(entry))
	if side == SideShort {
		diff = diff.Neg()
	}
	pct, _ := diff.Div(decFromFloat(entry)).Mul(decHundred).Float64()
	return pct
}

// stopLossHit / takeProfitHit 用 decimal 比较避免阈值附近的
// 浮点误差导致的漏触发或误触发，阈值为 0 时禁用。
func stopLossHit(change, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	return decFromFloat(change).Cmp(decFromFloat(-threshold)) <= 0
}

func takeProfitHit(change, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	return decFromFloat(change).Cmp(decFromFloat(threshold)) >= 0
}
