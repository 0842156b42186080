package backtest

import "errors"

// 错误分类：批处理按符号隔离失败，只有配置错误会让整个批次提前终止。
var (
	// ErrInsufficientData 表示 K 线数量不足以覆盖预热期，该符号被跳过。
	ErrInsufficientData = errors.New("insufficient candle data")
	// ErrComputation 表示指标或模拟过程中出现非法数值，该符号标记失败。
	ErrComputation = errors.New("computation error")
	// ErrUpstreamData 表示上游行情拉取失败。
	ErrUpstreamData = errors.New("upstream data error")
)

// Side 表示持仓方向。
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ExitReason 记录平仓的触发来源。
type ExitReason string

const (
	ExitSignal      ExitReason = "signal"
	ExitStopLoss    ExitReason = "stop_loss"
	ExitTakeProfit  ExitReason = "take_profit"
	ExitEndOfPeriod ExitReason = "end_of_period"
)

// SimConfig 是单符号模拟的全部资金参数。
type SimConfig struct {
	InitialCapital   float64 `json:"initial_capital"`
	PositionFraction float64 `json:"position_fraction"`
	FeeRate          float64 `json:"fee_rate"`
	// StopLossPct / TakeProfitPct 以百分比表示（2 表示 2%），0 为禁用。
	StopLossPct   float64 `json:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct"`
}

// Normalized 填充缺省值后返回副本。
func (c SimConfig) Normalized() SimConfig {
	if c.InitialCapital <= 0 {
		c.InitialCapital = 10000
	}
	if c.PositionFraction <= 0 || c.PositionFraction > 1 {
		c.PositionFraction = 0.95
	}
	if c.FeeRate < 0 {
		c.FeeRate = 0
	}
	if c.StopLossPct < 0 {
		c.StopLossPct = 0
	}
	if c.TakeProfitPct < 0 {
		c.TakeProfitPct = 0
	}
	return c
}

// Trade 是一次完整开平仓的不可变记录。
type Trade struct {
	EntryTime  int64      `json:"entry_time"`
	ExitTime   int64      `json:"exit_time"`
	Side       Side       `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Size       float64    `json:"size"`
	PnL        float64    `json:"pnl"`
	Fees       float64    `json:"fees"`
	ReturnPct  float64    `json:"return_pct"`
	ExitReason ExitReason `json:"exit_reason"`
}

// SymbolStatus 表示单符号在批处理中的结局。
type SymbolStatus string

const (
	StatusOK      SymbolStatus = "ok"
	StatusSkipped SymbolStatus = "skipped"
	StatusFailed  SymbolStatus = "failed"
)

// SymbolResult 是单符号回测的完整产出。
// CapitalCurve 记录每次平仓后的资金余额，首元素为初始资金，
// 供回撤计算使用；SignalCount 为方向性信号的数量。
type SymbolResult struct {
	Symbol         string       `json:"symbol"`
	Status         SymbolStatus `json:"status"`
	Error          string       `json:"error,omitempty"`
	Trades         []Trade      `json:"trades"`
	InitialCapital float64      `json:"initial_capital"`
	FinalCapital   float64      `json:"final_capital"`
	TotalReturn    float64      `json:"total_return"`
	TotalTrades    int          `json:"total_trades"`
	WinningTrades  int          `json:"winning_trades"`
	LosingTrades   int          `json:"losing_trades"`
	WinRate        float64      `json:"win_rate"`
	TotalFees      float64      `json:"total_fees"`
	SignalCount    int          `json:"signal_count"`
	CandleCount    int          `json:"candle_count"`
	CapitalCurve   []float64    `json:"capital_curve,omitempty"`
}

// Succeeded 返回该符号是否完整跑完模拟。
func (r SymbolResult) Succeeded() bool { return r.Status == StatusOK }
