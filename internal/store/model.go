package store

// RunModel 是一次批量回测的落库记录。指标明细整体以 JSON 存储，
// 列表页只依赖提升出来的汇总列。
type RunModel struct {
	ID          string  `gorm:"column:id;primaryKey"`
	Strategy    string  `gorm:"column:strategy;index"`
	Timeframe   string  `gorm:"column:timeframe"`
	StartTS     int64   `gorm:"column:start_ts"`
	EndTS       int64   `gorm:"column:end_ts"`
	Symbols     int     `gorm:"column:symbols"`
	Succeeded   int     `gorm:"column:succeeded"`
	Skipped     int     `gorm:"column:skipped"`
	Failed      int     `gorm:"column:failed"`
	SuccessRate float64 `gorm:"column:success_rate"`
	MeanReturn  float64 `gorm:"column:mean_return"`
	BestSymbol  string  `gorm:"column:best_symbol"`
	WorstSymbol string  `gorm:"column:worst_symbol"`
	ConfigJSON  string  `gorm:"column:config_json"`
	MetricsJSON string  `gorm:"column:metrics_json"`
	ElapsedMs   int64   `gorm:"column:elapsed_ms"`
	CreatedAt   int64   `gorm:"column:created_at;index"`
}

func (RunModel) TableName() string { return "runs" }

// SymbolResultModel 是单符号维度的落库记录。
type SymbolResultModel struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID        string  `gorm:"column:run_id;index"`
	Symbol       string  `gorm:"column:symbol;index"`
	Status       string  `gorm:"column:status"`
	Error        string  `gorm:"column:error"`
	TotalReturn  float64 `gorm:"column:total_return"`
	FinalCapital float64 `gorm:"column:final_capital"`
	TotalTrades  int     `gorm:"column:total_trades"`
	WinRate      float64 `gorm:"column:win_rate"`
	TotalFees    float64 `gorm:"column:total_fees"`
	SignalCount  int     `gorm:"column:signal_count"`
	CandleCount  int     `gorm:"column:candle_count"`
	CurveJSON    string  `gorm:"column:curve_json"`
}

func (SymbolResultModel) TableName() string { return "symbol_results" }

// TradeModel 是成交流水的落库记录。
type TradeModel struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string  `gorm:"column:run_id;index"`
	Symbol     string  `gorm:"column:symbol;index"`
	EntryTime  int64   `gorm:"column:entry_time"`
	ExitTime   int64   `gorm:"column:exit_time"`
	Side       string  `gorm:"column:side"`
	EntryPrice float64 `gorm:"column:entry_price"`
	ExitPrice  float64 `gorm:"column:exit_price"`
	Size       float64 `gorm:"column:size"`
	PnL        float64 `gorm:"column:pnl"`
	Fees       float64 `gorm:"column:fees"`
	ReturnPct  float64 `gorm:"column:return_pct"`
	ExitReason string  `gorm:"column:exit_reason"`
}

func (TradeModel) TableName() string { return "trades" }
