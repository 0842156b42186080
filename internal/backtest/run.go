package backtest

import (
	"time"

	"quoin/internal/strategy"
)

// RunRequest 描述一次批量回测请求，HTTP 与 CLI 共用。
type RunRequest struct {
	Strategy      string          `json:"strategy" binding:"required"`
	Params        strategy.Params `json:"params"`
	Symbols       []string        `json:"symbols"`
	Timeframe     string          `json:"timeframe" binding:"required"`
	StartTS       int64           `json:"start_ts" binding:"required"`
	EndTS         int64           `json:"end_ts" binding:"required"`
	MaxConcurrent int             `json:"max_concurrent"`
	Sim           SimConfig       `json:"sim"`
}

// RunInfo 是提交回测后的回执。
type RunInfo struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}
