package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quoin/internal/logger"
	"quoin/internal/market"
	"quoin/internal/strategy"
)

// CandleProvider 为批处理提供已限速、已缓存的历史 K 线。
type CandleProvider interface {
	Candles(ctx context.Context, symbol, timeframe string, start, end int64) (market.Candles, error)
}

// EngineConfig 汇总一次批量回测需要的全部输入。
type EngineConfig struct {
	Provider      CandleProvider
	Strategy      strategy.Strategy
	Sim           SimConfig
	Timeframe     string
	StartTS       int64
	EndTS         int64
	MaxConcurrent int
}

// Engine 对一组符号并行执行回测。符号之间完全独立，
// 单个符号的数据异常只影响自身，不会中断整个批次。
type Engine struct {
	provider CandleProvider
	strat    strategy.Strategy
	sim      SimConfig
	tf       Timeframe
	startTS  int64
	endTS    int64
	sem      chan struct{}
}

// BatchResult 是批量回测的汇总产出。Results 按符号字典序排列，
// 同样的输入保证逐字节相同的输出。
type BatchResult struct {
	Strategy  string         `json:"strategy"`
	Timeframe string         `json:"timeframe"`
	StartTS   int64          `json:"start_ts"`
	EndTS     int64          `json:"end_ts"`
	Results   []SymbolResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Elapsed   time.Duration  `json:"elapsed"`
}

// Completed 返回状态为 ok 的符号结果。
func (b BatchResult) Completed() []SymbolResult {
	out := make([]SymbolResult, 0, b.Succeeded)
	for _, r := range b.Results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("candle provider 不能为空")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy 不能为空")
	}
	tf, err := ParseTimeframe(cfg.Timeframe)
	if err != nil {
		return nil, err
	}
	start, end := tf.AlignRange(cfg.StartTS, cfg.EndTS)
	if start <= 0 || end <= start {
		return nil, fmt.Errorf("start/end 非法")
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Engine{
		provider: cfg.Provider,
		strat:    cfg.Strategy,
		sim:      cfg.Sim.Normalized(),
		tf:       tf,
		startTS:  start,
		endTS:    end,
		sem:      make(chan struct{}, maxConcurrent),
	}, nil
}

// Run 对 symbols 执行批量回测。输入顺序无关，结果按符号排序。
// 只有 ctx 取消会让 Run 返回错误；符号级失败体现在结果状态里。
func (e *Engine) Run(ctx context.Context, symbols []string) (BatchResult, error) {
	started := time.Now()
	ordered := dedupeSorted(symbols)

	results := make([]SymbolResult, len(ordered))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range ordered {
		i, symbol := i, symbol
		g.Go(func() error {
			select {
			case e.sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-e.sem }()

			res := e.runSymbol(gctx, symbol)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	batch := BatchResult{
		Strategy:  e.strat.Name(),
		Timeframe: e.tf.Key,
		StartTS:   e.startTS,
		EndTS:     e.endTS,
		Results:   results,
		Elapsed:   time.Since(started),
	}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			batch.Succeeded++
		case StatusSkipped:
			batch.Skipped++
		default:
			batch.Failed++
		}
	}
	logger.Infof("[backtest] 批次完成: %d ok / %d skipped / %d failed，耗时 %s",
		batch.Succeeded, batch.Skipped, batch.Failed, batch.Elapsed.Round(time.Millisecond))
	return batch, nil
}

// runSymbol 对单个符号执行完整流水线：取数 → 校验 → 信号 → 模拟。
func (e *Engine) runSymbol(ctx context.Context, symbol string) SymbolResult {
	candles, err := e.provider.Candles(ctx, symbol, e.tf.Key, e.startTS, e.endTS)
	if err != nil {
		logger.Warnf("[backtest] %s 行情拉取失败: %v", symbol, err)
		return failedResult(symbol, fmt.Errorf("%w: %v", ErrUpstreamData, err))
	}
	need := e.strat.MinCandles()
	if len(candles) < need {
		logger.Infof("[backtest] %s 数据不足（%d/%d），跳过", symbol, len(candles), need)
		return SymbolResult{
			Symbol:      symbol,
			Status:      StatusSkipped,
			Error:       fmt.Sprintf("%v: have %d, need %d", ErrInsufficientData, len(candles), need),
			CandleCount: len(candles),
		}
	}
	if err := candles.Validate(); err != nil {
		return failedResult(symbol, fmt.Errorf("%w: %v", ErrComputation, err))
	}

	signals, err := e.strat.Signals(candles)
	if err != nil {
		return failedResult(symbol, fmt.Errorf("%w: %v", ErrComputation, err))
	}
	res, err := Simulate(symbol, candles, signals, e.sim)
	if err != nil {
		return failedResult(symbol, err)
	}
	return res
}

func failedResult(symbol string, err error) SymbolResult {
	res := SymbolResult{Symbol: symbol, Status: StatusFailed}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// IsSkippable 返回错误是否属于“跳过而非失败”一类。
func IsSkippable(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func dedupeSorted(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
