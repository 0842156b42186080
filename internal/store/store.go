// Package store 用 Gorm + SQLite 持久化批量回测的结果，
// 供 HTTP 接口和历史对比使用。
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quoin/internal/backtest"
	"quoin/internal/metrics"
)

// ResultStore 保存与查询回测运行记录。
type ResultStore struct {
	db *gorm.DB
}

// RunRecord 是对外暴露的运行摘要。
type RunRecord struct {
	ID          string          `json:"id"`
	Strategy    string          `json:"strategy"`
	Timeframe   string          `json:"timeframe"`
	StartTS     int64           `json:"start_ts"`
	EndTS       int64           `json:"end_ts"`
	Symbols     int             `json:"symbols"`
	Succeeded   int             `json:"succeeded"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	SuccessRate float64         `json:"success_rate"`
	MeanReturn  float64         `json:"mean_return"`
	BestSymbol  string          `json:"best_symbol"`
	WorstSymbol string          `json:"worst_symbol"`
	ElapsedMs   int64           `json:"elapsed_ms"`
	CreatedAt   int64           `json:"created_at"`
	Metrics     metrics.Overall `json:"metrics,omitempty"`
}

// RunDetail 在摘要基础上附带符号级结果与成交流水。
type RunDetail struct {
	RunRecord
	Results []backtest.SymbolResult `json:"results"`
}

func NewResultStore(path string) (*ResultStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("result store 路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&RunModel{}, &SymbolResultModel{}, &TradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：给并发读留一点余量，同时控制锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &ResultStore{db: db}, nil
}

func (s *ResultStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun 在一个事务里保存运行摘要、符号结果与全部成交。
func (s *ResultStore) SaveRun(ctx context.Context, runID string, batch backtest.BatchResult, overall metrics.Overall, configJSON string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("result store 未初始化")
	}
	if runID == "" {
		return fmt.Errorf("run id 不能为空")
	}
	metricsJSON, err := json.Marshal(overall)
	if err != nil {
		return err
	}
	run := RunModel{
		ID:          runID,
		Strategy:    batch.Strategy,
		Timeframe:   batch.Timeframe,
		StartTS:     batch.StartTS,
		EndTS:       batch.EndTS,
		Symbols:     len(batch.Results),
		Succeeded:   batch.Succeeded,
		Skipped:     batch.Skipped,
		Failed:      batch.Failed,
		SuccessRate: overall.SuccessRate,
		MeanReturn:  overall.MeanReturn,
		BestSymbol:  overall.BestPerformer.Symbol,
		WorstSymbol: overall.WorstPerformer.Symbol,
		ConfigJSON:  configJSON,
		MetricsJSON: string(metricsJSON),
		ElapsedMs:   batch.Elapsed.Milliseconds(),
		CreatedAt:   time.Now().UnixMilli(),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		for _, r := range batch.Results {
			curveJSON, err := json.Marshal(r.CapitalCurve)
			if err != nil {
				return err
			}
			row := SymbolResultModel{
				RunID:        runID,
				Symbol:       r.Symbol,
				Status:       string(r.Status),
				Error:        r.Error,
				TotalReturn:  r.TotalReturn,
				FinalCapital: r.FinalCapital,
				TotalTrades:  r.TotalTrades,
				WinRate:      r.WinRate,
				TotalFees:    r.TotalFees,
				SignalCount:  r.SignalCount,
				CandleCount:  r.CandleCount,
				CurveJSON:    string(curveJSON),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if len(r.Trades) == 0 {
				continue
			}
			trades := make([]TradeModel, 0, len(r.Trades))
			for _, t := range r.Trades {
				trades = append(trades, TradeModel{
					RunID:      runID,
					Symbol:     r.Symbol,
					EntryTime:  t.EntryTime,
					ExitTime:   t.ExitTime,
					Side:       string(t.Side),
					EntryPrice: t.EntryPrice,
					ExitPrice:  t.ExitPrice,
					Size:       t.Size,
					PnL:        t.PnL,
					Fees:       t.Fees,
					ReturnPct:  t.ReturnPct,
					ExitReason: string(t.ExitReason),
				})
			}
			if err := tx.CreateInBatches(trades, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRuns 按创建时间倒序返回运行摘要。
func (s *ResultStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("result store 未初始化")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	var rows []RunModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]RunRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, runRecordFromModel(row, false))
	}
	return out, nil
}

// GetRun 返回单次运行的完整明细。
func (s *ResultStore) GetRun(ctx context.Context, runID string) (RunDetail, error) {
	if s == nil || s.db == nil {
		return RunDetail{}, fmt.Errorf("result store 未初始化")
	}
	var run RunModel
	if err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error; err != nil {
		return RunDetail{}, err
	}
	var symbolRows []SymbolResultModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("symbol ASC").
		Find(&symbolRows).Error; err != nil {
		return RunDetail{}, err
	}
	var tradeRows []TradeModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("symbol ASC, entry_time ASC").
		Find(&tradeRows).Error; err != nil {
		return RunDetail{}, err
	}

	tradesBySymbol := make(map[string][]backtest.Trade, len(symbolRows))
	for _, t := range tradeRows {
		tradesBySymbol[t.Symbol] = append(tradesBySymbol[t.Symbol], backtest.Trade{
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			Side:       backtest.Side(t.Side),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Size:       t.Size,
			PnL:        t.PnL,
			Fees:       t.Fees,
			ReturnPct:  t.ReturnPct,
			ExitReason: backtest.ExitReason(t.ExitReason),
		})
	}

	detail := RunDetail{RunRecord: runRecordFromModel(run, true)}
	for _, row := range symbolRows {
		var curve []float64
		if row.CurveJSON != "" {
			_ = json.Unmarshal([]byte(row.CurveJSON), &curve)
		}
		detail.Results = append(detail.Results, backtest.SymbolResult{
			Symbol:        row.Symbol,
			Status:        backtest.SymbolStatus(row.Status),
			Error:         row.Error,
			Trades:        tradesBySymbol[row.Symbol],
			TotalReturn:   row.TotalReturn,
			FinalCapital:  row.FinalCapital,
			TotalTrades:   row.TotalTrades,
			WinRate:       row.WinRate,
			TotalFees:     row.TotalFees,
			SignalCount:   row.SignalCount,
			CandleCount:   row.CandleCount,
			CapitalCurve:  curve,
			WinningTrades: countWins(tradesBySymbol[row.Symbol]),
			LosingTrades:  row.TotalTrades - countWins(tradesBySymbol[row.Symbol]),
		})
	}
	return detail, nil
}

func runRecordFromModel(m RunModel, withMetrics bool) RunRecord {
	rec := RunRecord{
		ID:          m.ID,
		Strategy:    m.Strategy,
		Timeframe:   m.Timeframe,
		StartTS:     m.StartTS,
		EndTS:       m.EndTS,
		Symbols:     m.Symbols,
		Succeeded:   m.Succeeded,
		Skipped:     m.Skipped,
		Failed:      m.Failed,
		SuccessRate: m.SuccessRate,
		MeanReturn:  m.MeanReturn,
		BestSymbol:  m.BestSymbol,
		WorstSymbol: m.WorstSymbol,
		ElapsedMs:   m.ElapsedMs,
		CreatedAt:   m.CreatedAt,
	}
	if withMetrics && m.MetricsJSON != "" {
		_ = json.Unmarshal([]byte(m.MetricsJSON), &rec.Metrics)
	}
	return rec
}

func countWins(trades []backtest.Trade) int {
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return wins
}
