// Package export 把回测结果输出为 CSV / JSON / 文本摘要 / HTML 报告。
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"quoin/internal/backtest"
	"quoin/internal/metrics"
)

// Document 是 JSON 导出的顶层结构，也是 HTTP 明细接口的响应体。
type Document struct {
	GeneratedAt string                  `json:"generated_at"`
	RunID       string                  `json:"run_id,omitempty"`
	Strategy    string                  `json:"strategy"`
	Timeframe   string                  `json:"timeframe"`
	StartTS     int64                   `json:"start_ts"`
	EndTS       int64                   `json:"end_ts"`
	Succeeded   int                     `json:"succeeded"`
	Skipped     int                     `json:"skipped"`
	Failed      int                     `json:"failed"`
	Overall     metrics.Overall         `json:"overall"`
	Results     []backtest.SymbolResult `json:"results"`
}

// NewDocument 组装导出文档。
func NewDocument(runID string, batch backtest.BatchResult, overall metrics.Overall) Document {
	return Document{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		RunID:       runID,
		Strategy:    batch.Strategy,
		Timeframe:   batch.Timeframe,
		StartTS:     batch.StartTS,
		EndTS:       batch.EndTS,
		Succeeded:   batch.Succeeded,
		Skipped:     batch.Skipped,
		Failed:      batch.Failed,
		Overall:     overall,
		Results:     batch.Results,
	}
}

// WriteJSON 将完整文档写入文件。
func WriteJSON(path string, doc Document) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteCSV 输出排行表：每个完成的符号一行，按收益降序。
func WriteCSV(path string, overall metrics.Overall) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"rank", "symbol", "return_pct", "trades", "win_rate_pct", "drawdown_pct", "final_capital", "total_fees"}); err != nil {
		return err
	}
	for i, p := range overall.TopPerformers {
		row := []string{
			strconv.Itoa(i + 1),
			p.Symbol,
			formatFloat(p.Return),
			strconv.Itoa(p.Trades),
			formatFloat(p.WinRate),
			formatFloat(p.Drawdown),
			formatFloat(p.FinalCap),
			formatFloat(p.TotalFees),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// Summary 生成终端/通知两用的文本摘要。
func Summary(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "策略 %s @ %s\n", doc.Strategy, doc.Timeframe)
	fmt.Fprintf(&b, "区间 %s ~ %s\n",
		time.UnixMilli(doc.StartTS).UTC().Format("2006-01-02 15:04"),
		time.UnixMilli(doc.EndTS).UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "符号 %d ok / %d skipped / %d failed\n", doc.Succeeded, doc.Skipped, doc.Failed)
	o := doc.Overall
	if o.Symbols == 0 {
		b.WriteString("没有可统计的结果\n")
		return b.String()
	}
	fmt.Fprintf(&b, "盈利比例 %.1f%%（%d/%d）\n", o.SuccessRate, o.ProfitableSymbols, o.Symbols)
	fmt.Fprintf(&b, "收益 mean=%.2f%% median=%.2f%% stddev=%.2f%%\n", o.MeanReturn, o.MedianReturn, o.StdDevReturn)
	fmt.Fprintf(&b, "成交 %d 笔，胜率 %.1f%%，手续费 %.2f\n", o.TotalTrades, o.OverallWinRate, o.TotalFees)
	fmt.Fprintf(&b, "平均回撤 %.2f%%，平均盈亏比 %.2f\n", o.AvgDrawdown, o.AvgProfitFactor)
	fmt.Fprintf(&b, "最佳 %s (%.2f%%)，最差 %s (%.2f%%)\n",
		o.BestPerformer.Symbol, o.BestPerformer.Return,
		o.WorstPerformer.Symbol, o.WorstPerformer.Return)
	fmt.Fprintf(&b, "信号数与收益相关系数 %.3f\n", o.SignalReturnCorr)
	return b.String()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
