package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quoin/internal/backtest"
	"quoin/internal/metrics"
)

func sampleDocument() Document {
	batch := backtest.BatchResult{
		Strategy:  "macd",
		Timeframe: "1h",
		StartTS:   1700000000000,
		EndTS:     1700600000000,
		Succeeded: 2,
		Skipped:   1,
		Results: []backtest.SymbolResult{
			{
				Symbol:       "BTCUSDT",
				Status:       backtest.StatusOK,
				TotalReturn:  12.5,
				CapitalCurve: []float64{10000, 10500, 11250},
			},
			{
				Symbol:       "ETHUSDT",
				Status:       backtest.StatusOK,
				TotalReturn:  -4.2,
				CapitalCurve: []float64{10000, 9580},
			},
			{Symbol: "DOGEUSDT", Status: backtest.StatusSkipped, Error: "insufficient candles"},
		},
	}
	overall := metrics.Overall{
		Symbols:           2,
		ProfitableSymbols: 1,
		SuccessRate:       50,
		MeanReturn:        4.15,
		BestPerformer:     metrics.Performer{Symbol: "BTCUSDT", Return: 12.5},
		WorstPerformer:    metrics.Performer{Symbol: "ETHUSDT", Return: -4.2},
		TopPerformers: []metrics.Performer{
			{Symbol: "BTCUSDT", Return: 12.5, Trades: 3, WinRate: 66.7, FinalCap: 11250},
			{Symbol: "ETHUSDT", Return: -4.2, Trades: 2, WinRate: 50, FinalCap: 9580},
		},
		Distribution: []metrics.Bucket{
			{From: math.Inf(-1), To: -10, Count: 0},
			{From: -10, To: 0, Count: 1},
			{From: 0, To: 10, Count: 0},
			{From: 10, To: math.Inf(1), Count: 1},
		},
	}
	return NewDocument("run-1", batch, overall)
}

func TestSummaryMentionsKeyFigures(t *testing.T) {
	text := Summary(sampleDocument())
	require.Contains(t, text, "macd")
	require.Contains(t, text, "BTCUSDT")
	require.Contains(t, text, "50.0%")
	require.Contains(t, text, "2 ok / 1 skipped / 0 failed")
}

func TestSummaryEmptyOverall(t *testing.T) {
	doc := sampleDocument()
	doc.Overall = metrics.Overall{}
	text := Summary(doc)
	require.Contains(t, text, "没有可统计的结果")
}

func TestWriteJSONRoundTrip(t *testing.T) {
	doc := sampleDocument()
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, WriteJSON(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Document
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, doc.RunID, got.RunID)
	require.Equal(t, doc.Strategy, got.Strategy)
	require.Len(t, got.Results, 3)
}

func TestWriteCSVRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.csv")
	require.NoError(t, WriteCSV(path, sampleDocument().Overall))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "rank,symbol,return_pct,trades,win_rate_pct,drawdown_pct,final_capital,total_fees", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "1,BTCUSDT,12.5000"))
	require.True(t, strings.HasPrefix(lines[2], "2,ETHUSDT,-4.2000"))
}

func TestWriteHTMLRendersCharts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTML(path, sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	require.Contains(t, html, "echarts")
	require.Contains(t, html, "BTCUSDT")
	require.Contains(t, html, "ETHUSDT")
}

func TestBucketLabel(t *testing.T) {
	require.Equal(t, "< -10%", bucketLabel(metrics.Bucket{From: math.Inf(-1), To: -10}))
	require.Equal(t, ">= 10%", bucketLabel(metrics.Bucket{From: 10, To: math.Inf(1)}))
	require.Equal(t, "0% ~ 10%", bucketLabel(metrics.Bucket{From: 0, To: 10}))
}
