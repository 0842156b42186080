package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"quoin/internal/backtest"
	"quoin/internal/coins"
	"quoin/internal/market"
	"quoin/internal/store"
	"quoin/internal/strategy"
)

type flatProvider struct{}

// 价格先跌后涨，保证均线交叉策略能产生信号。
func (flatProvider) Candles(_ context.Context, _ string, _ string, _, _ int64) (market.Candles, error) {
	out := make(market.Candles, 120)
	for i := range out {
		price := 100.0
		if i < 60 {
			price -= float64(i) * 0.2
		} else {
			price = 88 + float64(i-60)*0.3
		}
		out[i] = market.Candle{
			OpenTime:  int64(i) * 3_600_000,
			CloseTime: int64(i)*3_600_000 + 3_599_999,
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    10,
		}
	}
	return out, nil
}

func newTestRunner(t *testing.T) (*Runner, *store.ResultStore, string) {
	t.Helper()
	dir := t.TempDir()
	results, err := store.NewResultStore(filepath.Join(dir, "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { results.Close() })

	runner, err := NewRunner(RunnerConfig{
		Provider:  flatProvider{},
		Results:   results,
		Symbols:   coins.NewDefaultProvider([]string{"BTCUSDT", "ETHUSDT"}),
		ReportDir: filepath.Join(dir, "reports"),
	})
	require.NoError(t, err)
	return runner, results, dir
}

func testRequest() backtest.RunRequest {
	return backtest.RunRequest{
		Strategy:  strategy.NameMACrossover,
		Params:    strategy.Params{FastPeriod: 5, SlowPeriod: 20},
		Timeframe: "1h",
		StartTS:   3_600_000,
		EndTS:     119 * 3_600_000,
		Sim:       backtest.SimConfig{InitialCapital: 10000, PositionFraction: 0.5, FeeRate: 0.0004},
	}
}

func TestRunOncePersistsAndExports(t *testing.T) {
	runner, results, dir := newTestRunner(t)

	doc, err := runner.RunOnce(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, doc.RunID)
	require.Equal(t, 2, doc.Succeeded)
	require.Len(t, doc.Results, 2)

	runs, err := results.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, doc.RunID, runs[0].ID)

	reportDir := filepath.Join(dir, "reports", doc.RunID)
	for _, name := range []string{"result.json", "ranking.csv", "report.html"} {
		_, err := os.Stat(filepath.Join(reportDir, name))
		require.NoError(t, err, name)
	}
}

func TestRunOnceUsesRequestSymbols(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	req := testRequest()
	req.Symbols = []string{"SOLUSDT"}

	doc, err := runner.RunOnce(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, doc.Results, 1)
	require.Equal(t, "SOLUSDT", doc.Results[0].Symbol)
}

func TestStartRunRejectsBadStrategy(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	req := testRequest()
	req.Strategy = "unknown"
	_, err := runner.StartRun(req)
	require.Error(t, err)
}

func TestStartRunRejectsBadTimeframe(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	req := testRequest()
	req.Timeframe = "13m"
	_, err := runner.StartRun(req)
	require.Error(t, err)
}
