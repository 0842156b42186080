package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
app:
  log_level: debug
symbols:
  mode: static
  static: ["BTCUSDT", "ETHUSDT"]
backtest:
  strategy: macd
  timeframe: 4h
  lookback_days: 14
sim:
  initial_capital: 5000
  fee_rate: 0.0004
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", validConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.App.LogLevel)
	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":9991", cfg.App.HTTPAddr)
	require.Equal(t, "/data/candles", cfg.Data.CandleDir)
	require.Equal(t, defaultFetchRate, cfg.Fetch.RateLimitPerMin)
	require.Equal(t, "USDT", cfg.Symbols.Quote)
	require.Equal(t, defaultRunConcurrent, cfg.Backtest.MaxConcurrent)
	require.Equal(t, "4h", cfg.Backtest.Timeframe)
	require.Equal(t, 5000.0, cfg.Sim.InitialCapital)

	src := cfg.Market.ResolveActiveSource()
	require.Equal(t, "binance", src.Name)
	require.Equal(t, "https://fapi.binance.com", src.RESTBaseURL)
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	body := `
symbols:
  mode: static
  static: ["BTCUSDT"]
backtest:
  strategy: momentum_magic
  lookback_days: 7
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "backtest.params")
}

func TestLoadCollectsAllProblems(t *testing.T) {
	body := `
symbols:
  mode: http
backtest:
  strategy: macd
  timeframe: 9h
  lookback_days: 7
sim:
  position_fraction: 1.5
notify:
  telegram:
    enabled: true
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	_, err := Load(path)
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "symbols.url")
	require.Contains(t, msg, "backtest.timeframe")
	require.Contains(t, msg, "sim.position_fraction")
	require.Contains(t, msg, "notify.telegram.bot_token")
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
symbols:
  mode: static
  static: ["BTCUSDT"]
backtest:
  strategy: rsi
  lookback_days: 7
`)
	main := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
app:
  log_level: warn
`)
	cfg, err := Load(main)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.App.LogLevel)
	require.Equal(t, "rsi", cfg.Backtest.Strategy)
	require.Equal(t, []string{"BTCUSDT"}, cfg.Symbols.Static)
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	path := writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "include cycle")
}
