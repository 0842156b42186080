package config

import "strings"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9991"
	defaultAppLogPath      = "/data/logs/quoin.log"
	defaultCandleDir       = "/data/candles"
	defaultResultsDB       = "/data/db/results.db"
	defaultReportDir       = "/data/reports"
	defaultMarketName      = "binance"
	defaultMarketREST      = "https://fapi.binance.com"
	defaultFetchRate       = 480
	defaultFetchBatch      = 1000
	defaultFetchConcurrent = 2
	defaultSymbolsMode     = "static"
	defaultSymbolsQuote    = "USDT"
	defaultSymbolsTopN     = 30
	defaultTimeframe       = "1h"
	defaultLookbackDays    = 30
	defaultRunConcurrent   = 4
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Data.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Fetch.applyDefaults(keys)
	c.Symbols.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DataConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("data.candle_dir", &d.CandleDir, defaultCandleDir),
		stringFieldDefault("data.results_db", &d.ResultsDB, defaultResultsDB),
		stringFieldDefault("data.report_dir", &d.ReportDir, defaultReportDir),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	if len(m.Sources) == 0 {
		m.Sources = []MarketSource{{
			Name:        defaultMarketName,
			Enabled:     true,
			RESTBaseURL: defaultMarketREST,
		}}
	}
	for i := range m.Sources {
		src := &m.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		if src.RESTBaseURL == "" && strings.EqualFold(src.Name, defaultMarketName) {
			src.RESTBaseURL = defaultMarketREST
		}
	}
	if strings.TrimSpace(m.ActiveSource) == "" {
		m.ActiveSource = m.Sources[0].Name
	}
}

func (f *FetchConfig) applyDefaults(keys keySet) {
	if f == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "fetch.rate_limit_per_min",
			need:  func() bool { return f.RateLimitPerMin <= 0 },
			apply: func() { f.RateLimitPerMin = defaultFetchRate },
		},
		fieldDefault{
			key:   "fetch.max_batch",
			need:  func() bool { return f.MaxBatch <= 0 },
			apply: func() { f.MaxBatch = defaultFetchBatch },
		},
		fieldDefault{
			key:   "fetch.max_concurrent",
			need:  func() bool { return f.MaxConcurrent <= 0 },
			apply: func() { f.MaxConcurrent = defaultFetchConcurrent },
		},
	)
}

func (s *SymbolsConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("symbols.mode", &s.Mode, defaultSymbolsMode),
		stringFieldDefault("symbols.quote", &s.Quote, defaultSymbolsQuote),
		fieldDefault{
			key:   "symbols.top_n",
			need:  func() bool { return s.TopN <= 0 },
			apply: func() { s.TopN = defaultSymbolsTopN },
		},
	)
	s.Mode = strings.ToLower(strings.TrimSpace(s.Mode))
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("backtest.timeframe", &b.Timeframe, defaultTimeframe),
		fieldDefault{
			key:   "backtest.lookback_days",
			need:  func() bool { return b.LookbackDays <= 0 && b.StartTS <= 0 },
			apply: func() { b.LookbackDays = defaultLookbackDays },
		},
		fieldDefault{
			key:   "backtest.max_concurrent",
			need:  func() bool { return b.MaxConcurrent <= 0 },
			apply: func() { b.MaxConcurrent = defaultRunConcurrent },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
