package config

import (
	"strings"

	"quoin/internal/strategy"
)

// Config 是 Quoin 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Data     DataConfig     `toml:"data"`
	Market   MarketConfig   `toml:"market"`
	Fetch    FetchConfig    `toml:"fetch"`
	Symbols  SymbolsConfig  `toml:"symbols"`
	Backtest BacktestConfig `toml:"backtest"`
	Sim      SimConfig      `toml:"sim"`
	Notify   NotifyConfig   `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// DataConfig 描述本地数据的落盘位置。
type DataConfig struct {
	CandleDir string `toml:"candle_dir"`
	ResultsDB string `toml:"results_db"`
	ReportDir string `toml:"report_dir"`
}

// FetchConfig 控制历史 K 线拉取的限速与并发。
type FetchConfig struct {
	RateLimitPerMin int `toml:"rate_limit_per_min"`
	MaxBatch        int `toml:"max_batch"`
	MaxConcurrent   int `toml:"max_concurrent"`
}

// SymbolsConfig 决定批量回测的符号来源。
type SymbolsConfig struct {
	Mode   string   `toml:"mode"` // "static" | "ranked" | "http"
	Static []string `toml:"static"`
	Quote  string   `toml:"quote"`
	TopN   int      `toml:"top_n"`
	URL    string   `toml:"url"`
}

// BacktestConfig 是默认批量回测的运行参数。
type BacktestConfig struct {
	Strategy      string         `toml:"strategy"`
	Timeframe     string         `toml:"timeframe"`
	StartTS       int64          `toml:"start_ts"`
	EndTS         int64          `toml:"end_ts"`
	LookbackDays  int            `toml:"lookback_days"`
	MaxConcurrent int            `toml:"max_concurrent"`
	Params        StrategyParams `toml:"params"`
}

// StrategyParams 映射 strategy.Params，零值字段走策略默认值。
type StrategyParams struct {
	FastPeriod int `toml:"fast_period"`
	SlowPeriod int `toml:"slow_period"`

	MACDFast   int `toml:"macd_fast"`
	MACDSlow   int `toml:"macd_slow"`
	MACDSignal int `toml:"macd_signal"`

	RSIPeriod     int     `toml:"rsi_period"`
	RSIOversold   float64 `toml:"rsi_oversold"`
	RSIOverbought float64 `toml:"rsi_overbought"`

	KPeriod         int     `toml:"k_period"`
	DPeriod         int     `toml:"d_period"`
	StochOversold   float64 `toml:"stoch_oversold"`
	StochOverbought float64 `toml:"stoch_overbought"`

	SMIPeriod       int     `toml:"smi_period"`
	SMISignalPeriod int     `toml:"smi_signal_period"`
	SMIOversold     float64 `toml:"smi_oversold"`
	SMIOverbought   float64 `toml:"smi_overbought"`
}

// ToParams 转换为策略层参数。
func (p StrategyParams) ToParams() strategy.Params {
	return strategy.Params{
		FastPeriod:      p.FastPeriod,
		SlowPeriod:      p.SlowPeriod,
		MACDFast:        p.MACDFast,
		MACDSlow:        p.MACDSlow,
		MACDSignal:      p.MACDSignal,
		RSIPeriod:       p.RSIPeriod,
		RSIOversold:     p.RSIOversold,
		RSIOverbought:   p.RSIOverbought,
		KPeriod:         p.KPeriod,
		DPeriod:         p.DPeriod,
		StochOversold:   p.StochOversold,
		StochOverbought: p.StochOverbought,
		SMIPeriod:       p.SMIPeriod,
		SMISignalPeriod: p.SMISignalPeriod,
		SMIOversold:     p.SMIOversold,
		SMIOverbought:   p.SMIOverbought,
	}
}

// SimConfig 是模拟器参数，零值由模拟器自身兜底。
type SimConfig struct {
	InitialCapital   float64 `toml:"initial_capital"`
	PositionFraction float64 `toml:"position_fraction"`
	FeeRate          float64 `toml:"fee_rate"`
	StopLossPct      float64 `toml:"stop_loss_pct"`
	TakeProfitPct    float64 `toml:"take_profit_pct"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type MarketConfig struct {
	ActiveSource string         `toml:"active_source"`
	Sources      []MarketSource `toml:"sources"`
}

type MarketSource struct {
	Name        string      `toml:"name"`
	Enabled     bool        `toml:"enabled"`
	RESTBaseURL string      `toml:"rest_base_url"`
	Proxy       ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	RESTURL string `toml:"rest_url"`
	WSURL   string `toml:"ws_url"`
}

func (m MarketConfig) ResolveActiveSource() MarketSource {
	if len(m.Sources) == 0 {
		return MarketSource{
			Name:        "binance",
			Enabled:     true,
			RESTBaseURL: "https://fapi.binance.com",
		}
	}
	active := strings.ToLower(strings.TrimSpace(m.ActiveSource))
	var fallback MarketSource
	for _, src := range m.Sources {
		if fallback.Name == "" {
			fallback = src
		}
		if !src.Enabled {
			continue
		}
		if active == "" || strings.ToLower(src.Name) == active {
			return src
		}
	}
	return fallback
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
