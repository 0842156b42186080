package strategy

import (
	"fmt"
	"strings"

	"quoin/internal/market"
)

// Direction 表示信号方向。
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionNone Direction = "none"
)

// Signal 表示某根 K 线上产生的交易意图。
// 输出为稠密序列：预热期之后每根 K 线恰好一个信号，无触发时方向为 none，
// 保证下游可按位置对齐回查 K 线。
type Signal struct {
	Timestamp int64     `json:"timestamp"`
	Price     float64   `json:"price"`
	Direction Direction `json:"direction"`
	Kind      string    `json:"kind,omitempty"`
}

// Directional 返回该信号是否携带方向。
func (s Signal) Directional() bool {
	return s.Direction == DirectionBuy || s.Direction == DirectionSell
}

// Strategy 根据 K 线序列生成信号序列。实现必须无内部可变状态，
// 同一输入重复调用产生完全相同的输出。
type Strategy interface {
	Name() string
	// MinCandles 返回可靠运行所需的最小 K 线数量（含预热与余量）。
	MinCandles() int
	// Signals 返回严格按时间升序、无重复时间戳的信号序列。
	Signals(candles market.Candles) ([]Signal, error)
}

const (
	NameMACrossover = "ma_crossover"
	NameMACD        = "macd"
	NameRSI         = "rsi"
	NameStochastic  = "stochastic"
	NameSMI         = "smi"
)

// minCandleMargin 为预热之外的安全余量。
const minCandleMargin = 10

// Params 汇总各策略的可配置参数；未用到的字段被对应策略忽略。
type Params struct {
	FastPeriod int `json:"fast_period"`
	SlowPeriod int `json:"slow_period"`

	MACDFast   int `json:"macd_fast"`
	MACDSlow   int `json:"macd_slow"`
	MACDSignal int `json:"macd_signal"`

	RSIPeriod     int     `json:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`

	KPeriod         int     `json:"k_period"`
	DPeriod         int     `json:"d_period"`
	StochOversold   float64 `json:"stoch_oversold"`
	StochOverbought float64 `json:"stoch_overbought"`

	SMIPeriod       int     `json:"smi_period"`
	SMISignalPeriod int     `json:"smi_signal_period"`
	SMIOversold     float64 `json:"smi_oversold"`
	SMIOverbought   float64 `json:"smi_overbought"`
}

// Names 返回所有已注册策略名（固定顺序）。
func Names() []string {
	return []string{NameMACrossover, NameMACD, NameRSI, NameStochastic, NameSMI}
}

// New 按名字构建策略。名字在配置阶段解析一次，之后只通过接口使用。
func New(name string, p Params) (Strategy, error) {
	p = p.withDefaults()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameMACrossover:
		return &MACrossover{Fast: p.FastPeriod, Slow: p.SlowPeriod}, nil
	case NameMACD:
		return &MACD{Fast: p.MACDFast, Slow: p.MACDSlow, Signal: p.MACDSignal}, nil
	case NameRSI:
		return &RSIReversal{Period: p.RSIPeriod, Oversold: p.RSIOversold, Overbought: p.RSIOverbought}, nil
	case NameStochastic:
		return &StochasticCross{KPeriod: p.KPeriod, DPeriod: p.DPeriod, Oversold: p.StochOversold, Overbought: p.StochOverbought}, nil
	case NameSMI:
		return &SMIMomentum{Period: p.SMIPeriod, SignalPeriod: p.SMISignalPeriod, Oversold: p.SMIOversold, Overbought: p.SMIOverbought}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
}

func (p Params) withDefaults() Params {
	if p.FastPeriod <= 0 {
		p.FastPeriod = 10
	}
	if p.SlowPeriod <= 0 {
		p.SlowPeriod = 30
	}
	if p.MACDFast <= 0 {
		p.MACDFast = 12
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = 26
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = 9
	}
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = 14
	}
	if p.RSIOversold == 0 {
		p.RSIOversold = 30
	}
	if p.RSIOverbought == 0 {
		p.RSIOverbought = 70
	}
	if p.KPeriod <= 0 {
		p.KPeriod = 14
	}
	if p.DPeriod <= 0 {
		p.DPeriod = 3
	}
	if p.StochOversold == 0 {
		p.StochOversold = 20
	}
	if p.StochOverbought == 0 {
		p.StochOverbought = 80
	}
	if p.SMIPeriod <= 0 {
		p.SMIPeriod = 14
	}
	if p.SMISignalPeriod <= 0 {
		p.SMISignalPeriod = 3
	}
	if p.SMIOversold == 0 {
		p.SMIOversold = -40
	}
	if p.SMIOverbought == 0 {
		p.SMIOverbought = 40
	}
	return p
}

// Validate 返回人类可读的配置错误列表；列表为空表示合法。
// 在任何数据拉取或模拟开始之前调用，发现问题立即终止。
func Validate(name string, p Params) []string {
	var errs []string
	p = p.withDefaults()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameMACrossover:
		if p.FastPeriod < 1 {
			errs = append(errs, "fast period must be >= 1")
		}
		if p.SlowPeriod < 1 {
			errs = append(errs, "slow period must be >= 1")
		}
		if p.FastPeriod >= p.SlowPeriod {
			errs = append(errs, fmt.Sprintf("fast period (%d) must be smaller than slow period (%d)", p.FastPeriod, p.SlowPeriod))
		}
	case NameMACD:
		if p.MACDFast >= p.MACDSlow {
			errs = append(errs, fmt.Sprintf("macd fast period (%d) must be smaller than slow period (%d)", p.MACDFast, p.MACDSlow))
		}
		if p.MACDSignal < 1 {
			errs = append(errs, "macd signal period must be >= 1")
		}
	case NameRSI:
		if p.RSIPeriod < 2 {
			errs = append(errs, "rsi period must be >= 2")
		}
		if p.RSIOversold < 0 || p.RSIOversold > 100 {
			errs = append(errs, "rsi oversold level must be in [0,100]")
		}
		if p.RSIOverbought < 0 || p.RSIOverbought > 100 {
			errs = append(errs, "rsi overbought level must be in [0,100]")
		}
		if p.RSIOversold >= p.RSIOverbought {
			errs = append(errs, fmt.Sprintf("rsi oversold level (%.1f) must be below overbought level (%.1f)", p.RSIOversold, p.RSIOverbought))
		}
	case NameStochastic:
		if p.KPeriod < 1 || p.DPeriod < 1 {
			errs = append(errs, "stochastic periods must be >= 1")
		}
		if p.StochOversold >= p.StochOverbought {
			errs = append(errs, fmt.Sprintf("stochastic oversold level (%.1f) must be below overbought level (%.1f)", p.StochOversold, p.StochOverbought))
		}
	case NameSMI:
		if p.SMIPeriod < 2 {
			errs = append(errs, "smi period must be >= 2")
		}
		if p.SMISignalPeriod < 1 {
			errs = append(errs, "smi signal period must be >= 1")
		}
		if p.SMIOversold >= p.SMIOverbought {
			errs = append(errs, fmt.Sprintf("smi oversold level (%.1f) must be below overbought level (%.1f)", p.SMIOversold, p.SMIOverbought))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", ")))
	}
	return errs
}
