package config

import (
	"fmt"
	"strings"

	"quoin/internal/backtest"
	"quoin/internal/strategy"
)

// validate 对配置进行基础校验，汇总所有问题后一次性报错。
func validate(c *Config) error {
	var problems []string
	problems = append(problems, c.Symbols.problems()...)
	problems = append(problems, c.Backtest.problems()...)
	problems = append(problems, c.Sim.problems()...)
	problems = append(problems, c.Notify.problems()...)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("配置校验失败:\n  - %s", strings.Join(problems, "\n  - "))
}

func (s SymbolsConfig) problems() []string {
	var out []string
	switch s.Mode {
	case "static":
		if len(s.Static) == 0 {
			out = append(out, "symbols.mode=static 需要非空 symbols.static 列表")
		}
	case "ranked":
		if s.TopN <= 0 {
			out = append(out, "symbols.top_n 必须大于 0")
		}
	case "http":
		if strings.TrimSpace(s.URL) == "" {
			out = append(out, "symbols.mode=http 需要 symbols.url")
		}
	default:
		out = append(out, fmt.Sprintf("symbols.mode 不支持: %q（可选 static/ranked/http）", s.Mode))
	}
	return out
}

func (b BacktestConfig) problems() []string {
	var out []string
	name := strings.TrimSpace(b.Strategy)
	if name == "" {
		out = append(out, fmt.Sprintf("backtest.strategy 必填（可选 %s）", strings.Join(strategy.Names(), "/")))
	} else {
		for _, p := range strategy.Validate(name, b.Params.ToParams()) {
			out = append(out, "backtest.params: "+p)
		}
	}
	if _, err := backtest.ParseTimeframe(b.Timeframe); err != nil {
		out = append(out, fmt.Sprintf("backtest.timeframe 不支持: %q", b.Timeframe))
	}
	if b.StartTS > 0 && b.EndTS > 0 && b.EndTS <= b.StartTS {
		out = append(out, "backtest.end_ts 必须大于 backtest.start_ts")
	}
	if b.StartTS <= 0 && b.LookbackDays <= 0 {
		out = append(out, "backtest 需要 start_ts/end_ts 或 lookback_days")
	}
	return out
}

func (s SimConfig) problems() []string {
	var out []string
	if s.InitialCapital < 0 {
		out = append(out, "sim.initial_capital 不能为负")
	}
	if s.PositionFraction < 0 || s.PositionFraction > 1 {
		out = append(out, "sim.position_fraction 必须在 [0,1] 区间")
	}
	if s.FeeRate < 0 || s.FeeRate >= 1 {
		out = append(out, "sim.fee_rate 必须在 [0,1) 区间")
	}
	if s.StopLossPct < 0 {
		out = append(out, "sim.stop_loss_pct 不能为负")
	}
	if s.TakeProfitPct < 0 {
		out = append(out, "sim.take_profit_pct 不能为负")
	}
	return out
}

func (n NotifyConfig) problems() []string {
	var out []string
	if n.Telegram.Enabled {
		if strings.TrimSpace(n.Telegram.BotToken) == "" {
			out = append(out, "notify.telegram.bot_token 启用后必填")
		}
		if strings.TrimSpace(n.Telegram.ChatID) == "" {
			out = append(out, "notify.telegram.chat_id 启用后必填")
		}
	}
	return out
}

// ToSimConfig 转换为模拟器配置。
func (s SimConfig) ToSimConfig() backtest.SimConfig {
	return backtest.SimConfig{
		InitialCapital:   s.InitialCapital,
		PositionFraction: s.PositionFraction,
		FeeRate:          s.FeeRate,
		StopLossPct:      s.StopLossPct,
		TakeProfitPct:    s.TakeProfitPct,
	}
}
