package coins

import (
	"context"
	"fmt"

	"quoin/internal/gateway/binance"
	"quoin/internal/logger"
)

// RankedProvider 按 24h 成交额从交易所取前 N 个交易对，
// 上游不可用时退回静态列表，保证批次仍能跑起来。
type RankedProvider struct {
	source   *binance.Source
	quote    string
	topN     int
	fallback []string
}

func NewRankedProvider(source *binance.Source, quote string, topN int, fallback []string) (*RankedProvider, error) {
	if source == nil {
		return nil, fmt.Errorf("binance source 不能为空")
	}
	if topN <= 0 {
		topN = 10
	}
	return &RankedProvider{source: source, quote: quote, topN: topN, fallback: fallback}, nil
}

func (p *RankedProvider) Name() string { return "ranked" }

func (p *RankedProvider) List(ctx context.Context) ([]string, error) {
	entries, err := p.source.TopByQuoteVolume(ctx, p.quote, p.topN)
	if err != nil || len(entries) == 0 {
		if len(p.fallback) > 0 {
			logger.Warnf("[coins] 成交额榜拉取失败(%v)，使用静态列表（%d 个）", err, len(p.fallback))
			return NormalizeSymbols(p.fallback)
		}
		if err == nil {
			err = fmt.Errorf("成交额榜为空")
		}
		return nil, err
	}
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return NormalizeSymbols(symbols)
}
