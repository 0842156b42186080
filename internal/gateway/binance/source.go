package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"quoin/internal/backtest"
	"quoin/internal/market"
	"quoin/internal/pkg/circuit"
	symbolpkg "quoin/internal/pkg/symbol"
)

const maxHistoryLimit = 1500

// Source 基于 go-binance SDK 实现 backtest.CandleSource。
// REST 请求经过熔断器，上游持续报错时快速失败而不是拖垮批次。
type Source struct {
	cfg        Config
	client     *futures.Client
	httpClient *http.Client
	breaker    *circuit.CircuitBreaker
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{
		cfg:        final,
		client:     client,
		httpClient: httpClient,
		breaker:    circuit.NewCircuitBreaker("binance-rest", final.BreakerThreshold, final.BreakerTimeout),
	}, nil
}

func (s *Source) Name() string { return "binance" }

// Fetch 拉取 [Start,End] 区间的 K 线，最多 Limit 条。
func (s *Source) Fetch(ctx context.Context, req backtest.FetchRequest) ([]market.Candle, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval := strings.ToLower(strings.TrimSpace(req.Interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 500
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if !s.breaker.Allow() {
		return nil, fmt.Errorf("binance rest 熔断中")
	}

	// Binance 要求无斜杠符号（如 ETHUSDT）
	cleanSymbol := symbolpkg.Binance.ToExchange(symbol)
	svc := s.client.NewKlinesService().Symbol(cleanSymbol).Interval(interval).Limit(limit)
	if req.Start > 0 {
		svc = svc.StartTime(req.Start)
	}
	if req.End > 0 {
		svc = svc.EndTime(req.End)
	}
	kls, err := svc.Do(ctx)
	if err != nil {
		s.breaker.RecordFailure()
		return nil, err
	}
	s.breaker.RecordSuccess()

	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
