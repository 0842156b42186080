package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// VolumeEntry 是 24 小时成交额榜的一项。
type VolumeEntry struct {
	Symbol      string  `json:"symbol"`
	QuoteVolume float64 `json:"quote_volume"`
	LastPrice   float64 `json:"last_price"`
	PriceChange float64 `json:"price_change_pct"`
}

// TopByQuoteVolume 按 24h 成交额取前 n 个以 quote 结尾的合约对。
// 响应体量大且字段基本都用不上，用 gjson 只挑需要的键。
func (s *Source) TopByQuoteVolume(ctx context.Context, quote string, n int) ([]VolumeEntry, error) {
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if quote == "" {
		quote = "USDT"
	}
	if n <= 0 {
		n = 10
	}
	if !s.breaker.Allow() {
		return nil, fmt.Errorf("binance rest 熔断中")
	}

	endpoint := s.cfg.RESTBaseURL + "/fapi/v1/ticker/24hr"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.breaker.RecordFailure()
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.breaker.RecordFailure()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		s.breaker.RecordFailure()
		return nil, fmt.Errorf("ticker/24hr 返回 %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	s.breaker.RecordSuccess()

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("ticker/24hr 响应不是数组")
	}
	var entries []VolumeEntry
	parsed.ForEach(func(_, item gjson.Result) bool {
		sym := item.Get("symbol").String()
		if !strings.HasSuffix(sym, quote) {
			return true
		}
		entries = append(entries, VolumeEntry{
			Symbol:      sym,
			QuoteVolume: item.Get("quoteVolume").Float(),
			LastPrice:   item.Get("lastPrice").Float(),
			PriceChange: item.Get("priceChangePercent").Float(),
		})
		return true
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].QuoteVolume != entries[j].QuoteVolume {
			return entries[i].QuoteVolume > entries[j].QuoteVolume
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
