package backtest

import (
	"context"
	"fmt"
	"time"

	"quoin/internal/logger"
	"quoin/internal/market"
)

// CachedProvider 先检查本地缓存的完整性，有缺口时经 Service 补拉，
// 然后从 sqlite 读出区间数据。实现 CandleProvider。
type CachedProvider struct {
	store   *Store
	fetcher *Service

	// PollInterval 控制等待后台拉取任务时的轮询间隔。
	PollInterval time.Duration
}

func NewCachedProvider(store *Store, fetcher *Service) (*CachedProvider, error) {
	if store == nil {
		return nil, fmt.Errorf("store 不能为空")
	}
	return &CachedProvider{store: store, fetcher: fetcher, PollInterval: time.Second}, nil
}

func (p *CachedProvider) Candles(ctx context.Context, symbol, timeframe string, start, end int64) (market.Candles, error) {
	tf, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	start, end = tf.AlignRange(start, end)
	if err := p.ensure(ctx, symbol, tf, start, end); err != nil {
		return nil, err
	}
	raw, err := p.store.RangeCandles(ctx, symbol, tf.Key, start, end)
	if err != nil {
		return nil, err
	}
	candles := market.Candles(raw).Normalize()
	return candles, nil
}

func (p *CachedProvider) ensure(ctx context.Context, symbol string, tf Timeframe, start, end int64) error {
	report, err := p.store.CheckIntegrity(ctx, symbol, tf.Key, tf, start, end)
	if err != nil {
		return err
	}
	if report.Complete() {
		return nil
	}
	if p.fetcher == nil {
		// 离线模式：有什么用什么，缺口由引擎的数据量下限兜底。
		logger.Warnf("[backtest] %s %s 本地数据存在 %d 个缺口且未配置拉取服务", symbol, tf.Key, len(report.Gaps))
		return nil
	}
	job, err := p.fetcher.SubmitFetch(FetchParams{
		Symbol:    symbol,
		Timeframe: tf.Key,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return err
	}
	return p.waitJob(ctx, symbol, tf, job)
}

func (p *CachedProvider) waitJob(ctx context.Context, symbol string, tf Timeframe, job FetchJob) error {
	if job.Status == JobStatusDone {
		return nil
	}
	interval := p.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, ok := p.fetcher.JobSnapshot(job.ID)
			if !ok {
				continue
			}
			switch snap.Status {
			case JobStatusDone:
				return nil
			case JobStatusFailed:
				if snap.Message != "" {
					return fmt.Errorf("下载 %s %s 失败: %s", symbol, tf.Key, snap.Message)
				}
				return fmt.Errorf("下载 %s %s 失败", symbol, tf.Key)
			case JobStatusPartial:
				// 部分完成不致命，读出的数据仍可能满足策略下限。
				logger.Warnf("[backtest] %s %s 拉取后仍有 %d 个缺口", symbol, tf.Key, len(snap.Missing))
				return nil
			}
		}
	}
}
