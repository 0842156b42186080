package app

import (
	"context"
	"fmt"
	"time"

	"quoin/internal/backtest"
	"quoin/internal/coins"
	"quoin/internal/config"
	"quoin/internal/export"
	"quoin/internal/gateway/binance"
	"quoin/internal/gateway/notifier"
	"quoin/internal/logger"
	"quoin/internal/store"
	backtesthttp "quoin/internal/transport/http/backtest"
)

// App 聚合回测系统的全部组件。
type App struct {
	cfg *config.Config

	candleStore *backtest.Store
	results     *store.ResultStore
	svc         *backtest.Service
	runner      *Runner
	server      *backtesthttp.Server
}

// NewApp 按配置组装应用。
func NewApp(cfg *config.Config) (*App, error) {
	candleStore, err := backtest.NewStore(cfg.Data.CandleDir)
	if err != nil {
		return nil, fmt.Errorf("初始化 K 线缓存失败: %w", err)
	}

	src := cfg.Market.ResolveActiveSource()
	source, err := binance.New(binance.Config{
		RESTBaseURL:  src.RESTBaseURL,
		ProxyEnabled: src.Proxy.Enabled,
		RESTProxyURL: src.Proxy.RESTURL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}

	svc, err := backtest.NewService(backtest.ServiceConfig{
		Store:           candleStore,
		Sources:         map[string]backtest.CandleSource{source.Name(): source},
		DefaultExchange: source.Name(),
		RateLimitPerMin: cfg.Fetch.RateLimitPerMin,
		MaxBatch:        cfg.Fetch.MaxBatch,
		MaxConcurrent:   cfg.Fetch.MaxConcurrent,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化拉取服务失败: %w", err)
	}

	provider, err := backtest.NewCachedProvider(candleStore, svc)
	if err != nil {
		return nil, err
	}

	results, err := store.NewResultStore(cfg.Data.ResultsDB)
	if err != nil {
		return nil, fmt.Errorf("初始化结果存储失败: %w", err)
	}

	symbols, err := buildSymbolProvider(cfg, source)
	if err != nil {
		return nil, err
	}

	var textNotifier notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		textNotifier = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	runner, err := NewRunner(RunnerConfig{
		Provider:  provider,
		Results:   results,
		Symbols:   symbols,
		Notifier:  textNotifier,
		ReportDir: cfg.Data.ReportDir,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:         cfg,
		candleStore: candleStore,
		results:     results,
		svc:         svc,
		runner:      runner,
	}
	if cfg.App.HTTPAddr != "" {
		server, err := backtesthttp.NewServer(backtesthttp.Config{
			Addr:    cfg.App.HTTPAddr,
			Svc:     svc,
			Runner:  runner,
			Results: results,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
		}
		a.server = server
	}
	return a, nil
}

func buildSymbolProvider(cfg *config.Config, source *binance.Source) (coins.SymbolProvider, error) {
	switch cfg.Symbols.Mode {
	case "static":
		return coins.NewDefaultProvider(cfg.Symbols.Static), nil
	case "ranked":
		return coins.NewRankedProvider(source, cfg.Symbols.Quote, cfg.Symbols.TopN, cfg.Symbols.Static)
	case "http":
		return coins.NewHTTPSymbolProvider(cfg.Symbols.URL), nil
	default:
		return nil, fmt.Errorf("symbols.mode 不支持: %q", cfg.Symbols.Mode)
	}
}

// Run 执行配置的默认回测；若启用了 HTTP 服务则常驻直至 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	a.svc.SetContext(ctx)
	a.runner.SetContext(ctx)

	if a.server != nil {
		go func() {
			if err := a.server.Start(ctx); err != nil {
				logger.Warnf("HTTP 服务停止: %v", err)
			}
		}()
		logger.Infof("HTTP 服务已启动: %s", a.cfg.App.HTTPAddr)
	}

	doc, err := a.runner.RunOnce(ctx, a.defaultRequest())
	if err != nil {
		return err
	}
	logger.InfoBlock(export.Summary(doc))

	if a.server != nil {
		<-ctx.Done()
	}
	return nil
}

// defaultRequest 由配置推导默认回测区间：缺省取对齐到当前时刻的回看窗口。
func (a *App) defaultRequest() backtest.RunRequest {
	bt := a.cfg.Backtest
	start, end := bt.StartTS, bt.EndTS
	if start <= 0 {
		end = time.Now().UnixMilli()
		start = end - int64(bt.LookbackDays)*24*int64(time.Hour/time.Millisecond)
	} else if end <= 0 {
		end = time.Now().UnixMilli()
	}
	return backtest.RunRequest{
		Strategy:      bt.Strategy,
		Params:        bt.Params.ToParams(),
		Timeframe:     bt.Timeframe,
		StartTS:       start,
		EndTS:         end,
		MaxConcurrent: bt.MaxConcurrent,
		Sim:           a.cfg.Sim.ToSimConfig(),
	}
}

// Close 释放持久化资源。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.results != nil {
		_ = a.results.Close()
	}
	if a.candleStore != nil {
		_ = a.candleStore.Close()
	}
}
