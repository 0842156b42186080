package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"quoin/internal/backtest"
	"quoin/internal/coins"
	"quoin/internal/export"
	"quoin/internal/gateway/notifier"
	"quoin/internal/logger"
	"quoin/internal/metrics"
	"quoin/internal/store"
	"quoin/internal/strategy"
)

// Runner 执行批量回测：取数、跑引擎、聚合指标、落库、导出、通知。
// HTTP 提交的请求异步执行，CLI 的默认请求同步执行。
type Runner struct {
	provider  backtest.CandleProvider
	results   *store.ResultStore
	symbols   coins.SymbolProvider
	notifier  notifier.TextNotifier
	reportDir string

	baseCtx context.Context
}

// RunnerConfig 描述 Runner 的依赖，results/symbols/notifier 均可为空。
type RunnerConfig struct {
	Provider  backtest.CandleProvider
	Results   *store.ResultStore
	Symbols   coins.SymbolProvider
	Notifier  notifier.TextNotifier
	ReportDir string
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("candle provider 不能为空")
	}
	return &Runner{
		provider:  cfg.Provider,
		results:   cfg.Results,
		symbols:   cfg.Symbols,
		notifier:  cfg.Notifier,
		reportDir: cfg.ReportDir,
		baseCtx:   context.Background(),
	}, nil
}

// SetContext 注入宿主 ctx，用于后台运行的取消。
func (r *Runner) SetContext(ctx context.Context) {
	if ctx != nil {
		r.baseCtx = ctx
	}
}

// StartRun 校验请求后在后台执行，立即返回回执。
func (r *Runner) StartRun(req backtest.RunRequest) (backtest.RunInfo, error) {
	if err := r.validate(req); err != nil {
		return backtest.RunInfo{}, err
	}
	runID := uuid.NewString()
	go func() {
		if _, err := r.execute(r.baseCtx, runID, req); err != nil {
			logger.Errorf("回测 %s 执行失败: %v", runID, err)
		}
	}()
	return backtest.RunInfo{RunID: runID, Status: "running", SubmittedAt: time.Now()}, nil
}

// RunOnce 同步执行一次批量回测，返回完整文档。
func (r *Runner) RunOnce(ctx context.Context, req backtest.RunRequest) (export.Document, error) {
	if err := r.validate(req); err != nil {
		return export.Document{}, err
	}
	return r.execute(ctx, uuid.NewString(), req)
}

func (r *Runner) validate(req backtest.RunRequest) error {
	if problems := strategy.Validate(req.Strategy, req.Params); len(problems) > 0 {
		return fmt.Errorf("策略参数非法: %s", strings.Join(problems, "; "))
	}
	if _, err := backtest.ParseTimeframe(req.Timeframe); err != nil {
		return err
	}
	if len(req.Symbols) == 0 && r.symbols == nil {
		return fmt.Errorf("请求未带符号且未配置符号来源")
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, runID string, req backtest.RunRequest) (export.Document, error) {
	symbols := req.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = r.symbols.List(ctx)
		if err != nil {
			return export.Document{}, fmt.Errorf("获取符号列表失败: %w", err)
		}
	}
	st, err := strategy.New(req.Strategy, req.Params)
	if err != nil {
		return export.Document{}, err
	}
	engine, err := backtest.NewEngine(backtest.EngineConfig{
		Provider:      r.provider,
		Strategy:      st,
		Sim:           req.Sim,
		Timeframe:     req.Timeframe,
		StartTS:       req.StartTS,
		EndTS:         req.EndTS,
		MaxConcurrent: req.MaxConcurrent,
	})
	if err != nil {
		return export.Document{}, err
	}

	logger.Infof("回测 %s 开始: strategy=%s timeframe=%s symbols=%d", runID, st.Name(), req.Timeframe, len(symbols))
	batch, err := engine.Run(ctx, symbols)
	if err != nil {
		return export.Document{}, err
	}
	overall := metrics.Compute(batch.Results)
	doc := export.NewDocument(runID, batch, overall)

	if r.results != nil {
		configJSON, _ := json.Marshal(req)
		if err := r.results.SaveRun(ctx, runID, batch, overall, string(configJSON)); err != nil {
			logger.Errorf("回测 %s 结果落库失败: %v", runID, err)
		}
	}
	r.exportArtifacts(runID, doc)
	r.notify(doc)
	logger.Infof("回测 %s 完成: %d ok / %d skipped / %d failed, 耗时 %s",
		runID, batch.Succeeded, batch.Skipped, batch.Failed, batch.Elapsed)
	return doc, nil
}

func (r *Runner) exportArtifacts(runID string, doc export.Document) {
	if r.reportDir == "" {
		return
	}
	dir := filepath.Join(r.reportDir, runID)
	if err := export.WriteJSON(filepath.Join(dir, "result.json"), doc); err != nil {
		logger.Warnf("导出 JSON 失败: %v", err)
	}
	if err := export.WriteCSV(filepath.Join(dir, "ranking.csv"), doc.Overall); err != nil {
		logger.Warnf("导出 CSV 失败: %v", err)
	}
	if err := export.WriteHTML(filepath.Join(dir, "report.html"), doc); err != nil {
		logger.Warnf("导出 HTML 报告失败: %v", err)
	}
}

func (r *Runner) notify(doc export.Document) {
	if r.notifier == nil {
		return
	}
	msg := notifier.StructuredMessage{
		Icon:      "📊",
		Title:     "回测完成",
		Sections:  []notifier.MessageSection{{Title: "结果", Lines: strings.Split(export.Summary(doc), "\n")}},
		Footer:    doc.RunID,
		Timestamp: time.Now(),
	}
	if err := r.notifier.SendText(msg.RenderMarkdown()); err != nil {
		logger.Warnf("发送通知失败: %v", err)
	}
}
