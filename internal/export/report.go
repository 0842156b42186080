package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"quoin/internal/backtest"
	"quoin/internal/metrics"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorGain          = "#34d399"
	colorLoss          = "#f87171"
	colorCurve         = "#3b82f6"
	colorBucket        = "#a78bfa"

	chartWidthPx  = 1200
	chartHeightPx = 420

	// 资金曲线只画排行前若干个符号，避免报告过大。
	maxCurveSeries = 8
)

// WriteHTML 渲染批量回测报告：收益排行、收益分布和资金曲线。
func WriteHTML(path string, doc Document) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = fmt.Sprintf("%s %s 回测报告", doc.Strategy, doc.Timeframe)

	page.AddCharts(
		buildReturnBar(doc),
		buildDistributionBar(doc.Overall),
		buildCapitalCurves(doc.Results),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func chartInit(height int) opts.Initialization {
	return opts.Initialization{
		Theme:           types.ThemeWesteros,
		Width:           strconv.Itoa(chartWidthPx) + "px",
		Height:          strconv.Itoa(height) + "px",
		BackgroundColor: colorBackground,
	}
}

func buildReturnBar(doc Document) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("收益排行 %s @ %s", doc.Strategy, doc.Timeframe),
			Subtitle:      fmt.Sprintf("%d ok / %d skipped / %d failed", doc.Succeeded, doc.Skipped, doc.Failed),
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary, Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "收益 %",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	xAxis := make([]string, 0, len(doc.Overall.TopPerformers))
	data := make([]opts.BarData, 0, len(doc.Overall.TopPerformers))
	for _, p := range doc.Overall.TopPerformers {
		color := colorGain
		if p.Return < 0 {
			color = colorLoss
		}
		xAxis = append(xAxis, p.Symbol)
		data = append(data, opts.BarData{
			Value: math.Round(p.Return*100) / 100,
			ItemStyle: &opts.ItemStyle{
				Color:   color,
				Opacity: opts.Float(0.85),
			},
		})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("收益", data)
	return bar
}

func buildDistributionBar(overall metrics.Overall) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:      "收益分布",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "符号数",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	xAxis := make([]string, 0, len(overall.Distribution))
	data := make([]opts.BarData, 0, len(overall.Distribution))
	for _, b := range overall.Distribution {
		xAxis = append(xAxis, bucketLabel(b))
		data = append(data, opts.BarData{
			Value: b.Count,
			ItemStyle: &opts.ItemStyle{
				Color:   colorBucket,
				Opacity: opts.Float(0.75),
			},
		})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("符号数", data)
	return bar
}

func buildCapitalCurves(results []backtest.SymbolResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:         "资金曲线",
			Subtitle:      "横轴为平仓序号",
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	maxLen := 0
	picked := make([]backtest.SymbolResult, 0, maxCurveSeries)
	for _, r := range results {
		if !r.Succeeded() || len(r.CapitalCurve) < 2 {
			continue
		}
		picked = append(picked, r)
		if len(r.CapitalCurve) > maxLen {
			maxLen = len(r.CapitalCurve)
		}
		if len(picked) == maxCurveSeries {
			break
		}
	}

	xAxis := make([]string, maxLen)
	for i := range xAxis {
		xAxis[i] = strconv.Itoa(i)
	}
	line.SetXAxis(xAxis)
	for _, r := range picked {
		line.AddSeries(r.Symbol, curveToLineData(r.CapitalCurve, maxLen),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: 2}),
		)
	}
	return line
}

func curveToLineData(curve []float64, length int) []opts.LineData {
	data := make([]opts.LineData, length)
	for i := 0; i < length; i++ {
		if i < len(curve) {
			data[i] = opts.LineData{Value: math.Round(curve[i]*100) / 100}
			continue
		}
		data[i] = opts.LineData{Value: nil}
	}
	return data
}

func bucketLabel(b metrics.Bucket) string {
	if b.Label != "" {
		return b.Label
	}
	switch {
	case math.IsInf(b.From, -1):
		return fmt.Sprintf("< %.0f%%", b.To)
	case math.IsInf(b.To, 1):
		return fmt.Sprintf(">= %.0f%%", b.From)
	default:
		return fmt.Sprintf("%.0f%% ~ %.0f%%", b.From, b.To)
	}
}
