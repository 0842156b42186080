package indicator

import (
	"quoin/internal/market"
)

// SMA 计算简单移动平均。Offset = period-1。
func SMA(values []float64, period int) Series {
	if period < 1 || len(values) < period {
		return Series{Offset: period - 1}
	}
	out := make([]float64, 0, len(values)-period+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return Series{Values: out, Offset: period - 1}
}

// EMA 计算指数移动平均：种子为首个价格，k = 2/(period+1)。
// 序列从下标 0 即有定义（Offset = 0）。
func EMA(values []float64, period int) Series {
	if period < 1 || len(values) == 0 {
		return Series{}
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return Series{Values: out, Offset: 0}
}

// RSI 计算相对强弱指标（Wilder 平滑）。Offset = period。
// 平均跌幅为 0 时 RSI 定义为 100，不产生 Inf/NaN。
func RSI(values []float64, period int) Series {
	if period < 1 || len(values) <= period {
		return Series{Offset: period}
	}
	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(values)-period)
	out = append(out, rsiValue(avgGain, avgLoss))
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return Series{Values: out, Offset: period}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDHistogram 计算 MACD 柱：(EMA(fast)-EMA(slow)) - EMA(signal, macdLine)。
// 基于种子式 EMA，全长有定义（Offset = 0），调用方自行决定可用起点。
func MACDHistogram(values []float64, fast, slow, signal int) Series {
	if len(values) == 0 {
		return Series{}
	}
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA.Values[i] - slowEMA.Values[i]
	}
	signalLine := EMA(macdLine, signal)
	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = macdLine[i] - signalLine.Values[i]
	}
	return Series{Values: hist, Offset: 0}
}

// Stochastic 计算随机指标 %K 与 %D。
// %K Offset = kPeriod-1；%D 为 %K 的 SMA，Offset = kPeriod-1 + dPeriod-1。
// 区间最高价等于最低价时 %K 定义为 0。
func Stochastic(candles market.Candles, kPeriod, dPeriod int) (k, d Series) {
	if kPeriod < 1 || dPeriod < 1 || len(candles) < kPeriod {
		return Series{Offset: kPeriod - 1}, Series{Offset: kPeriod + dPeriod - 2}
	}
	kValues := make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		lowest := candles[i].Low
		highest := candles[i].High
		for j := i - kPeriod + 1; j <= i; j++ {
			if candles[j].Low < lowest {
				lowest = candles[j].Low
			}
			if candles[j].High > highest {
				highest = candles[j].High
			}
		}
		if highest == lowest {
			kValues = append(kValues, 0)
			continue
		}
		kValues = append(kValues, (candles[i].Close-lowest)/(highest-lowest)*100)
	}
	k = Series{Values: kValues, Offset: kPeriod - 1}
	dSMA := SMA(kValues, dPeriod)
	d = Series{Values: dSMA.Values, Offset: k.Offset + dSMA.Offset}
	return k, d
}

// SMI 计算动量摆动指标及其信号线。
// 摆动值 = 周期中点动量 / 其回溯区间范围 × 100，范围为 0 时定义为 0；
// 信号线为摆动值的短周期均线（不足一个周期时取已有值的均值，保持对齐）。
// Offset = 2*(period-1)。
func SMI(candles market.Candles, period, signalPeriod int) (osc, signal Series) {
	offset := 2 * (period - 1)
	if period < 1 || signalPeriod < 1 || len(candles) <= offset {
		return Series{Offset: offset}, Series{Offset: offset}
	}
	mid := make([]float64, len(candles))
	for i, c := range candles {
		mid[i] = (c.High + c.Low) / 2
	}
	// diff[i] 对应原始下标 i+period-1
	diff := make([]float64, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		diff[i-period+1] = mid[i] - mid[i-period+1]
	}
	oscValues := make([]float64, 0, len(candles)-offset)
	for i := offset; i < len(candles); i++ {
		cur := diff[i-period+1]
		maxDiff, minDiff := cur, cur
		for j := 0; j < period; j++ {
			d := diff[i-period+1-j]
			if d > maxDiff {
				maxDiff = d
			}
			if d < minDiff {
				minDiff = d
			}
		}
		rng := maxDiff - minDiff
		if rng == 0 {
			oscValues = append(oscValues, 0)
			continue
		}
		oscValues = append(oscValues, cur/rng*100)
	}
	signalValues := make([]float64, len(oscValues))
	sum := 0.0
	for i, v := range oscValues {
		sum += v
		n := signalPeriod
		if i+1 < signalPeriod {
			n = i + 1
		} else if i >= signalPeriod {
			sum -= oscValues[i-signalPeriod]
		}
		signalValues[i] = sum / float64(n)
	}
	return Series{Values: oscValues, Offset: offset}, Series{Values: signalValues, Offset: offset}
}
