package backtest

import (
	"fmt"
	"math"

	"quoin/internal/logger"
	"quoin/internal/market"
	"quoin/internal/strategy"
)

// position 是模拟期间的瞬态持仓；entryFee 在开仓时已从资金扣除，
// 留在这里只是为了在成交记录里汇总整笔手续费。
type position struct {
	side       Side
	entryPrice float64
	entryTime  int64
	size       float64
	entryFee   float64
}

// simulator 是单符号的交易状态机。每个符号构造一个全新实例，
// 跑完即弃，符号之间不存在任何共享可变状态。
type simulator struct {
	symbol  string
	cfg     SimConfig
	capital float64
	pos     *position
	trades  []Trade
	curve   []float64
}

// Simulate 将一段 K 线与对应的信号序列推演为成交流水和资金曲线。
// 信号必须严格按时间升序；强制离场（止损/止盈）在处理新信号的
// 方向意图之前评估，数据结束时残留持仓按最后收盘价强平。
func Simulate(symbol string, candles market.Candles, signals []strategy.Signal, cfg SimConfig) (SymbolResult, error) {
	cfg = cfg.Normalized()
	sim := &simulator{
		symbol:  symbol,
		cfg:     cfg,
		capital: cfg.InitialCapital,
		curve:   []float64{cfg.InitialCapital},
	}

	signalCount := 0
	for _, sig := range signals {
		if math.IsNaN(sig.Price) || math.IsInf(sig.Price, 0) {
			return SymbolResult{}, fmt.Errorf("%w: invalid price at ts=%d", ErrComputation, sig.Timestamp)
		}
		if sig.Directional() {
			signalCount++
		}
		sim.step(sig)
	}

	if sim.pos != nil && len(candles) > 0 {
		last := candles[len(candles)-1]
		sim.closePosition(last.Close, last.OpenTime, ExitEndOfPeriod)
	}

	if math.IsNaN(sim.capital) || math.IsInf(sim.capital, 0) {
		return SymbolResult{}, fmt.Errorf("%w: capital diverged for %s", ErrComputation, symbol)
	}

	res := SymbolResult{
		Symbol:         symbol,
		Status:         StatusOK,
		Trades:         sim.trades,
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   sim.capital,
		TotalTrades:    len(sim.trades),
		SignalCount:    signalCount,
		CandleCount:    len(candles),
		CapitalCurve:   sim.curve,
	}
	for _, t := range sim.trades {
		res.TotalFees += t.Fees
		if t.PnL > 0 {
			res.WinningTrades++
		} else {
			res.LosingTrades++
		}
	}
	if res.TotalTrades > 0 {
		res.WinRate = float64(res.WinningTrades) / float64(res.TotalTrades) * 100
	}
	if cfg.InitialCapital > 0 {
		res.TotalReturn = (sim.capital - cfg.InitialCapital) / cfg.InitialCapital * 100
	}
	return res, nil
}

func (s *simulator) step(sig strategy.Signal) {
	// 先对当前持仓做强制离场检查，再考虑新信号的方向。
	if s.pos != nil {
		change := changePct(s.pos.side, s.pos.entryPrice, sig.Price)
		if stopLossHit(change, s.cfg.StopLossPct) {
			s.closePosition(sig.Price, sig.Timestamp, ExitStopLoss)
		} else if takeProfitHit(change, s.cfg.TakeProfitPct) {
			s.closePosition(sig.Price, sig.Timestamp, ExitTakeProfit)
		}
	}

	if !sig.Directional() {
		return
	}
	want := SideLong
	if sig.Direction == strategy.DirectionSell {
		want = SideShort
	}

	if s.pos != nil {
		if s.pos.side == want {
			return // 不加仓
		}
		s.closePosition(sig.Price, sig.Timestamp, ExitSignal)
	}
	s.openPosition(want, sig.Price, sig.Timestamp)
}

func (s *simulator) openPosition(side Side, price float64, ts int64) {
	if price <= 0 {
		logger.Warnf("[backtest] %s 在 ts=%d 价格非法(%.8f)，跳过开仓", s.symbol, ts, price)
		return
	}
	notional := s.capital * s.cfg.PositionFraction
	if notional <= 0 {
		return
	}
	size := notional / price
	fee := size * price * s.cfg.FeeRate
	s.capital -= fee
	s.pos = &position{
		side:       side,
		entryPrice: price,
		entryTime:  ts,
		size:       size,
		entryFee:   fee,
	}
}

func (s *simulator) closePosition(price float64, ts int64, reason ExitReason) {
	pos := s.pos
	if pos == nil {
		return
	}
	exitFee := pos.size * price * s.cfg.FeeRate
	var pnl float64
	if pos.side == SideLong {
		pnl = (price - pos.entryPrice) * pos.size
	} else {
		pnl = (pos.entryPrice - price) * pos.size
	}
	s.capital += pnl - exitFee

	s.trades = append(s.trades, Trade{
		EntryTime:  pos.entryTime,
		ExitTime:   ts,
		Side:       pos.side,
		EntryPrice: pos.entryPrice,
		ExitPrice:  price,
		Size:       pos.size,
		PnL:        pnl,
		Fees:       pos.entryFee + exitFee,
		ReturnPct:  changePct(pos.side, pos.entryPrice, price),
		ExitReason: reason,
	})
	s.curve = append(s.curve, s.capital)
	s.pos = nil
}
