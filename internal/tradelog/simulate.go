package tradelog

import "math"

// positionSlots is the equal-thirds sizing divisor. It assumes the log never
// holds more than three positions at once; nothing here checks that.
const positionSlots = 3

// Simulate folds the rows from DefaultInitialPortfolio.
func Simulate(rows []NormalizedRow) Result {
	return SimulateFrom(DefaultInitialPortfolio, rows)
}

// SimulateFrom folds rows in the order given. Rows are expected to be in
// chronological order already; see CheckChronological.
//
// Each trade invests a third of the current, already compounded portfolio.
// The portfolio after the trade's profit is what both the next trade's
// sizing and the trade's equity point use. Zero or NaN buy prices are not
// special-cased: the resulting NaN/Inf values propagate.
func SimulateFrom(initial float64, rows []NormalizedRow) Result {
	portfolio := initial
	trades := make([]Trade, 0, len(rows))
	history := make([]EquityPoint, 0, len(rows)+1)
	history = append(history, EquityPoint{Time: StartLabel, Portfolio: portfolio})

	for _, r := range rows {
		investment := portfolio / positionSlots
		shares := math.Floor(investment / r.BuyPrice)
		cost := shares * r.BuyPrice
		proceeds := shares * r.SellPrice
		profit := proceeds - cost

		trades = append(trades, Trade{
			Ticker:        r.Ticker,
			BuyTime:       r.BuyTime,
			SellTime:      r.SellTime,
			BuyAt:         r.BuyAt,
			SellAt:        r.SellAt,
			BuyPrice:      r.BuyPrice,
			SellPrice:     r.SellPrice,
			Investment:    investment,
			Shares:        shares,
			Cost:          cost,
			Proceeds:      proceeds,
			Profit:        profit,
			PercentProfit: profit / cost * 100,
		})

		portfolio += profit
		history = append(history, EquityPoint{Time: r.SellTime, Portfolio: portfolio})
	}

	return Result{Trades: trades, History: history}
}

// CheckChronological returns the index of the first row whose sell time is
// earlier than the previous valid one, or -1. Rows with invalid times are
// skipped.
func CheckChronological(rows []NormalizedRow) int {
	var prev NormalizedRow
	seen := false
	for i, r := range rows {
		if r.SellAt.IsZero() {
			continue
		}
		if seen && r.SellAt.Before(prev.SellAt) {
			return i
		}
		prev, seen = r, true
	}
	return -1
}

// Summarize computes headline figures. Trades with a NaN profit count as
// neither win nor loss but still poison the totals.
func Summarize(res Result) Summary {
	s := Summary{Trades: len(res.Trades)}
	if len(res.History) > 0 {
		s.InitialPortfolio = res.History[0].Portfolio
		s.FinalPortfolio = res.History[len(res.History)-1].Portfolio
	}
	s.TotalProfit = s.FinalPortfolio - s.InitialPortfolio
	if s.InitialPortfolio != 0 {
		s.ReturnPct = s.TotalProfit / s.InitialPortfolio * 100
	}
	for _, t := range res.Trades {
		switch {
		case t.Profit > 0:
			s.Wins++
		case t.Profit < 0:
			s.Losses++
		}
	}
	return s
}
