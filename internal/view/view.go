// Package view turns snapshots and selection state into the JSON
// documents the dashboard API serves. Every figure is preformatted; a
// non-finite value is shown as "n/a" and sent as null.
package view

import (
	"time"

	"github.com/gw/equity-ledger/internal/ledger"
	"github.com/gw/equity-ledger/internal/selection"
	"github.com/gw/equity-ledger/internal/tradelog"
)

const dayLabelLayout = "Monday, January 2, 2006"

type ChartPoint struct {
	Label       string   `json:"label"`
	Time        string   `json:"time"`
	Value       *float64 `json:"value"`
	Display     string   `json:"display"`
	Highlighted bool     `json:"highlighted"`
}

type Chart struct {
	Points   []ChartPoint `json:"points"`
	Selected int          `json:"selected"` // -1 when nothing is selected
}

func NewChart(points []ledger.ChartPoint, st selection.State) Chart {
	c := Chart{Points: make([]ChartPoint, len(points)), Selected: -1}
	for i, p := range points {
		hl := st.HasSelection && p.Time == st.SelectedTime
		if hl {
			c.Selected = i
		}
		c.Points[i] = ChartPoint{
			Label:       p.Label,
			Time:        p.Time,
			Value:       Number(p.Value),
			Display:     Money(p.Value),
			Highlighted: hl,
		}
	}
	return c
}

type Trade struct {
	Ticker        string   `json:"ticker"`
	BuyTime       string   `json:"buy_time"`
	SellTime      string   `json:"sell_time"`
	BuyPrice      string   `json:"buy_price"`
	SellPrice     string   `json:"sell_price"`
	Shares        string   `json:"shares"`
	Cost          string   `json:"cost"`
	Proceeds      string   `json:"proceeds"`
	Profit        string   `json:"profit"`
	PercentProfit string   `json:"percent_profit"`
	ProfitValue   *float64 `json:"profit_value"`
	Win           bool     `json:"win"`
}

func NewTrade(t tradelog.Trade) Trade {
	return Trade{
		Ticker:        t.Ticker,
		BuyTime:       t.BuyTime,
		SellTime:      t.SellTime,
		BuyPrice:      Money(t.BuyPrice),
		SellPrice:     Money(t.SellPrice),
		Shares:        Shares(t.Shares),
		Cost:          Money(t.Cost),
		Proceeds:      Money(t.Proceeds),
		Profit:        SignedMoney(t.Profit),
		PercentProfit: Percent(t.PercentProfit),
		ProfitValue:   Number(t.Profit),
		Win:           t.Profit > 0,
	}
}

func NewTrades(trades []tradelog.Trade) []Trade {
	out := make([]Trade, len(trades))
	for i, t := range trades {
		out[i] = NewTrade(t)
	}
	return out
}

type Group struct {
	ID            string  `json:"id"`
	HoldingPeriod string  `json:"holding_period"`
	Highlighted   bool    `json:"highlighted"`
	Selected      bool    `json:"selected"`
	Trades        []Trade `json:"trades"`
}

type Summary struct {
	Initial  string   `json:"initial"`
	Final    string   `json:"final"`
	Profit   string   `json:"profit"`
	Return   string   `json:"return"`
	FinalNum *float64 `json:"final_value"`
	Trades   int      `json:"trades"`
	Wins     int      `json:"wins"`
	Losses   int      `json:"losses"`
}

func NewSummary(s tradelog.Summary) Summary {
	return Summary{
		Initial:  Money(s.InitialPortfolio),
		Final:    Money(s.FinalPortfolio),
		Profit:   SignedMoney(s.TotalProfit),
		Return:   Percent(s.ReturnPct),
		FinalNum: Number(s.FinalPortfolio),
		Trades:   s.Trades,
		Wins:     s.Wins,
		Losses:   s.Losses,
	}
}

// Sidebar is one page of the trade ledger: the day at the current index.
type Sidebar struct {
	Day         string  `json:"day"`
	DayLabel    string  `json:"day_label"`
	DayIndex    int     `json:"day_index"`
	DayCount    int     `json:"day_count"`
	HasPrevious bool    `json:"has_previous"`
	HasNext     bool    `json:"has_next"`
	Groups      []Group `json:"groups"`
	Summary     Summary `json:"summary"`
}

// NewSidebar renders the day at st.CurrentDayIndex, clamped to the ledger.
// DayIndex is always the day actually shown, 0 for an empty ledger.
func NewSidebar(l *ledger.Ledger, sum tradelog.Summary, st selection.State) Sidebar {
	n := l.Len()
	idx := min(max(st.CurrentDayIndex, 0), max(n-1, 0))
	sb := Sidebar{
		DayIndex: idx,
		DayCount: n,
		Groups:   []Group{},
		Summary:  NewSummary(sum),
	}
	day, groups, ok := l.Day(idx)
	if !ok {
		return sb
	}
	sb.Day, sb.DayLabel = day, dayLabel(day)
	sb.HasPrevious = idx > 0
	sb.HasNext = idx < n-1

	for _, g := range groups {
		sb.Groups = append(sb.Groups, Group{
			ID:            g.ID,
			HoldingPeriod: g.HoldingPeriod,
			Highlighted:   g.ID == st.HighlightedID,
			Selected:      st.HasSelection && g.Contains(st.SelectedTime),
			Trades:        NewTrades(g.Trades),
		})
	}
	return sb
}

func dayLabel(key string) string {
	d, err := time.Parse("2006-01-02", key)
	if err != nil {
		return key
	}
	return d.Format(dayLabelLayout)
}

type HistoryPoint struct {
	Time    string   `json:"time"`
	Value   *float64 `json:"value"`
	Display string   `json:"display"`
}

func NewHistory(history []tradelog.EquityPoint) []HistoryPoint {
	out := make([]HistoryPoint, len(history))
	for i, p := range history {
		out[i] = HistoryPoint{Time: p.Time, Value: Number(p.Portfolio), Display: Money(p.Portfolio)}
	}
	return out
}

type DailyPnL struct {
	Date   string `json:"date"`
	Profit string `json:"profit"`
	Cost   string `json:"cost"`
	Trades int    `json:"trades"`
	Wins   int    `json:"wins"`
}

func NewDailyPnL(rows []tradelog.DailyPnL) []DailyPnL {
	out := make([]DailyPnL, len(rows))
	for i, r := range rows {
		out[i] = DailyPnL{
			Date:   r.Date,
			Profit: SignedMoney(r.Profit),
			Cost:   Money(r.Cost),
			Trades: r.Trades,
			Wins:   r.Wins,
		}
	}
	return out
}

type TickerPnL struct {
	Ticker string `json:"ticker"`
	Profit string `json:"profit"`
	Trades int    `json:"trades"`
}

func NewTickerPnL(rows []tradelog.TickerPnL) []TickerPnL {
	out := make([]TickerPnL, len(rows))
	for i, r := range rows {
		out[i] = TickerPnL{Ticker: r.Ticker, Profit: SignedMoney(r.Profit), Trades: r.Trades}
	}
	return out
}
