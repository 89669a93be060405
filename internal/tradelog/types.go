package tradelog

import "time"

// StartLabel is the time of the sentinel first point of every equity history.
const StartLabel = "Start"

// InvalidDate replaces any timestamp that could not be parsed.
const InvalidDate = "Invalid Date"

// DefaultInitialPortfolio is the simulated starting capital.
const DefaultInitialPortfolio = 1_000_000.0

// RawRow is one record of the trade-log CSV. Columns not listed here are
// ignored; missing columns leave the field empty.
type RawRow struct {
	Stock     string `csv:"Stock"`
	EntryTime string `csv:"Entry Time"`
	ExitTime  string `csv:"Exit Time"`
	BuyPrice  string `csv:"Buy Price"`
	SellPrice string `csv:"Sell Price"`
}

// NormalizedRow is a RawRow with display times and parsed prices.
type NormalizedRow struct {
	Ticker    string
	BuyTime   string // display-local, or InvalidDate
	SellTime  string
	BuyAt     time.Time // display-local wall clock; zero when invalid
	SellAt    time.Time
	BuyPrice  float64 // NaN when unparseable
	SellPrice float64
}

// Trade is one closed position after simulation. Every derived field is a
// function of (BuyPrice, SellPrice, investment) and is never updated.
type Trade struct {
	Ticker        string
	BuyTime       string
	SellTime      string
	BuyAt         time.Time
	SellAt        time.Time
	BuyPrice      float64
	SellPrice     float64
	Investment    float64
	Shares        float64 // integral unless NaN/Inf
	Cost          float64
	Proceeds      float64
	Profit        float64
	PercentProfit float64 // non-finite when Cost == 0
}

// EquityPoint is the portfolio value after the trade that closed at Time.
type EquityPoint struct {
	Time      string
	Portfolio float64
}

// Result is the output of one simulation pass.
type Result struct {
	Trades  []Trade
	History []EquityPoint
}

// Summary is the headline figures of a Result.
type Summary struct {
	InitialPortfolio float64
	FinalPortfolio   float64
	TotalProfit      float64
	ReturnPct        float64
	Trades           int
	Wins             int
	Losses           int
}

// DailyPnL is a row from the v_daily_pnl view.
type DailyPnL struct {
	Date   string
	Profit float64
	Cost   float64
	Trades int
	Wins   int
}
