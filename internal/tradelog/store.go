package tradelog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// Store mirrors the current trade set into SQLite for reporting queries.
// The default ":memory:" path keeps nothing across restarts.
type Store struct {
	db *sql.DB
}

// TickerPnL is a row from the v_ticker_pnl view.
type TickerPnL struct {
	Ticker string
	Profit float64
	Trades int
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the stored trade set for res in one transaction, so readers
// see either the old set or the new one.
func (s *Store) Replace(ctx context.Context, res Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
		return fmt.Errorf("clearing trades: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (seq, ticker, buy_time, sell_time, sell_day, sell_at,
			buy_price, sell_price, shares, cost, proceeds, profit, percent_profit, portfolio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range res.Trades {
		var portfolio float64
		if i+1 < len(res.History) {
			portfolio = res.History[i+1].Portfolio
		}
		if _, err := stmt.ExecContext(ctx,
			i, t.Ticker, t.BuyTime, t.SellTime, DayKey(t.SellAt), unixOrNull(t.SellAt),
			nullable(t.BuyPrice), nullable(t.SellPrice), nullable(t.Shares),
			nullable(t.Cost), nullable(t.Proceeds), nullable(t.Profit),
			nullable(t.PercentProfit), nullable(portfolio),
		); err != nil {
			return fmt.Errorf("inserting trade %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetDailyPnL(ctx context.Context) ([]DailyPnL, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, profit, cost, trades, wins FROM v_daily_pnl`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailyPnL
	for rows.Next() {
		var d DailyPnL
		var profit, cost sql.NullFloat64
		if err := rows.Scan(&d.Date, &profit, &cost, &d.Trades, &d.Wins); err != nil {
			return nil, err
		}
		d.Profit, d.Cost = orNaN(profit), orNaN(cost)
		results = append(results, d)
	}
	return results, rows.Err()
}

func (s *Store) GetTickerPnL(ctx context.Context) ([]TickerPnL, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker, profit, trades FROM v_ticker_pnl`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TickerPnL
	for rows.Next() {
		var p TickerPnL
		var profit sql.NullFloat64
		if err := rows.Scan(&p.Ticker, &profit, &p.Trades); err != nil {
			return nil, err
		}
		p.Profit = orNaN(profit)
		results = append(results, p)
	}
	return results, rows.Err()
}

// RecentTrades returns the last limit trades by sell time, newest first,
// in the same order as the ledger: equal times keep log order and trades
// without a sell time come last.
func (s *Store) RecentTrades(ctx context.Context, limit int) ([]Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, buy_time, sell_time, buy_price, sell_price, shares,
			cost, proceeds, profit, percent_profit
		FROM trades ORDER BY sell_at IS NULL, sell_at DESC, seq ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Trade
	for rows.Next() {
		var t Trade
		var buy, sell, shares, cost, proceeds, profit, pct sql.NullFloat64
		if err := rows.Scan(&t.Ticker, &t.BuyTime, &t.SellTime, &buy, &sell, &shares,
			&cost, &proceeds, &profit, &pct); err != nil {
			return nil, err
		}
		t.BuyPrice, t.SellPrice = orNaN(buy), orNaN(sell)
		t.Shares, t.Cost, t.Proceeds = orNaN(shares), orNaN(cost), orNaN(proceeds)
		t.Profit, t.PercentProfit = orNaN(profit), orNaN(pct)
		t.BuyAt, _ = ParseDisplay(t.BuyTime, nil)
		t.SellAt, _ = ParseDisplay(t.SellTime, nil)
		results = append(results, t)
	}
	return results, rows.Err()
}

// DayKey is the calendar day of a display-local time, or InvalidDate.
func DayKey(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.Format("2006-01-02")
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}

// nullable maps non-finite values to NULL; SQLite has no NaN.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
