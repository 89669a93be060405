package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gw/equity-ledger/internal/collector"
	"github.com/gw/equity-ledger/internal/config"
	"github.com/gw/equity-ledger/internal/feed"
	"github.com/gw/equity-ledger/internal/tradelog"
	"github.com/gw/equity-ledger/internal/view"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "summary":
		runSummary()
	case "pnl":
		runPnL()
	case "tickers":
		runTickers()
	case "trades":
		limit := 50
		if len(os.Args) > 2 {
			if n, err := strconv.Atoi(os.Args[2]); err == nil {
				limit = n
			}
		}
		runTrades(limit)
	case "chart":
		out := "equity.png"
		if len(os.Args) > 2 {
			out = os.Args[2]
		}
		runChart(out)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: tradelog <command>

Every command fetches TRADE_LOG_URL and simulates it from scratch.

Commands:
  summary       Show final portfolio, return and win/loss counts
  pnl           Show daily PnL table
  tickers       Show PnL per ticker
  trades [N]    Show last N trades (default 50)
  chart [FILE]  Write the daily equity chart as PNG (default equity.png)`)
}

// load runs one refresh cycle and mirrors the result into an in-memory store.
func load() (*collector.Snapshot, *tradelog.Store) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	src, err := feed.New(cfg.TradeLogURL, 30*time.Second)
	if err != nil {
		slog.Error("feed init", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	col := collector.New(src, cfg.RefreshInterval, cfg.InitialPortfolio)
	if err := col.Refresh(ctx); err != nil {
		slog.Error("loading trade log failed", "err", err)
		os.Exit(1)
	}
	snap := col.Snapshot()

	store, err := tradelog.Open(":memory:")
	if err != nil {
		slog.Error("opening db", "err", err)
		os.Exit(1)
	}
	if err := tradelog.Sync(ctx, store, snap.Result); err != nil {
		slog.Error("sync failed", "err", err)
		os.Exit(1)
	}
	return snap, store
}

func runSummary() {
	snap, store := load()
	defer store.Close()

	s := view.NewSummary(snap.Summary)
	fmt.Printf("Initial portfolio: %s\n", s.Initial)
	fmt.Printf("Final portfolio:   %s\n", s.Final)
	fmt.Printf("Total profit:      %s (%s)\n", s.Profit, s.Return)
	fmt.Printf("Trades:            %d (%d won, %d lost)\n", s.Trades, s.Wins, s.Losses)
	fmt.Printf("Trading days:      %d\n", snap.Ledger.Len())
}

func runPnL() {
	_, store := load()
	defer store.Close()

	rows, err := store.GetDailyPnL(context.Background())
	if err != nil {
		slog.Error("query failed", "err", err)
		os.Exit(1)
	}

	if len(rows) == 0 {
		fmt.Println("No PnL data. The trade log is empty.")
		return
	}

	fmt.Printf("%-12s %16s %16s %6s %5s\n", "Date", "Net PnL", "Cost", "Trades", "Wins")
	fmt.Println("--------------------------------------------------------------")
	var totalPnL, totalCost float64
	var totalTrades, totalWins int
	for _, r := range rows {
		fmt.Printf("%-12s %16s %16s %6d %5d\n",
			r.Date,
			view.SignedMoney(r.Profit),
			view.Money(r.Cost),
			r.Trades,
			r.Wins,
		)
		totalPnL += r.Profit
		totalCost += r.Cost
		totalTrades += r.Trades
		totalWins += r.Wins
	}
	fmt.Println("--------------------------------------------------------------")
	fmt.Printf("%-12s %16s %16s %6d %5d\n", "TOTAL", view.SignedMoney(totalPnL), view.Money(totalCost), totalTrades, totalWins)
}

func runTickers() {
	_, store := load()
	defer store.Close()

	rows, err := store.GetTickerPnL(context.Background())
	if err != nil {
		slog.Error("query failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("%-10s %16s %6s\n", "Ticker", "Net PnL", "Trades")
	fmt.Println("------------------------------------")
	for _, r := range rows {
		fmt.Printf("%-10s %16s %6d\n", r.Ticker, view.SignedMoney(r.Profit), r.Trades)
	}
}

func runTrades(limit int) {
	_, store := load()
	defer store.Close()

	trades, err := store.RecentTrades(context.Background(), limit)
	if err != nil {
		slog.Error("query failed", "err", err)
		os.Exit(1)
	}

	if len(trades) == 0 {
		fmt.Println("No trades.")
		return
	}

	fmt.Printf("%-22s %-8s %12s %12s %8s %16s %9s\n",
		"Sold", "Ticker", "Buy", "Sell", "Shares", "Profit", "Pct")
	fmt.Println("---------------------------------------------------------------------------------------------------")
	for _, t := range trades {
		fmt.Printf("%-22s %-8s %12s %12s %8s %16s %9s\n",
			t.SellTime,
			t.Ticker,
			view.Money(t.BuyPrice),
			view.Money(t.SellPrice),
			view.Shares(t.Shares),
			view.SignedMoney(t.Profit),
			view.Percent(t.PercentProfit),
		)
	}
}

func runChart(out string) {
	snap, store := load()
	defer store.Close()

	png, err := view.RenderChart(snap.Chart, "")
	if err != nil {
		slog.Error("render failed", "err", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, png, 0644); err != nil {
		slog.Error("write failed", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d points)\n", out, len(snap.Chart))
}
