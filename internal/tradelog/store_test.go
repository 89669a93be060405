package tradelog

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreDailyPnL(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	res := Simulate([]NormalizedRow{
		row("A", day0, 100, 110),
		row("B", day0.Add(time.Hour), 100, 90),
		row("C", day0.Add(24*time.Hour), 100, 105),
	})
	require.NoError(t, Sync(ctx, store, res))

	days, err := store.GetDailyPnL(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2025-03-10", days[0].Date)
	assert.Equal(t, 2, days[0].Trades)
	assert.Equal(t, 1, days[0].Wins)
	assert.InDelta(t, res.Trades[0].Profit+res.Trades[1].Profit, days[0].Profit, 1e-6)

	assert.Equal(t, "2025-03-11", days[1].Date)
	assert.Equal(t, 1, days[1].Trades)
}

func TestStoreReplaceIsWholesale(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, Simulate([]NormalizedRow{
		row("A", day0, 100, 110),
		row("B", day0.Add(time.Hour), 100, 90),
	})))
	require.NoError(t, store.Replace(ctx, Simulate([]NormalizedRow{
		row("C", day0, 100, 105),
	})))

	trades, err := store.RecentTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "C", trades[0].Ticker)
	assert.Equal(t, day0, trades[0].SellAt)
}

func TestStoreNonFiniteBecomesNaN(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, Simulate([]NormalizedRow{
		row("Z", day0, 0, 1),
	})))

	trades, err := store.RecentTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, math.IsNaN(trades[0].Shares))
	assert.True(t, math.IsNaN(trades[0].Profit))
	assert.Equal(t, 0.0, trades[0].BuyPrice)

	tickers, err := store.GetTickerPnL(ctx)
	require.NoError(t, err)
	require.Len(t, tickers, 1)
	assert.True(t, math.IsNaN(tickers[0].Profit))
}

func TestStoreDailyPnLKeepsNaNVisible(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, Simulate([]NormalizedRow{
		row("A", day0, 100, 110),
		row("B", day0.Add(24*time.Hour), math.NaN(), 90),
	})))

	days, err := store.GetDailyPnL(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 33330.0, days[0].Profit)
	assert.Equal(t, 333300.0, days[0].Cost)
	assert.True(t, math.IsNaN(days[1].Profit))
	assert.True(t, math.IsNaN(days[1].Cost))
	assert.Equal(t, 1, days[1].Trades)
	assert.Equal(t, 0, days[1].Wins)

	tickers, err := store.GetTickerPnL(ctx)
	require.NoError(t, err)
	require.Len(t, tickers, 2)
	assert.Equal(t, "A", tickers[0].Ticker)
	assert.True(t, math.IsNaN(tickers[1].Profit))
}

func TestStoreRecentTradesBySellTime(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	noon := day0.Add(2 * time.Hour)
	bad := row("X", time.Time{}, 100, 101)
	bad.SellTime = InvalidDate
	require.NoError(t, store.Replace(ctx, Simulate([]NormalizedRow{
		row("A", noon, 100, 110),
		row("B", day0.Add(time.Hour), 100, 110),
		bad,
		row("C", noon, 100, 110),
		row("D", day0.Add(24*time.Hour), 100, 110),
	})))

	trades, err := store.RecentTrades(ctx, 10)
	require.NoError(t, err)
	var got []string
	for _, tr := range trades {
		got = append(got, tr.Ticker)
	}
	assert.Equal(t, []string{"D", "A", "C", "B", "X"}, got)

	trades, err = store.RecentTrades(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}
