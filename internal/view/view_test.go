package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gw/equity-ledger/internal/ledger"
	"github.com/gw/equity-ledger/internal/selection"
	"github.com/gw/equity-ledger/internal/tradelog"
)

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"money", Money(1_033_330), "$1,033,330.00"},
		{"money cents", Money(33.3), "$33.30"},
		{"money negative", Money(-12.5), "-$12.50"},
		{"money nan", Money(math.NaN()), NotAvailable},
		{"signed gain", SignedMoney(33330), "+$33,330.00"},
		{"signed loss", SignedMoney(-1), "-$1.00"},
		{"percent", Percent(10), "10.00%"},
		{"percent rounding", Percent(-3.14159), "-3.14%"},
		{"percent inf", Percent(math.Inf(1)), NotAvailable},
		{"shares", Shares(3333), "3333"},
		{"shares inf", Shares(math.Inf(1)), NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
	assert.Nil(t, Number(math.NaN()))
	assert.Equal(t, 2.5, *Number(2.5))
}

func sampleResult() tradelog.Result {
	day := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	row := func(ticker string, at time.Time, buy, sell float64) tradelog.NormalizedRow {
		return tradelog.NormalizedRow{
			Ticker:    ticker,
			BuyAt:     at.Add(-time.Hour),
			SellAt:    at,
			BuyTime:   at.Add(-time.Hour).Format(tradelog.DisplayLayout),
			SellTime:  at.Format(tradelog.DisplayLayout),
			BuyPrice:  buy,
			SellPrice: sell,
		}
	}
	return tradelog.Simulate([]tradelog.NormalizedRow{
		row("AAPL", day, 100, 110),
		row("ZERO", day.Add(time.Hour), 0, 5),
		row("MSFT", day.Add(24*time.Hour), 50, 45),
	})
}

func TestChartMarksSelection(t *testing.T) {
	res := sampleResult()
	points := ledger.AggregateByDay(res.History, nil)
	st := selection.State{HasSelection: true, SelectedTime: points[1].Time}

	c := NewChart(points, st)
	require.Len(t, c.Points, len(points))
	assert.Equal(t, 1, c.Selected)
	assert.True(t, c.Points[1].Highlighted)
	assert.False(t, c.Points[0].Highlighted)

	assert.Equal(t, -1, NewChart(points, selection.State{}).Selected)
}

func TestViewsEncodeWithNonFiniteValues(t *testing.T) {
	res := sampleResult()
	l := ledger.Paginate(res.Trades)
	sb := NewSidebar(l, tradelog.Summarize(res), selection.State{CurrentDayIndex: 1})

	assert.Equal(t, "2025-03-10", sb.Day)
	assert.Equal(t, "Monday, March 10, 2025", sb.DayLabel)
	assert.True(t, sb.HasPrevious)
	assert.False(t, sb.HasNext)
	require.Len(t, sb.Groups, 1)
	require.Len(t, sb.Groups[0].Trades, 2)
	assert.Equal(t, "ZERO", sb.Groups[0].Trades[0].Ticker)
	assert.Equal(t, NotAvailable, sb.Groups[0].Trades[0].Shares)
	assert.Equal(t, NotAvailable, sb.Summary.Final)

	for _, v := range []any{sb, NewTrades(res.Trades), NewHistory(res.History), NewChart(ledger.AggregateByDay(res.History, nil), selection.State{})} {
		_, err := json.Marshal(v)
		assert.NoError(t, err)
	}
}

func TestSidebarHighlightAndEmpty(t *testing.T) {
	res := sampleResult()
	l := ledger.Paginate(res.Trades)
	_, groups, _ := l.Day(0)

	sb := NewSidebar(l, tradelog.Summarize(res), selection.State{
		HighlightedID: groups[0].ID,
		HasSelection:  true,
		SelectedTime:  groups[0].Keys[0],
	})
	require.Len(t, sb.Groups, 1)
	assert.True(t, sb.Groups[0].Highlighted)
	assert.True(t, sb.Groups[0].Selected)

	empty := NewSidebar(nil, tradelog.Summary{}, selection.State{})
	assert.Equal(t, 0, empty.DayCount)
	assert.Empty(t, empty.Groups)
	assert.NotNil(t, empty.Groups)
}

func TestSidebarClampsDayIndex(t *testing.T) {
	res := sampleResult()
	l := ledger.Paginate(res.Trades)
	require.Equal(t, 2, l.Len())

	sb := NewSidebar(l, tradelog.Summarize(res), selection.State{CurrentDayIndex: 5})
	assert.Equal(t, 1, sb.DayIndex)
	assert.Equal(t, "2025-03-10", sb.Day)
	assert.True(t, sb.HasPrevious)
	assert.False(t, sb.HasNext)
	assert.NotEmpty(t, sb.Groups)

	sb = NewSidebar(l, tradelog.Summarize(res), selection.State{CurrentDayIndex: -3})
	assert.Equal(t, 0, sb.DayIndex)
	assert.Equal(t, "2025-03-11", sb.Day)
	assert.False(t, sb.HasPrevious)
	assert.True(t, sb.HasNext)

	for _, i := range []int{-1, 0, 4} {
		empty := NewSidebar(ledger.Paginate(nil), tradelog.Summary{}, selection.State{CurrentDayIndex: i})
		assert.Equal(t, 0, empty.DayIndex)
		assert.Empty(t, empty.Day)
		assert.False(t, empty.HasPrevious)
		assert.False(t, empty.HasNext)
	}
}

func TestSidebarHighlightsOneOfSameMinuteGroups(t *testing.T) {
	at := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	rows := make([]tradelog.NormalizedRow, 6)
	for i := range rows {
		rows[i] = tradelog.NormalizedRow{
			Ticker:    fmt.Sprintf("T%d", i),
			BuyAt:     at.Add(-time.Hour),
			SellAt:    at,
			BuyTime:   at.Add(-time.Hour).Format(tradelog.DisplayLayout),
			SellTime:  at.Format(tradelog.DisplayLayout),
			BuyPrice:  10,
			SellPrice: 11,
		}
	}
	res := tradelog.Simulate(rows)
	l := ledger.Paginate(res.Trades)
	_, groups, ok := l.Day(0)
	require.True(t, ok)
	require.Len(t, groups, 2)

	sb := NewSidebar(l, tradelog.Summarize(res), selection.State{HighlightedID: groups[1].ID})
	require.Len(t, sb.Groups, 2)
	assert.NotEqual(t, sb.Groups[0].ID, sb.Groups[1].ID)
	assert.False(t, sb.Groups[0].Highlighted)
	assert.True(t, sb.Groups[1].Highlighted)
}

func TestRenderChart(t *testing.T) {
	history := []tradelog.EquityPoint{{Time: tradelog.StartLabel, Portfolio: 1_000_000}}
	day := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		history = append(history, tradelog.EquityPoint{
			Time:      day.AddDate(0, 0, i).Format(tradelog.DisplayLayout),
			Portfolio: 1_000_000 + float64(i*i)*1000,
		})
	}
	points := ledger.AggregateByDay(history, nil)

	png, err := RenderChart(points, points[2].Time)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRenderChartTooFewPoints(t *testing.T) {
	_, err := RenderChart([]ledger.ChartPoint{{Label: "Start", Time: "Start", Value: 1}}, "")
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = RenderChart([]ledger.ChartPoint{
		{Label: "Start", Time: "Start", Value: 1},
		{Label: "Mar 10", Time: "x", Value: math.NaN()},
	}, "")
	assert.ErrorIs(t, err, ErrTooFewPoints)
}
