package ledger

import (
	"sort"
	"time"

	"github.com/gw/equity-ledger/internal/tradelog"
)

// ChartLabelLayout is the short axis label of a chart point.
const ChartLabelLayout = "Jan 2"

// ChartPoint is one aggregated point of the equity curve. Time is the
// original point's full time string and is what selection matches on.
type ChartPoint struct {
	Label string
	Time  string
	Value float64
	at    time.Time
}

// AggregateByDay keeps one point per calendar day of the equity history,
// the one with the latest timestamp, and sorts the result ascending. The
// Start sentinel is always kept first. Points whose time cannot be parsed
// are dropped. Days are computed in ref (UTC when nil), independent of the
// zone used for display.
func AggregateByDay(history []tradelog.EquityPoint, ref *time.Location) []ChartPoint {
	if ref == nil {
		ref = time.UTC
	}

	var start *ChartPoint
	byDay := make(map[string]ChartPoint)

	for _, p := range history {
		if p.Time == tradelog.StartLabel {
			if start == nil {
				start = &ChartPoint{Label: tradelog.StartLabel, Time: p.Time, Value: p.Portfolio}
			}
			continue
		}
		at, ok := tradelog.ParseDisplay(p.Time, ref)
		if !ok {
			continue
		}
		key := at.In(ref).Format("2006-01-02")
		if prev, seen := byDay[key]; seen && at.Before(prev.at) {
			continue
		}
		byDay[key] = ChartPoint{
			Label: at.Format(ChartLabelLayout),
			Time:  p.Time,
			Value: p.Portfolio,
			at:    at,
		}
	}

	out := make([]ChartPoint, 0, len(byDay)+1)
	if start != nil {
		out = append(out, *start)
	}
	days := make([]ChartPoint, 0, len(byDay))
	for _, cp := range byDay {
		days = append(days, cp)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].at.Before(days[j].at) })
	return append(out, days...)
}

// Points converts an aggregate back into equity history.
func Points(chart []ChartPoint) []tradelog.EquityPoint {
	out := make([]tradelog.EquityPoint, len(chart))
	for i, cp := range chart {
		out[i] = tradelog.EquityPoint{Time: cp.Time, Portfolio: cp.Value}
	}
	return out
}

// IndexOf returns the position of the chart point with the given time.
func IndexOf(chart []ChartPoint, t string) (int, bool) {
	for i, cp := range chart {
		if cp.Time == t {
			return i, true
		}
	}
	return 0, false
}
