package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gw/equity-ledger/internal/tradelog"
)

// GroupSize is the maximum number of trades in one HoldingGroup.
const GroupSize = 3

// HoldingGroup is a run of up to GroupSize trades from one day.
type HoldingGroup struct {
	ID            string   // day, position and Keys; scroll and highlight target
	Keys          []string // sell time of every member
	HoldingPeriod string   // "9:30 AM → 3:45 PM"
	Trades        []tradelog.Trade
}

// Contains reports whether any member sold at t.
func (g HoldingGroup) Contains(t string) bool {
	for _, k := range g.Keys {
		if k == t {
			return true
		}
	}
	return false
}

// Ledger is the sidebar's day-bucketed, most-recent-first view of a trade set.
type Ledger struct {
	DayIndex []string
	ByDay    map[string][]HoldingGroup
}

// Paginate sorts trades by sell time, newest first, buckets them by
// display-local calendar day and chunks each bucket into HoldingGroups.
// Equal sell times keep their input order. Trades without a valid sell time
// land in a final InvalidDate bucket.
func Paginate(trades []tradelog.Trade) *Ledger {
	sorted := make([]tradelog.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].SellAt, sorted[j].SellAt
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})

	l := &Ledger{ByDay: make(map[string][]HoldingGroup)}
	buckets := make(map[string][]tradelog.Trade)
	for _, t := range sorted {
		key := tradelog.DayKey(t.SellAt)
		if _, seen := buckets[key]; !seen {
			l.DayIndex = append(l.DayIndex, key)
		}
		buckets[key] = append(buckets[key], t)
	}

	for _, key := range l.DayIndex {
		l.ByDay[key] = chunk(key, buckets[key])
	}
	return l
}

func chunk(day string, trades []tradelog.Trade) []HoldingGroup {
	groups := make([]HoldingGroup, 0, (len(trades)+GroupSize-1)/GroupSize)
	for i := 0; i < len(trades); i += GroupSize {
		end := min(i+GroupSize, len(trades))
		members := trades[i:end:end]

		keys := make([]string, len(members))
		for j, t := range members {
			keys[j] = t.SellTime
		}
		groups = append(groups, HoldingGroup{
			ID:            fmt.Sprintf("%s#%d:%s", day, i/GroupSize, strings.Join(keys, "|")),
			Keys:          keys,
			HoldingPeriod: holdingPeriod(members),
			Trades:        members,
		})
	}
	return groups
}

func holdingPeriod(trades []tradelog.Trade) string {
	var first, last time.Time
	for _, t := range trades {
		if !t.BuyAt.IsZero() && (first.IsZero() || t.BuyAt.Before(first)) {
			first = t.BuyAt
		}
		if !t.SellAt.IsZero() && t.SellAt.After(last) {
			last = t.SellAt
		}
	}
	return clock(first) + " → " + clock(last)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return tradelog.InvalidDate
	}
	return t.Format(tradelog.ClockLayout)
}

// Len is the number of days.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.DayIndex)
}

// Day returns the day key and groups at index i.
func (l *Ledger) Day(i int) (string, []HoldingGroup, bool) {
	if i < 0 || i >= l.Len() {
		return "", nil, false
	}
	key := l.DayIndex[i]
	return key, l.ByDay[key], true
}

// DayOf returns the index of the day holding a trade sold at t.
func (l *Ledger) DayOf(t string) (int, bool) {
	for i := 0; i < l.Len(); i++ {
		for _, g := range l.ByDay[l.DayIndex[i]] {
			if g.Contains(t) {
				return i, true
			}
		}
	}
	return 0, false
}

// GroupFor returns the first group with a trade sold at t.
func (l *Ledger) GroupFor(t string) (HoldingGroup, bool) {
	if i, ok := l.DayOf(t); ok {
		for _, g := range l.ByDay[l.DayIndex[i]] {
			if g.Contains(t) {
				return g, true
			}
		}
	}
	return HoldingGroup{}, false
}

// Trades returns every trade in display order.
func (l *Ledger) Trades() []tradelog.Trade {
	var out []tradelog.Trade
	for i := 0; i < l.Len(); i++ {
		for _, g := range l.ByDay[l.DayIndex[i]] {
			out = append(out, g.Trades...)
		}
	}
	return out
}
