package tradelog

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the en-US "M/D/YYYY, h:mm AM/PM" rendering of a trade time.
const DisplayLayout = "1/2/2006, 3:04 PM"

// ClockLayout is the time-only part of DisplayLayout.
const ClockLayout = "3:04 PM"

const (
	standardOffset = 5 * time.Hour
	daylightOffset = 4 * time.Hour
)

// rawLayouts are tried in order. Zone-less layouts are read as UTC.
var rawLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"2006-01-02",
}

// Normalize converts one raw row. It never fails: bad timestamps become
// InvalidDate and bad prices become NaN so the damage stays visible.
func Normalize(row RawRow) NormalizedRow {
	buyAt, buyOK := DisplayTime(row.EntryTime)
	sellAt, sellOK := DisplayTime(row.ExitTime)

	n := NormalizedRow{
		Ticker:    strings.TrimSpace(row.Stock),
		BuyTime:   InvalidDate,
		SellTime:  InvalidDate,
		BuyPrice:  parsePrice(row.BuyPrice),
		SellPrice: parsePrice(row.SellPrice),
	}
	if buyOK {
		n.BuyAt = buyAt
		n.BuyTime = buyAt.Format(DisplayLayout)
	}
	if sellOK {
		n.SellAt = sellAt
		n.SellTime = sellAt.Format(DisplayLayout)
	}
	return n
}

// NormalizeAll normalizes rows in order.
func NormalizeAll(rows []RawRow) []NormalizedRow {
	out := make([]NormalizedRow, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out
}

// DisplayTime parses a raw timestamp and shifts it to the display wall clock.
// The returned time is in UTC and its wall clock is the display-local time.
//
// The shift is 5h before the end of March 9 of the timestamp's year and 4h
// after it. This is a fixed-date approximation of the US daylight-saving
// switch and is wrong in years where the real transition falls on another
// day; it is kept deliberately so displayed times match the source's own.
func DisplayTime(raw string) (time.Time, bool) {
	t, ok := parseRaw(raw)
	if !ok {
		return time.Time{}, false
	}
	return t.Add(-utcOffset(t)), true
}

func utcOffset(t time.Time) time.Duration {
	cutover := time.Date(t.Year(), time.March, 9, 23, 59, 59, 999_000_000, time.UTC)
	if t.After(cutover) {
		return daylightOffset
	}
	return standardOffset
}

func parseRaw(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range rawLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDisplay reads back a DisplayLayout string in loc.
func ParseDisplay(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DisplayLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
