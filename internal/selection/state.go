// Package selection keeps the equity chart and the trade sidebar pointed at
// the same moment. State changes go through Reduce; the Coordinator wraps it
// with the debounced scroll and the timed highlight.
package selection

import "github.com/gw/equity-ledger/internal/ledger"

// Direction is a sidebar pager step. Next moves to an older day.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// ParseDirection accepts "next"/"previous" (and "prev").
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "next":
		return Next, true
	case "previous", "prev":
		return Previous, true
	}
	return 0, false
}

// State is the shared selection. The zero value is the idle state.
type State struct {
	SelectedTime         string
	HasSelection         bool
	CurrentDayIndex      int
	HighlightedID        string
	IgnoreChartSelection bool
}

type Event interface{ event() }

// ChartPointClicked selects the chart point that closed at Time.
type ChartPointClicked struct{ Time string }

// ManualPageChanged is a press of the sidebar's next/previous day control.
type ManualPageChanged struct{ Direction Direction }

// HoverChanged is the pointer entering or leaving a holding group.
type HoverChanged struct {
	GroupID string
	Enter   bool
}

// LedgerReplaced follows a refresh that swapped the trade set.
type LedgerReplaced struct{}

// ScrollFired marks the group the debounced scroll landed on.
type ScrollFired struct{ GroupID string }

// HighlightExpired ends a scroll highlight.
type HighlightExpired struct{ GroupID string }

func (ChartPointClicked) event() {}
func (ManualPageChanged) event() {}
func (HoverChanged) event()      {}
func (LedgerReplaced) event()    {}
func (ScrollFired) event()       {}
func (HighlightExpired) event()  {}

// Reduce returns the state after ev. It has no side effects; l is the
// ledger the sidebar is currently showing and may be nil.
func Reduce(s State, ev Event, l *ledger.Ledger) State {
	switch ev := ev.(type) {
	case ChartPointClicked:
		if !s.HasSelection || ev.Time != s.SelectedTime {
			s.IgnoreChartSelection = false
		}
		s.SelectedTime, s.HasSelection = ev.Time, true
		if !s.IgnoreChartSelection {
			if i, ok := l.DayOf(ev.Time); ok {
				s.CurrentDayIndex = i
			}
		}

	case ManualPageChanged:
		s.IgnoreChartSelection = true
		s.CurrentDayIndex = clamp(s.CurrentDayIndex+int(ev.Direction), l.Len())

	case HoverChanged:
		if ev.Enter {
			s.HighlightedID = ev.GroupID
		} else if s.HighlightedID == ev.GroupID {
			s.HighlightedID = ""
		}

	case LedgerReplaced:
		s.CurrentDayIndex = clamp(s.CurrentDayIndex, l.Len())

	case ScrollFired:
		s.HighlightedID = ev.GroupID

	case HighlightExpired:
		if s.HighlightedID == ev.GroupID {
			s.HighlightedID = ""
		}
	}
	return s
}

func clamp(i, days int) int {
	if i >= days {
		i = days - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
