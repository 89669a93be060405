package selection

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gw/equity-ledger/internal/ledger"
	"github.com/gw/equity-ledger/internal/tradelog"
)

var base = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func sold(ticker string, at time.Time) tradelog.Trade {
	return tradelog.Trade{
		Ticker:   ticker,
		BuyAt:    at.Add(-time.Hour),
		SellAt:   at,
		BuyTime:  at.Add(-time.Hour).Format(tradelog.DisplayLayout),
		SellTime: at.Format(tradelog.DisplayLayout),
	}
}

// Two days, newest first: index 0 is Mar 11, index 1 is Mar 10.
func twoDays() (*ledger.Ledger, tradelog.Trade, tradelog.Trade) {
	day1 := sold("A", base.Add(time.Hour))
	day2 := sold("B", base.Add(25*time.Hour))
	return ledger.Paginate([]tradelog.Trade{day1, day2}), day1, day2
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward, running due timers in order. Timers
// scheduled by a callback run in the same call if they fall due.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var due []*fakeTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && t.at <= end {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = end
			s.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.f()
	}
}

type recorder struct {
	mu      sync.Mutex
	scrolls []string
	states  []State
}

func (r *recorder) SelectionChanged(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) ScrollTo(id string) {
	r.mu.Lock()
	r.scrolls = append(r.scrolls, id)
	r.mu.Unlock()
}

// highlightCount is the number of times the highlight switched to id.
func (r *recorder) highlightCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, prev := 0, ""
	for _, s := range r.states {
		if s.HighlightedID == id && prev != id {
			n++
		}
		prev = s.HighlightedID
	}
	return n
}

func newTestCoordinator(l *ledger.Ledger) (*Coordinator, *fakeScheduler, *recorder) {
	sched := &fakeScheduler{}
	rec := &recorder{}
	c := NewCoordinator(rec, WithScheduler(sched))
	c.SetLedger(l)
	return c, sched, rec
}

func TestReduceChartClickJumpsToDay(t *testing.T) {
	l, day1, _ := twoDays()

	s := Reduce(State{}, ChartPointClicked{Time: day1.SellTime}, l)
	assert.True(t, s.HasSelection)
	assert.Equal(t, day1.SellTime, s.SelectedTime)
	assert.Equal(t, 1, s.CurrentDayIndex)
	assert.False(t, s.IgnoreChartSelection)
}

func TestReduceManualPagingSuppressesStaleSelection(t *testing.T) {
	l, day1, day2 := twoDays()

	s := Reduce(State{}, ChartPointClicked{Time: day1.SellTime}, l)
	s = Reduce(s, ManualPageChanged{Direction: Previous}, l)
	require.Equal(t, 0, s.CurrentDayIndex)
	require.True(t, s.IgnoreChartSelection)

	// the same selection re-delivered must not pull the pager back
	s = Reduce(s, ChartPointClicked{Time: day1.SellTime}, l)
	assert.Equal(t, 0, s.CurrentDayIndex)
	assert.True(t, s.IgnoreChartSelection)

	s = Reduce(s, ChartPointClicked{Time: day2.SellTime}, l)
	assert.False(t, s.IgnoreChartSelection)
	assert.Equal(t, 0, s.CurrentDayIndex)

	s = Reduce(s, ChartPointClicked{Time: day1.SellTime}, l)
	assert.Equal(t, 1, s.CurrentDayIndex)
}

func TestReducePagerClamps(t *testing.T) {
	l, _, _ := twoDays()

	s := Reduce(State{}, ManualPageChanged{Direction: Previous}, l)
	assert.Equal(t, 0, s.CurrentDayIndex)
	s = Reduce(s, ManualPageChanged{Direction: Next}, l)
	s = Reduce(s, ManualPageChanged{Direction: Next}, l)
	s = Reduce(s, ManualPageChanged{Direction: Next}, l)
	assert.Equal(t, 1, s.CurrentDayIndex)

	s = Reduce(s, ManualPageChanged{Direction: Next}, nil)
	assert.Equal(t, 0, s.CurrentDayIndex)
}

func TestReduceLedgerReplacedClamps(t *testing.T) {
	l, day1, _ := twoDays()
	s := Reduce(State{}, ChartPointClicked{Time: day1.SellTime}, l)
	require.Equal(t, 1, s.CurrentDayIndex)

	smaller := ledger.Paginate([]tradelog.Trade{day1})
	s = Reduce(s, LedgerReplaced{}, smaller)
	assert.Equal(t, 0, s.CurrentDayIndex)
	assert.Equal(t, day1.SellTime, s.SelectedTime)
}

func TestReduceHover(t *testing.T) {
	s := Reduce(State{}, HoverChanged{GroupID: "g1", Enter: true}, nil)
	assert.Equal(t, "g1", s.HighlightedID)
	s = Reduce(s, HoverChanged{GroupID: "g2", Enter: false}, nil)
	assert.Equal(t, "g1", s.HighlightedID)
	s = Reduce(s, HoverChanged{GroupID: "g1", Enter: false}, nil)
	assert.Empty(t, s.HighlightedID)
}

func TestCoordinatorScrollThenClear(t *testing.T) {
	l, day1, _ := twoDays()
	c, sched, rec := newTestCoordinator(l)
	group, ok := l.GroupFor(day1.SellTime)
	require.True(t, ok)

	c.ChartPointClicked(day1.SellTime)
	assert.Equal(t, 1, c.State().CurrentDayIndex)
	assert.Empty(t, c.State().HighlightedID)

	sched.Advance(DefaultScrollDelay - time.Millisecond)
	assert.Empty(t, rec.scrolls)

	sched.Advance(time.Millisecond)
	assert.Equal(t, []string{group.ID}, rec.scrolls)
	assert.Equal(t, group.ID, c.State().HighlightedID)

	sched.Advance(DefaultHighlightDuration)
	assert.Empty(t, c.State().HighlightedID)
}

func TestCoordinatorRestartsOnNewSelection(t *testing.T) {
	l, day1, day2 := twoDays()
	c, sched, rec := newTestCoordinator(l)
	g1, _ := l.GroupFor(day1.SellTime)
	g2, _ := l.GroupFor(day2.SellTime)

	c.ChartPointClicked(day1.SellTime)
	sched.Advance(100 * time.Millisecond)
	c.ChartPointClicked(day2.SellTime)
	sched.Advance(10 * time.Second)

	assert.Equal(t, []string{g2.ID}, rec.scrolls)
	assert.Equal(t, 0, rec.highlightCount(g1.ID))
	assert.Equal(t, 1, rec.highlightCount(g2.ID))
	assert.Empty(t, c.State().HighlightedID)

	var clears int
	for _, tm := range sched.timers {
		if tm.fired && tm.at == 100*time.Millisecond+DefaultScrollDelay+DefaultHighlightDuration {
			clears++
		}
	}
	assert.Equal(t, 1, clears)
}

func TestCoordinatorNewSelectionDropsEarlierHighlight(t *testing.T) {
	l, day1, day2 := twoDays()
	c, sched, _ := newTestCoordinator(l)
	g2, _ := l.GroupFor(day2.SellTime)

	c.ChartPointClicked(day1.SellTime)
	sched.Advance(DefaultScrollDelay)
	require.NotEmpty(t, c.State().HighlightedID)

	c.ChartPointClicked(day2.SellTime)
	assert.Empty(t, c.State().HighlightedID)

	sched.Advance(DefaultScrollDelay)
	assert.Equal(t, g2.ID, c.State().HighlightedID)
}

func TestCoordinatorSameSelectionDoesNotRescroll(t *testing.T) {
	l, day1, _ := twoDays()
	c, sched, rec := newTestCoordinator(l)

	c.ChartPointClicked(day1.SellTime)
	sched.Advance(time.Second)
	c.ChartPointClicked(day1.SellTime)
	sched.Advance(time.Second)

	assert.Len(t, rec.scrolls, 1)
}

func TestCoordinatorScrollMissIsNoop(t *testing.T) {
	l, _, _ := twoDays()
	c, sched, rec := newTestCoordinator(l)

	c.ChartPointClicked(tradelog.StartLabel)
	sched.Advance(10 * time.Second)

	assert.Empty(t, rec.scrolls)
	assert.Empty(t, c.State().HighlightedID)
	assert.Equal(t, 0, c.State().CurrentDayIndex)
}

func TestCoordinatorHoverOverridesPulse(t *testing.T) {
	l, day1, _ := twoDays()
	c, sched, _ := newTestCoordinator(l)

	c.ChartPointClicked(day1.SellTime)
	sched.Advance(DefaultScrollDelay)
	c.Hover("other", true)
	assert.Equal(t, "other", c.State().HighlightedID)

	sched.Advance(DefaultHighlightDuration)
	assert.Equal(t, "other", c.State().HighlightedID, "expiry only clears its own highlight")

	c.Hover("other", false)
	assert.Empty(t, c.State().HighlightedID)
}

func TestCoordinatorManualPagingScenario(t *testing.T) {
	l, day1, day2 := twoDays()
	c, _, _ := newTestCoordinator(l)

	c.ChartPointClicked(day1.SellTime)
	c.PageChanged(Previous)
	assert.Equal(t, 0, c.State().CurrentDayIndex)

	c.ChartPointClicked(day1.SellTime)
	assert.Equal(t, 0, c.State().CurrentDayIndex)

	c.ChartPointClicked(day2.SellTime)
	c.ChartPointClicked(day1.SellTime)
	assert.Equal(t, 1, c.State().CurrentDayIndex)
}

func TestCoordinatorStopCancelsPending(t *testing.T) {
	l, day1, _ := twoDays()
	c, sched, rec := newTestCoordinator(l)

	c.ChartPointClicked(day1.SellTime)
	c.Stop()
	sched.Advance(10 * time.Second)
	assert.Empty(t, rec.scrolls)
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("next")
	assert.True(t, ok)
	assert.Equal(t, Next, d)
	d, ok = ParseDirection("previous")
	assert.True(t, ok)
	assert.Equal(t, Previous, d)
	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}

func TestReduceUnknownTimeKeepsDay(t *testing.T) {
	l, _, _ := twoDays()
	s := Reduce(State{}, ManualPageChanged{Direction: Next}, l)
	require.Equal(t, 1, s.CurrentDayIndex)

	s = Reduce(s, ChartPointClicked{Time: "1/1/1999, 9:00 AM"}, l)
	assert.Equal(t, 1, s.CurrentDayIndex)
	assert.True(t, s.HasSelection)
	assert.False(t, s.IgnoreChartSelection)
}
