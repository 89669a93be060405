package selection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gw/equity-ledger/internal/ledger"
)

const (
	DefaultScrollDelay       = 300 * time.Millisecond
	DefaultHighlightDuration = 2 * time.Second
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The real one is time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Notifier receives selection output. Calls are made without the
// coordinator's lock held.
type Notifier interface {
	SelectionChanged(State)
	ScrollTo(groupID string)
}

// slot holds at most one pending task. A task only runs if its generation
// is still current when it fires.
type slot struct {
	timer Timer
	gen   uint64
}

func (s *slot) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Coordinator owns the selection State for one dashboard.
type Coordinator struct {
	mu     sync.Mutex
	state  State
	ledger *ledger.Ledger
	pulse  string // group highlighted by the last scroll, if still shown

	sched        Scheduler
	notify       Notifier
	scrollDelay  time.Duration
	highlightFor time.Duration

	scroll slot
	clear  slot
}

type Option func(*Coordinator)

func WithScheduler(s Scheduler) Option { return func(c *Coordinator) { c.sched = s } }

func WithScrollDelay(d time.Duration) Option { return func(c *Coordinator) { c.scrollDelay = d } }

func WithHighlightDuration(d time.Duration) Option {
	return func(c *Coordinator) { c.highlightFor = d }
}

func NewCoordinator(n Notifier, opts ...Option) *Coordinator {
	c := &Coordinator{
		sched:        clock{},
		notify:       n,
		scrollDelay:  DefaultScrollDelay,
		highlightFor: DefaultHighlightDuration,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ledger returns the ledger the coordinator resolves selections against.
func (c *Coordinator) Ledger() *ledger.Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger
}

// SetLedger installs a refreshed ledger. The day index is clamped and the
// selection kept; pending tasks resolve against the new ledger when they fire.
func (c *Coordinator) SetLedger(l *ledger.Ledger) {
	c.mu.Lock()
	c.ledger = l
	out := c.apply(LedgerReplaced{})
	c.mu.Unlock()
	c.emit(out, "")
}

// ChartPointClicked selects the point that closed at t. A new selection
// restarts the scroll and highlight timers.
func (c *Coordinator) ChartPointClicked(t string) {
	c.mu.Lock()
	prev := c.state
	out := c.apply(ChartPointClicked{Time: t})
	if !prev.HasSelection || prev.SelectedTime != t {
		out = c.scrollAndHighlight(t)
	}
	c.mu.Unlock()
	c.emit(out, "")
}

func (c *Coordinator) PageChanged(d Direction) {
	c.mu.Lock()
	out := c.apply(ManualPageChanged{Direction: d})
	c.mu.Unlock()
	c.emit(out, "")
}

func (c *Coordinator) Hover(groupID string, enter bool) {
	c.mu.Lock()
	out := c.apply(HoverChanged{GroupID: groupID, Enter: enter})
	if c.pulse != "" && c.state.HighlightedID != c.pulse {
		c.pulse = ""
	}
	c.mu.Unlock()
	c.emit(out, "")
}

// Stop cancels pending tasks.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scroll.cancel()
	c.clear.cancel()
}

// apply must be called with mu held.
func (c *Coordinator) apply(ev Event) State {
	c.state = Reduce(c.state, ev, c.ledger)
	return c.state
}

// scrollAndHighlight must be called with mu held. A highlight left by an
// earlier scroll is dropped right away so only the latest selection shows.
func (c *Coordinator) scrollAndHighlight(t string) State {
	c.scroll.cancel()
	c.clear.cancel()
	if c.pulse != "" {
		c.apply(HighlightExpired{GroupID: c.pulse})
		c.pulse = ""
	}

	gen := c.scroll.gen
	c.scroll.timer = c.sched.AfterFunc(c.scrollDelay, func() { c.fireScroll(gen, t) })
	return c.state
}

func (c *Coordinator) fireScroll(gen uint64, t string) {
	c.mu.Lock()
	if gen != c.scroll.gen {
		c.mu.Unlock()
		return
	}
	c.scroll.timer = nil

	g, ok := c.ledger.GroupFor(t)
	if !ok {
		c.mu.Unlock()
		slog.Debug("scroll target not found", "time", t)
		return
	}
	out := c.apply(ScrollFired{GroupID: g.ID})
	c.pulse = g.ID

	c.clear.cancel()
	clearGen := c.clear.gen
	c.clear.timer = c.sched.AfterFunc(c.highlightFor, func() { c.fireClear(clearGen, g.ID) })
	c.mu.Unlock()

	c.emit(out, g.ID)
}

func (c *Coordinator) fireClear(gen uint64, id string) {
	c.mu.Lock()
	if gen != c.clear.gen {
		c.mu.Unlock()
		return
	}
	c.clear.timer = nil
	c.pulse = ""
	out := c.apply(HighlightExpired{GroupID: id})
	c.mu.Unlock()
	c.emit(out, "")
}

func (c *Coordinator) emit(s State, scrollTo string) {
	if c.notify == nil {
		return
	}
	if scrollTo != "" {
		c.notify.ScrollTo(scrollTo)
	}
	c.notify.SelectionChanged(s)
}
