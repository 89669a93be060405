// Package collector runs the refresh loop: fetch the trade log, rebuild
// every derived view and publish the result as one immutable Snapshot.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gw/equity-ledger/internal/feed"
	"github.com/gw/equity-ledger/internal/ledger"
	"github.com/gw/equity-ledger/internal/trace"
	"github.com/gw/equity-ledger/internal/tradelog"
)

// Snapshot is everything derived from one fetch of the trade log.
// Nothing in it is modified after publication.
type Snapshot struct {
	Result    tradelog.Result
	Summary   tradelog.Summary
	Chart     []ledger.ChartPoint
	Ledger    *ledger.Ledger
	FetchedAt time.Time
	Rows      int
}

// SubscriberFunc is called after each published snapshot, in
// registration order, on the refresh goroutine.
type SubscriberFunc func(ctx context.Context, s *Snapshot)

type Collector struct {
	src      feed.Source
	interval time.Duration
	initial  float64
	ref      *time.Location

	snap     atomic.Pointer[Snapshot]
	lastData []byte
	cycles   atomic.Int64
	failures atomic.Int64

	mu   sync.Mutex
	subs []SubscriberFunc
}

func New(src feed.Source, interval time.Duration, initial float64) *Collector {
	return &Collector{
		src:      src,
		interval: interval,
		initial:  initial,
		ref:      time.UTC,
	}
}

// Subscribe registers fn for future snapshots. If one is already
// published fn is not called for it.
func (c *Collector) Subscribe(fn SubscriberFunc) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Snapshot returns the latest published snapshot, or nil before the first
// successful refresh.
func (c *Collector) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Stats returns the number of refresh cycles run and how many failed.
func (c *Collector) Stats() (cycles, failures int64) {
	return c.cycles.Load(), c.failures.Load()
}

// Run refreshes immediately and then every interval until ctx is done.
// A tick that arrives while a cycle is still running is dropped.
func (c *Collector) Run(ctx context.Context) error {
	c.tick(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Collector) tick(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("refresh failed, keeping previous snapshot", "err", err)
	}
}

// Refresh runs one cycle. On error the previous snapshot stays current.
func (c *Collector) Refresh(ctx context.Context) error {
	c.cycles.Add(1)
	ctx, span := trace.StartSpan(ctx, "refresh")
	defer span.End()

	data, err := c.src.Fetch(ctx)
	if err != nil {
		c.failures.Add(1)
		span.RecordError(err)
		return err
	}
	if c.snap.Load() != nil && bytes.Equal(data, c.lastData) {
		slog.Debug("trade log unchanged", trace.LogAttrs(ctx)...)
		return nil
	}

	snap, err := c.build(ctx, data)
	if err != nil {
		c.failures.Add(1)
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		attribute.Int("rows", snap.Rows),
		attribute.Int("days", snap.Ledger.Len()),
	)

	c.lastData = data
	c.snap.Store(snap)
	slog.Debug("published snapshot", append([]any{
		"trades", len(snap.Result.Trades),
		"days", snap.Ledger.Len(),
		"portfolio", snap.Summary.FinalPortfolio,
	}, trace.LogAttrs(ctx)...)...)

	c.mu.Lock()
	subs := append([]SubscriberFunc(nil), c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(ctx, snap)
	}
	return nil
}

func (c *Collector) build(ctx context.Context, data []byte) (*Snapshot, error) {
	_, span := trace.StartSpan(ctx, "build")
	defer span.End()

	raw, err := tradelog.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	rows := tradelog.NormalizeAll(raw)
	if i := tradelog.CheckChronological(rows); i >= 0 {
		slog.Warn("trade log not in chronological order", "row", i, "sell_time", rows[i].SellTime)
	}

	res := tradelog.SimulateFrom(c.initial, rows)
	return &Snapshot{
		Result:    res,
		Summary:   tradelog.Summarize(res),
		Chart:     ledger.AggregateByDay(res.History, c.ref),
		Ledger:    ledger.Paginate(res.Trades),
		FetchedAt: time.Now(),
		Rows:      len(raw),
	}, nil
}
