package view

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gw/equity-ledger/internal/ledger"
)

// ErrTooFewPoints is returned when fewer than two finite points remain.
var ErrTooFewPoints = errors.New("need at least 2 chart points")

// RenderChart draws the aggregated equity curve as a PNG. The point whose
// time equals selected, if any, is annotated. Non-finite points are skipped.
func RenderChart(points []ledger.ChartPoint, selected string) ([]byte, error) {
	var (
		xs    []float64
		ys    []float64
		ticks []chart.Tick
		marks []chart.Value2
	)
	for _, p := range points {
		if !finite(p.Value) {
			continue
		}
		x := float64(len(xs))
		xs = append(xs, x)
		ys = append(ys, p.Value)
		ticks = append(ticks, chart.Tick{Value: x, Label: p.Label})
		if selected != "" && p.Time == selected {
			marks = append(marks, chart.Value2{XValue: x, YValue: p.Value, Label: Money(p.Value)})
		}
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewPoints, len(xs))
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: "Portfolio Value",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("4bc0c0"),
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		},
	}
	if len(marks) > 0 {
		series = append(series, chart.AnnotationSeries{Annotations: marks})
	}

	graph := chart.Chart{
		Title:  "Portfolio Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0fk", f/1000)
				}
				return ""
			},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
