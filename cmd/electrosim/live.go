package main

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/viz"
)

const liveWindow = 48

// liveStatus is a sim.Observer that redraws a single terminal line with the
// step count and a sparkline of recent mean kinetic energy.
type liveStatus struct {
	w      io.Writer
	steps  int
	seen   int
	t      float64
	recent []float64
	redraw rate.Sometimes
}

func newLiveStatus(w io.Writer, steps int) *liveStatus {
	return &liveStatus{
		w:      w,
		steps:  steps,
		redraw: rate.Sometimes{Interval: 200 * time.Millisecond},
	}
}

func (l *liveStatus) OnStep(bodies []dynamo.Body, t float64) {
	l.seen++
	l.t = t
	l.recent = append(l.recent, meanKinetic(bodies))
	if len(l.recent) > liveWindow {
		l.recent = l.recent[len(l.recent)-liveWindow:]
	}
	l.redraw.Do(l.draw)
}

// Done draws the final state and ends the line.
func (l *liveStatus) Done() {
	l.draw()
	fmt.Fprintln(l.w)
}

func (l *liveStatus) draw() {
	fmt.Fprintf(l.w, "\r  %s %s  %s %s  %s",
		viz.MetricLabel.Render("step"),
		viz.MetricValue.Render(fmt.Sprintf("%d/%d", l.seen, l.steps)),
		viz.MetricLabel.Render("t"),
		viz.MetricValue.Render(fmt.Sprintf("%.4f", l.t)),
		viz.SparklineChart(l.recent, liveWindow),
	)
}

func meanKinetic(bodies []dynamo.Body) float64 {
	ke, mobile := 0.0, 0
	for i := range bodies {
		b := &bodies[i]
		if b.Mass <= 0 {
			continue
		}
		ke += 0.5 * b.Mass * r2.Dot(b.Vel, b.Vel)
		mobile++
	}
	if mobile == 0 {
		return 0
	}
	return ke / float64(mobile)
}
