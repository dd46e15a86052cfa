package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
)

func TestLiveStatusDrawsProgress(t *testing.T) {
	var buf bytes.Buffer
	l := newLiveStatus(&buf, 5)
	bodies := []dynamo.Body{
		{Vel: r2.Vec{X: 2}, Mass: 1},
		{Vel: r2.Vec{X: 9}, Mass: 0},
	}

	for i := 0; i < 5; i++ {
		l.OnStep(bodies, float64(i)*0.1)
	}
	l.Done()

	out := buf.String()
	assert.Contains(t, out, "1/5", "first step draws immediately")
	assert.Contains(t, out, "5/5")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Len(t, l.recent, 5)
}

func TestLiveStatusWindow(t *testing.T) {
	l := newLiveStatus(&bytes.Buffer{}, 200)
	for i := 0; i < 200; i++ {
		l.OnStep(nil, 0)
	}
	assert.Len(t, l.recent, liveWindow)
}

func TestMeanKineticSkipsFixedBodies(t *testing.T) {
	bodies := []dynamo.Body{
		{Vel: r2.Vec{X: 2}, Mass: 1},
		{Vel: r2.Vec{Y: 1}, Mass: 4},
		{Vel: r2.Vec{X: 100}, Mass: 0},
	}
	assert.InDelta(t, 2.0, meanKinetic(bodies), 1e-12)
	assert.Zero(t, meanKinetic(nil))
}
