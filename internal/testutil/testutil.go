// Package testutil provides shared test fixtures: synthetic gait signals,
// sensor series built from them, and CSV recordings in the on-disk layout.
package testutil

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/gait.report/internal/gait"
)

// MorletBumps returns n samples holding a real Morlet bump
// amplitude*cos(5x)*exp(-x^2/2), x = (i-c)/width, at each centre c.
func MorletBumps(n int, centres []int, width, amplitude float64) []float64 {
	x := make([]float64, n)
	for _, c := range centres {
		for i := range x {
			u := (float64(i) - float64(c)) / width
			if math.Abs(u) > 8 {
				continue
			}
			x[i] += amplitude * math.Cos(5*u) * math.Exp(-0.5*u*u)
		}
	}
	return x
}

// EvenlySpaced returns count positions starting at first, step apart.
func EvenlySpaced(first, step, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = first + i*step
	}
	return out
}

// Series builds a series sampled at fs with signal on axis and zeros on the
// other two axes. It fails the test on error.
func Series(t testing.TB, signal []float64, axis gait.Axis, fs float64) *gait.SensorSeries {
	t.Helper()
	times := make([]float64, len(signal))
	for i := range times {
		times[i] = float64(i) / fs
	}
	var axes [3][]float64
	for a := range axes {
		if gait.Axis(a) == axis {
			axes[a] = signal
		} else {
			axes[a] = make([]float64, len(signal))
		}
	}
	s, err := gait.NewSensorSeries(times, axes)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

// CSV renders a recording with a header row in the layout the loader reads:
// timestamp followed by three axis columns. Timestamps are written as
// i/fs multiplied by tsScale (1 for seconds, 1e6 for microseconds).
func CSV(signal []float64, axis gait.Axis, fs, tsScale float64) string {
	var b strings.Builder
	b.WriteString("time,x,y,z\n")
	for i, v := range signal {
		row := [3]float64{}
		row[axis] = v
		fmt.Fprintf(&b, "%.6f,%.9f,%.9f,%.9f\n", float64(i)/fs*tsScale, row[0], row[1], row[2])
	}
	return b.String()
}
