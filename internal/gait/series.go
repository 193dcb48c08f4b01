package gait

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample is one row of a recording.
type Sample struct {
	Time   float64
	Values [3]float64
}

// SensorSeries is an immutable, uniformly sampled three-axis recording.
// Timestamps are in seconds and strictly increasing.
type SensorSeries struct {
	times []float64
	axes  [3][]float64
}

// NewSensorSeries validates and copies the supplied columns.
func NewSensorSeries(times []float64, axes [3][]float64) (*SensorSeries, error) {
	n := len(times)
	if n < 2 {
		return nil, invalidInput("timestamp", "need at least 2 samples, got %d", n)
	}
	for a, col := range axes {
		if len(col) != n {
			return nil, invalidInput(Axis(a).String(), "column has %d samples, timestamp has %d", len(col), n)
		}
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, invalidInput("timestamp", "non-finite value at row %d", i)
		}
		if i > 0 && t <= times[i-1] {
			return nil, invalidInput("timestamp", "not strictly increasing at row %d (%g after %g)", i, t, times[i-1])
		}
	}
	s := &SensorSeries{times: append([]float64(nil), times...)}
	for a, col := range axes {
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalidInput(Axis(a).String(), "non-finite value at row %d", i)
			}
		}
		s.axes[a] = append([]float64(nil), col...)
	}
	return s, nil
}

// Len returns the number of samples.
func (s *SensorSeries) Len() int { return len(s.times) }

// At returns row i. It panics if i is out of range.
func (s *SensorSeries) At(i int) Sample {
	return Sample{Time: s.times[i], Values: [3]float64{s.axes[0][i], s.axes[1][i], s.axes[2][i]}}
}

// Times returns a copy of the timestamps in seconds.
func (s *SensorSeries) Times() []float64 {
	return append([]float64(nil), s.times...)
}

// Axis returns a copy of one axis column.
func (s *SensorSeries) Axis(a Axis) []float64 {
	if !a.Valid() {
		return nil
	}
	return append([]float64(nil), s.axes[a]...)
}

// SamplingRate infers the sampling frequency in Hz from the mean timestamp
// delta.
func (s *SensorSeries) SamplingRate() float64 {
	diffs := make([]float64, len(s.times)-1)
	floats.SubTo(diffs, s.times[1:], s.times[:len(s.times)-1])
	dt := stat.Mean(diffs, nil)
	if dt <= 0 {
		return 0
	}
	return 1 / dt
}

// Duration returns the time spanned by the series in seconds.
func (s *SensorSeries) Duration() float64 {
	return s.times[len(s.times)-1] - s.times[0]
}

// Crop returns the rows in [start, stop), clamped to the series bounds.
// Cropping to fewer than two rows is an InvalidInputError.
func (s *SensorSeries) Crop(start, stop int) (*SensorSeries, error) {
	if start < 0 {
		start = 0
	}
	if stop > len(s.times) {
		stop = len(s.times)
	}
	if stop-start < 2 {
		return nil, invalidInput("crop", "window [%d, %d) of %d samples leaves fewer than 2 rows", start, stop, len(s.times))
	}
	out := &SensorSeries{times: append([]float64(nil), s.times[start:stop]...)}
	for a := range s.axes {
		out.axes[a] = append([]float64(nil), s.axes[a][start:stop]...)
	}
	return out, nil
}
