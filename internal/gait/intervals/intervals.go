// Package intervals derives stance, swing and stride durations from
// heel-strike and toe-off sample indices.
//
// Cycle i pairs heel strike H[i] with the toe off T[i+1] that ends its stance
// and the toe off T[i] that starts the swing into H[i+1]:
//
//	stance[i] = T[i+1] - H[i]
//	swing[i]  = H[i+1] - T[i]
//	stride[i] = H[i+1] - H[i]
//
// This numbering assumes the first toe off precedes the first heel strike.
// The caller must ensure that; otherwise durations come out negative or
// meaningless.
package intervals

import (
	"gonum.org/v1/gonum/stat"
)

// Intervals holds per-cycle durations in samples.
type Intervals struct {
	Stance []int `json:"stance"`
	Swing  []int `json:"swing"`
	Stride []int `json:"stride"`
}

// Cycles returns the number of usable cycles for the given event counts:
// min(heelStrikes, toeOffs) - 1, never negative.
func Cycles(heelStrikes, toeOffs int) int {
	n := heelStrikes
	if toeOffs < n {
		n = toeOffs
	}
	if n < 1 {
		return 0
	}
	return n - 1
}

// Compute builds the per-cycle durations from heel-strike indices h and
// toe-off indices t. Unequal lengths are tolerated; extra events are unused.
func Compute(h, t []int) Intervals {
	n := Cycles(len(h), len(t))
	out := Intervals{
		Stance: make([]int, n),
		Swing:  make([]int, n),
		Stride: make([]int, n),
	}
	for i := 0; i < n; i++ {
		out.Stance[i] = t[i+1] - h[i]
		out.Swing[i] = h[i+1] - t[i]
		out.Stride[i] = h[i+1] - h[i]
	}
	return out
}

// Len returns the number of cycles.
func (iv Intervals) Len() int { return len(iv.Stride) }

// Decimate keeps every step-th cycle starting with the first. A chest sensor
// sees both legs, so step 2 keeps one side; whether that applies depends on
// the recording and it is not a default. Step < 2 returns iv unchanged.
func (iv Intervals) Decimate(step int) Intervals {
	if step < 2 {
		return iv
	}
	pick := func(in []int) []int {
		out := make([]int, 0, (len(in)+step-1)/step)
		for i := 0; i < len(in); i += step {
			out = append(out, in[i])
		}
		return out
	}
	return Intervals{Stance: pick(iv.Stance), Swing: pick(iv.Swing), Stride: pick(iv.Stride)}
}

// Seconds converts sample counts to seconds at sampling rate fs.
func (iv Intervals) Seconds(fs float64) Durations {
	conv := func(in []int) []float64 {
		out := make([]float64, len(in))
		for i, v := range in {
			out[i] = float64(v) / fs
		}
		return out
	}
	return Durations{Stance: conv(iv.Stance), Swing: conv(iv.Swing), Stride: conv(iv.Stride)}
}

// Durations holds per-cycle durations in seconds.
type Durations struct {
	Stance []float64 `json:"stance_s"`
	Swing  []float64 `json:"swing_s"`
	Stride []float64 `json:"stride_s"`
}

// Metric names one of the three interval kinds.
type Metric string

const (
	Stance Metric = "stance"
	Swing  Metric = "swing"
	Stride Metric = "stride"
)

// AllMetrics lists the interval kinds in report order.
var AllMetrics = []Metric{Stance, Swing, Stride}

// Get returns the values for metric m.
func (d Durations) Get(m Metric) []float64 {
	switch m {
	case Stance:
		return d.Stance
	case Swing:
		return d.Swing
	case Stride:
		return d.Stride
	}
	return nil
}

// Summary is the mean and sample standard deviation of one metric.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summarize returns per-metric summaries. StdDev is NaN for fewer than two
// cycles; Mean is NaN for none.
func (d Durations) Summarize() map[Metric]Summary {
	out := make(map[Metric]Summary, len(AllMetrics))
	for _, m := range AllMetrics {
		xs := d.Get(m)
		out[m] = Summary{Count: len(xs), Mean: stat.Mean(xs, nil), StdDev: stat.StdDev(xs, nil)}
	}
	return out
}
