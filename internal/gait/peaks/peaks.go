// Package peaks finds local maxima in a sampled signal and filters them by
// topographic prominence.
package peaks

// LocalMaxima returns the indices of strict local maxima of x in increasing
// order. A flat top counts once, at the (lower) middle of the plateau. The
// first and last samples are never maxima.
func LocalMaxima(x []float64) []int {
	var out []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				left, right := i, ahead-1
				out = append(out, (left+right)/2)
				i = ahead
			}
		}
		i++
	}
	return out
}

// Prominences returns the prominence of each peak: its height above the
// higher of the two lowest points reached when walking outwards from the
// peak until a strictly higher sample or the signal edge.
func Prominences(x []float64, peaks []int) []float64 {
	out := make([]float64, len(peaks))
	for k, p := range peaks {
		height := x[p]

		leftMin := height
		for i := p; i >= 0 && x[i] <= height; i-- {
			if x[i] < leftMin {
				leftMin = x[i]
			}
		}

		rightMin := height
		for i := p; i < len(x) && x[i] <= height; i++ {
			if x[i] < rightMin {
				rightMin = x[i]
			}
		}

		base := leftMin
		if rightMin > base {
			base = rightMin
		}
		out[k] = height - base
	}
	return out
}

// Find returns the local maxima of x whose prominence is at least
// minProminence.
func Find(x []float64, minProminence float64) []int {
	candidates := LocalMaxima(x)
	if len(candidates) == 0 {
		return nil
	}
	prom := Prominences(x, candidates)
	var out []int
	for i, p := range candidates {
		if prom[i] >= minProminence {
			out = append(out, p)
		}
	}
	return out
}

// FindTroughs returns the local minima of x with at least minProminence,
// found as the peaks of the negated signal.
func FindTroughs(x []float64, minProminence float64) []int {
	neg := make([]float64, len(x))
	for i, v := range x {
		neg[i] = -v
	}
	return Find(neg, minProminence)
}
