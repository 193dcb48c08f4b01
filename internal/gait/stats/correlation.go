// Package stats compares interval metrics across sensor modalities and
// estimates study sample sizes.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrUndefinedCorrelation is returned when either sequence is constant
	// or there are fewer than two pairs.
	ErrUndefinedCorrelation = errors.New("correlation undefined")
	// ErrLengthMismatch is returned when the two sequences differ in length.
	ErrLengthMismatch = errors.New("sequences differ in length")
)

// Correlation is a Pearson coefficient with its two-sided p-value.
type Correlation struct {
	R float64 `json:"r"`
	P float64 `json:"p"`
	N int     `json:"n"`
}

// Pearson returns the Pearson correlation of x and y and the two-sided
// p-value of the test r = 0 under a Student t with n-2 degrees of freedom.
// Undefined inputs return R and P as NaN together with an error.
func Pearson(x, y []float64) (Correlation, error) {
	c := Correlation{R: math.NaN(), P: math.NaN(), N: len(x)}
	if len(x) != len(y) {
		return c, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return c, fmt.Errorf("%w: need at least 2 pairs, got %d", ErrUndefinedCorrelation, len(x))
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return c, fmt.Errorf("%w: constant input", ErrUndefinedCorrelation)
	}
	r = math.Max(-1, math.Min(1, r))
	c.R = r

	df := float64(len(x) - 2)
	switch {
	case df == 0:
		c.P = 1
	case math.Abs(r) == 1:
		c.P = 0
	default:
		t := r * math.Sqrt(df/(1-r*r))
		tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		c.P = math.Min(1, 2*tdist.CDF(-math.Abs(t)))
	}
	return c, nil
}

// PairTruncate shortens the longer sequence so both have the same length.
// Pooled per-modality intervals rarely line up exactly and are compared
// position by position.
func PairTruncate(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	return x[:n], y[:n]
}

// Strength buckets a correlation coefficient.
type Strength string

const (
	Weak     Strength = "weak"
	Moderate Strength = "moderate"
	Strong   Strength = "strong"
)

// Strength classifies R: weak up to 0.3, moderate up to 0.6, strong above.
func (c Correlation) Strength() Strength {
	switch {
	case c.R > 0.6:
		return Strong
	case c.R > 0.3:
		return Moderate
	default:
		return Weak
	}
}

// Significant reports whether P is at or below alpha.
func (c Correlation) Significant(alpha float64) bool {
	return c.P <= alpha
}
