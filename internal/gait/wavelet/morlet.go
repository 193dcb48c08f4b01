// Package wavelet computes the continuous wavelet transform of a sampled
// signal with a complex Morlet mother wavelet and exposes the magnitude
// scalogram as a matrix indexed by (scale, sample).
package wavelet

import (
	"math"
	"math/cmplx"
)

// DefaultOmega is the Morlet centre frequency w.
const DefaultOmega = 5.0

// SupportFactor bounds the wavelet length: a width s uses min(SupportFactor*s, n) points.
const SupportFactor = 10

// Morlet2 returns m points of the complex Morlet wavelet of width s:
//
//	x = (i - (m-1)/2) / s
//	psi(x) = sqrt(1/s) * pi^(-1/4) * exp(i*w*x) * exp(-x^2/2)
func Morlet2(m int, s, w float64) []complex128 {
	if m <= 0 {
		return nil
	}
	out := make([]complex128, m)
	norm := math.Sqrt(1/s) * math.Pow(math.Pi, -0.25)
	half := float64(m-1) / 2
	for i := range out {
		x := (float64(i) - half) / s
		out[i] = complex(norm*math.Exp(-0.5*x*x), 0) * cmplx.Exp(complex(0, w*x))
	}
	return out
}

// WaveletLength returns the number of wavelet points used for width s over
// a signal of n samples.
func WaveletLength(s, n int) int {
	m := SupportFactor * s
	if m > n {
		m = n
	}
	return m
}

// MinSamples is the shortest signal for which the widest wavelet fits
// entirely inside it. Shorter inputs are rejected by the detector rather
// than analysed with a truncated kernel.
func MinSamples(maxScale int) int {
	return SupportFactor * maxScale
}
