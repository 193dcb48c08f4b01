package wavelet

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Scalogram is the magnitude of a continuous wavelet transform: one row per
// scale, one column per input sample. It is computed per call and never
// modified after construction.
type Scalogram struct {
	scales []int
	data   *mat.Dense
}

// Scales returns the wavelet widths, one per row.
func (s *Scalogram) Scales() []int {
	return append([]int(nil), s.scales...)
}

// Dims returns the number of scales and samples.
func (s *Scalogram) Dims() (scales, samples int) {
	return s.data.Dims()
}

// Matrix exposes the coefficients for inspection or plotting.
func (s *Scalogram) Matrix() mat.Matrix {
	return s.data
}

// At returns the magnitude at (scale row, sample).
func (s *Scalogram) At(row, sample int) float64 {
	return s.data.At(row, sample)
}

// Row returns a copy of the magnitudes for the given wavelet width.
func (s *Scalogram) Row(scale int) ([]float64, error) {
	for i, sc := range s.scales {
		if sc == scale {
			return append([]float64(nil), s.data.RawRowView(i)...), nil
		}
	}
	return nil, fmt.Errorf("scale %d not in transform (have %d..%d)", scale, s.scales[0], s.scales[len(s.scales)-1])
}

// Range returns the integer widths lo..hi inclusive.
func Range(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for s := lo; s <= hi; s++ {
		out = append(out, s)
	}
	return out
}

// CWT convolves signal with the time-reversed conjugate Morlet wavelet at
// each width in scales and stores the magnitude. The convolution is the
// centred "same" window of the full linear convolution, computed in the
// frequency domain over a single padded length shared by all scales.
//
// Near either end of the signal the wavelet overhangs the data and the
// coefficients are attenuated (the usual cone of influence); callers that
// need clean edges must pass longer input than the window they analyse.
func CWT(signal []float64, scales []int, omega float64) (*Scalogram, error) {
	n := len(signal)
	if n == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if len(scales) == 0 {
		return nil, fmt.Errorf("no scales")
	}
	maxM := 0
	for _, s := range scales {
		if s < 1 {
			return nil, fmt.Errorf("scale %d must be >= 1", s)
		}
		if m := WaveletLength(s, n); m > maxM {
			maxM = m
		}
	}

	size := n + maxM - 1
	fft := fourier.NewCmplxFFT(size)

	padded := make([]complex128, size)
	for i, v := range signal {
		padded[i] = complex(v, 0)
	}
	spectrum := fft.Coefficients(nil, padded)

	out := mat.NewDense(len(scales), n, nil)
	kernel := make([]complex128, size)
	product := make([]complex128, size)
	seq := make([]complex128, size)
	scale := complex(1/float64(size), 0)

	for row, s := range scales {
		m := WaveletLength(s, n)
		w := Morlet2(m, float64(s), omega)
		for i := range kernel {
			kernel[i] = 0
		}
		for j := 0; j < m; j++ {
			kernel[j] = cmplx.Conj(w[m-1-j])
		}
		kc := fft.Coefficients(nil, kernel)
		for i := range product {
			product[i] = spectrum[i] * kc[i]
		}
		fft.Sequence(seq, product)

		offset := (m - 1) / 2
		dst := out.RawRowView(row)
		for i := 0; i < n; i++ {
			dst[i] = cmplx.Abs(seq[i+offset] * scale)
		}
	}

	return &Scalogram{scales: append([]int(nil), scales...), data: out}, nil
}
