// Package detect extracts heel-strike and toe-off events from one axis of a
// sensor series using a fixed-scale continuous wavelet transform.
//
// Heel strikes are the prominent peaks of the transform magnitude at the
// configured width; toe offs are its prominent troughs. The two sequences are
// computed independently: their counts may differ and no alternation is
// enforced.
package detect

import (
	"fmt"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/peaks"
	"github.com/banshee-data/gait.report/internal/gait/wavelet"
)

// Detector is safe for concurrent use; it holds only its configuration.
type Detector struct {
	cfg    Config
	scales []int
}

// Result is the output of one detection call.
type Result struct {
	HeelStrikes gait.EventIndexSet
	ToeOffs     gait.EventIndexSet

	// Row is the transform magnitude at the configured scale.
	Row []float64
	// Scalogram holds every scale, for plotting or choosing a new scale.
	Scalogram *wavelet.Scalogram
}

// New validates cfg and returns a Detector.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, scales: wavelet.Range(cfg.MinScale, cfg.MaxScale)}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect runs the transform over the configured axis of s. A series shorter
// than Config.MinSamples is rejected with *gait.InvalidInputError. No events
// clearing the prominence threshold yields empty sets, not an error.
func (d *Detector) Detect(s *gait.SensorSeries) (*Result, error) {
	if s == nil {
		return nil, &gait.InvalidInputError{Field: "series", Reason: "nil series"}
	}
	if need := d.cfg.MinSamples(); s.Len() < need {
		return nil, &gait.InvalidInputError{
			Field:  "series",
			Reason: fmt.Sprintf("%d samples is shorter than the %d needed for scale %d", s.Len(), need, d.cfg.MaxScale),
		}
	}

	signal := s.Axis(d.cfg.Axis)
	sg, err := wavelet.CWT(signal, d.scales, d.cfg.Omega)
	if err != nil {
		return nil, fmt.Errorf("%s transform: %w", d.cfg.Name, err)
	}
	gait.Tracef("%s: transform %d scales x %d samples", d.cfg.Name, len(d.scales), len(signal))

	row, err := sg.Row(d.cfg.Scale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.cfg.Name, err)
	}

	hs, err := gait.NewEventIndexSet(gait.HeelStrike, peaks.Find(row, d.cfg.Prominence), row)
	if err != nil {
		return nil, err
	}
	to, err := gait.NewEventIndexSet(gait.ToeOff, peaks.FindTroughs(row, d.cfg.Prominence), row)
	if err != nil {
		return nil, err
	}

	gait.Diagf("%s: axis=%s scale=%d prominence=%.2f fs=%.1fHz heel_strikes=%d toe_offs=%d",
		d.cfg.Name, d.cfg.Axis, d.cfg.Scale, d.cfg.Prominence, s.SamplingRate(), hs.Len(), to.Len())

	return &Result{HeelStrikes: hs, ToeOffs: to, Row: row, Scalogram: sg}, nil
}
