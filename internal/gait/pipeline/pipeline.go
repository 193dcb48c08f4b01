// Package pipeline runs gait event detection and interval extraction over a
// catalog of subjects and compares the results across sensor modalities.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/detect"
	"github.com/banshee-data/gait.report/internal/gait/ingest"
	"github.com/banshee-data/gait.report/internal/gait/intervals"
	"github.com/banshee-data/gait.report/internal/gait/stats"
	"golang.org/x/sync/errgroup"
)

// ModalityMetrics is the detection output and derived intervals for one
// sensor of one subject.
type ModalityMetrics struct {
	Modality     gait.Modality                          `json:"modality"`
	SamplingRate float64                                `json:"sampling_rate_hz"`
	HeelStrikes  gait.EventIndexSet                     `json:"heel_strikes"`
	ToeOffs      gait.EventIndexSet                     `json:"toe_offs"`
	Intervals    intervals.Intervals                    `json:"intervals"`
	Durations    intervals.Durations                    `json:"durations"`
	Summary      map[intervals.Metric]intervals.Summary `json:"summary"`

	// Detection keeps the scalogram for plotting; nil unless requested.
	Detection *detect.Result `json:"-"`
}

// SubjectMetrics is the named per-subject record.
type SubjectMetrics struct {
	Subject    string           `json:"subject"`
	ChestAccel *ModalityMetrics `json:"chest_accel"`
	ShankGyro  *ModalityMetrics `json:"shank_gyro"`
}

// Get returns the metrics for a modality, or nil.
func (s *SubjectMetrics) Get(m gait.Modality) *ModalityMetrics {
	switch m {
	case gait.ChestAccel:
		return s.ChestAccel
	case gait.ShankGyro:
		return s.ShankGyro
	}
	return nil
}

// Analyzer holds one detector per analysed sensor and the per-modality
// cycle decimation (1 keeps every cycle).
type Analyzer struct {
	Chest *detect.Detector
	Shank *detect.Detector

	AccelDecimation int
	GyroDecimation  int

	// KeepDetections retains each detect.Result for plotting.
	KeepDetections bool
}

// NewAnalyzer builds an analyzer with the default chest and shank detectors.
func NewAnalyzer() (*Analyzer, error) {
	chest, err := detect.New(detect.ChestAccelConfig())
	if err != nil {
		return nil, err
	}
	shank, err := detect.New(detect.ShankGyroConfig())
	if err != nil {
		return nil, err
	}
	return &Analyzer{Chest: chest, Shank: shank, AccelDecimation: 1, GyroDecimation: 1}, nil
}

// AnalyzeSubject detects events in the chest accelerometer and shank
// gyroscope recordings of b and derives their intervals.
func (a *Analyzer) AnalyzeSubject(b *ingest.Bundle) (*SubjectMetrics, error) {
	chest, err := a.analyze(b, gait.ChestAccel, a.Chest, a.AccelDecimation)
	if err != nil {
		return nil, err
	}
	gyro, err := a.analyze(b, gait.ShankGyro, a.Shank, a.GyroDecimation)
	if err != nil {
		return nil, err
	}
	return &SubjectMetrics{Subject: b.SubjectID(), ChestAccel: chest, ShankGyro: gyro}, nil
}

func (a *Analyzer) analyze(b *ingest.Bundle, m gait.Modality, d *detect.Detector, decimation int) (*ModalityMetrics, error) {
	s, ok := b.Series(m)
	if !ok {
		return nil, &gait.InvalidInputError{Field: string(m), Reason: "recording missing for " + b.SubjectID()}
	}
	res, err := d.Detect(s)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", b.SubjectID(), m, err)
	}

	fs := b.Rate(m)
	iv := intervals.Compute(res.HeelStrikes.Indices(), res.ToeOffs.Indices()).Decimate(decimation)
	dur := iv.Seconds(fs)

	mm := &ModalityMetrics{
		Modality:     m,
		SamplingRate: fs,
		HeelStrikes:  res.HeelStrikes,
		ToeOffs:      res.ToeOffs,
		Intervals:    iv,
		Durations:    dur,
		Summary:      dur.Summarize(),
	}
	if a.KeepDetections {
		mm.Detection = res
	}
	return mm, nil
}

// Results collects per-subject metrics and failures from one run.
type Results struct {
	Subjects map[string]*SubjectMetrics
	Failed   map[string]error
	order    []int
}

// Ordered returns the successful subjects in subject-number order.
func (r *Results) Ordered() []*SubjectMetrics {
	var out []*SubjectMetrics
	for _, n := range r.order {
		if m, ok := r.Subjects[ingest.SubjectID(n)]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Run analyses every bundle in the catalog with at most workers subjects in
// flight. A subject that fails is recorded in Results.Failed; the others
// still run. Subjects that failed to load are carried over from the catalog.
func (a *Analyzer) Run(ctx context.Context, c *ingest.Catalog, workers int) (*Results, error) {
	if workers < 1 {
		workers = 1
	}
	res := &Results{
		Subjects: make(map[string]*SubjectMetrics),
		Failed:   make(map[string]error),
	}
	for id, err := range c.Failed {
		res.Failed[id] = err
	}

	bundles := c.Bundles()
	for _, b := range bundles {
		res.order = append(res.order, b.Subject)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, b := range bundles {
		b := b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := a.AnalyzeSubject(b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				gait.Opsf("analyse %s: %v", b.SubjectID(), err)
				res.Failed[b.SubjectID()] = err
				return nil
			}
			res.Subjects[b.SubjectID()] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	gait.Diagf("analysed %d subjects, %d failed", len(res.Subjects), len(res.Failed))
	return res, nil
}

// Pooled concatenates one metric across subjects, in subject order.
func (r *Results) Pooled(m gait.Modality, metric intervals.Metric) []float64 {
	var out []float64
	for _, s := range r.Ordered() {
		if mm := s.Get(m); mm != nil {
			out = append(out, mm.Durations.Get(metric)...)
		}
	}
	return out
}

// Comparison is the cross-modality correlation of one interval metric.
type Comparison struct {
	Metric      intervals.Metric  `json:"metric"`
	Correlation stats.Correlation `json:"correlation"`
	// Gyro and Accel are the paired values after truncation.
	Gyro  []float64 `json:"gyro"`
	Accel []float64 `json:"accel"`
	Err   error     `json:"-"`
}

// Correlate compares pooled shank gyroscope and chest accelerometer
// intervals for each metric. Undefined correlations are reported in
// Comparison.Err rather than failing the whole comparison.
func (r *Results) Correlate() []Comparison {
	out := make([]Comparison, 0, len(intervals.AllMetrics))
	for _, metric := range intervals.AllMetrics {
		gyro, accel := stats.PairTruncate(r.Pooled(gait.ShankGyro, metric), r.Pooled(gait.ChestAccel, metric))
		c, err := stats.Pearson(gyro, accel)
		out = append(out, Comparison{Metric: metric, Correlation: c, Gyro: gyro, Accel: accel, Err: err})
	}
	return out
}

// FailedIDs returns the failed subject identifiers sorted.
func (r *Results) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
