// Package report renders analysis results as text, PNG plots and an HTML
// chart page.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/intervals"
	"github.com/banshee-data/gait.report/internal/gait/pipeline"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// WriteText writes the strength and significance sentences for each
// comparison followed by the per-group sample size, rounded half away from
// zero. A NaN sample size omits that line.
func WriteText(w io.Writer, comparisons []pipeline.Comparison, sampleSize, alpha float64) error {
	ew := &errWriter{w: w}
	for _, c := range comparisons {
		if c.Err != nil {
			ew.printf("The correlation for %s is undefined: %v.\n", c.Metric, c.Err)
			continue
		}
		ew.printf("There is a %s correlation for %s between accelerometer and gyroscope data, with a correlation coefficient of %v.\n",
			c.Correlation.Strength(), c.Metric, c.Correlation.R)
		if c.Correlation.Significant(alpha) {
			ew.printf("There is statistically significant correlation of %s times between gyroscope and accelerometer data (p-value = %v).\n",
				c.Metric, c.Correlation.P)
		} else {
			ew.printf("There is no statistically significant correlation for %s.\n", c.Metric)
		}
	}
	if !math.IsNaN(sampleSize) {
		ew.printf("The sample size needed for each group is %d\n", int(math.Round(sampleSize)))
	}
	return ew.err
}

// WriteSummary writes one row per analysed subject and modality with event
// counts and mean interval durations in seconds, then the failed subjects.
func WriteSummary(w io.Writer, res *pipeline.Results) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	ew := &errWriter{w: tw}
	ew.printf("subject\tmodality\tfs (Hz)\tHS\tTO\tcycles\tstance (s)\tswing (s)\tstride (s)\n")
	for _, sm := range res.Ordered() {
		for _, m := range []gait.Modality{gait.ChestAccel, gait.ShankGyro} {
			mm := sm.Get(m)
			if mm == nil {
				continue
			}
			ew.printf("%s\t%s\t%.1f\t%d\t%d\t%d", sm.Subject, m, mm.SamplingRate,
				mm.HeelStrikes.Len(), mm.ToeOffs.Len(), mm.Intervals.Len())
			for _, metric := range intervals.AllMetrics {
				ew.printf("\t%s", formatSummary(mm.Summary[metric]))
			}
			ew.printf("\n")
		}
	}
	if ew.err == nil {
		ew.err = tw.Flush()
	}
	ew.w = w
	for _, id := range res.FailedIDs() {
		ew.printf("failed %s: %v\n", id, res.Failed[id])
	}
	return ew.err
}

func formatSummary(s intervals.Summary) string {
	switch {
	case s.Count == 0:
		return "-"
	case math.IsNaN(s.StdDev):
		return fmt.Sprintf("%.3f", s.Mean)
	default:
		return fmt.Sprintf("%.3f ± %.3f", s.Mean, s.StdDev)
	}
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
