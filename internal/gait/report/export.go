package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/pipeline"
	"github.com/banshee-data/gait.report/internal/units"
)

// WriteIntervalsCSV writes one row per analysed cycle with stance, swing
// and stride expressed in unit.
func WriteIntervalsCSV(w io.Writer, res *pipeline.Results, unit string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subject", "modality", "cycle", "stance", "swing", "stride", "unit"}); err != nil {
		return err
	}
	format := func(samples int, fs float64) string {
		if unit == units.Samples {
			return strconv.Itoa(samples)
		}
		return strconv.FormatFloat(units.ConvertInterval(samples, fs, unit), 'f', 4, 64)
	}
	for _, sm := range res.Ordered() {
		for _, m := range []gait.Modality{gait.ChestAccel, gait.ShankGyro} {
			mm := sm.Get(m)
			if mm == nil {
				continue
			}
			iv := mm.Intervals
			for i := 0; i < iv.Len(); i++ {
				rec := []string{
					sm.Subject, string(m), strconv.Itoa(i),
					format(iv.Stance[i], mm.SamplingRate),
					format(iv.Swing[i], mm.SamplingRate),
					format(iv.Stride[i], mm.SamplingRate),
					unit,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
