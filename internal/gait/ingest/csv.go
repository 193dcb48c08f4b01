// Package ingest reads per-subject sensor recordings from CSV files and
// bundles them into immutable per-subject inputs.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/units"
)

// minColumns is timestamp plus three axes.
const minColumns = 4

// ReadCSV parses a recording with columns timestamp, x, y, z. A leading
// header row is skipped when its first field is not numeric. Extra columns
// are ignored. Timestamps are converted from timeUnit to seconds.
func ReadCSV(r io.Reader, timeUnit string) (*gait.SensorSeries, error) {
	if !units.IsValidTime(timeUnit) {
		return nil, &gait.ConfigurationError{
			Field:  "timestamp_unit",
			Reason: fmt.Sprintf("%q is not one of %s", timeUnit, units.GetValidTimeUnitsString()),
		}
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		times []float64
		axes  [3][]float64
		line  int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if line == 1 && !isNumeric(rec[0]) {
			continue
		}
		if len(rec) < minColumns {
			return nil, &gait.InvalidInputError{
				Field:  "columns",
				Reason: fmt.Sprintf("line %d has %d columns, need timestamp and 3 axes", line, len(rec)),
			}
		}
		ts, err := parseField(rec[0], line, "timestamp")
		if err != nil {
			return nil, err
		}
		times = append(times, units.ToSeconds(ts, timeUnit))
		for a := 0; a < 3; a++ {
			v, err := parseField(rec[a+1], line, gait.Axis(a).String())
			if err != nil {
				return nil, err
			}
			axes[a] = append(axes[a], v)
		}
	}
	if len(times) == 0 {
		return nil, &gait.InvalidInputError{Field: "rows", Reason: "no data rows"}
	}
	return gait.NewSensorSeries(times, axes)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func parseField(s string, line int, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &gait.InvalidInputError{Field: field, Reason: fmt.Sprintf("line %d: %q is not a number", line, s)}
	}
	return v, nil
}
