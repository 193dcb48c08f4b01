package ingest

import (
	"fmt"
	"io/fs"
	"math"
	"strings"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/units"
)

// DefaultPattern locates a recording: subject number then data type.
const DefaultPattern = "s%d_%s.csv"

// Loader reads subject recordings from a directory tree.
type Loader struct {
	FS      fs.FS
	Pattern string

	DataTypes []gait.Modality
	// TimeUnits gives the timestamp unit per data type; missing entries are seconds.
	TimeUnits map[gait.Modality]string

	// SamplingRate is used to convert the crop window to rows. Zero means
	// infer it from each recording's mean timestamp delta.
	SamplingRate float64
	// CropStart and CropStop bound the analysed window in seconds from the
	// first row. CropStop <= 0 keeps everything after CropStart.
	CropStart float64
	CropStop  float64
}

// Path returns the file name for a subject and data type.
func (l *Loader) Path(subject int, m gait.Modality) string {
	pattern := l.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	return fmt.Sprintf(pattern, subject, m)
}

// Load reads and crops every configured data type for one subject.
func (l *Loader) Load(subject int) (*Bundle, error) {
	if len(l.DataTypes) == 0 {
		return nil, &gait.ConfigurationError{Field: "data_types", Reason: "no data types configured"}
	}
	series := make(map[gait.Modality]*gait.SensorSeries, len(l.DataTypes))
	rates := make(map[gait.Modality]float64, len(l.DataTypes))
	for _, m := range l.DataTypes {
		s, rate, err := l.loadOne(subject, m)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", SubjectID(subject), m, err)
		}
		series[m] = s
		rates[m] = rate
	}
	b := NewBundle(subject, l.SamplingRate, series)
	for m, rate := range rates {
		b.setRate(m, rate)
	}
	return b, nil
}

func (l *Loader) loadOne(subject int, m gait.Modality) (*gait.SensorSeries, float64, error) {
	name := l.Path(subject, m)
	if !fs.ValidPath(name) || strings.Contains(name, "..") {
		return nil, 0, fmt.Errorf("path %q escapes the data directory", name)
	}
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	unit := l.TimeUnits[m]
	if unit == "" {
		unit = units.Seconds
	}
	raw, err := ReadCSV(f, unit)
	if err != nil {
		return nil, 0, err
	}

	rate := l.SamplingRate
	if rate == 0 {
		rate = raw.SamplingRate()
		gait.Diagf("%s %s: inferred sampling rate %.2f Hz", SubjectID(subject), m, rate)
	}
	start := int(math.Round(l.CropStart * rate))
	stop := raw.Len()
	if l.CropStop > 0 {
		stop = int(math.Round(l.CropStop * rate))
	}
	cropped, err := raw.Crop(start, stop)
	if err != nil {
		return nil, 0, err
	}
	return cropped, rate, nil
}

// LoadAll loads each subject independently. A subject that fails is recorded
// in Catalog.Failed and does not stop the others.
func (l *Loader) LoadAll(subjects []int) *Catalog {
	c := NewCatalog()
	for _, s := range subjects {
		b, err := l.Load(s)
		if err != nil {
			gait.Opsf("load %s: %v", SubjectID(s), err)
			c.Failed[SubjectID(s)] = err
			continue
		}
		c.Add(b)
	}
	return c
}

// SubjectRange returns 1..count.
func SubjectRange(count int) []int {
	out := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, i)
	}
	return out
}
