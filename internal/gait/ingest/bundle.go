package ingest

import (
	"fmt"
	"sort"

	"github.com/banshee-data/gait.report/internal/gait"
)

// Bundle is the immutable input for one subject: one cropped series per
// recorded modality.
type Bundle struct {
	Subject int
	// SamplingRate is the configured rate shared by every recording. Zero
	// means each recording's rate is inferred from its timestamps.
	SamplingRate float64
	series       map[gait.Modality]*gait.SensorSeries
	rates        map[gait.Modality]float64
}

// NewBundle copies the modality map so later changes by the caller do not
// leak into the bundle. Series values are themselves immutable.
func NewBundle(subject int, fs float64, series map[gait.Modality]*gait.SensorSeries) *Bundle {
	b := &Bundle{
		Subject:      subject,
		SamplingRate: fs,
		series:       make(map[gait.Modality]*gait.SensorSeries, len(series)),
		rates:        make(map[gait.Modality]float64, len(series)),
	}
	for m, s := range series {
		b.series[m] = s
	}
	return b
}

func (b *Bundle) setRate(m gait.Modality, fs float64) {
	b.rates[m] = fs
}

// Rate returns the sampling rate of modality m in Hz: the rate recorded when
// the file was loaded, else the configured rate, else the rate inferred from
// the series itself. It is 0 when m was not recorded.
func (b *Bundle) Rate(m gait.Modality) float64 {
	if fs := b.rates[m]; fs > 0 {
		return fs
	}
	if b.SamplingRate > 0 {
		return b.SamplingRate
	}
	s, ok := b.series[m]
	if !ok {
		return 0
	}
	return s.SamplingRate()
}

// SubjectID returns the identifier used in reports and storage.
func (b *Bundle) SubjectID() string {
	return SubjectID(b.Subject)
}

// SubjectID formats a subject number as its identifier.
func SubjectID(subject int) string {
	return fmt.Sprintf("subject%d", subject)
}

// Series returns the recording for modality m.
func (b *Bundle) Series(m gait.Modality) (*gait.SensorSeries, bool) {
	s, ok := b.series[m]
	return s, ok
}

// Modalities lists the recorded modalities in canonical order.
func (b *Bundle) Modalities() []gait.Modality {
	var out []gait.Modality
	for _, m := range gait.AllModalities {
		if _, ok := b.series[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Catalog maps subject identifiers to their bundles. Subjects whose files
// failed to load are kept in Failed with the error.
type Catalog struct {
	bundles map[string]*Bundle
	Failed  map[string]error
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bundles: make(map[string]*Bundle), Failed: make(map[string]error)}
}

// Add stores b under its subject identifier.
func (c *Catalog) Add(b *Bundle) {
	c.bundles[b.SubjectID()] = b
}

// Get returns the bundle for a subject identifier.
func (c *Catalog) Get(id string) (*Bundle, bool) {
	b, ok := c.bundles[id]
	return b, ok
}

// Len returns the number of loaded subjects.
func (c *Catalog) Len() int { return len(c.bundles) }

// Bundles returns the loaded bundles ordered by subject number.
func (c *Catalog) Bundles() []*Bundle {
	out := make([]*Bundle, 0, len(c.bundles))
	for _, b := range c.bundles {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}
