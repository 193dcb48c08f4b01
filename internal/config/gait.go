package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/detect"
	"github.com/banshee-data/gait.report/internal/gait/ingest"
	"github.com/banshee-data/gait.report/internal/gait/pipeline"
	"github.com/banshee-data/gait.report/internal/gait/stats"
	"github.com/banshee-data/gait.report/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/gait.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// DetectorConfig overrides one sensor's detector.
type DetectorConfig struct {
	Axis       *string  `json:"axis,omitempty"` // "x", "y", "z" or the anatomical name
	Scale      *int     `json:"scale,omitempty"`
	Prominence *float64 `json:"prominence,omitempty"`
}

// GaitConfig is the root configuration for a batch analysis. Omitted fields
// fall back to the built-in defaults through the Get* methods, so partial
// configs are safe.
type GaitConfig struct {
	// Input
	SamplingRateHz *float64          `json:"sampling_rate_hz,omitempty"`
	CropStartS     *float64          `json:"crop_start_s,omitempty"`
	CropStopS      *float64          `json:"crop_stop_s,omitempty"`
	SubjectCount   *int              `json:"subject_count,omitempty"`
	DataTypes      []string          `json:"data_types,omitempty"`
	FilePattern    *string           `json:"file_pattern,omitempty"`
	TimestampUnit  map[string]string `json:"timestamp_unit,omitempty"`

	// Detection
	Chest       *DetectorConfig `json:"chest,omitempty"`
	Shank       *DetectorConfig `json:"shank,omitempty"`
	ScaleMin    *int            `json:"scale_min,omitempty"`
	ScaleMax    *int            `json:"scale_max,omitempty"`
	MorletOmega *float64        `json:"morlet_omega,omitempty"`

	// Intervals
	IntervalUnit          *string `json:"interval_unit,omitempty"`
	AccelStrideDecimation *int    `json:"accel_stride_decimation,omitempty"`
	GyroStrideDecimation  *int    `json:"gyro_stride_decimation,omitempty"`

	Workers *int `json:"workers,omitempty"`

	// Power analysis
	EffectSize *float64 `json:"effect_size,omitempty"`
	Alpha      *float64 `json:"alpha,omitempty"`
	Power      *float64 `json:"power,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyGaitConfig returns a GaitConfig with all fields unset.
func EmptyGaitConfig() *GaitConfig {
	return &GaitConfig{}
}

// DefaultGaitConfig returns a GaitConfig with every field set to its
// default.
func DefaultGaitConfig() *GaitConfig {
	chest, shank := detect.ChestAccelConfig(), detect.ShankGyroConfig()
	return &GaitConfig{
		SamplingRateHz:        ptrFloat64(125),
		CropStartS:            ptrFloat64(60),
		CropStopS:             ptrFloat64(75),
		SubjectCount:          ptrInt(10),
		DataTypes:             modalityNames(gait.AllModalities),
		FilePattern:           ptrString(ingest.DefaultPattern),
		TimestampUnit:         map[string]string{},
		Chest:                 &DetectorConfig{Axis: ptrString(axisName(chest.Axis)), Scale: ptrInt(chest.Scale), Prominence: ptrFloat64(chest.Prominence)},
		Shank:                 &DetectorConfig{Axis: ptrString(axisName(shank.Axis)), Scale: ptrInt(shank.Scale), Prominence: ptrFloat64(shank.Prominence)},
		ScaleMin:              ptrInt(detect.DefaultMinScale),
		ScaleMax:              ptrInt(detect.DefaultMaxScale),
		MorletOmega:           ptrFloat64(chest.Omega),
		IntervalUnit:          ptrString(units.Seconds),
		AccelStrideDecimation: ptrInt(1),
		GyroStrideDecimation:  ptrInt(1),
		Workers:               ptrInt(4),
		EffectSize:            ptrFloat64(0.8),
		Alpha:                 ptrFloat64(0.05),
		Power:                 ptrFloat64(0.8),
	}
}

// LoadGaitConfig loads a GaitConfig from a JSON file. The file must have a
// .json extension and be under 1MB.
func LoadGaitConfig(path string) (*GaitConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyGaitConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *GaitConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/gait/*
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadGaitConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate returns a *gait.ConfigurationError for the first invalid field.
func (c *GaitConfig) Validate() error {
	if v := c.GetSamplingRateHz(); !(v >= 0) || math.IsInf(v, 0) {
		return configErr("sampling_rate_hz", "must be a finite number >= 0 (0 infers it), got %g", v)
	}
	if c.GetCropStartS() < 0 {
		return configErr("crop_start_s", "must be non-negative, got %g", c.GetCropStartS())
	}
	if stop := c.GetCropStopS(); stop > 0 && stop <= c.GetCropStartS() {
		return configErr("crop_stop_s", "%g is not after crop_start_s %g", stop, c.GetCropStartS())
	}
	if c.GetSubjectCount() < 1 {
		return configErr("subject_count", "must be >= 1, got %d", c.GetSubjectCount())
	}
	if _, err := c.GetDataTypes(); err != nil {
		return err
	}
	if _, err := c.GetTimestampUnits(); err != nil {
		return err
	}
	if !units.IsValidInterval(c.GetIntervalUnit()) {
		return configErr("interval_unit", "%q is not one of %s", c.GetIntervalUnit(), units.GetValidIntervalUnitsString())
	}
	if c.GetAccelStrideDecimation() < 1 {
		return configErr("accel_stride_decimation", "must be >= 1, got %d", c.GetAccelStrideDecimation())
	}
	if c.GetGyroStrideDecimation() < 1 {
		return configErr("gyro_stride_decimation", "must be >= 1, got %d", c.GetGyroStrideDecimation())
	}
	if c.GetWorkers() < 1 {
		return configErr("workers", "must be >= 1, got %d", c.GetWorkers())
	}
	if v := c.GetEffectSize(); !(v > 0) || math.IsInf(v, 0) {
		return configErr("effect_size", "must be a positive finite number, got %g", v)
	}
	if v := c.GetAlpha(); !(v > 0 && v < 1) {
		return configErr("alpha", "must be in (0, 1), got %g", v)
	}
	if v := c.GetPower(); !(v > 0 && v < 1) {
		return configErr("power", "must be in (0, 1), got %g", v)
	}
	for _, get := range []func() (detect.Config, error){c.ChestDetector, c.ShankDetector} {
		d, err := get()
		if err != nil {
			return err
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	return nil
}

func configErr(field, format string, args ...interface{}) error {
	return &gait.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// GetSamplingRateHz returns the sampling_rate_hz value or the default. Zero
// asks the loader to infer each recording's rate from its timestamps.
func (c *GaitConfig) GetSamplingRateHz() float64 {
	if c.SamplingRateHz == nil {
		return 125
	}
	return *c.SamplingRateHz
}

// GetCropStartS returns the crop_start_s value or the default.
func (c *GaitConfig) GetCropStartS() float64 {
	if c.CropStartS == nil {
		return 60
	}
	return *c.CropStartS
}

// GetCropStopS returns the crop_stop_s value or the default.
func (c *GaitConfig) GetCropStopS() float64 {
	if c.CropStopS == nil {
		return 75
	}
	return *c.CropStopS
}

// GetSubjectCount returns the subject_count value or the default.
func (c *GaitConfig) GetSubjectCount() int {
	if c.SubjectCount == nil {
		return 10
	}
	return *c.SubjectCount
}

// GetDataTypes parses data_types. Defaults to every modality.
func (c *GaitConfig) GetDataTypes() ([]gait.Modality, error) {
	if len(c.DataTypes) == 0 {
		return append([]gait.Modality(nil), gait.AllModalities...), nil
	}
	out := make([]gait.Modality, 0, len(c.DataTypes))
	seen := make(map[gait.Modality]bool, len(c.DataTypes))
	for _, name := range c.DataTypes {
		m, err := gait.ParseModality(name)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			return nil, configErr("data_types", "%s listed twice", m)
		}
		seen[m] = true
		out = append(out, m)
	}
	for _, need := range []gait.Modality{gait.ChestAccel, gait.ShankGyro} {
		if !seen[need] {
			return nil, configErr("data_types", "must include %s", need)
		}
	}
	return out, nil
}

// GetFilePattern returns the file_pattern value or the default.
func (c *GaitConfig) GetFilePattern() string {
	if c.FilePattern == nil || *c.FilePattern == "" {
		return ingest.DefaultPattern
	}
	return *c.FilePattern
}

// GetTimestampUnits parses timestamp_unit. Data types not listed use
// seconds.
func (c *GaitConfig) GetTimestampUnits() (map[gait.Modality]string, error) {
	out := make(map[gait.Modality]string, len(c.TimestampUnit))
	keys := make([]string, 0, len(c.TimestampUnit))
	for k := range c.TimestampUnit {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m, err := gait.ParseModality(k)
		if err != nil {
			return nil, configErr("timestamp_unit", "unknown data type %q", k)
		}
		unit := c.TimestampUnit[k]
		if !units.IsValidTime(unit) {
			return nil, configErr("timestamp_unit", "%s: %q is not one of %s", k, unit, units.GetValidTimeUnitsString())
		}
		out[m] = unit
	}
	return out, nil
}

// GetScaleMin returns the scale_min value or the default.
func (c *GaitConfig) GetScaleMin() int {
	if c.ScaleMin == nil {
		return detect.DefaultMinScale
	}
	return *c.ScaleMin
}

// GetScaleMax returns the scale_max value or the default.
func (c *GaitConfig) GetScaleMax() int {
	if c.ScaleMax == nil {
		return detect.DefaultMaxScale
	}
	return *c.ScaleMax
}

// GetMorletOmega returns the morlet_omega value or the default.
func (c *GaitConfig) GetMorletOmega() float64 {
	if c.MorletOmega == nil {
		return detect.ChestAccelConfig().Omega
	}
	return *c.MorletOmega
}

// GetIntervalUnit returns the interval_unit value or the default.
func (c *GaitConfig) GetIntervalUnit() string {
	if c.IntervalUnit == nil || *c.IntervalUnit == "" {
		return units.Seconds
	}
	return *c.IntervalUnit
}

// GetAccelStrideDecimation returns the accel_stride_decimation value or the
// default of 1 (keep every cycle).
func (c *GaitConfig) GetAccelStrideDecimation() int {
	if c.AccelStrideDecimation == nil {
		return 1
	}
	return *c.AccelStrideDecimation
}

// GetGyroStrideDecimation returns the gyro_stride_decimation value or the
// default of 1.
func (c *GaitConfig) GetGyroStrideDecimation() int {
	if c.GyroStrideDecimation == nil {
		return 1
	}
	return *c.GyroStrideDecimation
}

// GetWorkers returns the workers value or the default.
func (c *GaitConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// GetEffectSize returns the effect_size value or the default.
func (c *GaitConfig) GetEffectSize() float64 {
	if c.EffectSize == nil {
		return 0.8
	}
	return *c.EffectSize
}

// GetAlpha returns the alpha value or the default.
func (c *GaitConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return 0.05
	}
	return *c.Alpha
}

// GetPower returns the power value or the default.
func (c *GaitConfig) GetPower() float64 {
	if c.Power == nil {
		return 0.8
	}
	return *c.Power
}

// ChestDetector resolves the chest accelerometer detector.
func (c *GaitConfig) ChestDetector() (detect.Config, error) {
	return c.detector(detect.ChestAccelConfig(), c.Chest, "chest")
}

// ShankDetector resolves the shank gyroscope detector.
func (c *GaitConfig) ShankDetector() (detect.Config, error) {
	return c.detector(detect.ShankGyroConfig(), c.Shank, "shank")
}

func (c *GaitConfig) detector(base detect.Config, o *DetectorConfig, field string) (detect.Config, error) {
	base.MinScale = c.GetScaleMin()
	base.MaxScale = c.GetScaleMax()
	base.Omega = c.GetMorletOmega()
	if o == nil {
		return base, nil
	}
	if o.Axis != nil {
		a, err := gait.ParseAxis(*o.Axis)
		if err != nil {
			return detect.Config{}, configErr(field+".axis", "unknown axis %q", *o.Axis)
		}
		base.Axis = a
	}
	if o.Scale != nil {
		base.Scale = *o.Scale
	}
	if o.Prominence != nil {
		base.Prominence = *o.Prominence
	}
	return base, nil
}

// Loader builds the recording loader over fsys.
func (c *GaitConfig) Loader(fsys fs.FS) (*ingest.Loader, error) {
	types, err := c.GetDataTypes()
	if err != nil {
		return nil, err
	}
	tu, err := c.GetTimestampUnits()
	if err != nil {
		return nil, err
	}
	return &ingest.Loader{
		FS:           fsys,
		Pattern:      c.GetFilePattern(),
		DataTypes:    types,
		TimeUnits:    tu,
		SamplingRate: c.GetSamplingRateHz(),
		CropStart:    c.GetCropStartS(),
		CropStop:     c.GetCropStopS(),
	}, nil
}

// Analyzer builds the pipeline analyzer from the detector and decimation
// settings.
func (c *GaitConfig) Analyzer() (*pipeline.Analyzer, error) {
	chestCfg, err := c.ChestDetector()
	if err != nil {
		return nil, err
	}
	shankCfg, err := c.ShankDetector()
	if err != nil {
		return nil, err
	}
	chest, err := detect.New(chestCfg)
	if err != nil {
		return nil, fmt.Errorf("chest: %w", err)
	}
	shank, err := detect.New(shankCfg)
	if err != nil {
		return nil, fmt.Errorf("shank: %w", err)
	}
	return &pipeline.Analyzer{
		Chest:           chest,
		Shank:           shank,
		AccelDecimation: c.GetAccelStrideDecimation(),
		GyroDecimation:  c.GetGyroStrideDecimation(),
	}, nil
}

// SampleSize solves the per-group sample size for the configured effect
// size, alpha and power with equal group sizes.
func (c *GaitConfig) SampleSize() (float64, error) {
	return stats.TTestIndPower{}.SolveSampleSize(c.GetEffectSize(), c.GetAlpha(), c.GetPower(), 1)
}

func modalityNames(ms []gait.Modality) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}

func axisName(a gait.Axis) string {
	return [...]string{"x", "y", "z"}[a]
}
