package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/detect"
	"github.com/banshee-data/gait.report/internal/gait/ingest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsFileMatchesBuiltIn(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultGaitConfig().withoutUnits(), fromFile.withoutUnits()); diff != "" {
		t.Errorf("defaults file differs from built-in defaults (-builtin +file):\n%s", diff)
	}

	// every Get* on an empty config agrees with the file
	empty := EmptyGaitConfig()
	assert.Equal(t, fromFile.GetSamplingRateHz(), empty.GetSamplingRateHz())
	assert.Equal(t, fromFile.GetCropStartS(), empty.GetCropStartS())
	assert.Equal(t, fromFile.GetCropStopS(), empty.GetCropStopS())
	assert.Equal(t, fromFile.GetSubjectCount(), empty.GetSubjectCount())
	assert.Equal(t, fromFile.GetFilePattern(), empty.GetFilePattern())
	assert.Equal(t, fromFile.GetScaleMin(), empty.GetScaleMin())
	assert.Equal(t, fromFile.GetScaleMax(), empty.GetScaleMax())
	assert.Equal(t, fromFile.GetMorletOmega(), empty.GetMorletOmega())
	assert.Equal(t, fromFile.GetIntervalUnit(), empty.GetIntervalUnit())
	assert.Equal(t, fromFile.GetWorkers(), empty.GetWorkers())
	assert.Equal(t, fromFile.GetEffectSize(), empty.GetEffectSize())
	assert.Equal(t, fromFile.GetAlpha(), empty.GetAlpha())
	assert.Equal(t, fromFile.GetPower(), empty.GetPower())

	chest, err := fromFile.ChestDetector()
	require.NoError(t, err)
	assert.Equal(t, detect.ChestAccelConfig(), chest)
	shank, err := fromFile.ShankDetector()
	require.NoError(t, err)
	assert.Equal(t, detect.ShankGyroConfig(), shank)
}

// withoutUnits drops the timestamp map, which the file spells out and the
// built-in defaults leave empty.
func (c *GaitConfig) withoutUnits() GaitConfig {
	cp := *c
	cp.TimestampUnit = nil
	return cp
}

func TestLoadGaitConfigPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{
  "sampling_rate_hz": 100,
  "shank": {"scale": 30},
  "timestamp_unit": {"shank_gyro": "us"},
  "gyro_stride_decimation": 2
}`)
	cfg, err := LoadGaitConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.GetSamplingRateHz())
	assert.Equal(t, 60.0, cfg.GetCropStartS())

	shank, err := cfg.ShankDetector()
	require.NoError(t, err)
	assert.Equal(t, 30, shank.Scale)
	assert.Equal(t, gait.AxisZ, shank.Axis)
	assert.Equal(t, detect.DefaultProminence, shank.Prominence)

	tu, err := cfg.GetTimestampUnits()
	require.NoError(t, err)
	assert.Equal(t, map[gait.Modality]string{gait.ShankGyro: "us"}, tu)

	a, err := cfg.Analyzer()
	require.NoError(t, err)
	assert.Equal(t, 1, a.AccelDecimation)
	assert.Equal(t, 2, a.GyroDecimation)
	assert.Equal(t, 30, a.Shank.Config().Scale)
}

func TestLoadGaitConfigFileChecks(t *testing.T) {
	_, err := LoadGaitConfig(writeConfig(t, "cfg.yaml", `{}`))
	assert.ErrorContains(t, err, ".json extension")

	_, err = LoadGaitConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to stat")

	_, err = LoadGaitConfig(writeConfig(t, "bad.json", `{"workers": `))
	assert.ErrorContains(t, err, "failed to parse")

	big := make([]byte, maxFileSize+1)
	path := filepath.Join(t.TempDir(), "big.json")
	require.NoError(t, os.WriteFile(path, big, 0644))
	_, err = LoadGaitConfig(path)
	assert.ErrorContains(t, err, "too large")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"sampling rate", `{"sampling_rate_hz": -1}`, "sampling_rate_hz"},
		{"crop start", `{"crop_start_s": -1}`, "crop_start_s"},
		{"crop order", `{"crop_start_s": 10, "crop_stop_s": 5}`, "crop_stop_s"},
		{"subjects", `{"subject_count": 0}`, "subject_count"},
		{"unknown data type", `{"data_types": ["chest_accel", "shank_gyro", "wrist"]}`, "data_types"},
		{"missing gyro", `{"data_types": ["chest_accel"]}`, "data_types"},
		{"duplicate data type", `{"data_types": ["chest_accel", "shank_gyro", "chest_accel"]}`, "data_types"},
		{"timestamp unit", `{"timestamp_unit": {"shank_gyro": "ns"}}`, "timestamp_unit"},
		{"timestamp key", `{"timestamp_unit": {"wrist": "s"}}`, "timestamp_unit"},
		{"interval unit", `{"interval_unit": "hours"}`, "interval_unit"},
		{"accel decimation", `{"accel_stride_decimation": 0}`, "accel_stride_decimation"},
		{"gyro decimation", `{"gyro_stride_decimation": -1}`, "gyro_stride_decimation"},
		{"workers", `{"workers": 0}`, "workers"},
		{"effect size", `{"effect_size": 0}`, "effect_size"},
		{"alpha", `{"alpha": 1}`, "alpha"},
		{"power", `{"power": 0}`, "power"},
		{"chest axis", `{"chest": {"axis": "w"}}`, "chest.axis"},
		{"chest scale", `{"chest": {"scale": 65}}`, "scale"},
		{"shank prominence", `{"shank": {"prominence": 0}}`, "prominence"},
		{"scale range", `{"scale_min": 10, "scale_max": 5}`, "scale_max"},
		{"omega", `{"morlet_omega": -5}`, "morlet_omega"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGaitConfig(writeConfig(t, "cfg.json", tt.body))
			require.Error(t, err)
			var ce *gait.ConfigurationError
			require.True(t, errors.As(err, &ce), "want ConfigurationError, got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoader(t *testing.T) {
	cfg := EmptyGaitConfig()
	cfg.DataTypes = []string{"shank_gyro", "chest_accel"}
	cfg.FilePattern = ptrString("sub%02d/%s.csv")

	fsys := fstest.MapFS{}
	l, err := cfg.Loader(fsys)
	require.NoError(t, err)
	assert.Equal(t, []gait.Modality{gait.ShankGyro, gait.ChestAccel}, l.DataTypes)
	assert.Equal(t, "sub03/chest_accel.csv", l.Path(3, gait.ChestAccel))
	assert.Equal(t, 125.0, l.SamplingRate)
	assert.Equal(t, 60.0, l.CropStart)
	assert.Equal(t, 75.0, l.CropStop)
	assert.NotEqual(t, ingest.DefaultPattern, l.Pattern)
}

func TestLoaderInfersRateWhenZero(t *testing.T) {
	cfg, err := LoadGaitConfig(writeConfig(t, "infer.json", `{"sampling_rate_hz": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.GetSamplingRateHz())

	l, err := cfg.Loader(fstest.MapFS{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.SamplingRate)
}

func TestSampleSize(t *testing.T) {
	n, err := DefaultGaitConfig().SampleSize()
	require.NoError(t, err)
	assert.InDelta(t, 25.5246, n, 1e-3)
}
