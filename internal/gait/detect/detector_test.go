package detect

import (
	"math"
	"testing"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/peaks"
	"github.com/banshee-data/gait.report/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fs = 125.0

// bumpSeries places Morlet bumps matching the detector width 250 samples
// apart, far enough that neighbouring responses do not interfere.
func bumpSeries(t *testing.T, cfg Config) (*gait.SensorSeries, []int) {
	t.Helper()
	centres := testutil.EvenlySpaced(250, 250, 6)
	signal := testutil.MorletBumps(1800, centres, float64(cfg.Scale), 1.0)
	return testutil.Series(t, signal, cfg.Axis, fs), centres
}

func TestDetectRecoversInjectedBumps(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{ChestAccelConfig(), ShankGyroConfig()} {
		cfg := cfg
		t.Run(cfg.Name, func(t *testing.T) {
			t.Parallel()
			d, err := New(cfg)
			require.NoError(t, err)

			s, centres := bumpSeries(t, cfg)
			res, err := d.Detect(s)
			require.NoError(t, err)

			hs := res.HeelStrikes.Indices()
			require.Len(t, hs, len(centres))
			for i, c := range centres {
				assert.InDelta(t, c, hs[i], 2, "heel strike %d", i)
			}

			// One trough in each valley between bumps, none at the edges.
			to := res.ToeOffs.Indices()
			require.Len(t, to, len(centres)-1)
			for i, idx := range to {
				assert.Greater(t, idx, centres[i])
				assert.Less(t, idx, centres[i+1])
			}
		})
	}
}

func TestDetectMagnitudesMatchRow(t *testing.T) {
	t.Parallel()

	d, err := New(ChestAccelConfig())
	require.NoError(t, err)
	s, _ := bumpSeries(t, ChestAccelConfig())
	res, err := d.Detect(s)
	require.NoError(t, err)

	for _, e := range res.HeelStrikes.Events {
		assert.Equal(t, res.Row[e.Index], e.Magnitude)
	}
	for _, e := range res.ToeOffs.Events {
		assert.Equal(t, res.Row[e.Index], e.Magnitude)
	}

	row, err := res.Scalogram.Row(ChestAccelScale)
	require.NoError(t, err)
	assert.Equal(t, row, res.Row)
	rows, cols := res.Scalogram.Dims()
	assert.Equal(t, DefaultMaxScale, rows)
	assert.Equal(t, s.Len(), cols)
}

func TestDetectToeOffsArePeaksOfNegatedRow(t *testing.T) {
	t.Parallel()

	d, err := New(ShankGyroConfig())
	require.NoError(t, err)
	s, _ := bumpSeries(t, ShankGyroConfig())
	res, err := d.Detect(s)
	require.NoError(t, err)

	neg := make([]float64, len(res.Row))
	for i, v := range res.Row {
		neg[i] = -v
	}
	want := peaks.Find(neg, DefaultProminence)
	if diff := cmp.Diff(want, res.ToeOffs.Indices()); diff != "" {
		t.Errorf("toe offs differ from peaks of negated row (-want +got):\n%s", diff)
	}
}

func TestDetectSignInvariant(t *testing.T) {
	t.Parallel()

	cfg := ChestAccelConfig()
	d, err := New(cfg)
	require.NoError(t, err)

	centres := testutil.EvenlySpaced(250, 200, 5)
	signal := testutil.MorletBumps(1300, centres, float64(cfg.Scale), 0.8)
	flipped := make([]float64, len(signal))
	for i, v := range signal {
		flipped[i] = -v
	}

	a, err := d.Detect(testutil.Series(t, signal, cfg.Axis, fs))
	require.NoError(t, err)
	b, err := d.Detect(testutil.Series(t, flipped, cfg.Axis, fs))
	require.NoError(t, err)

	assert.Equal(t, a.HeelStrikes.Indices(), b.HeelStrikes.Indices())
	assert.Equal(t, a.ToeOffs.Indices(), b.ToeOffs.Indices())
}

func TestDetectIsIdempotent(t *testing.T) {
	t.Parallel()

	d, err := New(ShankGyroConfig())
	require.NoError(t, err)
	s, _ := bumpSeries(t, ShankGyroConfig())

	first, err := d.Detect(s)
	require.NoError(t, err)
	second, err := d.Detect(s)
	require.NoError(t, err)

	if diff := cmp.Diff(first.HeelStrikes, second.HeelStrikes); diff != "" {
		t.Errorf("heel strikes changed between calls:\n%s", diff)
	}
	if diff := cmp.Diff(first.ToeOffs, second.ToeOffs); diff != "" {
		t.Errorf("toe offs changed between calls:\n%s", diff)
	}
	assert.Equal(t, first.Row, second.Row)
}

func TestDetectStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	d, err := New(ChestAccelConfig())
	require.NoError(t, err)

	// A walking-like signal: two harmonics of a 1 Hz stride plus a ripple.
	n := 1875
	signal := make([]float64, n)
	for i := range signal {
		tt := float64(i) / fs
		signal[i] = 1 + 0.6*math.Sin(2*math.Pi*tt) + 0.4*math.Sin(4*math.Pi*tt+0.7) + 0.05*math.Sin(2*math.Pi*11*tt)
	}
	res, err := d.Detect(testutil.Series(t, signal, gait.AxisY, fs))
	require.NoError(t, err)

	for _, set := range []gait.EventIndexSet{res.HeelStrikes, res.ToeOffs} {
		idx := set.Indices()
		for i := 1; i < len(idx); i++ {
			assert.Greater(t, idx[i], idx[i-1], "%s", set.Kind)
		}
	}
}

func TestDetectFlatSignalHasNoEvents(t *testing.T) {
	t.Parallel()

	d, err := New(ChestAccelConfig())
	require.NoError(t, err)

	res, err := d.Detect(testutil.Series(t, make([]float64, 800), gait.AxisY, fs))
	require.NoError(t, err)
	assert.Equal(t, 0, res.HeelStrikes.Len())
	assert.Equal(t, 0, res.ToeOffs.Len())
}

func TestDetectRejectsShortSeries(t *testing.T) {
	t.Parallel()

	d, err := New(ChestAccelConfig())
	require.NoError(t, err)
	need := ChestAccelConfig().MinSamples()
	require.Equal(t, 640, need)

	_, err = d.Detect(testutil.Series(t, make([]float64, need-1), gait.AxisY, fs))
	require.Error(t, err)
	var invalid *gait.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
	assert.ErrorContains(t, err, "639 samples is shorter than the 640 needed for scale 64")

	_, err = d.Detect(testutil.Series(t, make([]float64, need), gait.AxisY, fs))
	assert.NoError(t, err)

	_, err = d.Detect(nil)
	assert.True(t, gait.IsInvalidInput(err))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	mutate := func(f func(*Config)) Config {
		c := ChestAccelConfig()
		f(&c)
		return c
	}
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"scale zero", mutate(func(c *Config) { c.Scale = 0 }), "scale"},
		{"scale above range", mutate(func(c *Config) { c.Scale = 65 }), "scale"},
		{"negative prominence", mutate(func(c *Config) { c.Prominence = -0.1 }), "prominence"},
		{"nan prominence", mutate(func(c *Config) { c.Prominence = math.NaN() }), "prominence"},
		{"bad axis", mutate(func(c *Config) { c.Axis = gait.Axis(7) }), "axis"},
		{"empty range", mutate(func(c *Config) { c.MaxScale = 0 }), "scale_max"},
		{"min scale", mutate(func(c *Config) { c.MinScale = 0 }), "scale_min"},
		{"omega", mutate(func(c *Config) { c.Omega = 0 }), "morlet_omega"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.cfg)
			var cfgErr *gait.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	assert.NoError(t, ChestAccelConfig().Validate())
	assert.NoError(t, ShankGyroConfig().Validate())
}
