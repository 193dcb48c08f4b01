package pipeline

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/detect"
	"github.com/banshee-data/gait.report/internal/gait/ingest"
	"github.com/banshee-data/gait.report/internal/gait/intervals"
	"github.com/banshee-data/gait.report/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fs = 125.0

// subjectBundle builds a subject whose chest and shank recordings both carry
// six bumps spacing samples apart at the matching detector widths.
func subjectBundle(t *testing.T, subject, spacing, n int) *ingest.Bundle {
	t.Helper()
	centres := testutil.EvenlySpaced(250, spacing, 6)
	chest := testutil.MorletBumps(n, centres, detect.ChestAccelScale, 1)
	gyro := testutil.MorletBumps(n, centres, detect.ShankGyroScale, 1)
	return ingest.NewBundle(subject, fs, map[gait.Modality]*gait.SensorSeries{
		gait.ChestAccel: testutil.Series(t, chest, gait.AxisY, fs),
		gait.ShankGyro:  testutil.Series(t, gyro, gait.AxisZ, fs),
	})
}

func TestAnalyzeSubject(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer()
	require.NoError(t, err)

	m, err := a.AnalyzeSubject(subjectBundle(t, 1, 250, 1800))
	require.NoError(t, err)
	assert.Equal(t, "subject1", m.Subject)

	for _, mod := range []gait.Modality{gait.ChestAccel, gait.ShankGyro} {
		mm := m.Get(mod)
		require.NotNil(t, mm, "%s", mod)
		assert.Equal(t, 6, mm.HeelStrikes.Len())
		assert.Equal(t, 5, mm.ToeOffs.Len())
		require.Equal(t, 4, mm.Intervals.Len())
		for i := 0; i < 4; i++ {
			assert.InDelta(t, 250, mm.Intervals.Stride[i], 2)
			assert.InDelta(t, 375, mm.Intervals.Stance[i], 2)
			assert.InDelta(t, 125, mm.Intervals.Swing[i], 2)
		}
		assert.InDelta(t, 2.0, mm.Summary[intervals.Stride].Mean, 0.02)
		assert.Nil(t, mm.Detection)
	}
	assert.Nil(t, m.Get(gait.ChestGyro))
}

func TestAnalyzeSubjectDecimatesAccel(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer()
	require.NoError(t, err)
	a.AccelDecimation = 2
	a.KeepDetections = true

	m, err := a.AnalyzeSubject(subjectBundle(t, 1, 250, 1800))
	require.NoError(t, err)
	assert.Equal(t, 2, m.ChestAccel.Intervals.Len())
	assert.Equal(t, 4, m.ShankGyro.Intervals.Len())
	require.NotNil(t, m.ChestAccel.Detection)
	assert.NotNil(t, m.ChestAccel.Detection.Scalogram)
}

func TestAnalyzeSubjectUsesEachRecordingsRate(t *testing.T) {
	t.Parallel()

	centres := testutil.EvenlySpaced(250, 250, 6)
	chest := testutil.MorletBumps(1800, centres, detect.ChestAccelScale, 1)
	gyro := testutil.MorletBumps(1800, centres, detect.ShankGyroScale, 1)
	files := fstest.MapFS{
		"s1_chest_accel.csv": &fstest.MapFile{Data: []byte(testutil.CSV(chest, gait.AxisY, 125, 1))},
		"s1_shank_gyro.csv":  &fstest.MapFile{Data: []byte(testutil.CSV(gyro, gait.AxisZ, 250, 1))},
	}
	l := &ingest.Loader{FS: files, DataTypes: []gait.Modality{gait.ChestAccel, gait.ShankGyro}}
	b, err := l.Load(1)
	require.NoError(t, err)

	a, err := NewAnalyzer()
	require.NoError(t, err)
	m, err := a.AnalyzeSubject(b)
	require.NoError(t, err)

	// Same stride in samples, different durations.
	assert.InDelta(t, 125, m.ChestAccel.SamplingRate, 1e-6)
	assert.InDelta(t, 250, m.ShankGyro.SamplingRate, 1e-6)
	require.Equal(t, 4, m.ShankGyro.Intervals.Len())
	assert.InDelta(t, 250, m.ShankGyro.Intervals.Stride[0], 2)
	assert.InDelta(t, 2.0, m.ChestAccel.Summary[intervals.Stride].Mean, 0.02)
	assert.InDelta(t, 1.0, m.ShankGyro.Summary[intervals.Stride].Mean, 0.01)
}

func TestAnalyzeSubjectMissingRecording(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer()
	require.NoError(t, err)
	b := ingest.NewBundle(7, fs, map[gait.Modality]*gait.SensorSeries{
		gait.ChestAccel: testutil.Series(t, make([]float64, 700), gait.AxisY, fs),
	})
	_, err = a.AnalyzeSubject(b)
	assert.True(t, gait.IsInvalidInput(err))
}

func TestRunIsolatesFailures(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer()
	require.NoError(t, err)

	c := ingest.NewCatalog()
	c.Add(subjectBundle(t, 1, 250, 1800))
	c.Add(subjectBundle(t, 2, 230, 1800))
	// Too short for the widest wavelet.
	c.Add(subjectBundle(t, 3, 50, 600))
	c.Failed["subject4"] = assert.AnError

	res, err := a.Run(context.Background(), c, 2)
	require.NoError(t, err)
	assert.Len(t, res.Subjects, 2)
	assert.Equal(t, []string{"subject3", "subject4"}, res.FailedIDs())
	assert.True(t, gait.IsInvalidInput(res.Failed["subject3"]))

	ordered := res.Ordered()
	require.Len(t, ordered, 2)
	assert.Equal(t, "subject1", ordered[0].Subject)
	assert.Equal(t, "subject2", ordered[1].Subject)

	assert.Len(t, res.Pooled(gait.ShankGyro, intervals.Stride), 8)

	for _, cmp := range res.Correlate() {
		require.NoError(t, cmp.Err, "%s", cmp.Metric)
		assert.Equal(t, 8, cmp.Correlation.N)
		assert.Greater(t, cmp.Correlation.R, 0.95, "%s", cmp.Metric)
		assert.True(t, cmp.Correlation.Significant(0.05), "%s", cmp.Metric)
	}
}

func TestRunSequentialMatchesParallel(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer()
	require.NoError(t, err)
	c := ingest.NewCatalog()
	c.Add(subjectBundle(t, 1, 250, 1800))
	c.Add(subjectBundle(t, 2, 230, 1800))

	seq, err := a.Run(context.Background(), c, 1)
	require.NoError(t, err)
	par, err := a.Run(context.Background(), c, 8)
	require.NoError(t, err)

	for id, m := range seq.Subjects {
		assert.Equal(t, m.ChestAccel.HeelStrikes, par.Subjects[id].ChestAccel.HeelStrikes)
		assert.Equal(t, m.ShankGyro.ToeOffs, par.Subjects[id].ShankGyro.ToeOffs)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer()
	require.NoError(t, err)
	c := ingest.NewCatalog()
	c.Add(subjectBundle(t, 1, 250, 1800))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Run(ctx, c, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorrelateUndefinedWithoutSubjects(t *testing.T) {
	t.Parallel()

	res := &Results{Subjects: map[string]*SubjectMetrics{}, Failed: map[string]error{}}
	for _, cmp := range res.Correlate() {
		assert.Error(t, cmp.Err)
	}
}
