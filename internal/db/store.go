package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/intervals"
	"github.com/banshee-data/gait.report/internal/gait/pipeline"
	"github.com/google/uuid"
)

// Run is one batch analysis invocation.
type Run struct {
	RunID      string          `json:"run_id"`
	StartedAt  int64           `json:"started_unix_nanos"`
	Version    string          `json:"version"`
	GitSHA     string          `json:"git_sha"`
	ConfigJSON json.RawMessage `json:"config_json,omitempty"`
	Subjects   int             `json:"subject_count"`
	Failed     int             `json:"failed_count"`
	SampleSize float64         `json:"sample_size"`
}

// EventRecord is one stored heel strike or toe off.
type EventRecord struct {
	Kind      gait.EventKind `json:"kind"`
	Index     int            `json:"index"`
	Magnitude float64        `json:"magnitude"`
}

// CorrelationRecord is one stored cross-modality comparison. R and P are
// NaN when the correlation was undefined; Err holds the reason.
type CorrelationRecord struct {
	Metric intervals.Metric `json:"metric"`
	R      float64          `json:"r"`
	P      float64          `json:"p_value"`
	N      int              `json:"n"`
	Err    string           `json:"error,omitempty"`
}

// InsertRun persists a run. If RunID is empty, a UUID is generated.
func (db *DB) InsertRun(r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	if r.StartedAt == 0 {
		r.StartedAt = time.Now().UnixNano()
	}
	var cfg interface{}
	if len(r.ConfigJSON) > 0 {
		cfg = string(r.ConfigJSON)
	}
	return retryOnBusy(func() error {
		_, err := db.Exec(`
			INSERT INTO analysis_runs (
				run_id, started_unix_nanos, version, git_sha, config_json,
				subject_count, failed_count, sample_size
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.StartedAt, r.Version, r.GitSHA, cfg,
			r.Subjects, r.Failed, nullFloat(r.SampleSize),
		)
		return err
	})
}

// GetRun loads a run by ID.
func (db *DB) GetRun(runID string) (*Run, error) {
	var (
		r    Run
		cfg  sql.NullString
		size sql.NullFloat64
	)
	err := db.QueryRow(`
		SELECT run_id, started_unix_nanos, version, git_sha, config_json,
		       subject_count, failed_count, sample_size
		FROM analysis_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.StartedAt, &r.Version, &r.GitSHA, &cfg,
		&r.Subjects, &r.Failed, &size,
	)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if cfg.Valid {
		r.ConfigJSON = json.RawMessage(cfg.String)
	}
	r.SampleSize = fromNullFloat(size)
	return &r, nil
}

// InsertEvents stores one event set for a subject and modality.
func (db *DB) InsertEvents(runID, subject string, m gait.Modality, set gait.EventIndexSet) error {
	return db.inTx(func(tx *sql.Tx) error {
		return insertEvents(tx, runID, subject, m, set)
	})
}

func insertEvents(tx *sql.Tx, runID, subject string, m gait.Modality, set gait.EventIndexSet) error {
	stmt, err := tx.Prepare(`
		INSERT INTO subject_events (run_id, subject, modality, kind, seq, sample_index, magnitude)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, e := range set.Events {
		if _, err := stmt.Exec(runID, subject, string(m), string(set.Kind), i, e.Index, e.Magnitude); err != nil {
			return fmt.Errorf("insert %s %d: %w", set.Kind, i, err)
		}
	}
	return nil
}

// Events returns the stored events for a subject and modality, heel
// strikes first, each kind in index order.
func (db *DB) Events(runID, subject string, m gait.Modality) ([]EventRecord, error) {
	rows, err := db.Query(`
		SELECT kind, sample_index, magnitude FROM subject_events
		WHERE run_id = ? AND subject = ? AND modality = ?
		ORDER BY CASE kind WHEN ? THEN 0 ELSE 1 END, seq`,
		runID, subject, string(m), string(gait.HeelStrike))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			e    EventRecord
			kind string
		)
		if err := rows.Scan(&kind, &e.Index, &e.Magnitude); err != nil {
			return nil, err
		}
		e.Kind = gait.EventKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertIntervals stores the per-cycle sample counts for a subject and
// modality together with the sampling rate needed to convert them.
func (db *DB) InsertIntervals(runID, subject string, m gait.Modality, iv intervals.Intervals, fs float64) error {
	return db.inTx(func(tx *sql.Tx) error {
		return insertIntervals(tx, runID, subject, m, iv, fs)
	})
}

func insertIntervals(tx *sql.Tx, runID, subject string, m gait.Modality, iv intervals.Intervals, fs float64) error {
	stmt, err := tx.Prepare(`
		INSERT INTO subject_intervals (
			run_id, subject, modality, cycle,
			stance_samples, swing_samples, stride_samples, sampling_rate_hz
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < iv.Len(); i++ {
		if _, err := stmt.Exec(runID, subject, string(m), i, iv.Stance[i], iv.Swing[i], iv.Stride[i], fs); err != nil {
			return fmt.Errorf("insert cycle %d: %w", i, err)
		}
	}
	return nil
}

// Intervals returns the stored per-cycle intervals and sampling rate for a
// subject and modality.
func (db *DB) Intervals(runID, subject string, m gait.Modality) (intervals.Intervals, float64, error) {
	rows, err := db.Query(`
		SELECT stance_samples, swing_samples, stride_samples, sampling_rate_hz
		FROM subject_intervals
		WHERE run_id = ? AND subject = ? AND modality = ?
		ORDER BY cycle`, runID, subject, string(m))
	if err != nil {
		return intervals.Intervals{}, 0, err
	}
	defer rows.Close()

	var (
		iv intervals.Intervals
		fs float64
	)
	for rows.Next() {
		var stance, swing, stride int
		if err := rows.Scan(&stance, &swing, &stride, &fs); err != nil {
			return intervals.Intervals{}, 0, err
		}
		iv.Stance = append(iv.Stance, stance)
		iv.Swing = append(iv.Swing, swing)
		iv.Stride = append(iv.Stride, stride)
	}
	return iv, fs, rows.Err()
}

// InsertCorrelation stores one comparison. NaN coefficients are stored as
// NULL.
func (db *DB) InsertCorrelation(runID string, c CorrelationRecord) error {
	var errText interface{}
	if c.Err != "" {
		errText = c.Err
	}
	return retryOnBusy(func() error {
		_, err := db.Exec(`
			INSERT INTO correlations (run_id, metric, r, p_value, n, error)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, string(c.Metric), nullFloat(c.R), nullFloat(c.P), c.N, errText)
		return err
	})
}

// ListCorrelations returns a run's comparisons ordered stance, swing,
// stride.
func (db *DB) ListCorrelations(runID string) ([]CorrelationRecord, error) {
	rows, err := db.Query(`
		SELECT metric, r, p_value, n, error FROM correlations
		WHERE run_id = ?
		ORDER BY CASE metric WHEN 'stance' THEN 0 WHEN 'swing' THEN 1 WHEN 'stride' THEN 2 ELSE 3 END`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CorrelationRecord
	for rows.Next() {
		var (
			c      CorrelationRecord
			metric string
			r, p   sql.NullFloat64
			errMsg sql.NullString
		)
		if err := rows.Scan(&metric, &r, &p, &c.N, &errMsg); err != nil {
			return nil, err
		}
		c.Metric = intervals.Metric(metric)
		c.R = fromNullFloat(r)
		c.P = fromNullFloat(p)
		c.Err = errMsg.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveResults stores every analysed subject's events and intervals and the
// comparisons under runID. Each subject is written in one transaction, so a
// failure leaves earlier subjects stored and nothing of the failing one.
func (db *DB) SaveResults(runID string, res *pipeline.Results, comparisons []pipeline.Comparison) error {
	for _, sm := range res.Ordered() {
		if err := db.inTx(func(tx *sql.Tx) error {
			return saveSubject(tx, runID, sm)
		}); err != nil {
			return err
		}
	}
	for _, c := range comparisons {
		rec := CorrelationRecord{Metric: c.Metric, R: c.Correlation.R, P: c.Correlation.P, N: len(c.Gyro)}
		if c.Err != nil {
			rec.Err = c.Err.Error()
		}
		if err := db.InsertCorrelation(runID, rec); err != nil {
			return fmt.Errorf("correlation %s: %w", c.Metric, err)
		}
	}
	return nil
}

func saveSubject(tx *sql.Tx, runID string, sm *pipeline.SubjectMetrics) error {
	for _, m := range []gait.Modality{gait.ChestAccel, gait.ShankGyro} {
		mm := sm.Get(m)
		if mm == nil {
			continue
		}
		if err := insertEvents(tx, runID, sm.Subject, m, mm.HeelStrikes); err != nil {
			return fmt.Errorf("%s %s heel strikes: %w", sm.Subject, m, err)
		}
		if err := insertEvents(tx, runID, sm.Subject, m, mm.ToeOffs); err != nil {
			return fmt.Errorf("%s %s toe offs: %w", sm.Subject, m, err)
		}
		if err := insertIntervals(tx, runID, sm.Subject, m, mm.Intervals, mm.SamplingRate); err != nil {
			return fmt.Errorf("%s %s intervals: %w", sm.Subject, m, err)
		}
	}
	return nil
}

func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	return retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
