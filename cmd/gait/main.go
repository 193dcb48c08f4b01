// Command gait detects heel strikes and toe offs in chest accelerometer and
// shank gyroscope recordings, derives stance, swing and stride intervals,
// and compares the two sensors across subjects.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/gait.report/internal/config"
	"github.com/banshee-data/gait.report/internal/db"
	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/ingest"
	"github.com/banshee-data/gait.report/internal/gait/pipeline"
	"github.com/banshee-data/gait.report/internal/gait/report"
	"github.com/banshee-data/gait.report/internal/timeutil"
	"github.com/banshee-data/gait.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON config file (built-in defaults when empty)")
	dataDir     = flag.String("data", "RawData", "Directory holding the subject recordings")
	outDir      = flag.String("out", "out", "Directory for reports and plots")
	dbPath      = flag.String("db", "", "sqlite results database (default <out>/gait.db, \"none\" to skip)")
	workers     = flag.Int("workers", 0, "Subjects analysed in parallel (0 uses the config value)")
	subjects    = flag.Int("subjects", 0, "Number of subjects to load (0 uses the config value)")
	plots       = flag.Bool("plots", false, "Write scalogram and event overlay PNGs")
	verbose     = flag.Bool("v", false, "Log tuning diagnostics")
	veryVerbose = flag.Bool("vv", false, "Log per-scale transform telemetry")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the resolved command line.
type options struct {
	ConfigPath string
	DataDir    string
	OutDir     string
	DBPath     string
	Workers    int
	Subjects   int
	Plots      bool
	Clock      timeutil.Clock
}

// errAllFailed is returned when no subject could be analysed.
var errAllFailed = errors.New("every subject failed")

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	lw := gait.LogWriters{Ops: os.Stderr}
	if *verbose || *veryVerbose {
		lw.Diag = os.Stderr
	}
	if *veryVerbose {
		lw.Trace = os.Stderr
	}
	gait.SetLogWriters(lw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		ConfigPath: *configPath,
		DataDir:    *dataDir,
		OutDir:     *outDir,
		DBPath:     *dbPath,
		Workers:    *workers,
		Subjects:   *subjects,
		Plots:      *plots,
	}
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Printf("gait: %v", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.GaitConfig, error) {
	cfg := config.DefaultGaitConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadGaitConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opts.Workers > 0 {
		cfg.Workers = &opts.Workers
	}
	if opts.Subjects > 0 {
		cfg.SubjectCount = &opts.Subjects
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run performs one batch analysis and writes its outputs. It fails only on
// invalid configuration, unwritable outputs, or when no subject succeeds.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	started := opts.Clock.Now()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	loader, err := cfg.Loader(os.DirFS(opts.DataDir))
	if err != nil {
		return err
	}
	analyzer, err := cfg.Analyzer()
	if err != nil {
		return err
	}
	analyzer.KeepDetections = opts.Plots

	catalog := loader.LoadAll(ingest.SubjectRange(cfg.GetSubjectCount()))
	gait.Diagf("loaded %d subjects from %s, %d failed", catalog.Len(), opts.DataDir, len(catalog.Failed))

	res, err := analyzer.Run(ctx, catalog, cfg.GetWorkers())
	if err != nil {
		return err
	}
	if len(res.Subjects) == 0 {
		return fmt.Errorf("%w (%d attempted)", errAllFailed, len(res.Failed))
	}

	comparisons := res.Correlate()
	sampleSize, err := cfg.SampleSize()
	if err != nil {
		gait.Opsf("sample size: %v", err)
		sampleSize = math.NaN()
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	var text bytes.Buffer
	if err := report.WriteSummary(&text, res); err != nil {
		return err
	}
	text.WriteString("\n")
	if err := report.WriteText(&text, comparisons, sampleSize, cfg.GetAlpha()); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(opts.OutDir, "report.txt"), text.Bytes(), 0644); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	if _, err := stdout.Write(text.Bytes()); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(opts.OutDir, "report.html"), func(w io.Writer) error {
		return report.ScatterChart(w, comparisons)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(opts.OutDir, "intervals.csv"), func(w io.Writer) error {
		return report.WriteIntervalsCSV(w, res, cfg.GetIntervalUnit())
	}); err != nil {
		return err
	}

	if opts.Plots {
		p, err := report.NewPlotter(filepath.Join(opts.OutDir, "plots"))
		if err != nil {
			return err
		}
		chest, err := cfg.ChestDetector()
		if err != nil {
			return err
		}
		shank, err := cfg.ShankDetector()
		if err != nil {
			return err
		}
		n, err := p.GeneratePlots(res, catalog, chest, shank)
		if err != nil {
			return err
		}
		gait.Diagf("wrote %d plots", n)
	}

	runID := ""
	if opts.DBPath != "none" {
		path := opts.DBPath
		if path == "" {
			path = filepath.Join(opts.OutDir, "gait.db")
		}
		if runID, err = persist(path, cfg, res, comparisons, sampleSize, started); err != nil {
			return err
		}
	}

	gait.Opsf("run finished in %v", opts.Clock.Since(started).Round(time.Millisecond))
	fmt.Fprintf(stdout, "\nanalysed %d subjects, %d failed", len(res.Subjects), len(res.Failed))
	if runID != "" {
		fmt.Fprintf(stdout, ", run %s", runID)
	}
	fmt.Fprintln(stdout)
	return nil
}

// persist records the run and its results in the sqlite database at path
// and returns the run ID.
func persist(path string, cfg *config.GaitConfig, res *pipeline.Results, comparisons []pipeline.Comparison, sampleSize float64, started time.Time) (string, error) {
	d, err := db.NewDB(path)
	if err != nil {
		return "", fmt.Errorf("open results database: %w", err)
	}
	defer d.Close()

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	r := &db.Run{
		StartedAt:  started.UnixNano(),
		Version:    version.Version,
		GitSHA:     version.GitSHA,
		ConfigJSON: cfgJSON,
		Subjects:   len(res.Subjects),
		Failed:     len(res.Failed),
		SampleSize: sampleSize,
	}
	if err := d.InsertRun(r); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err := d.SaveResults(r.RunID, res, comparisons); err != nil {
		return "", fmt.Errorf("save results: %w", err)
	}
	return r.RunID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
