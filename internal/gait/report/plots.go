package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/detect"
	"github.com/banshee-data/gait.report/internal/gait/ingest"
	"github.com/banshee-data/gait.report/internal/gait/pipeline"
	"github.com/banshee-data/gait.report/internal/gait/wavelet"
	"github.com/banshee-data/gait.report/internal/security"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	rawColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	rowColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	hsColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	toColor    = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// Plotter writes PNG plots of detection results into one directory.
type Plotter struct {
	outputDir string
}

// NewPlotter creates outputDir if needed.
func NewPlotter(outputDir string) (*Plotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Plotter{outputDir: outputDir}, nil
}

// scalogramGrid adapts a Scalogram to plotter.GridXYZ: columns are samples,
// rows are scales.
type scalogramGrid struct {
	sg     *wavelet.Scalogram
	scales []int
}

func (g scalogramGrid) Dims() (c, r int) {
	r, c = g.sg.Dims()
	return c, r
}

func (g scalogramGrid) Z(c, r int) float64 { return g.sg.At(r, c) }
func (g scalogramGrid) X(c int) float64    { return float64(c) }
func (g scalogramGrid) Y(r int) float64    { return float64(g.scales[r]) }

// ScalogramPlot writes the transform magnitude over data point and scale as
// a PNG heat map. It is the view used to pick a scale whose peaks line up
// with the events.
func ScalogramPlot(res *detect.Result, title, path string) error {
	if res == nil || res.Scalogram == nil {
		return fmt.Errorf("%s: no scalogram", title)
	}
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "Data Point"
	pl.Y.Label.Text = "Scale"

	grid := scalogramGrid{sg: res.Scalogram, scales: res.Scalogram.Scales()}
	pl.Add(plotter.NewHeatMap(grid, palette.Heat(16, 1)))

	if err := pl.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save scalogram plot: %w", err)
	}
	return nil
}

// Overlay is the input to OverlayPlot. Raw and Row share Times.
type Overlay struct {
	Title string
	Axis  gait.Axis
	Scale int
	Times []float64
	Raw   []float64
	Row   []float64
	Heel  gait.EventIndexSet
	Toe   gait.EventIndexSet
}

// OverlayPlot writes the raw axis, the transform row at the detection scale
// and the detected events against time.
func OverlayPlot(o Overlay, path string) error {
	if len(o.Raw) != len(o.Times) || len(o.Row) != len(o.Times) {
		return fmt.Errorf("%s: times, raw and row lengths differ (%d, %d, %d)", o.Title, len(o.Times), len(o.Raw), len(o.Row))
	}

	pl := plot.New()
	pl.Title.Text = o.Title
	pl.X.Label.Text = "Time (seconds)"
	pl.Y.Label.Text = o.Axis.String()

	rawPts := make(plotter.XYs, len(o.Raw))
	rowPts := make(plotter.XYs, len(o.Row))
	for i := range o.Times {
		rawPts[i] = plotter.XY{X: o.Times[i], Y: o.Raw[i]}
		rowPts[i] = plotter.XY{X: o.Times[i], Y: o.Row[i]}
	}

	rawLine, err := plotter.NewLine(rawPts)
	if err != nil {
		return err
	}
	rawLine.Color = rawColor
	rawLine.Width = vg.Points(1)
	pl.Add(rawLine)
	pl.Legend.Add("raw data", rawLine)

	rowLine, err := plotter.NewLine(rowPts)
	if err != nil {
		return err
	}
	rowLine.Color = rowColor
	rowLine.Width = vg.Points(1)
	pl.Add(rowLine)
	pl.Legend.Add(fmt.Sprintf("morlet scale %d", o.Scale), rowLine)

	for _, ev := range []struct {
		set   gait.EventIndexSet
		label string
		shape draw.GlyphDrawer
		color color.Color
	}{
		{o.Heel, "HS Events", draw.TriangleGlyph{}, hsColor},
		{o.Toe, "TO Events", draw.BoxGlyph{}, toColor},
	} {
		if ev.set.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, ev.set.Len())
		for _, e := range ev.set.Events {
			if e.Index < 0 || e.Index >= len(o.Times) {
				return fmt.Errorf("%s: event index %d out of range", o.Title, e.Index)
			}
			pts = append(pts, plotter.XY{X: o.Times[e.Index], Y: e.Magnitude})
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = ev.shape
		sc.GlyphStyle.Color = ev.color
		sc.GlyphStyle.Radius = vg.Points(3)
		pl.Add(sc)
		pl.Legend.Add(ev.label, sc)
	}

	pl.Legend.Top = true
	pl.Legend.Left = false
	pl.Legend.XOffs = -10
	pl.Legend.YOffs = -10

	if err := pl.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save overlay plot: %w", err)
	}
	return nil
}

// plotPath names a plot file inside the output directory.
func (p *Plotter) plotPath(subject string, m gait.Modality, kind string) (string, error) {
	name := security.SanitizeFilename(fmt.Sprintf("%s_%s_%s", subject, m, kind)) + ".png"
	path := filepath.Join(p.outputDir, name)
	if err := security.ValidatePathWithinDirectory(path, p.outputDir); err != nil {
		return "", err
	}
	return path, nil
}

// GeneratePlots writes the scalogram and overlay for every analysed
// modality that kept its detection result. Returns the number of files.
func (p *Plotter) GeneratePlots(res *pipeline.Results, c *ingest.Catalog, chest, shank detect.Config) (int, error) {
	count := 0
	for _, sm := range res.Ordered() {
		b, ok := c.Get(sm.Subject)
		if !ok {
			continue
		}
		for _, item := range []struct {
			mm  *pipeline.ModalityMetrics
			cfg detect.Config
		}{
			{sm.ChestAccel, chest},
			{sm.ShankGyro, shank},
		} {
			if item.mm == nil || item.mm.Detection == nil {
				continue
			}
			s, ok := b.Series(item.mm.Modality)
			if !ok {
				continue
			}
			m, det := item.mm.Modality, item.mm.Detection
			path, err := p.plotPath(sm.Subject, m, "scalogram")
			if err != nil {
				return count, err
			}
			if err := ScalogramPlot(det, fmt.Sprintf("Scalogram %s - %s", m, sm.Subject), path); err != nil {
				return count, err
			}
			count++
			o := Overlay{
				Title: fmt.Sprintf("%s - %s", m, sm.Subject),
				Axis:  item.cfg.Axis,
				Scale: item.cfg.Scale,
				Times: s.Times(),
				Raw:   s.Axis(item.cfg.Axis),
				Row:   det.Row,
				Heel:  det.HeelStrikes,
				Toe:   det.ToeOffs,
			}
			if path, err = p.plotPath(sm.Subject, m, "events"); err != nil {
				return count, err
			}
			if err := OverlayPlot(o, path); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
