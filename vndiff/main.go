package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math/cmplx"
	"os"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/hicflow"
	"github.com/decibelcooper/hicflow/flow"
	"github.com/decibelcooper/hicflow/loader"
	"github.com/decibelcooper/hicflow/particle"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options] <particle-list-file>...

Measures v_n in bins of pt, rapidity or pseudorapidity over all files,
prints a table and writes <output>.png and <output>_spectrum.png.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		config   = flag.String("config", "", "analysis config file")
		format   = flag.String("format", "", "input format: oscar or jetscape (default from extension)")
		harmonic = flag.Int("n", 0, "flow harmonic (overrides config)")
		method   = flag.String("method", "", "reactionplane or eventplane (overrides config)")
		variable = flag.String("var", "", "pt, rapidity or pseudorapidity (overrides config)")
		nBins    = flag.Int("nbins", 0, "number of uniform bins between -min and -max")
		binMin   = flag.Float64("min", 0, "lower edge of uniform bins")
		binMax   = flag.Float64("max", 3, "upper edge of uniform bins")
		title    = flag.String("title", "", "plot title")
		output   = flag.String("output", "vn", "output file prefix")
		jobs     = flag.Int("j", 4, "number of files loaded at once")
		verbose  = flag.Bool("v", false, "debug logging")
		prof     = flag.Bool("profile", false, "write a CPU profile")
		bins     hicflow.FloatArrayFlags
		events   hicflow.EventRangeFlag
	)
	flag.Var(&bins, "bin", "bin edge, repeatable or comma separated (overrides config)")
	flag.Var(&events, "events", "event `k` or range a:b, counted from 0")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	if *prof {
		defer profile.Start().Stop()
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	con := hicflow.DefaultAnalysisConfig()
	if *config != "" {
		if err := hicflow.ReadConfig(*config, con); err != nil {
			log.Fatal(err)
		}
	}
	if *format != "" {
		con.Input.Format = *format
	}
	if *harmonic != 0 {
		con.Flow.Harmonic = *harmonic
	}
	if *method != "" {
		con.Flow.Method = *method
	}
	if *variable != "" {
		con.Flow.Variable = *variable
	}
	switch {
	case bins.IsSet():
		con.Flow.Bins = bins.Array
	case *nBins > 0:
		con.Flow.Bins = floats.Span(make([]float64, *nBins+1), *binMin, *binMax)
	case len(con.Flow.Bins) == 0:
		con.Flow.Bins = floats.Span(make([]float64, 11), *binMin, *binMax)
	}

	opts, err := con.Options()
	if err != nil {
		log.Fatal(err)
	}
	if events.Range != nil {
		opts.Events = events.Range
	}
	est, err := con.Estimator()
	if err != nil {
		log.Fatal(err)
	}
	obs, err := con.Observable()
	if err != nil {
		log.Fatal(err)
	}

	collections, err := hicflow.LoadFiles(context.Background(), flag.Args(), con.Input.Format, opts, *jobs,
		loader.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	all := hicflow.Concat(collections)
	logger.Debug("loaded", zap.Int("files", len(collections)), zap.Int("events", len(all)))

	vn, err := est.DifferentialFlow(all, con.Flow.Bins, obs)
	if err != nil {
		log.Fatal(err)
	}

	edges := con.Flow.Bins
	fmt.Printf("# %s_lo %s_hi re(v_%d) im(v_%d) |v_%d|\n", obs, obs, est.Harmonic(), est.Harmonic(), est.Harmonic())
	points := make(plotter.XYs, len(vn))
	for k, v := range vn {
		fmt.Printf("%g %g %.6g %.6g %.6g\n", edges[k], edges[k+1], real(v), imag(v), cmplx.Abs(v))
		points[k].X = (edges[k] + edges[k+1]) / 2
		points[k].Y = cmplx.Abs(v)
	}

	if err := plotFlow(points, edges, obs, est.Harmonic(), *title, *output+".png"); err != nil {
		log.Fatal(err)
	}
	if err := plotSpectrum(collections, flag.Args(), edges, obs, *title, *output+"_spectrum.png"); err != nil {
		log.Fatal(err)
	}
}

func plotFlow(points plotter.XYs, edges []float64, obs flow.Observable, n int, title, filename string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = title
	p.X.Label.Text = obs.String()
	p.Y.Label.Text = fmt.Sprintf("|v_%d|", n)
	p.X.Min = edges[0]
	p.X.Max = edges[len(edges)-1]
	p.X.Tick.Marker = hicflow.BinTicks{Edges: edges, Precision: 3}
	p.Y.Tick.Marker = hicflow.PreciseTicks{NSuggestedTicks: 5}

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return err
	}
	p.Add(line, scatter)

	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// plotSpectrum histograms the binning observable of every file over the
// range of the flow bins.
func plotSpectrum(collections []*loader.Collection, names []string, edges []float64, obs flow.Observable, title, filename string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = title
	p.X.Label.Text = obs.String()
	p.Y.Label.Text = "weighted particles"
	p.X.Tick.Marker = hicflow.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = hicflow.PreciseTicks{NSuggestedTicks: 5}

	lo, hi := edges[0], edges[len(edges)-1]
	for i, c := range collections {
		hist := hbook.NewH1D(50, lo, hi)
		if err := fillSpectrum(hist, c.Events(), obs); err != nil {
			return err
		}

		lineColor := color.RGBA{A: 255}
		switch i % 4 {
		case 1:
			lineColor = color.RGBA{G: 255, A: 255}
		case 2:
			lineColor = color.RGBA{B: 255, A: 255}
		case 3:
			lineColor = color.RGBA{R: 255, B: 127, G: 127, A: 255}
		}

		h := hplot.NewH1D(hist)
		h.FillColor = nil
		h.LineStyle.Color = lineColor
		h.Infos.Style = hplot.HInfoNone

		p.Add(h)
		p.Legend.Add(names[i], h)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

func fillSpectrum(h *hbook.H1D, events []particle.Event, obs flow.Observable) error {
	for _, ev := range events {
		for _, p := range ev {
			v, err := obs.Value(p)
			if err != nil {
				return err
			}
			w, err := p.Weight()
			if err != nil {
				w = 1
			}
			h.Fill(v, w)
		}
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	return logger
}
