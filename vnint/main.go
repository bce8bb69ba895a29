package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/cmplx"
	"os"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/decibelcooper/hicflow"
	"github.com/decibelcooper/hicflow/loader"
	"github.com/decibelcooper/hicflow/particle"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options] <particle-list-file>...

Prints the integrated flow coefficient v_n of every file and of all files
together.

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
		etaGap   = flag.Float64("etagap", -1, "event plane pseudorapidity gap (overrides config)")
		jobs     = flag.Int("j", 4, "number of files loaded at once")
		verbose  = flag.Bool("v", false, "debug logging")
		prof     = flag.Bool("profile", false, "write a CPU profile")
		events   hicflow.EventRangeFlag
	)
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
	if *etaGap >= 0 {
		con.Flow.EtaGap = *etaGap
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

	collections, err := hicflow.LoadFiles(context.Background(), flag.Args(), con.Input.Format, opts, *jobs,
		loader.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	for i, c := range collections {
		logger.Debug("loaded",
			zap.String("path", flag.Arg(i)),
			zap.Int("events", c.NumEvents()),
			zap.Int("particles", c.ParticleCount()),
		)
		report(flag.Arg(i), est.Harmonic(), c.Events(), est.IntegratedFlow)
	}
	if len(collections) > 1 {
		report("all", est.Harmonic(), hicflow.Concat(collections), est.IntegratedFlow)
	}
}

func report(name string, n int, events []particle.Event, integrated func([]particle.Event) (complex128, error)) {
	v, err := integrated(events)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %d events  v_%d = %.6g %+.6gi  |v_%d| = %.6g\n",
		name, len(events), n, real(v), imag(v), n, cmplx.Abs(v))
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
