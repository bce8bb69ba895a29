package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/decibelcooper/hicflow"
	"github.com/decibelcooper/hicflow/loader"
)

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: `+os.Args[0]+` [options] <input-file> <output-file>

Copies a range of events from a particle list file into a new file of the
same format, applying the cuts of the [Filter] section of -config.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		config       = flag.String("config", "", "analysis config file")
		format       = flag.String("format", "", "input format: oscar or jetscape (default from extension)")
		particleType = flag.String("particletype", "", "jetscape only: hadron or parton")
		list         = flag.Bool("list", false, "print the event index of the output")
		verbose      = flag.Bool("v", false, "debug logging")
		prof         = flag.Bool("profile", false, "write a CPU profile")
		events       hicflow.EventRangeFlag
	)
	flag.Var(&events, "events", "event `k` or range a:b, counted from 0")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 2 {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	input, output := flag.Arg(0), flag.Arg(1)

	if *prof {
		defer profile.Start().Stop()
	}

	cfg := zap.NewProductionConfig()
	if *verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatal(err)
	}
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
	if *particleType != "" {
		con.Input.ParticleType = strings.ToLower(*particleType)
	}

	opts, err := con.Options()
	if err != nil {
		log.Fatal(err)
	}
	if events.Range != nil {
		opts.Events = events.Range
	}

	l, err := hicflow.NewLoader(input, con.Input.Format, loader.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	c, err := l.Load(opts)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.WriteFile(output); err != nil {
		log.Fatal(err)
	}
	logger.Debug("written",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("events", c.NumEvents()),
		zap.Int("particles", c.ParticleCount()),
	)

	if *list {
		for _, info := range c.Metadata() {
			fmt.Printf("%d %d\n", info.Index, info.Count)
		}
	}
}
