// Package hicflow holds the pieces shared by the analysis commands: flag
// types, plot tickers, the analysis config file and the multi-file loader.
package hicflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/hicflow/loader"
	"github.com/decibelcooper/hicflow/particle"
)

const (
	OscarFormat    = "oscar"
	JetscapeFormat = "jetscape"
)

// NewLoader returns the loader for format, or picks one from the file
// extension when format is empty.
func NewLoader(path, format string, opts ...loader.Option) (loader.Loader, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = OscarFormat
		if filepath.Ext(path) == ".dat" {
			format = JetscapeFormat
		}
	}
	switch format {
	case OscarFormat:
		return loader.NewOscar(path, opts...)
	case JetscapeFormat:
		return loader.NewJetscape(path, opts...)
	}
	return nil, fmt.Errorf("%w: format %q", loader.ErrInvalidEnum, format)
}

// LoadFiles loads every path with its own loader, running at most jobs
// loads at once (no limit if jobs <= 0). Results keep the order of paths.
// The first error cancels the loads that have not started.
func LoadFiles(ctx context.Context, paths []string, format string, opts loader.Options, jobs int, lopts ...loader.Option) ([]*loader.Collection, error) {
	out := make([]*loader.Collection, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := NewLoader(path, format, lopts...)
			if err != nil {
				return err
			}
			c, err := l.Load(opts)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Concat joins the events of several collections in order.
func Concat(cs []*loader.Collection) []particle.Event {
	n := 0
	for _, c := range cs {
		n += c.NumEvents()
	}
	events := make([]particle.Event, 0, n)
	for _, c := range cs {
		events = append(events, c.Events()...)
	}
	return events
}
