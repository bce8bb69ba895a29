// Package loader reads OSCAR2013 and JETSCAPE particle lists into events.
//
// Loading is done in two passes. Index scans the whole file once for the
// event markers and their declared particle counts. The read pass then skips
// straight to the first requested event and reads exactly the lines the
// requested events occupy, building one particle record per data line and
// applying the configured filters as each event closes.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/decibelcooper/hicflow/filter"
	"github.com/decibelcooper/hicflow/particle"
)

var (
	ErrPathNotFound       = errors.New("loader: file not found or wrong extension")
	ErrCorruptHeader      = errors.New("loader: corrupt header")
	ErrCorruptRecord      = errors.New("loader: corrupt record")
	ErrUnexpectedEOF      = errors.New("loader: unexpected end of file")
	ErrEventCountMismatch = errors.New("loader: event count mismatch")
	ErrInvalidRange       = errors.New("loader: invalid event range")
	ErrNegativeValue      = errors.New("loader: negative event number")
	ErrWrongType          = errors.New("loader: wrong option type")
	ErrUnknownOption      = errors.New("loader: unknown option")
	ErrInvalidEnum        = errors.New("loader: invalid option value")
)

// Loader is implemented by the file format readers.
type Loader interface {
	Load(opts Options) (*Collection, error)
}

// EventInfo is one row of the per-event metadata table.
type EventInfo struct {
	// Index is the event number written in the file.
	Index int
	// Count is the number of particles: declared by the file, or the
	// number left after filtering.
	Count int
}

// Index is the result of the first pass over a file.
type Index struct {
	Format particle.Format
	Header []string
	Events []EventInfo
	// Legacy is set when start markers carry no particle counts.
	Legacy bool
	// ParticleType is "hadron" or "parton" for JETSCAPE files.
	ParticleType string
}

// NumEvents is the number of indexed events.
func (idx *Index) NumEvents() int { return len(idx.Events) }

// EventRange selects the inclusive event positions [Start, End], counted
// from zero in file order.
type EventRange struct {
	Start, End int
}

// Single selects one event.
func Single(k int) *EventRange { return &EventRange{Start: k, End: k} }

// Between selects events a to b inclusive.
func Between(a, b int) *EventRange { return &EventRange{Start: a, End: b} }

func (r *EventRange) validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrNegativeValue, r.Start, r.End)
	}
	if r.Start > r.End {
		return fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

func (r *EventRange) within(n int) error {
	if r.End >= n {
		return fmt.Errorf("%w: event %d requested but file has %d events", ErrInvalidRange, r.End, n)
	}
	return nil
}

// Options configures one Load call.
type Options struct {
	// Events restricts loading to a range of events; nil loads all.
	Events *EventRange
	// Filters are applied to every event as it is read.
	Filters filter.Set
	// ParticleType is "hadron" or "parton" for JETSCAPE files; empty
	// uses the type found in the file. Other formats reject it.
	ParticleType string
}

const (
	Hadron = "hadron"
	Parton = "parton"
)

func (o Options) validate() error {
	if o.Events != nil {
		if err := o.Events.validate(); err != nil {
			return err
		}
	}
	switch o.ParticleType {
	case "", Hadron, Parton:
	default:
		return fmt.Errorf("%w: particletype %q must be %q or %q", ErrInvalidEnum, o.ParticleType, Hadron, Parton)
	}
	if err := o.Filters.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrongType, err)
	}
	return nil
}

// OptionsFromMap builds Options from loosely typed key/value pairs with the
// keys "events", "filters" and "particletype".
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	var o Options
	for key, v := range m {
		switch key {
		case "events":
			switch ev := v.(type) {
			case int:
				o.Events = Single(ev)
			case [2]int:
				o.Events = Between(ev[0], ev[1])
			case []int:
				if len(ev) != 2 {
					return o, fmt.Errorf("%w: events needs 2 values, got %d", ErrWrongType, len(ev))
				}
				o.Events = Between(ev[0], ev[1])
			default:
				return o, fmt.Errorf("%w: events is %T, want int or (int, int)", ErrWrongType, v)
			}
		case "filters":
			switch fs := v.(type) {
			case filter.Set:
				o.Filters = fs
			case map[string]interface{}:
				o.Filters = make(filter.Set, len(fs))
				for name, param := range fs {
					o.Filters[filter.Name(name)] = param
				}
			default:
				return o, fmt.Errorf("%w: filters is %T", ErrWrongType, v)
			}
		case "particletype":
			s, ok := v.(string)
			if !ok {
				return o, fmt.Errorf("%w: particletype is %T, want string", ErrWrongType, v)
			}
			o.ParticleType = s
		default:
			return o, fmt.Errorf("%w %q", ErrUnknownOption, key)
		}
	}
	return o, o.validate()
}

// Option customizes a loader.
type Option func(*config)

type config struct {
	logger *zap.Logger
	lookup particle.Lookup
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithLookup sets the PDG lookup used for every particle.
func WithLookup(l particle.Lookup) Option {
	return func(c *config) { c.lookup = l }
}

func newConfig(opts []Option) config {
	c := config{logger: zap.NewNop(), lookup: particle.DefaultLookup}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.lookup == nil {
		c.lookup = particle.DefaultLookup
	}
	return c
}

func checkPath(path string, exts ...string) error {
	ext := filepath.Ext(path)
	match := false
	for _, e := range exts {
		if ext == e {
			match = true
		}
	}
	if !match {
		return fmt.Errorf("%w: %q does not end with %s", ErrPathNotFound, path, strings.Join(exts, ", "))
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	return nil
}

// lineReader yields lines without their trailing newline.
type lineReader struct {
	rd *bufio.Reader
	n  int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{rd: bufio.NewReaderSize(r, 1<<16)}
}

func (lr *lineReader) next() (string, error) {
	line, err := lr.rd.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	lr.n++
	return strings.TrimSuffix(line, "\n"), nil
}

func (lr *lineReader) skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := lr.next(); err != nil {
			if err == io.EOF {
				return fmt.Errorf("%w: skipping to line %d", ErrUnexpectedEOF, n)
			}
			return err
		}
	}
	return nil
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}

// pdgWarner logs every invalid PDG code once.
type pdgWarner struct {
	logger *zap.Logger
	seen   map[int]bool
}

func (w *pdgWarner) check(p *particle.Particle) {
	if p.PDGValid() {
		return
	}
	code, err := p.PDG()
	if err != nil || w.seen[code] {
		return
	}
	if w.seen == nil {
		w.seen = make(map[int]bool)
	}
	w.seen[code] = true
	w.logger.Warn("invalid PDG code, PDG-derived properties use defaults", zap.Int("pdg", code))
}

// readPass holds what the bounded read needs besides the index.
type readPass struct {
	format  particle.Format
	filters filter.Set
	lookup  particle.Lookup
	warn    *pdgWarner
}

func (rp *readPass) particle(line string, lineNo int) (*particle.Particle, error) {
	p, err := particle.ParseLine(rp.format, line, rp.lookup)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptRecord, lineNo, err)
	}
	rp.warn.check(p)
	return p, nil
}

// closeEvent checks the declared count, applies the filters and records
// the post-filter count.
func (rp *readPass) closeEvent(c *Collection, ev *openEvent, checkCount bool) error {
	if checkCount && len(ev.particles) != ev.info.Count {
		return fmt.Errorf(
			"%w: event %d declares %d particles, found %d",
			ErrEventCountMismatch, ev.info.Index, ev.info.Count, len(ev.particles),
		)
	}
	ev.block.declared = len(ev.particles)
	particles := ev.particles
	if len(rp.filters) > 0 {
		var err error
		particles, err = rp.filters.Apply(particles)
		if err != nil {
			return err
		}
	}
	info := ev.info
	info.Count = len(particles)
	c.events = append(c.events, particles)
	c.meta = append(c.meta, info)
	c.blocks = append(c.blocks, ev.block)
	return nil
}

type openEvent struct {
	info      EventInfo
	particles particle.Event
	block     eventBlock
}

// windowSize returns how many lines precede event start and how many lines
// events start..end occupy, given the per-event marker overhead.
func windowSize(events []EventInfo, start, end, perEvent int) (skip, read int) {
	for i := 0; i < start; i++ {
		skip += events[i].Count + perEvent
	}
	for i := start; i <= end; i++ {
		read += events[i].Count + perEvent
	}
	return skip, read
}

func selectRange(opts Options, n int) (start, end int, err error) {
	if opts.Events == nil {
		return 0, n - 1, nil
	}
	if err := opts.Events.within(n); err != nil {
		return 0, 0, err
	}
	return opts.Events.Start, opts.Events.End, nil
}

// reconcile checks the number of materialized events against the index.
func reconcile(c *Collection, idx *Index, opts Options) error {
	if opts.Events == nil {
		if len(c.events) != idx.NumEvents() {
			return fmt.Errorf(
				"%w: index found %d events, read %d",
				ErrEventCountMismatch, idx.NumEvents(), len(c.events),
			)
		}
		return nil
	}
	want := opts.Events.End - opts.Events.Start + 1
	if len(c.events) != want {
		return fmt.Errorf("%w: requested %d events, read %d", ErrEventCountMismatch, want, len(c.events))
	}
	return nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	return f, nil
}
