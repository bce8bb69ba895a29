package loader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/decibelcooper/hicflow/particle"
)

const (
	oscarHeaderLines = 3
	// start and end marker around every event
	oscarMarkerLines = 2
	// position of the count in "# event <i> out <n>"
	oscarCountField = 4
)

// Oscar reads OSCAR2013 particle lists and their extended dialects.
type Oscar struct {
	path string
	cfg  config
}

// NewOscar checks that path exists and carries an OSCAR extension.
func NewOscar(path string, opts ...Option) (*Oscar, error) {
	if err := checkPath(path, ".oscar", ".f19", ".f20"); err != nil {
		return nil, err
	}
	return &Oscar{path: path, cfg: newConfig(opts)}, nil
}

// Path is the file read by the loader.
func (o *Oscar) Path() string { return o.path }

// Index runs the first pass over the file.
func (o *Oscar) Index() (*Index, error) {
	f, err := open(o.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return IndexOscar(f)
}

// Format detects the dialect from the header.
func (o *Oscar) Format() (particle.Format, error) {
	f, err := open(o.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	line, err := newLineReader(f).next()
	if err != nil {
		return 0, fmt.Errorf("%w: %s is empty", ErrCorruptHeader, o.path)
	}
	return oscarFormat(line)
}

// Load indexes the file and reads the selected events.
func (o *Oscar) Load(opts Options) (*Collection, error) {
	if opts.ParticleType != "" {
		return nil, fmt.Errorf("%w \"particletype\" for OSCAR files", ErrUnknownOption)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	idx, err := o.Index()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.path, err)
	}
	o.cfg.logger.Debug("indexed OSCAR file",
		zap.String("path", o.path),
		zap.Stringer("format", idx.Format),
		zap.Int("events", idx.NumEvents()),
		zap.Bool("legacy", idx.Legacy),
	)

	f, err := open(o.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := MaterializeOscar(f, idx, opts, WithLogger(o.cfg.logger), WithLookup(o.cfg.lookup))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.path, err)
	}
	return c, nil
}

func oscarFormat(line string) (particle.Format, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty first line", ErrCorruptHeader)
	}
	switch fields[0] {
	case "#!OSCAR2013":
		return particle.Oscar2013, nil
	case "#!OSCAR2013Extended":
		if len(fields) > 1 {
			switch fields[1] {
			case "SMASH_IC":
				return particle.Oscar2013ExtendedIC, nil
			case "Photons":
				return particle.Oscar2013ExtendedPhotons, nil
			}
		}
		return particle.Oscar2013Extended, nil
	}
	return 0, fmt.Errorf("%w: unknown OSCAR version %q", ErrCorruptHeader, fields[0])
}

type oscarMarker struct {
	event    int
	count    int
	end      bool
	hasCount bool
}

func parseOscarMarker(line string) (oscarMarker, bool) {
	var m oscarMarker
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "#" || fields[1] != "event" {
		return m, false
	}
	ev, err := strconv.Atoi(fields[2])
	if err != nil {
		return m, false
	}
	m.event = ev
	if len(fields) > 3 && fields[3] == "end" {
		m.end = true
		return m, true
	}
	if len(fields) > oscarCountField && (fields[3] == "out" || fields[3] == "in") {
		if n, err := strconv.Atoi(fields[oscarCountField]); err == nil {
			m.count = n
			m.hasCount = true
		}
	}
	return m, true
}

// IndexOscar reads the header and every event start marker of an OSCAR
// stream.
func IndexOscar(r io.Reader) (*Index, error) {
	lr := newLineReader(r)
	first, err := lr.next()
	if err != nil {
		return nil, fmt.Errorf("%w: empty file", ErrCorruptHeader)
	}
	format, err := oscarFormat(first)
	if err != nil {
		return nil, err
	}
	idx := &Index{Format: format, Header: []string{first}}
	for len(idx.Header) < oscarHeaderLines {
		line, err := lr.next()
		if err != nil || !isComment(line) {
			return nil, fmt.Errorf("%w: header needs %d comment lines", ErrCorruptHeader, oscarHeaderLines)
		}
		idx.Header = append(idx.Header, line)
	}

	for {
		line, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		m, ok := parseOscarMarker(line)
		if !ok || m.end {
			continue
		}
		if m.count < 0 {
			return nil, fmt.Errorf("%w: line %d: negative particle count", ErrCorruptHeader, lr.n)
		}
		if !m.hasCount {
			idx.Legacy = true
		}
		idx.Events = append(idx.Events, EventInfo{Index: m.event, Count: m.count})
	}
	return idx, nil
}

// MaterializeOscar reads the events selected by opts from an OSCAR stream
// indexed by idx.
func MaterializeOscar(r io.Reader, idx *Index, opts Options, options ...Option) (*Collection, error) {
	cfg := newConfig(options)
	start, end, err := selectRange(opts, idx.NumEvents())
	if err != nil {
		return nil, err
	}
	rp := &readPass{
		format:  idx.Format,
		filters: opts.Filters,
		lookup:  cfg.lookup,
		warn:    &pdgWarner{logger: cfg.logger},
	}
	c := newCollection(idx)
	lr := newLineReader(r)
	if err := lr.skip(oscarHeaderLines); err != nil {
		return nil, err
	}

	if idx.Legacy {
		err = rp.scanOscar(lr, c, start, end)
	} else {
		err = rp.readOscar(lr, c, idx, start, end)
	}
	if err != nil {
		return nil, err
	}
	if err := reconcile(c, idx, opts); err != nil {
		return nil, err
	}
	return c, nil
}

// readOscar reads exactly the lines of events start..end using the
// declared counts.
func (rp *readPass) readOscar(lr *lineReader, c *Collection, idx *Index, start, end int) error {
	skip, read := windowSize(idx.Events, start, end, oscarMarkerLines)
	if err := lr.skip(skip); err != nil {
		return err
	}

	var cur *openEvent
	for i := 0; i < read; i++ {
		line, err := lr.next()
		if err == io.EOF {
			return fmt.Errorf("%w: %d lines missing after line %d", ErrUnexpectedEOF, read-i, lr.n)
		}
		if err != nil {
			return err
		}
		if i == 0 && !isComment(line) {
			return fmt.Errorf("%w: line %d: expected an event marker", ErrCorruptHeader, lr.n)
		}

		m, ok := parseOscarMarker(line)
		switch {
		case ok && !m.end:
			if cur != nil {
				return fmt.Errorf("%w: event %d has fewer particles than declared", ErrEventCountMismatch, cur.info.Index)
			}
			info := idx.Events[start+len(c.events)]
			if info.Index != m.event {
				return fmt.Errorf("%w: line %d: expected event %d, found %d", ErrCorruptRecord, lr.n, info.Index, m.event)
			}
			cur = &openEvent{info: info, block: eventBlock{start: line, countField: oscarCountField}}
		case ok && m.end:
			if cur == nil {
				return fmt.Errorf("%w: line %d: end marker without event", ErrCorruptRecord, lr.n)
			}
			cur.block.end = line
			if err := rp.closeEvent(c, cur, true); err != nil {
				return err
			}
			cur = nil
		case isComment(line):
			return fmt.Errorf("%w: line %d: unexpected comment", ErrCorruptRecord, lr.n)
		default:
			if cur == nil {
				return fmt.Errorf("%w: line %d: particle outside an event", ErrCorruptRecord, lr.n)
			}
			p, err := rp.particle(line, lr.n)
			if err != nil {
				return err
			}
			cur.particles = append(cur.particles, p)
		}
	}
	if cur != nil {
		return fmt.Errorf("%w: event %d has more particles than declared", ErrEventCountMismatch, cur.info.Index)
	}
	return nil
}

// scanOscar reads events start..end of a file without declared counts by
// following the markers.
func (rp *readPass) scanOscar(lr *lineReader, c *Collection, start, end int) error {
	ordinal := -1
	var cur *openEvent
	for {
		line, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		m, ok := parseOscarMarker(line)
		switch {
		case ok && !m.end:
			ordinal++
			if ordinal > end {
				return nil
			}
			if ordinal < start {
				continue
			}
			field := -1
			if m.hasCount {
				field = oscarCountField
			}
			cur = &openEvent{
				info:  EventInfo{Index: m.event},
				block: eventBlock{start: line, countField: field},
			}
		case ok && m.end:
			if cur == nil {
				continue
			}
			cur.block.end = line
			if err := rp.closeEvent(c, cur, false); err != nil {
				return err
			}
			cur = nil
			if ordinal == end {
				return nil
			}
		case isComment(line):
			if cur != nil {
				return fmt.Errorf("%w: line %d: unexpected comment", ErrCorruptRecord, lr.n)
			}
		default:
			if cur == nil {
				continue
			}
			p, err := rp.particle(line, lr.n)
			if err != nil {
				return err
			}
			cur.particles = append(cur.particles, p)
		}
	}
	if cur != nil {
		return fmt.Errorf("%w: event %d has no end marker", ErrUnexpectedEOF, cur.info.Index)
	}
	return nil
}
