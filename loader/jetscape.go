package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/decibelcooper/hicflow/particle"
)

const (
	jetscapeHeaderLines = 1
	// one header line per event
	jetscapeMarkerLines = 1
)

// Jetscape reads JETSCAPE final state hadron or parton lists.
type Jetscape struct {
	path string
	cfg  config
}

// NewJetscape checks that path exists and ends in .dat.
func NewJetscape(path string, opts ...Option) (*Jetscape, error) {
	if err := checkPath(path, ".dat"); err != nil {
		return nil, err
	}
	return &Jetscape{path: path, cfg: newConfig(opts)}, nil
}

// Path is the file read by the loader.
func (j *Jetscape) Path() string { return j.path }

// ParticleTypeKeyword is the event header token carrying the count for the
// given particle type.
func ParticleTypeKeyword(particleType string) (string, error) {
	switch particleType {
	case Hadron:
		return "N_hadrons", nil
	case Parton:
		return "N_partons", nil
	}
	return "", fmt.Errorf("%w: particletype %q must be %q or %q", ErrInvalidEnum, particleType, Hadron, Parton)
}

// Index runs the first pass over the file. An empty particleType uses the
// type of the first event header.
func (j *Jetscape) Index(particleType string) (*Index, error) {
	f, err := open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return IndexJetscape(f, particleType)
}

// Load indexes the file and reads the selected events.
func (j *Jetscape) Load(opts Options) (*Collection, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	idx, err := j.Index(opts.ParticleType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.path, err)
	}
	j.cfg.logger.Debug("indexed JETSCAPE file",
		zap.String("path", j.path),
		zap.String("particletype", idx.ParticleType),
		zap.Int("events", idx.NumEvents()),
	)

	f, err := open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := MaterializeJetscape(f, idx, opts, WithLogger(j.cfg.logger), WithLookup(j.cfg.lookup))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.path, err)
	}
	return c, nil
}

// SigmaGen returns the generated cross section and its error from the last
// line of the file.
func (j *Jetscape) SigmaGen() (sigma, sigmaErr float64, err error) {
	f, err := open(j.path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	line, err := lastLine(f)
	if err != nil {
		return 0, 0, err
	}
	var vals []float64
	for _, tok := range strings.Fields(line) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			vals = append(vals, v)
			if len(vals) == 2 {
				return vals[0], vals[1], nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: last line %q has no sigmaGen values", ErrCorruptRecord, line)
}

func lastLine(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	const chunk = 4096
	var tail []byte
	for pos := info.Size(); pos > 0; {
		n := int64(chunk)
		if n > pos {
			n = pos
		}
		pos -= n
		buf := make([]byte, n)
		if _, err := f.ReadAt(buf, pos); err != nil && err != io.EOF {
			return "", err
		}
		tail = append(buf, tail...)
		trimmed := bytes.TrimRight(tail, "\r\n")
		if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
			return string(trimmed[i+1:]), nil
		}
		if pos == 0 {
			return string(trimmed), nil
		}
	}
	return "", nil
}

func isJetscapeMarker(line string) bool {
	return isComment(line) && strings.Contains(line, "Event") && strings.Contains(line, "weight")
}

func isSigmaGen(line string) bool {
	return isComment(line) && strings.Contains(line, "sigmaGen")
}

type jetscapeMarker struct {
	event      int
	count      int
	countField int
}

// parseJetscapeMarker reads the event number following "Event" and the
// count following keyword.
func parseJetscapeMarker(line, keyword string) (jetscapeMarker, error) {
	m := jetscapeMarker{event: -1, count: -1, countField: -1}
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		switch fields[i] {
		case "Event":
			if v, err := strconv.Atoi(fields[i+1]); err == nil {
				m.event = v
			}
		case keyword:
			if v, err := strconv.Atoi(fields[i+1]); err == nil {
				m.count = v
				m.countField = i + 1
			}
		}
	}
	if m.event < 0 {
		return m, fmt.Errorf("%w: event header %q has no event number", ErrCorruptHeader, line)
	}
	if m.count < 0 {
		return m, fmt.Errorf("%w: event header %q has no %s count", ErrCorruptHeader, line, keyword)
	}
	return m, nil
}

// detectParticleType reads the particle type from an event header.
func detectParticleType(line string) string {
	if strings.Contains(line, "N_partons") {
		return Parton
	}
	return Hadron
}

// IndexJetscape reads the header and every event header of a JETSCAPE
// stream. An empty particleType is detected from the first event header.
func IndexJetscape(r io.Reader, particleType string) (*Index, error) {
	if particleType != "" {
		if _, err := ParticleTypeKeyword(particleType); err != nil {
			return nil, err
		}
	}
	lr := newLineReader(r)
	first, err := lr.next()
	if err != nil {
		return nil, fmt.Errorf("%w: empty file", ErrCorruptHeader)
	}
	if !isComment(first) {
		return nil, fmt.Errorf("%w: first line is not a comment", ErrCorruptHeader)
	}
	idx := &Index{Format: particle.JETSCAPE, Header: []string{first}, ParticleType: particleType}

	for {
		line, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isJetscapeMarker(line) {
			continue
		}
		if idx.ParticleType == "" {
			idx.ParticleType = detectParticleType(line)
		}
		keyword, _ := ParticleTypeKeyword(idx.ParticleType)
		m, err := parseJetscapeMarker(line, keyword)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lr.n, err)
		}
		idx.Events = append(idx.Events, EventInfo{Index: m.event, Count: m.count})
	}
	if idx.ParticleType == "" {
		idx.ParticleType = Hadron
	}
	return idx, nil
}

// MaterializeJetscape reads the events selected by opts from a JETSCAPE
// stream indexed by idx. The line after the last selected event, either the
// next event header or the sigmaGen line, closes the window.
func MaterializeJetscape(r io.Reader, idx *Index, opts Options, options ...Option) (*Collection, error) {
	cfg := newConfig(options)
	start, end, err := selectRange(opts, idx.NumEvents())
	if err != nil {
		return nil, err
	}
	keyword, err := ParticleTypeKeyword(idx.ParticleType)
	if err != nil {
		return nil, err
	}
	rp := &readPass{
		format:  particle.JETSCAPE,
		filters: opts.Filters,
		lookup:  cfg.lookup,
		warn:    &pdgWarner{logger: cfg.logger},
	}
	c := newCollection(idx)
	if idx.NumEvents() == 0 {
		return c, nil
	}

	lr := newLineReader(r)
	skip, read := windowSize(idx.Events, start, end, jetscapeMarkerLines)
	read++
	if err := lr.skip(jetscapeHeaderLines + skip); err != nil {
		return nil, err
	}

	var cur *openEvent
	for i := 0; i < read; i++ {
		line, err := lr.next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %d lines missing after line %d", ErrUnexpectedEOF, read-i, lr.n)
		}
		if err != nil {
			return nil, err
		}
		last := i == read-1

		switch {
		case i == 0 && !isJetscapeMarker(line):
			return nil, fmt.Errorf("%w: line %d: expected an event header with weight", ErrCorruptHeader, lr.n)
		case isJetscapeMarker(line):
			if cur != nil {
				if err := rp.closeEvent(c, cur, true); err != nil {
					return nil, err
				}
				cur = nil
			}
			if last {
				break
			}
			m, err := parseJetscapeMarker(line, keyword)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lr.n, err)
			}
			info := idx.Events[start+len(c.events)]
			if info.Index != m.event {
				return nil, fmt.Errorf("%w: line %d: expected event %d, found %d", ErrCorruptRecord, lr.n, info.Index, m.event)
			}
			cur = &openEvent{info: info, block: eventBlock{start: line, countField: m.countField}}
		case isSigmaGen(line):
			if !last {
				return nil, fmt.Errorf("%w: sigmaGen at line %d, %d lines still expected", ErrUnexpectedEOF, lr.n, read-i-1)
			}
			if cur != nil {
				if err := rp.closeEvent(c, cur, true); err != nil {
					return nil, err
				}
				cur = nil
			}
			c.trailer = line
		case isComment(line):
			return nil, fmt.Errorf("%w: line %d: unexpected comment", ErrCorruptRecord, lr.n)
		default:
			if cur == nil {
				return nil, fmt.Errorf("%w: line %d: particle outside an event", ErrCorruptRecord, lr.n)
			}
			p, err := rp.particle(line, lr.n)
			if err != nil {
				return nil, err
			}
			cur.particles = append(cur.particles, p)
		}
	}
	if cur != nil {
		return nil, fmt.Errorf("%w: event %d has more particles than declared", ErrEventCountMismatch, cur.info.Index)
	}
	if err := reconcile(c, idx, opts); err != nil {
		return nil, err
	}
	return c, nil
}
