package loader

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/decibelcooper/hicflow/filter"
	"github.com/decibelcooper/hicflow/particle"
)

// eventBlock keeps the marker lines of one event as they were read.
type eventBlock struct {
	start string
	end   string
	// countField is the position of the particle count in start, or -1.
	countField int
	// declared is the number of particles read for the event.
	declared int
}

// Collection is a loaded sequence of events with a metadata row per event.
type Collection struct {
	format  particle.Format
	header  []string
	events  []particle.Event
	meta    []EventInfo
	blocks  []eventBlock
	trailer string
}

func newCollection(idx *Index) *Collection {
	return &Collection{
		format: idx.Format,
		header: append([]string(nil), idx.Header...),
	}
}

// Format is the column layout of the source file.
func (c *Collection) Format() particle.Format { return c.format }

// Events returns the loaded events in file order.
func (c *Collection) Events() []particle.Event { return c.events }

// NumEvents is the number of loaded events.
func (c *Collection) NumEvents() int { return len(c.events) }

// Metadata returns a copy of the per-event metadata table.
func (c *Collection) Metadata() []EventInfo {
	return append([]EventInfo(nil), c.meta...)
}

// ParticleCount is the number of particles over all events.
func (c *Collection) ParticleCount() int {
	n := 0
	for _, ev := range c.events {
		n += len(ev)
	}
	return n
}

// Filter applies set to every event and updates the metadata counts.
func (c *Collection) Filter(set filter.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	for i, ev := range c.events {
		out, err := set.Apply(ev)
		if err != nil {
			return err
		}
		c.events[i] = out
		c.meta[i].Count = len(out)
	}
	return nil
}

// Write re-serializes the collection in the layout of its source file.
// Lines are written as they were read; only the particle count of an event
// whose particles were filtered is rewritten.
func (c *Collection) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	line := func(s string) {
		buf = append(buf[:0], s...)
		buf = append(buf, '\n')
		bw.Write(buf)
	}

	for _, h := range c.header {
		line(h)
	}
	for i, ev := range c.events {
		block := c.blocks[i]
		start := block.start
		if block.countField >= 0 && len(ev) != block.declared {
			start = replaceField(start, block.countField, strconv.Itoa(len(ev)))
		}
		line(start)
		for _, p := range ev {
			buf = p.AppendColumns(buf[:0], c.format)
			buf = append(buf, '\n')
			bw.Write(buf)
		}
		if block.end != "" {
			line(block.end)
		}
	}
	if c.trailer != "" {
		line(c.trailer)
	}
	return bw.Flush()
}

// WriteFile writes the collection to path.
func (c *Collection) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// replaceField swaps the i-th whitespace separated field of line for val,
// keeping the separators untouched.
func replaceField(line string, i int, val string) string {
	field := -1
	inField := false
	begin := 0
	for pos := 0; pos <= len(line); pos++ {
		space := pos == len(line) || line[pos] == ' ' || line[pos] == '\t'
		switch {
		case !space && !inField:
			inField = true
			field++
			begin = pos
		case space && inField:
			inField = false
			if field == i {
				return line[:begin] + val + line[pos:]
			}
		}
	}
	return line
}
