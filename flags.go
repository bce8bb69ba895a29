package hicflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/decibelcooper/hicflow/filter"
	"github.com/decibelcooper/hicflow/loader"
)

// FloatArrayFlags collects a repeatable float flag. Each value may also be a
// comma separated list. The first value given replaces the default.
type FloatArrayFlags struct {
	Array   []float64
	beenSet bool
}

func (f *FloatArrayFlags) Set(valueStr string) error {
	var values []float64
	for _, s := range strings.Split(valueStr, ",") {
		value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		values = append(values, value)
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	f.Array = append(f.Array, values...)
	return nil
}

func (f *FloatArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

// IsSet reports whether the flag was given on the command line.
func (f *FloatArrayFlags) IsSet() bool { return f.beenSet }

// EventRangeFlag holds an event selection written as "k" or "a:b".
type EventRangeFlag struct {
	Range *loader.EventRange
}

func (f *EventRangeFlag) Set(valueStr string) error {
	r, err := ParseEventRange(valueStr)
	if err != nil {
		return err
	}
	f.Range = r
	return nil
}

func (f *EventRangeFlag) String() string {
	if f == nil || f.Range == nil {
		return ""
	}
	if f.Range.Start == f.Range.End {
		return strconv.Itoa(f.Range.Start)
	}
	return fmt.Sprintf("%d:%d", f.Range.Start, f.Range.End)
}

// ParseEventRange parses "k" or "a:b". An empty string selects all events.
func ParseEventRange(s string) (*loader.EventRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.SplitN(s, ":", 2)
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: events %q", loader.ErrWrongType, s)
	}
	end := start
	if len(parts) == 2 {
		if end, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
			return nil, fmt.Errorf("%w: events %q", loader.ErrWrongType, s)
		}
	}
	switch {
	case start < 0 || end < 0:
		return nil, fmt.Errorf("%w: events %q", loader.ErrNegativeValue, s)
	case start > end:
		return nil, fmt.Errorf("%w: events %q", loader.ErrInvalidRange, s)
	}
	return loader.Between(start, end), nil
}

// ParseRange parses "min:max" into a cut window. Either side may be left
// empty for an open window, and a single value c gives [-c, c].
func ParseRange(s string) (filter.Range, error) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 1 {
		c, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter.Range{}, fmt.Errorf("%w: window %q", filter.ErrWrongType, s)
		}
		return filter.Symmetric(c), nil
	}

	r := filter.Range{Min: math.Inf(-1), Max: math.Inf(1)}
	var err error
	if lo := strings.TrimSpace(parts[0]); lo != "" {
		if r.Min, err = strconv.ParseFloat(lo, 64); err != nil {
			return r, fmt.Errorf("%w: window %q", filter.ErrWrongType, s)
		}
	}
	if hi := strings.TrimSpace(parts[1]); hi != "" {
		if r.Max, err = strconv.ParseFloat(hi, 64); err != nil {
			return r, fmt.Errorf("%w: window %q", filter.ErrWrongType, s)
		}
	}
	if r.Min > r.Max {
		return r, fmt.Errorf("%w: window %q has min > max", filter.ErrWrongType, s)
	}
	return r, nil
}
