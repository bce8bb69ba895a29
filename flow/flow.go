// Package flow estimates anisotropic flow coefficients v_n from loaded
// events.
package flow

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/decibelcooper/hicflow/particle"
)

var (
	ErrInvalidHarmonic = errors.New("flow: harmonic must be a positive integer")
	ErrInvalidBins     = errors.New("flow: bins need at least two strictly increasing edges")
	ErrInvalidEnum     = errors.New("flow: unknown observable or method")
	ErrInvalidGap      = errors.New("flow: pseudorapidity gap must not be negative")
)

// Estimator computes v_n integrated over all particles or binned in an
// observable.
type Estimator interface {
	Harmonic() int
	IntegratedFlow(events []particle.Event) (complex128, error)
	DifferentialFlow(events []particle.Event, bins []float64, obs Observable) ([]complex128, error)
}

// Observable is the particle quantity used for binning.
type Observable int

const (
	Pt Observable = iota
	Rapidity
	Pseudorapidity
)

var observableNames = [...]string{
	Pt:             "pt",
	Rapidity:       "rapidity",
	Pseudorapidity: "pseudorapidity",
}

func (o Observable) String() string {
	if o < 0 || int(o) >= len(observableNames) {
		return fmt.Sprintf("Observable(%d)", int(o))
	}
	return observableNames[o]
}

// ParseObservable accepts "pt", "rapidity" and "pseudorapidity".
func ParseObservable(s string) (Observable, error) {
	for i, name := range observableNames {
		if name == s {
			return Observable(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidEnum, s)
}

// Value evaluates the observable for p.
func (o Observable) Value(p *particle.Particle) (float64, error) {
	switch o {
	case Pt:
		return p.Pt()
	case Rapidity:
		return p.Rapidity()
	case Pseudorapidity:
		return p.Pseudorapidity()
	}
	return 0, fmt.Errorf("%w %v", ErrInvalidEnum, o)
}

func checkHarmonic(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidHarmonic, n)
	}
	return nil
}

// CheckBins validates bin edges.
func CheckBins(bins []float64) error {
	if len(bins) < 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidBins, len(bins))
	}
	for i := 1; i < len(bins); i++ {
		if !(bins[i] > bins[i-1]) {
			return fmt.Errorf("%w: edge %d (%g) <= edge %d (%g)", ErrInvalidBins, i, bins[i], i-1, bins[i-1])
		}
	}
	return nil
}

// BinIndex returns k such that bins[k] <= v < bins[k+1], or -1.
func BinIndex(bins []float64, v float64) int {
	if math.IsNaN(v) || v < bins[0] || v >= bins[len(bins)-1] {
		return -1
	}
	return sort.Search(len(bins), func(i int) bool { return bins[i] > v }) - 1
}

// Partition splits every event by the bin of obs. The result is indexed
// [bin][event] and keeps one, possibly empty, entry per input event.
// Particles outside [bins[0], bins[len(bins)-1]) are dropped.
func Partition(events []particle.Event, bins []float64, obs Observable) ([][]particle.Event, error) {
	if err := CheckBins(bins); err != nil {
		return nil, err
	}
	if obs < 0 || int(obs) >= len(observableNames) {
		return nil, fmt.Errorf("%w %v", ErrInvalidEnum, obs)
	}
	out := make([][]particle.Event, len(bins)-1)
	for k := range out {
		out[k] = make([]particle.Event, len(events))
	}
	for e, ev := range events {
		for _, p := range ev {
			v, err := obs.Value(p)
			if err != nil {
				return nil, err
			}
			if k := BinIndex(bins, v); k >= 0 {
				out[k][e] = append(out[k][e], p)
			}
		}
	}
	return out, nil
}

// weight is the particle weight, 1 when the file carries none.
func weight(p *particle.Particle) float64 {
	w, err := p.Weight()
	if err != nil {
		return 1
	}
	return w
}

func differential(n int, events []particle.Event, bins []float64, obs Observable,
	binFlow func(binned []particle.Event) (complex128, error)) ([]complex128, error) {
	binned, err := Partition(events, bins, obs)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(binned))
	for k, b := range binned {
		if out[k], err = binFlow(b); err != nil {
			return nil, fmt.Errorf("flow: v%d bin %d: %w", n, k, err)
		}
	}
	return out, nil
}
