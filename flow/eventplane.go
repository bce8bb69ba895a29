package flow

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/decibelcooper/hicflow/particle"
)

// EventPlane measures v_n relative to event planes reconstructed from two
// sub-events separated in pseudorapidity. Particles with eta < 0 are
// correlated with the plane of the forward sub-event and the others with
// the backward one.
type EventPlane struct {
	n   int
	gap float64
}

// NewEventPlane returns an estimator for harmonic n with sub-events at
// eta < -gap/2 and eta > gap/2.
func NewEventPlane(n int, gap float64) (*EventPlane, error) {
	if err := checkHarmonic(n); err != nil {
		return nil, err
	}
	if gap < 0 || math.IsNaN(gap) {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidGap, gap)
	}
	return &EventPlane{n: n, gap: gap}, nil
}

func (ep *EventPlane) Harmonic() int { return ep.n }

// planes holds the sub-event angles of one event.
type planes struct {
	backward, forward float64
	ok                bool
}

func (ep *EventPlane) qVector(p *particle.Particle) (complex128, error) {
	phi, err := p.Phi()
	if err != nil {
		return 0, err
	}
	return complex(weight(p), 0) * cmplx.Exp(complex(0, float64(ep.n)*phi)), nil
}

// eventPlanes reconstructs both planes of every event and the resolution
// sqrt(<cos n(Psi_A - Psi_B)>) over events where both exist.
func (ep *EventPlane) eventPlanes(events []particle.Event) ([]planes, float64, error) {
	n := float64(ep.n)
	out := make([]planes, len(events))
	var (
		cos   float64
		count int
	)
	for e, ev := range events {
		var qa, qb complex128
		for _, p := range ev {
			eta, err := p.Pseudorapidity()
			if err != nil {
				return nil, 0, err
			}
			var sub *complex128
			switch {
			case eta < -ep.gap/2:
				sub = &qa
			case eta > ep.gap/2:
				sub = &qb
			default:
				continue
			}
			q, err := ep.qVector(p)
			if err != nil {
				return nil, 0, err
			}
			*sub += q
		}
		if qa == 0 || qb == 0 {
			continue
		}
		out[e] = planes{backward: cmplx.Phase(qa) / n, forward: cmplx.Phase(qb) / n, ok: true}
		cos += math.Cos(n * (out[e].backward - out[e].forward))
		count++
	}
	if count == 0 {
		return out, 0, nil
	}
	r2 := cos / float64(count)
	if r2 <= 0 {
		return out, 0, nil
	}
	return out, math.Sqrt(r2), nil
}

// flow correlates the particles of pois with the planes of the event they
// came from.
func (ep *EventPlane) flow(pois []particle.Event, pl []planes, resolution float64) (complex128, error) {
	if resolution <= 0 {
		return 0, nil
	}
	n := float64(ep.n)
	var (
		sum  complex128
		wsum float64
	)
	for e, ev := range pois {
		if !pl[e].ok {
			continue
		}
		for _, p := range ev {
			phi, err := p.Phi()
			if err != nil {
				return 0, err
			}
			eta, err := p.Pseudorapidity()
			if err != nil {
				return 0, err
			}
			psi := pl[e].backward
			if eta < 0 {
				psi = pl[e].forward
			}
			w := weight(p)
			sum += complex(w, 0) * cmplx.Exp(complex(0, n*(phi-psi)))
			wsum += w
		}
	}
	if wsum == 0 {
		return 0, nil
	}
	return sum / complex(wsum*resolution, 0), nil
}

// Resolution is the sub-event plane resolution of events.
func (ep *EventPlane) Resolution(events []particle.Event) (float64, error) {
	_, r, err := ep.eventPlanes(events)
	return r, err
}

// IntegratedFlow is the resolution corrected mean of exp(i n (phi - Psi))
// over all particles, Psi being the plane of the opposite sub-event.
func (ep *EventPlane) IntegratedFlow(events []particle.Event) (complex128, error) {
	pl, r, err := ep.eventPlanes(events)
	if err != nil {
		return 0, err
	}
	return ep.flow(events, pl, r)
}

// DifferentialFlow bins the particles of interest in obs. The planes are
// always reconstructed from the full events.
func (ep *EventPlane) DifferentialFlow(events []particle.Event, bins []float64, obs Observable) ([]complex128, error) {
	pl, r, err := ep.eventPlanes(events)
	if err != nil {
		return nil, err
	}
	return differential(ep.n, events, bins, obs, func(binned []particle.Event) (complex128, error) {
		return ep.flow(binned, pl, r)
	})
}
