package flow

import (
	"math"
	"math/cmplx"

	"github.com/decibelcooper/hicflow/particle"
)

// ReactionPlane measures v_n relative to the reaction plane of the model,
// which is fixed at zero azimuth.
type ReactionPlane struct {
	n int
}

// NewReactionPlane returns an estimator for harmonic n.
func NewReactionPlane(n int) (*ReactionPlane, error) {
	if err := checkHarmonic(n); err != nil {
		return nil, err
	}
	return &ReactionPlane{n: n}, nil
}

func (rp *ReactionPlane) Harmonic() int { return rp.n }

// IntegratedFlow is the weighted mean of exp(i n phi) over every particle
// of every event. A zero total weight gives 0.
func (rp *ReactionPlane) IntegratedFlow(events []particle.Event) (complex128, error) {
	var (
		sum  complex128
		wsum float64
	)
	for _, ev := range events {
		for _, p := range ev {
			c, w, err := rp.contribution(p)
			if err != nil {
				return 0, err
			}
			sum += c
			wsum += w
		}
	}
	if wsum == 0 {
		return 0, nil
	}
	return sum / complex(wsum, 0), nil
}

// contribution keeps the pt^n/pt^n factor, which is NaN for pt == 0.
func (rp *ReactionPlane) contribution(p *particle.Particle) (complex128, float64, error) {
	pt, err := p.Pt()
	if err != nil {
		return 0, 0, err
	}
	phi, err := p.Phi()
	if err != nil {
		return 0, 0, err
	}
	n := float64(rp.n)
	w := weight(p)
	norm := math.Pow(pt, n) / math.Pow(pt, n)
	return complex(w*norm, 0) * cmplx.Exp(complex(0, n*phi)), w, nil
}

// DifferentialFlow runs IntegratedFlow on the particles of each bin
// [bins[k], bins[k+1]) of obs.
func (rp *ReactionPlane) DifferentialFlow(events []particle.Event, bins []float64, obs Observable) ([]complex128, error) {
	return differential(rp.n, events, bins, obs, rp.IntegratedFlow)
}
