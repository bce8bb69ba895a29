package particle

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fmom"
)

const (
	// below this |px| and |py| the azimuth is taken to be zero
	phiThreshold = 1e-6
	logEpsilon   = 1e-10
	massEpsilon  = 1e-6
)

// p4 returns the four-momentum; all of E, px, py and pz must be set.
func (p *Particle) p4() (fmom.PxPyPzE, error) {
	if err := p.need(E, Px, Py, Pz); err != nil {
		return fmom.PxPyPzE{}, err
	}
	return fmom.NewPxPyPzE(p.floats[Px], p.floats[Py], p.floats[Pz], p.floats[E]), nil
}

func (p *Particle) need(fields ...Field) error {
	for _, f := range fields {
		if !p.Has(f) {
			return fmt.Errorf("%v: %w", f, ErrUnset)
		}
	}
	return nil
}

// PAbs is the absolute momentum |p|.
func (p *Particle) PAbs() (float64, error) {
	if err := p.need(Px, Py, Pz); err != nil {
		return 0, err
	}
	v := fmom.NewPxPyPzE(p.floats[Px], p.floats[Py], p.floats[Pz], 0)
	return v.P(), nil
}

// Pt is the absolute transverse momentum.
func (p *Particle) Pt() (float64, error) {
	if err := p.need(Px, Py); err != nil {
		return 0, err
	}
	v := fmom.NewPxPyPzE(p.floats[Px], p.floats[Py], 0, 0)
	return v.Pt(), nil
}

// Phi is the azimuthal angle atan2(py, px).
func (p *Particle) Phi() (float64, error) {
	if err := p.need(Px, Py); err != nil {
		return 0, err
	}
	px, py := p.floats[Px], p.floats[Py]
	if math.Abs(px) < phiThreshold && math.Abs(py) < phiThreshold {
		return 0, nil
	}
	return math.Atan2(py, px), nil
}

// Theta is the polar angle, zero for a particle at rest.
func (p *Particle) Theta() (float64, error) {
	pabs, err := p.PAbs()
	if err != nil {
		return 0, err
	}
	if pabs == 0 {
		return 0, nil
	}
	return math.Acos(p.floats[Pz] / pabs), nil
}

// Rapidity is the momentum rapidity 1/2 ln((E+pz)/(E-pz)).
func (p *Particle) Rapidity() (float64, error) {
	if err := p.need(E, Pz); err != nil {
		return 0, err
	}
	e, pz := p.floats[E], p.floats[Pz]
	return 0.5 * math.Log((e+pz)/regularize(e-pz)), nil
}

// Pseudorapidity is 1/2 ln((|p|+pz)/(|p|-pz)).
func (p *Particle) Pseudorapidity() (float64, error) {
	pabs, err := p.PAbs()
	if err != nil {
		return 0, err
	}
	pz := p.floats[Pz]
	return 0.5 * math.Log((pabs+pz)/regularize(pabs-pz)), nil
}

func regularize(d float64) float64 {
	if math.Abs(d) < logEpsilon {
		return d + logEpsilon
	}
	return d
}

// SpatialRapidity is 1/2 ln((t+z)/(t-z)); it requires t > |z|.
func (p *Particle) SpatialRapidity() (float64, error) {
	if err := p.need(T, Z); err != nil {
		return 0, err
	}
	t, z := p.floats[T], p.floats[Z]
	if t <= math.Abs(z) {
		return 0, ErrKinematics
	}
	return 0.5 * math.Log((t+z)/(t-z)), nil
}

// ProperTime is sqrt(t^2-z^2); it requires t > |z|.
func (p *Particle) ProperTime() (float64, error) {
	if err := p.need(T, Z); err != nil {
		return 0, err
	}
	t, z := p.floats[T], p.floats[Z]
	if t <= math.Abs(z) {
		return 0, ErrKinematics
	}
	return math.Sqrt(t*t - z*z), nil
}

// AngularMomentum returns L = r x p.
func (p *Particle) AngularMomentum() ([3]float64, error) {
	if err := p.need(X, Y, Z, Px, Py, Pz); err != nil {
		return [3]float64{}, err
	}
	x, y, z := p.floats[X], p.floats[Y], p.floats[Z]
	px, py, pz := p.floats[Px], p.floats[Py], p.floats[Pz]
	return [3]float64{
		y*pz - z*py,
		z*px - x*pz,
		x*py - y*px,
	}, nil
}

// MassFromEnergyMomentum computes sqrt(E^2-p^2), zero for vanishing or
// space-like invariants.
func (p *Particle) MassFromEnergyMomentum() (float64, error) {
	if _, err := p.p4(); err != nil {
		return 0, err
	}
	return p.massFromEnergyMomentum(), nil
}

func (p *Particle) massFromEnergyMomentum() float64 {
	v, err := p.p4()
	if err != nil {
		return 0
	}
	m2 := v.M2()
	if math.Abs(m2) > massEpsilon && m2 > 0 {
		return math.Sqrt(m2)
	}
	return 0
}
