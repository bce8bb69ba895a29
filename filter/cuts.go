package filter

import (
	"github.com/decibelcooper/hicflow/particle"
)

func keep(ev particle.Event, pred func(p *particle.Particle) (bool, error)) (particle.Event, error) {
	out := make(particle.Event, 0, len(ev))
	for _, p := range ev {
		ok, err := pred(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Charged keeps particles with non-zero charge. A particle without a
// charge, such as a JETSCAPE record with an invalid PDG code, is dropped.
func Charged(ev particle.Event) (particle.Event, error) {
	return keep(ev, func(p *particle.Particle) (bool, error) {
		if !p.Has(particle.Charge) {
			return false, nil
		}
		c, err := p.Charge()
		return c != 0, err
	})
}

// Uncharged keeps neutral particles. A particle without a charge is not
// known to be neutral and is dropped as well.
func Uncharged(ev particle.Event) (particle.Event, error) {
	return keep(ev, func(p *particle.Particle) (bool, error) {
		if !p.Has(particle.Charge) {
			return false, nil
		}
		c, err := p.Charge()
		return c == 0, err
	})
}

// Strange keeps species containing a strange quark.
func Strange(ev particle.Event) (particle.Event, error) {
	return keep(ev, func(p *particle.Particle) (bool, error) {
		return p.IsStrange(), nil
	})
}

func pdgIn(codes []int) func(p *particle.Particle) (bool, error) {
	return func(p *particle.Particle) (bool, error) {
		pdg, err := p.PDG()
		if err != nil {
			return false, err
		}
		for _, c := range codes {
			if c == pdg {
				return true, nil
			}
		}
		return false, nil
	}
}

// Species keeps the given PDG codes.
func Species(codes ...int) Cut {
	in := pdgIn(codes)
	return func(ev particle.Event) (particle.Event, error) {
		return keep(ev, in)
	}
}

// RemoveSpecies drops the given PDG codes.
func RemoveSpecies(codes ...int) Cut {
	in := pdgIn(codes)
	return func(ev particle.Event) (particle.Event, error) {
		return keep(ev, func(p *particle.Particle) (bool, error) {
			ok, err := in(p)
			return !ok, err
		})
	}
}

// StatusIn keeps particles whose status code is listed.
func StatusIn(codes ...int) Cut {
	return func(ev particle.Event) (particle.Event, error) {
		return keep(ev, func(p *particle.Particle) (bool, error) {
			st, err := p.Status()
			if err != nil {
				return false, err
			}
			for _, c := range codes {
				if c == st {
					return true, nil
				}
			}
			return false, nil
		})
	}
}

// Window keeps particles whose observable lies in r.
func Window(r Range, observable func(p *particle.Particle) (float64, error)) Cut {
	return func(ev particle.Event) (particle.Event, error) {
		return keep(ev, func(p *particle.Particle) (bool, error) {
			v, err := observable(p)
			return err == nil && r.contains(v), err
		})
	}
}

// MinEventEnergy empties events whose summed energy is below e.
func MinEventEnergy(e float64) Cut {
	return func(ev particle.Event) (particle.Event, error) {
		sum := 0.0
		for _, p := range ev {
			pe, err := p.E()
			if err != nil {
				return nil, err
			}
			sum += pe
		}
		if sum < e {
			return particle.Event{}, nil
		}
		return ev, nil
	}
}

// MinMultiplicity empties events with fewer than n particles.
func MinMultiplicity(n int) Cut {
	return func(ev particle.Event) (particle.Event, error) {
		if len(ev) < n {
			return particle.Event{}, nil
		}
		return ev, nil
	}
}
