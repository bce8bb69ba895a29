// Package filter applies named particle cuts to events.
//
// A Set maps cut names to their parameter. Whatever order the Set was built
// in, cuts run in the order of Names: charge selections first, then species,
// event energy, kinematic windows, multiplicity and status.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/decibelcooper/hicflow/particle"
)

// Name identifies a cut.
type Name string

const (
	ChargedParticles      Name = "charged_particles"
	UnchargedParticles    Name = "uncharged_particles"
	StrangeParticles      Name = "strange_particles"
	ParticleSpecies       Name = "particle_species"
	RemoveParticleSpecies Name = "remove_particle_species"
	LowerEventEnergyCut   Name = "lower_event_energy_cut"
	PtCut                 Name = "pt_cut"
	RapidityCut           Name = "rapidity_cut"
	PseudorapidityCut     Name = "pseudorapidity_cut"
	SpatialRapidityCut    Name = "spatial_rapidity_cut"
	MultiplicityCut       Name = "multiplicity_cut"
	ParticleStatus        Name = "particle_status"
)

// Names lists every cut in application order.
var Names = []Name{
	ChargedParticles,
	UnchargedParticles,
	StrangeParticles,
	ParticleSpecies,
	RemoveParticleSpecies,
	LowerEventEnergyCut,
	PtCut,
	RapidityCut,
	PseudorapidityCut,
	SpatialRapidityCut,
	MultiplicityCut,
	ParticleStatus,
}

var (
	ErrUnknownFilter = errors.New("filter: unknown cut")
	ErrWrongType     = errors.New("filter: wrong parameter type")
)

// Range is a closed window [Min, Max]. Use math.Inf for an open side.
type Range struct {
	Min, Max float64
}

// Symmetric returns the window [-c, c].
func Symmetric(c float64) Range {
	c = math.Abs(c)
	return Range{Min: -c, Max: c}
}

func (r Range) contains(v float64) bool { return r.Min <= v && v <= r.Max }

// Set holds the configured cuts and their parameters:
//   - charged_particles, uncharged_particles, strange_particles: bool
//   - particle_species, remove_particle_species, particle_status: []int
//   - lower_event_energy_cut: float64
//   - pt_cut, rapidity_cut, pseudorapidity_cut, spatial_rapidity_cut: Range
//   - multiplicity_cut: int
type Set map[Name]interface{}

// Validate checks cut names and parameter types.
func (s Set) Validate() error {
	for name, param := range s {
		if _, err := cutFor(name, param); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs the configured cuts on ev in fixed order. The input event is
// not modified.
func (s Set) Apply(ev particle.Event) (particle.Event, error) {
	if len(s) == 0 {
		return ev, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := ev
	for _, name := range Names {
		param, ok := s[name]
		if !ok {
			continue
		}
		cut, _ := cutFor(name, param)
		var err error
		out, err = cut(out)
		if err != nil {
			return nil, fmt.Errorf("filter: %s: %w", name, err)
		}
	}
	return out, nil
}

// Cut transforms one event.
type Cut func(ev particle.Event) (particle.Event, error)

func cutFor(name Name, param interface{}) (Cut, error) {
	wrong := func() (Cut, error) {
		return nil, fmt.Errorf("%w: %s does not take %T", ErrWrongType, name, param)
	}
	switch name {
	case ChargedParticles, UnchargedParticles, StrangeParticles:
		on, ok := param.(bool)
		if !ok {
			return wrong()
		}
		if !on {
			return identity, nil
		}
		switch name {
		case ChargedParticles:
			return Charged, nil
		case UnchargedParticles:
			return Uncharged, nil
		}
		return Strange, nil

	case ParticleSpecies, RemoveParticleSpecies, ParticleStatus:
		codes, ok := intList(param)
		if !ok {
			return wrong()
		}
		switch name {
		case ParticleSpecies:
			return Species(codes...), nil
		case RemoveParticleSpecies:
			return RemoveSpecies(codes...), nil
		}
		return StatusIn(codes...), nil

	case LowerEventEnergyCut:
		e, ok := param.(float64)
		if !ok {
			return wrong()
		}
		return MinEventEnergy(e), nil

	case PtCut, RapidityCut, PseudorapidityCut, SpatialRapidityCut:
		var r Range
		switch v := param.(type) {
		case Range:
			r = v
		case float64:
			if name == PtCut {
				return wrong()
			}
			r = Symmetric(v)
		default:
			return wrong()
		}
		switch name {
		case PtCut:
			return Window(r, (*particle.Particle).Pt), nil
		case RapidityCut:
			return Window(r, (*particle.Particle).Rapidity), nil
		case PseudorapidityCut:
			return Window(r, (*particle.Particle).Pseudorapidity), nil
		}
		return Window(r, (*particle.Particle).SpatialRapidity), nil

	case MultiplicityCut:
		n, ok := param.(int)
		if !ok || n < 0 {
			return wrong()
		}
		return MinMultiplicity(n), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFilter, name)
}

func intList(param interface{}) ([]int, bool) {
	switch v := param.(type) {
	case int:
		return []int{v}, true
	case []int:
		return v, true
	}
	return nil, false
}

func identity(ev particle.Event) (particle.Event, error) { return ev, nil }
