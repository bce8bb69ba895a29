package particle

import (
	"math"

	"go-hep.org/x/hep/heppdt"
)

// PDGInfo holds what a PDG code says about a species. A zero PDGInfo is an
// invalid code.
type PDGInfo struct {
	Valid bool

	// ThreeCharge is three times the electric charge.
	ThreeCharge int
	// JSpin is 2J+1, zero when unknown.
	JSpin int

	IsMeson    bool
	IsBaryon   bool
	IsHadron   bool
	HasStrange bool
	HasCharm   bool
	HasBottom  bool
	HasTop     bool
}

// Lookup resolves PDG codes.
type Lookup interface {
	Resolve(code int) PDGInfo
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(code int) PDGInfo

func (f LookupFunc) Resolve(code int) PDGInfo { return f(code) }

// DefaultLookup decodes PDG codes with the Monte Carlo numbering scheme
// rules of go-hep's heppdt.
var DefaultLookup Lookup = pidLookup{}

type pidLookup struct{}

func (pidLookup) Resolve(code int) PDGInfo {
	pid := heppdt.PID(code)
	if !pid.IsValid() {
		return PDGInfo{}
	}
	return PDGInfo{
		Valid:       true,
		ThreeCharge: int(math.Round(3 * pid.Charge())),
		JSpin:       pid.JSpin(),
		IsMeson:     pid.IsMeson(),
		IsBaryon:    pid.IsBaryon(),
		IsHadron:    pid.IsHadron(),
		HasStrange:  pid.HasStrange(),
		HasCharm:    pid.HasCharm(),
		HasBottom:   pid.HasBottom(),
		HasTop:      pid.HasTop(),
	}
}

func (p *Particle) resolvePDG() {
	if !p.Has(PDG) {
		p.pdg = PDGInfo{}
		return
	}
	if p.lookup == nil {
		p.lookup = DefaultLookup
	}
	p.pdg = p.lookup.Resolve(p.ints[PDG])
}

// PDGValid reports whether the PDG code is set and valid. All PDG-derived
// queries fall back to neutral defaults when it is not.
func (p *Particle) PDGValid() bool { return p.pdg.Valid }

// PDGInfo returns the resolved properties of the PDG code.
func (p *Particle) PDGInfo() PDGInfo { return p.pdg }

// ChargeFromPDG returns the electric charge implied by the PDG code,
// rounded to the nearest integer for fractionally charged partons.
func (p *Particle) ChargeFromPDG() (int, bool) {
	if !p.pdg.Valid {
		return 0, false
	}
	return int(math.Round(float64(p.pdg.ThreeCharge) / 3)), true
}

func (p *Particle) IsMeson() bool  { return p.pdg.Valid && p.pdg.IsMeson }
func (p *Particle) IsBaryon() bool { return p.pdg.Valid && p.pdg.IsBaryon }
func (p *Particle) IsHadron() bool { return p.pdg.Valid && p.pdg.IsHadron }

// IsStrange reports whether the species contains a strange quark.
func (p *Particle) IsStrange() bool { return p.pdg.Valid && p.pdg.HasStrange }

// IsHeavyFlavor reports whether the species contains c, b or t quarks.
func (p *Particle) IsHeavyFlavor() bool {
	return p.pdg.Valid && (p.pdg.HasCharm || p.pdg.HasBottom || p.pdg.HasTop)
}

// Spin returns the total spin J.
func (p *Particle) Spin() (float64, bool) {
	if !p.pdg.Valid || p.pdg.JSpin == 0 {
		return 0, false
	}
	return float64(p.pdg.JSpin-1) / 2, true
}

// SpinDegeneracy returns 2J+1.
func (p *Particle) SpinDegeneracy() (int, bool) {
	if !p.pdg.Valid || p.pdg.JSpin == 0 {
		return 0, false
	}
	return p.pdg.JSpin, true
}
