package hicflow

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/decibelcooper/hicflow/filter"
	"github.com/decibelcooper/hicflow/flow"
	"github.com/decibelcooper/hicflow/loader"
)

const ExampleAnalysisFile = `[Input]

# Format of the input files: Oscar or Jetscape. If unset, files ending in
# .dat are read as JETSCAPE and everything else as OSCAR2013.
# Format = Oscar

# Events to read, either a single event "3" or an inclusive range "0:99".
# Events counts from zero in file order.
# Events = 0:99

# JETSCAPE only: hadron or parton.
# ParticleType = hadron

[Filter]

# Cuts are applied in a fixed order, whatever the order in this file:
# charged, uncharged, strange, species, remove-species, min-energy, pt,
# rapidity, pseudorapidity, spatial-rapidity, multiplicity, status.
Charged = true
# Uncharged = false
# Strange = false

# Multi-valued: repeat the line for every PDG code.
# Species = 211
# Species = -211
# Remove-Species = 22
# Status = 27

# Windows are "min:max" with an open side left empty, or a single value c
# for [-c, c].
Pt = 0.2:3.0
Pseudorapidity = 0.8
# Rapidity = 0.5
# Spatial-Rapidity = 1.0

# Events with fewer particles or less total energy are emptied.
# Multiplicity = 10
# Min-Energy = 100

[Flow]

Harmonic = 2
# ReactionPlane or EventPlane.
Method = ReactionPlane
# Variable for differential flow: pt, rapidity or pseudorapidity.
Variable = pt
# Bin edges, one per line.
Bins = 0.2
Bins = 0.5
Bins = 1.0
Bins = 2.0
Bins = 3.0
# EventPlane only: pseudorapidity gap between the two sub-events.
# Eta-Gap = 0.4`

type InputConfig struct {
	Format       string
	Events       string
	ParticleType string
}

type FilterConfig struct {
	Charged       bool
	Uncharged     bool
	Strange       bool
	Species       []int
	RemoveSpecies []int `gcfg:"remove-species"`
	Status        []int

	Pt              string
	Rapidity        string
	Pseudorapidity  string
	SpatialRapidity string `gcfg:"spatial-rapidity"`

	Multiplicity int
	MinEnergy    float64 `gcfg:"min-energy"`
}

type FlowConfig struct {
	Harmonic int
	Method   string
	Variable string
	Bins     []float64
	EtaGap   float64 `gcfg:"eta-gap"`
}

// AnalysisConfig is the content of an analysis config file.
type AnalysisConfig struct {
	Input  InputConfig
	Filter FilterConfig
	Flow   FlowConfig
}

const (
	ReactionPlaneMethod = "reactionplane"
	EventPlaneMethod    = "eventplane"
)

func DefaultAnalysisConfig() *AnalysisConfig {
	con := &AnalysisConfig{}
	con.Flow.Harmonic = 2
	con.Flow.Method = ReactionPlaneMethod
	con.Flow.Variable = "pt"
	return con
}

// ReadConfig reads fname over the values already in con.
func ReadConfig(fname string, con *AnalysisConfig) error {
	if err := gcfg.ReadFileInto(con, fname); err != nil {
		return err
	}
	return con.check()
}

// ReadConfigString is ReadConfig for config text.
func ReadConfigString(str string, con *AnalysisConfig) error {
	if err := gcfg.ReadStringInto(con, str); err != nil {
		return err
	}
	return con.check()
}

func (con *AnalysisConfig) check() error {
	if _, err := con.Options(); err != nil {
		return err
	}
	if _, err := con.Estimator(); err != nil {
		return err
	}
	if _, err := flow.ParseObservable(strings.ToLower(con.Flow.Variable)); err != nil {
		return err
	}
	if len(con.Flow.Bins) > 0 {
		return flow.CheckBins(con.Flow.Bins)
	}
	return nil
}

// FilterSet converts the [Filter] section into cuts.
func (con *AnalysisConfig) FilterSet() (filter.Set, error) {
	fc := &con.Filter
	set := filter.Set{}
	if fc.Charged {
		set[filter.ChargedParticles] = true
	}
	if fc.Uncharged {
		set[filter.UnchargedParticles] = true
	}
	if fc.Strange {
		set[filter.StrangeParticles] = true
	}
	if len(fc.Species) > 0 {
		set[filter.ParticleSpecies] = fc.Species
	}
	if len(fc.RemoveSpecies) > 0 {
		set[filter.RemoveParticleSpecies] = fc.RemoveSpecies
	}
	if len(fc.Status) > 0 {
		set[filter.ParticleStatus] = fc.Status
	}
	for _, w := range []struct {
		name  filter.Name
		value string
	}{
		{filter.PtCut, fc.Pt},
		{filter.RapidityCut, fc.Rapidity},
		{filter.PseudorapidityCut, fc.Pseudorapidity},
		{filter.SpatialRapidityCut, fc.SpatialRapidity},
	} {
		if w.value == "" {
			continue
		}
		r, err := ParseRange(w.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", w.name, err)
		}
		set[w.name] = r
	}
	if fc.Multiplicity > 0 {
		set[filter.MultiplicityCut] = fc.Multiplicity
	}
	if fc.MinEnergy > 0 {
		set[filter.LowerEventEnergyCut] = fc.MinEnergy
	}
	return set, set.Validate()
}

// Options converts the [Input] and [Filter] sections into load options.
func (con *AnalysisConfig) Options() (loader.Options, error) {
	var opts loader.Options
	r, err := ParseEventRange(con.Input.Events)
	if err != nil {
		return opts, err
	}
	opts.Events = r
	opts.ParticleType = strings.ToLower(con.Input.ParticleType)
	if opts.Filters, err = con.FilterSet(); err != nil {
		return opts, err
	}
	if len(opts.Filters) == 0 {
		opts.Filters = nil
	}

	m := map[string]interface{}{"filters": opts.Filters}
	if opts.Events != nil {
		m["events"] = [2]int{opts.Events.Start, opts.Events.End}
	}
	if opts.ParticleType != "" {
		m["particletype"] = opts.ParticleType
	}
	return loader.OptionsFromMap(m)
}

// Estimator builds the estimator named by the [Flow] section.
func (con *AnalysisConfig) Estimator() (flow.Estimator, error) {
	switch strings.ToLower(con.Flow.Method) {
	case ReactionPlaneMethod, "":
		return flow.NewReactionPlane(con.Flow.Harmonic)
	case EventPlaneMethod:
		return flow.NewEventPlane(con.Flow.Harmonic, con.Flow.EtaGap)
	}
	return nil, fmt.Errorf("%w: method %q", flow.ErrInvalidEnum, con.Flow.Method)
}

// Observable is the differential flow variable.
func (con *AnalysisConfig) Observable() (flow.Observable, error) {
	return flow.ParseObservable(strings.ToLower(con.Flow.Variable))
}
