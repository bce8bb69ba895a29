// Package particle holds the per-particle record read from OSCAR and
// JETSCAPE particle lists, together with derived kinematics and
// PDG-derived classification.
package particle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Field identifies one quantity of a particle record.
type Field uint

const (
	T Field = iota
	X
	Y
	Z
	Mass
	E
	Px
	Py
	Pz
	PDG
	ID
	Charge
	NColl
	FormTime
	XSecFac
	ProcIDOrigin
	ProcTypeOrigin
	TLastColl
	PDGMother1
	PDGMother2
	Status
	BaryonNumber
	Strangeness
	Weight

	numFields
)

var fieldNames = [numFields]string{
	"t", "x", "y", "z", "mass", "E", "px", "py", "pz", "pdg", "ID", "charge",
	"ncoll", "form_time", "xsecfac", "proc_id_origin", "proc_type_origin",
	"t_last_coll", "pdg_mother1", "pdg_mother2", "status", "baryon_number",
	"strangeness", "weight",
}

func (f Field) String() string {
	if f >= numFields {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// IsInt reports whether f holds an integer quantity.
func (f Field) IsInt() bool {
	switch f {
	case PDG, ID, Charge, NColl, ProcIDOrigin, ProcTypeOrigin,
		PDGMother1, PDGMother2, Status, BaryonNumber, Strangeness:
		return true
	}
	return false
}

var (
	ErrUnset      = errors.New("particle: field not set")
	ErrFieldKind  = errors.New("particle: wrong field kind")
	ErrCorrupt    = errors.New("particle: corrupted input")
	ErrKinematics = errors.New("particle: |z| < t not fulfilled")
)

// Particle is one particle of an event. Every field is either set or unset;
// unset is distinct from zero.
type Particle struct {
	floats [numFields]float64
	ints   [numFields]int
	set    uint32

	lookup Lookup
	pdg    PDGInfo

	// source line, dropped once a field is set after parsing
	raw       string
	rawFormat Format
}

// New returns an empty particle whose PDG properties are resolved with
// lookup. A nil lookup uses DefaultLookup.
func New(lookup Lookup) *Particle {
	if lookup == nil {
		lookup = DefaultLookup
	}
	return &Particle{lookup: lookup}
}

// Parse builds a particle from the whitespace separated columns of one data
// line in format f.
func Parse(f Format, cols []string, lookup Lookup) (*Particle, error) {
	layout := f.Columns()
	if layout == nil {
		return nil, fmt.Errorf("%w %v", ErrUnknownFormat, f)
	}
	if len(cols) > len(layout) || len(cols) < f.minColumns() {
		return nil, fmt.Errorf(
			"%w: %v line has %d columns, want %d",
			ErrCorrupt, f, len(cols), len(layout),
		)
	}

	p := New(lookup)
	for i, tok := range cols {
		field := layout[i]
		if field.IsInt() {
			v, err := parseInt(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: column %d (%v): %v", ErrCorrupt, i, field, err)
			}
			p.setInt(field, v)
		} else {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %d (%v): %v", ErrCorrupt, i, field, err)
			}
			p.setFloat(field, v)
		}
	}

	p.resolvePDG()
	if f == JETSCAPE {
		p.setFloat(Mass, p.massFromEnergyMomentum())
		if c, ok := p.ChargeFromPDG(); ok {
			p.setInt(Charge, c)
		}
	}

	return p, nil
}

// ParseLine is Parse for a whole data line. The line is kept so that
// AppendColumns reproduces it byte for byte until a field is changed.
func ParseLine(f Format, line string, lookup Lookup) (*Particle, error) {
	p, err := Parse(f, strings.Fields(line), lookup)
	if err != nil {
		return nil, err
	}
	p.raw, p.rawFormat = line, f
	return p, nil
}

// parseInt accepts integers written with a trailing ".0" as well.
func parseInt(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err == nil {
		return v, nil
	}
	fv, ferr := strconv.ParseFloat(tok, 64)
	if ferr != nil || fv != float64(int(fv)) {
		return 0, err
	}
	return int(fv), nil
}

// AppendColumns appends the set fields of p in the column order of f,
// separated by single spaces. Columns stop at the first unset field so that
// lines of the legacy extended dialect keep their length. An unmodified
// particle read with ParseLine in format f appends its source line instead.
func (p *Particle) AppendColumns(dst []byte, f Format) []byte {
	if p.raw != "" && p.rawFormat == f {
		return append(dst, p.raw...)
	}
	for i, field := range f.Columns() {
		if !p.Has(field) {
			break
		}
		if i > 0 {
			dst = append(dst, ' ')
		}
		if field.IsInt() {
			dst = strconv.AppendInt(dst, int64(p.ints[field]), 10)
		} else {
			dst = strconv.AppendFloat(dst, p.floats[field], 'g', -1, 64)
		}
	}
	return dst
}

// Has reports whether field f is set.
func (p *Particle) Has(f Field) bool {
	return f < numFields && p.set&(1<<f) != 0
}

func (p *Particle) setFloat(f Field, v float64) {
	p.floats[f] = v
	p.set |= 1 << f
}

func (p *Particle) setInt(f Field, v int) {
	p.ints[f] = v
	p.set |= 1 << f
}

// Float returns the value of a floating point field.
func (p *Particle) Float(f Field) (float64, error) {
	if f >= numFields || f.IsInt() {
		return 0, fmt.Errorf("%w: %v is not a float field", ErrFieldKind, f)
	}
	if !p.Has(f) {
		return 0, fmt.Errorf("%v: %w", f, ErrUnset)
	}
	return p.floats[f], nil
}

// Int returns the value of an integer field.
func (p *Particle) Int(f Field) (int, error) {
	if f >= numFields || !f.IsInt() {
		return 0, fmt.Errorf("%w: %v is not an integer field", ErrFieldKind, f)
	}
	if !p.Has(f) {
		return 0, fmt.Errorf("%v: %w", f, ErrUnset)
	}
	return p.ints[f], nil
}

// SetFloat sets a floating point field.
func (p *Particle) SetFloat(f Field, v float64) error {
	if f >= numFields || f.IsInt() {
		return fmt.Errorf("%w: %v is not a float field", ErrFieldKind, f)
	}
	p.setFloat(f, v)
	p.raw = ""
	return nil
}

// SetInt sets an integer field. Setting PDG re-evaluates its validity.
func (p *Particle) SetInt(f Field, v int) error {
	if f >= numFields || !f.IsInt() {
		return fmt.Errorf("%w: %v is not an integer field", ErrFieldKind, f)
	}
	p.setInt(f, v)
	p.raw = ""
	if f == PDG {
		p.resolvePDG()
	}
	return nil
}

func (p *Particle) T() (float64, error)    { return p.Float(T) }
func (p *Particle) X() (float64, error)    { return p.Float(X) }
func (p *Particle) Y() (float64, error)    { return p.Float(Y) }
func (p *Particle) Z() (float64, error)    { return p.Float(Z) }
func (p *Particle) Mass() (float64, error) { return p.Float(Mass) }
func (p *Particle) E() (float64, error)    { return p.Float(E) }
func (p *Particle) Px() (float64, error)   { return p.Float(Px) }
func (p *Particle) Py() (float64, error)   { return p.Float(Py) }
func (p *Particle) Pz() (float64, error)   { return p.Float(Pz) }
func (p *Particle) PDG() (int, error)      { return p.Int(PDG) }
func (p *Particle) ID() (int, error)       { return p.Int(ID) }
func (p *Particle) Charge() (int, error)   { return p.Int(Charge) }
func (p *Particle) NColl() (int, error)    { return p.Int(NColl) }
func (p *Particle) Status() (int, error)   { return p.Int(Status) }

// Weight is only present in the photon dialect.
func (p *Particle) Weight() (float64, error) { return p.Float(Weight) }

// SetPDG sets the PDG code and resolves its properties.
func (p *Particle) SetPDG(code int) {
	p.setInt(PDG, code)
	p.raw = ""
	p.resolvePDG()
}

func (p *Particle) SetCharge(c int) {
	p.setInt(Charge, c)
	p.raw = ""
}

func (p *Particle) SetMomentum(e, px, py, pz float64) {
	p.setFloat(E, e)
	p.setFloat(Px, px)
	p.setFloat(Py, py)
	p.setFloat(Pz, pz)
	p.raw = ""
}

func (p *Particle) SetPosition(t, x, y, z float64) {
	p.setFloat(T, t)
	p.setFloat(X, x)
	p.setFloat(Y, y)
	p.setFloat(Z, z)
	p.raw = ""
}

// BaryonNumber returns the baryon number; ok is false if it is unknown.
func (p *Particle) BaryonNumber() (b int, ok bool) {
	return p.ints[BaryonNumber], p.Has(BaryonNumber)
}

// Strangeness returns the strangeness; ok is false if it is unknown.
func (p *Particle) Strangeness() (s int, ok bool) {
	return p.ints[Strangeness], p.Has(Strangeness)
}

// String dumps every field as comma separated values, "None" for unset ones.
func (p *Particle) String() string {
	var sb strings.Builder
	for f := Field(0); f < numFields; f++ {
		if f > 0 {
			sb.WriteByte(',')
		}
		switch {
		case !p.Has(f):
			sb.WriteString("None")
		case f.IsInt():
			sb.WriteString(strconv.Itoa(p.ints[f]))
		default:
			sb.WriteString(strconv.FormatFloat(p.floats[f], 'g', -1, 64))
		}
	}
	return sb.String()
}

// Event is the ordered list of particles of one collision, in file order.
type Event []*Particle
