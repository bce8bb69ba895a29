package particle

import (
	"errors"
	"fmt"
)

// Format names one of the column layouts a particle line can be written in.
type Format int

const (
	Oscar2013 Format = iota
	Oscar2013Extended
	Oscar2013ExtendedIC
	Oscar2013ExtendedPhotons
	JETSCAPE
)

var ErrUnknownFormat = errors.New("particle: unknown format")

var formatNames = [...]string{
	Oscar2013:                "Oscar2013",
	Oscar2013Extended:        "Oscar2013Extended",
	Oscar2013ExtendedIC:      "Oscar2013Extended_IC",
	Oscar2013ExtendedPhotons: "Oscar2013Extended_Photons",
	JETSCAPE:                 "JETSCAPE",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat maps a dialect name to its Format.
func ParseFormat(name string) (Format, error) {
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

var oscarColumns = []Field{T, X, Y, Z, Mass, E, Px, Py, Pz, PDG, ID, Charge}

var extendedColumns = append(append([]Field{}, oscarColumns...),
	NColl, FormTime, XSecFac, ProcIDOrigin, ProcTypeOrigin, TLastColl,
	PDGMother1, PDGMother2, BaryonNumber, Strangeness,
)

var photonColumns = append(append([]Field{}, oscarColumns...),
	NColl, FormTime, XSecFac, ProcIDOrigin, ProcTypeOrigin, TLastColl,
	PDGMother1, PDGMother2, Weight,
)

var jetscapeColumns = []Field{ID, PDG, Status, E, Px, Py, Pz}

// Columns returns the ordered fields of one data line in format f.
func (f Format) Columns() []Field {
	switch f {
	case Oscar2013:
		return oscarColumns
	case Oscar2013Extended, Oscar2013ExtendedIC:
		return extendedColumns
	case Oscar2013ExtendedPhotons:
		return photonColumns
	case JETSCAPE:
		return jetscapeColumns
	}
	return nil
}

// minColumns is the smallest number of columns a line may carry. The two
// extended dialects accept up to two missing trailing columns written by
// older generator versions.
func (f Format) minColumns() int {
	n := len(f.Columns())
	switch f {
	case Oscar2013Extended, Oscar2013ExtendedIC:
		return n - 2
	}
	return n
}
