package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/hicflow/filter"
	"github.com/decibelcooper/hicflow/particle"
)

func newJetscape(t *testing.T, path string) *Jetscape {
	t.Helper()
	j, err := NewJetscape(path, WithLookup(testLookup))
	require.NoError(t, err)
	return j
}

func TestNewJetscapePath(t *testing.T) {
	_, err := NewJetscape("./test_files/not_existing_file.dat")
	assert.ErrorIs(t, err, ErrPathNotFound)

	path := writeRaw(t, "jetscape_test.oscar", jetscapeHeader+"\n")
	_, err = NewJetscape(path)
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestJetscapeLoad(t *testing.T) {
	declared := []int{3, 1, 8, 4, 7, 11, 17, 2}
	fx := jetscapeFile(t, "N_hadrons", uniform(jetscapeLine, declared...))
	j := newJetscape(t, fx.path)

	c, err := j.Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, particle.JETSCAPE, c.Format())
	assert.Equal(t, declared, counts(c))
	want := make([]EventInfo, len(declared))
	for i, n := range declared {
		want[i] = EventInfo{Index: i + 1, Count: n}
	}
	if diff := cmp.Diff(want, c.Metadata()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	for k := range declared {
		c, err := j.Load(Options{Events: Single(k)})
		require.NoError(t, err)
		require.Equal(t, 1, c.NumEvents())
		assert.Len(t, c.Events()[0], declared[k])
	}
	for a := range declared {
		for b := a; b < len(declared); b++ {
			c, err := j.Load(Options{Events: Between(a, b)})
			require.NoError(t, err)
			assert.Equal(t, b-a+1, c.NumEvents())
			assert.Equal(t, declared[a:b+1], counts(c))
			assert.Equal(t, want[a:b+1], c.Metadata())
		}
	}

	_, err = j.Load(Options{Events: Single(len(declared))})
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = j.Load(Options{Events: Between(3, 2)})
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = j.Load(Options{Events: Single(-1)})
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestJetscapeParticles(t *testing.T) {
	fx := jetscapeFile(t, "N_hadrons", uniform(jetscapeLine, 2))
	c, err := newJetscape(t, fx.path).Load(Options{})
	require.NoError(t, err)

	p := c.Events()[0][0]
	status, err := p.Status()
	require.NoError(t, err)
	assert.Equal(t, 27, status)
	charge, err := p.Charge()
	require.NoError(t, err)
	assert.Equal(t, 0, charge)
	m, err := p.Mass()
	require.NoError(t, err)
	assert.InDelta(t, 0.138, m, 1e-3)
	_, err = p.T()
	assert.ErrorIs(t, err, particle.ErrUnset)
}

func TestJetscapeParticleType(t *testing.T) {
	fx := jetscapeFile(t, "N_partons", uniform(jetscapeLine, 4, 2))
	j := newJetscape(t, fx.path)

	c, err := j.Load(Options{ParticleType: Parton})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, counts(c))

	idx, err := j.Index("")
	require.NoError(t, err)
	assert.Equal(t, Parton, idx.ParticleType)

	_, err = j.Load(Options{ParticleType: "quark"})
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = j.Load(Options{ParticleType: Hadron})
	assert.ErrorIs(t, err, ErrCorruptHeader)

	opts, err := OptionsFromMap(map[string]interface{}{"particletype": "parton", "events": 1})
	require.NoError(t, err)
	c, err = j.Load(opts)
	require.NoError(t, err)
	assert.Equal(t, []EventInfo{{2, 2}}, c.Metadata())

	kw, err := ParticleTypeKeyword(Parton)
	require.NoError(t, err)
	assert.Equal(t, "N_partons", kw)
	kw, err = ParticleTypeKeyword(Hadron)
	require.NoError(t, err)
	assert.Equal(t, "N_hadrons", kw)
}

func TestJetscapeSigmaGen(t *testing.T) {
	fx := jetscapeFile(t, "N_hadrons", uniform(jetscapeLine, 3, 2))
	sigma, sigmaErr, err := newJetscape(t, fx.path).SigmaGen()
	require.NoError(t, err)
	assert.Equal(t, 0.000314633, sigma)
	assert.Equal(t, 6.06164e-07, sigmaErr)

	long := strings.Repeat(jetscapeLine+"\n", 2000)
	path := writeRaw(t, "long.dat", jetscapeHeader+"\n"+long+sigmaGenLine)
	sigma, _, err = newJetscape(t, path).SigmaGen()
	require.NoError(t, err)
	assert.Equal(t, 0.000314633, sigma)

	path = writeRaw(t, "nosigma.dat", jetscapeHeader+"\n")
	_, _, err = newJetscape(t, path).SigmaGen()
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestJetscapeRoundTrip(t *testing.T) {
	fx := jetscapeFile(t, "N_hadrons", uniform(jetscapeLine, 3, 1, 4))
	j := newJetscape(t, fx.path)

	for _, r := range []*EventRange{nil, Between(0, 1), Single(1), Between(1, 2)} {
		c, err := j.Load(Options{Events: r})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, c.Write(&buf))

		start, end := 0, 2
		if r != nil {
			start, end = r.Start, r.End
		}
		assert.Equal(t, fx.text(start, end), buf.String())
	}

	c, err := j.Load(Options{Filters: filter.Set{filter.ChargedParticles: true}})
	require.NoError(t, err)
	assert.Equal(t, []EventInfo{{1, 0}, {2, 0}, {3, 0}}, c.Metadata())
	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	assert.Contains(t, buf.String(), "#\tEvent\t3\tweight\t1\tEPangle\t0\tN_hadrons\t0\n")
}

func TestJetscapeRoundTripSourceText(t *testing.T) {
	events := [][]string{
		{"0\t111\t27\t1.085660\t0.385059\t0.292645\t0.962134", jetscapeLine},
		{"1 211 27 2.0 1.000 0.0 0.50", "2  111  27  1.0  0.0  0.0  0.0"},
	}
	fx := jetscapeFile(t, "N_hadrons", events)
	c, err := newJetscape(t, fx.path).Load(Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))
	assert.Equal(t, fx.text(0, 1), buf.String())
}

func TestJetscapeInvalidPDGCharged(t *testing.T) {
	invalid := "1 99999999 27 1.08566 0.385059 0.292645 0.962134"
	charged := "0 211 27 1.08566 0.385059 0.292645 0.962134"
	fx := jetscapeFile(t, "N_hadrons", [][]string{{charged, invalid, jetscapeLine}, {invalid}})
	j := newJetscape(t, fx.path)

	c, err := j.Load(Options{Filters: filter.Set{filter.ChargedParticles: true}})
	require.NoError(t, err)
	assert.Equal(t, []EventInfo{{1, 1}, {2, 0}}, c.Metadata())
	pdg, err := c.Events()[0][0].PDG()
	require.NoError(t, err)
	assert.Equal(t, 211, pdg)

	c, err = j.Load(Options{Filters: filter.Set{filter.UnchargedParticles: true}})
	require.NoError(t, err)
	assert.Equal(t, []EventInfo{{1, 1}, {2, 0}}, c.Metadata())

	c, err = j.Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, counts(c))
	assert.False(t, c.Events()[1][0].PDGValid())
}

func TestJetscapeCorrupt(t *testing.T) {
	path := writeRaw(t, "bad.dat", "JETSCAPE\n")
	_, err := newJetscape(t, path).Load(Options{})
	assert.ErrorIs(t, err, ErrCorruptHeader)

	// last event declares more particles than the file holds
	path = writeRaw(t, "short.dat", jetscapeHeader+"\n"+
		"#\tEvent\t1\tweight\t1\tEPangle\t0\tN_hadrons\t3\n"+
		jetscapeLine+"\n"+sigmaGenLine+"\n")
	_, err = newJetscape(t, path).Load(Options{})
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	// first event declares fewer particles than it holds
	path = writeRaw(t, "long.dat", jetscapeHeader+"\n"+
		"#\tEvent\t1\tweight\t1\tEPangle\t0\tN_hadrons\t1\n"+
		jetscapeLine+"\n"+jetscapeLine+"\n"+
		"#\tEvent\t2\tweight\t1\tEPangle\t0\tN_hadrons\t1\n"+
		jetscapeLine+"\n"+sigmaGenLine+"\n")
	_, err = newJetscape(t, path).Load(Options{})
	assert.ErrorIs(t, err, ErrEventCountMismatch)
}
