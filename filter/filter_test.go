package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/hicflow/particle"
)

var lookup = particle.LookupFunc(func(code int) particle.PDGInfo {
	switch code {
	case 211, 111, 22:
		return particle.PDGInfo{Valid: true, IsMeson: code != 22}
	case 321, 311:
		return particle.PDGInfo{Valid: true, IsMeson: true, HasStrange: true}
	}
	return particle.PDGInfo{}
})

func newParticle(pdg, charge int, e, px, py, pz float64) *particle.Particle {
	p := particle.New(lookup)
	p.SetPDG(pdg)
	p.SetCharge(charge)
	p.SetMomentum(e, px, py, pz)
	return p
}

func pdgs(t *testing.T, ev particle.Event) []int {
	var out []int
	for _, p := range ev {
		pdg, err := p.PDG()
		require.NoError(t, err)
		out = append(out, pdg)
	}
	return out
}

func testEvent() particle.Event {
	return particle.Event{
		newParticle(211, 1, 1, 0.5, 0, 0.1),
		newParticle(111, 0, 2, 1.5, 0, 0.2),
		newParticle(321, 1, 3, 2.5, 0, -0.3),
		newParticle(311, 0, 4, 3.5, 0, 3),
		newParticle(-211, -1, 5, 0, 4.5, -3),
	}
}

func TestChargeCuts(t *testing.T) {
	ev := testEvent()

	out, err := Set{ChargedParticles: true}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211, 321, -211}, pdgs(t, out))

	out, err = Set{UnchargedParticles: true}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{111, 311}, pdgs(t, out))

	out, err = Set{StrangeParticles: true}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{321, 311}, pdgs(t, out))

	out, err = Set{ChargedParticles: false}.Apply(ev)
	require.NoError(t, err)
	assert.Len(t, out, len(ev))

	assert.Len(t, ev, 5, "input event must not change")
}

func TestChargeCutsUnknownCharge(t *testing.T) {
	noCharge := particle.New(lookup)
	noCharge.SetPDG(99999999)
	noCharge.SetMomentum(1, 0.5, 0, 0)
	ev := particle.Event{newParticle(211, 1, 1, 0.5, 0, 0.1), noCharge, newParticle(111, 0, 2, 1.5, 0, 0.2)}

	out, err := Charged(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211}, pdgs(t, out))

	out, err = Uncharged(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{111}, pdgs(t, out))
}

func TestSpeciesAndStatus(t *testing.T) {
	ev := testEvent()

	out, err := Set{ParticleSpecies: []int{211, -211}}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211, -211}, pdgs(t, out))

	out, err = Set{RemoveParticleSpecies: 111}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211, 321, 311, -211}, pdgs(t, out))

	_, err = Set{ParticleStatus: []int{27}}.Apply(ev)
	assert.ErrorIs(t, err, particle.ErrUnset)

	for i, p := range ev {
		require.NoError(t, p.SetInt(particle.Status, 10+i%2))
	}
	out, err = Set{ParticleStatus: 11}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{111, 311}, pdgs(t, out))
}

func TestKinematicWindows(t *testing.T) {
	ev := testEvent()

	out, err := Set{PtCut: Range{Min: 1, Max: 3}}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{111, 321}, pdgs(t, out))

	out, err = Set{PtCut: Range{Min: 3, Max: math.Inf(1)}}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{311, -211}, pdgs(t, out))

	out, err = Set{RapidityCut: 0.5}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211, 111, 321}, pdgs(t, out))

	out, err = Set{PseudorapidityCut: Range{Min: 0, Max: math.Inf(1)}}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211, 111, 311}, pdgs(t, out))

	_, err = Set{SpatialRapidityCut: 1.0}.Apply(ev)
	assert.ErrorIs(t, err, particle.ErrUnset)
}

func TestEventCuts(t *testing.T) {
	ev := testEvent()

	out, err := Set{MultiplicityCut: 5}.Apply(ev)
	require.NoError(t, err)
	assert.Len(t, out, 5)
	out, err = Set{MultiplicityCut: 6}.Apply(ev)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Set{LowerEventEnergyCut: 15.0}.Apply(ev)
	require.NoError(t, err)
	assert.Len(t, out, 5)
	out, err = Set{LowerEventEnergyCut: 15.5}.Apply(ev)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPrecedence(t *testing.T) {
	// a neutral particle without momentum only survives if the charge cut
	// runs before the pt cut
	noMomentum := particle.New(lookup)
	noMomentum.SetPDG(111)
	noMomentum.SetCharge(0)
	ev := particle.Event{noMomentum, newParticle(211, 1, 1, 0.5, 0, 0)}

	for i := 0; i < 20; i++ {
		out, err := Set{PtCut: Range{Min: 0, Max: 1}, ChargedParticles: true}.Apply(ev)
		require.NoError(t, err)
		assert.Equal(t, []int{211}, pdgs(t, out))
	}

	// the event energy is summed before the pt window removes particles
	ev = testEvent()
	out, err := Set{PtCut: Range{Min: 0, Max: 1}, LowerEventEnergyCut: 3.0}.Apply(ev)
	require.NoError(t, err)
	assert.Equal(t, []int{211}, pdgs(t, out))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Set{}.Validate())
	assert.ErrorIs(t, Set{"invariant_mass_cut": 1.0}.Validate(), ErrUnknownFilter)
	assert.ErrorIs(t, Set{ChargedParticles: 1}.Validate(), ErrWrongType)
	assert.ErrorIs(t, Set{PtCut: 1.0}.Validate(), ErrWrongType)
	assert.ErrorIs(t, Set{ParticleSpecies: "pion"}.Validate(), ErrWrongType)
	assert.ErrorIs(t, Set{MultiplicityCut: -1}.Validate(), ErrWrongType)
	assert.ErrorIs(t, Set{LowerEventEnergyCut: 3}.Validate(), ErrWrongType)

	_, err := Set{RapidityCut: "wide"}.Apply(testEvent())
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestSymmetric(t *testing.T) {
	assert.Equal(t, Range{Min: -2, Max: 2}, Symmetric(-2))
}
