package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/hicflow/particle"
)

var testLookup = particle.LookupFunc(func(code int) particle.PDGInfo {
	switch code {
	case 2212:
		return particle.PDGInfo{Valid: true, ThreeCharge: 3, IsBaryon: true, IsHadron: true}
	case 2112:
		return particle.PDGInfo{Valid: true, IsBaryon: true, IsHadron: true}
	case 211:
		return particle.PDGInfo{Valid: true, ThreeCharge: 3, IsMeson: true, IsHadron: true}
	case 111:
		return particle.PDGInfo{Valid: true, IsMeson: true, IsHadron: true}
	case 311:
		return particle.PDGInfo{Valid: true, IsMeson: true, IsHadron: true, HasStrange: true}
	}
	return particle.PDGInfo{}
})

var (
	oscarHeader = []string{
		"#!OSCAR2013 particle_lists t x y z mass p0 px py pz pdg ID charge",
		"# Units: fm fm fm fm GeV GeV GeV GeV GeV none none e",
		"# SMASH-3.1rc-23-g59a05e65f",
	}
	extendedHeader = []string{
		"#!OSCAR2013Extended particle_lists t x y z mass p0 px py pz pdg ID charge ncoll form_time xsecfac proc_id_origin proc_type_origin time_last_coll pdg_mother1 pdg_mother2 baryon_number strangeness",
		"# Units: fm fm fm fm GeV GeV GeV GeV GeV none none e none fm none none none fm none none none none",
		"# SMASH-3.1rc-23-g59a05e65f",
	}

	neutronLine     = "200 1.1998 2.4656 66.6003 0.938 0.969 -0.0062 -0.0679 0.2335 2112 0 0"
	protonLine      = "200 5.73 -4.06 -2.02 0.93 90.86 0.07 -0.11 90.86 2212 172 1"
	pionLine        = "200 -3.91 -3.58 -199.88 0.14 9.79 0.08 -0.18 -9.78 111 16220 0"
	extendedLine    = "200 1.1998 2.4656 66.6003 0.938 0.969 -0.00624 -0.0679 0.2335 2112 0 0 0 -5.769 1 0 0 0 0 0 1 0"
	oldExtendedLine = "200 2.57 -1.94 -9.83 0.49 3.47 0.08 -0.26 -3.42 311 3228 0 1 49.12 0 369 45 0.06 2112 2212"

	jetscapeHeader = "#\tJETSCAPE_FINAL_STATE\tv2\t|\tN\tpid\tstatus\tE\tPx\tPy\tPz"
	jetscapeLine   = "0 111 27 1.08566 0.385059 0.292645 0.962134"
	sigmaGenLine   = "#\tsigmaGen\t0.000314633\tsigmaErr\t6.06164e-07"
)

// fixture is a generated particle list and the text of its parts.
type fixture struct {
	path    string
	header  []string
	blocks  []string
	trailer string
}

// text is the content of the header plus events start..end.
func (fx fixture) text(start, end int) string {
	var sb strings.Builder
	for _, h := range fx.header {
		sb.WriteString(h + "\n")
	}
	for i := start; i <= end; i++ {
		sb.WriteString(fx.blocks[i])
	}
	if end == len(fx.blocks)-1 && fx.trailer != "" {
		sb.WriteString(fx.trailer + "\n")
	}
	return sb.String()
}

func (fx fixture) write(t *testing.T, name string) fixture {
	t.Helper()
	fx.path = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fx.path, []byte(fx.text(0, len(fx.blocks)-1)), 0644))
	return fx
}

func repeat(line string, n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = line
	}
	return lines
}

func uniform(line string, counts ...int) [][]string {
	events := make([][]string, len(counts))
	for i, n := range counts {
		events[i] = repeat(line, n)
	}
	return events
}

func oscarFile(t *testing.T, header []string, events [][]string) fixture {
	fx := fixture{header: header}
	for i, lines := range events {
		block := fmt.Sprintf("# event %d out %d\n", i, len(lines))
		for _, l := range lines {
			block += l + "\n"
		}
		block += fmt.Sprintf("# event %d end 0 impact   0.000 scattering_projectile_target yes\n", i)
		fx.blocks = append(fx.blocks, block)
	}
	return fx.write(t, "particle_lists.oscar")
}

// legacyOscarFile writes start markers without particle counts.
func legacyOscarFile(t *testing.T, events [][]string) fixture {
	fx := fixture{header: extendedHeader}
	for i, lines := range events {
		block := fmt.Sprintf("# event %d out\n", i)
		for _, l := range lines {
			block += l + "\n"
		}
		block += fmt.Sprintf("# event %d end 0 impact   0.000\n", i)
		fx.blocks = append(fx.blocks, block)
	}
	return fx.write(t, "particle_lists_extended_old.oscar")
}

func jetscapeFile(t *testing.T, keyword string, events [][]string) fixture {
	fx := fixture{header: []string{jetscapeHeader}, trailer: sigmaGenLine}
	for i, lines := range events {
		block := fmt.Sprintf("#\tEvent\t%d\tweight\t1\tEPangle\t0\t%s\t%d\n", i+1, keyword, len(lines))
		for _, l := range lines {
			block += l + "\n"
		}
		fx.blocks = append(fx.blocks, block)
	}
	return fx.write(t, "jetscape_test.dat")
}

func writeRaw(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func counts(c *Collection) []int {
	var n []int
	for _, ev := range c.Events() {
		n = append(n, len(ev))
	}
	return n
}
