// Package rules holds the in-memory representation of a BRAM resource
// description file and the parser that populates it.
package rules

import "github.com/openlane-go/membram/pkg/assign"

// BramType is an immutable-after-parse description of one physical block-RAM
// primitive: its geometry (abits/dbits) and the per-group port attributes
// used by the port assigner.
type BramType struct {
	Name   string
	Init   int
	ABits  int
	DBits  int
	Groups int

	Ports  []int
	WrMode []int
	Enable []int
	Transp []int
	Clocks []int
	ClkPol []int
}

// groupValue returns the i'th entry of a per-group vector, or 0 if the
// vector is shorter than declared.
func groupValue(vec []int, i int) int {
	if i < len(vec) {
		return vec[i]
	}

	return 0
}

// MakePortInfos expands this BramType's groups × ports into the flat
// PortInfo vector the assigner operates over.
func (b *BramType) MakePortInfos() []assign.PortInfo {
	var infos []assign.PortInfo

	groups := b.Groups
	if len(b.Ports) < groups {
		groups = len(b.Ports)
	}

	for g := 0; g < groups; g++ {
		for j := 0; j < b.Ports[g]; j++ {
			infos = append(infos, assign.PortInfo{
				Group:      g,
				Index:      j,
				DupIdx:     0,
				WrMode:     groupValue(b.WrMode, g),
				Enable:     groupValue(b.Enable, g),
				Transp:     groupValue(b.Transp, g),
				Clocks:     groupValue(b.Clocks, g),
				ClkPol:     groupValue(b.ClkPol, g),
				MappedPort: -1,
			})
		}
	}

	return infos
}

// MatchRule is a single `match` block: a named reference to a BramType plus
// the min/max property predicates that screen candidate cells.
type MatchRule struct {
	Name      string
	MinLimits map[string]int
	MaxLimits map[string]int
}

// Document is the fully parsed rules file: every known BramType plus the
// ordered sequence of match rules to try.
type Document struct {
	Brams   map[string]*BramType
	Matches []MatchRule
}

// NewDocument constructs an empty rules document.
func NewDocument() *Document {
	return &Document{Brams: make(map[string]*BramType)}
}
