// Package assign implements the port-assignment engine: binding a memory
// cell's logical read/write ports onto a BRAM type's physical ports,
// duplicating the BRAM grid when extra read ports are needed.
package assign

import (
	"strconv"

	"github.com/openlane-go/membram/pkg/netlist"
)

// PortInfo is one physical BRAM port, derived from a BramType group and
// mutated in place as the assigner binds it to a logical port.
type PortInfo struct {
	// Identity
	Group  int
	Index  int
	DupIdx int

	// Static attributes, copied from the owning group.
	WrMode int
	Enable int
	Transp int
	Clocks int
	ClkPol int

	// Binding state, filled in during assignment.
	MappedPort      int // -1 when unbound
	SigClock        netlist.SigBit
	EffectiveClkPol bool
	SigAddr         netlist.SigSpec
	SigData         netlist.SigSpec
	SigEn           netlist.SigSpec
}

// Bound reports whether this port has been bound to a logical port.
func (pi *PortInfo) Bound() bool {
	return pi.MappedPort >= 0
}

// Label returns the conventional port label used in diagnostics and
// instance port names: group letter ('A', 'B', ...) followed by a 1-based
// port index.
func (pi *PortInfo) Label() string {
	return string(rune('A'+pi.Group)) + strconv.Itoa(pi.Index+1)
}

// ClockDomain is a concrete (signal, polarity) binding for a clocks cohort
// id. The asynchronous pseudo-domain (cohort id 0) is fixed to
// (constant-1, false).
type ClockDomain struct {
	Signal   netlist.SigBit
	Polarity bool
}

// Equal reports whether two clock domains denote the same signal and
// polarity.
func (d ClockDomain) Equal(other ClockDomain) bool {
	return d.Polarity == other.Polarity && d.Signal == other.Signal
}

// AsyncDomain is the fixed pseudo-domain for cohort id 0: constant-1,
// negative polarity, denoting an unclocked (asynchronous) port.
func AsyncDomain() ClockDomain {
	return ClockDomain{Signal: netlist.Const(netlist.S1), Polarity: false}
}
