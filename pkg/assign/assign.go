package assign

import (
	"github.com/openlane-go/membram/pkg/mem"
	"github.com/openlane-go/membram/pkg/netlist"
	"github.com/openlane-go/membram/pkg/util"
)

// Result is the outcome of a successful assignment: the bound PortInfo
// vector plus the cohort maps and replica count the stitcher needs.
type Result struct {
	PortInfos       []PortInfo
	ClockDomains    map[int]ClockDomain
	ClockPolarities map[int]bool
	DupCount        int

	// ClocksMax/ClkPolMax are pinned from the undeduplicated port list: they
	// bound the CLK/CLKPOL namespace modulo which instance ports/params are
	// named, even across duplication-introduced cohort ids.
	ClocksMax int
	ClkPolMax int

	// ClocksWrPorts/ClkPolWrPorts record which cohort ids appeared on write
	// groups; duplication does not shift these (write ports are shared
	// across replicas).
	ClocksWrPorts map[int]bool
	ClkPolWrPorts map[int]bool
}

// outcome is the result of one attempt at mapping every read port, used to
// keep the retry/duplication loop linear rather than goto-driven.
type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeNeedsGrowth
	outcomeFailed
)

// Assign computes a legal binding of mem's logical ports onto a freshly
// expanded PortInfo vector (see rules.BramType.MakePortInfos), growing the
// vector by whole-grid duplication when extra read ports are required.
// dbits is the owning BramType's data width, needed for the write-port
// enable-granularity check.
//
// On failure it returns (nil, false); the caller (the match/dispatch loop)
// treats this as a non-fatal mapping failure.
func Assign(m *mem.LogicalMemory, portInfos []PortInfo, dbits int) (*Result, bool) {
	res := &Result{
		PortInfos:       append([]PortInfo(nil), portInfos...),
		ClockDomains:    make(map[int]ClockDomain),
		ClockPolarities: map[int]bool{0: false, 1: true},
		DupCount:        1,
		ClocksWrPorts:   make(map[int]bool),
		ClkPolWrPorts:   make(map[int]bool),
	}

	for i := range res.PortInfos {
		pi := &res.PortInfos[i]
		if pi.WrMode != 0 {
			res.ClocksWrPorts[pi.Clocks] = true

			if pi.ClkPol > 1 {
				res.ClkPolWrPorts[pi.ClkPol] = true
			}
		}

		res.ClocksMax = max(res.ClocksMax, pi.Clocks)
		res.ClkPolMax = max(res.ClkPolMax, pi.ClkPol)
	}

	if !assignWritePorts(m, res, dbits) {
		return nil, false
	}

	if !assignReadPorts(m, res) {
		return nil, false
	}

	return res, true
}

// clockDomainOf derives the (signal, polarity) pair a logical port's clock
// parameters denote, collapsing a disabled clock-enable to the async
// pseudo-domain (constant-1, false): cohort id 0 always denotes this
// pseudo-domain.
func clockDomainOf(clken bool, clkpol bool, clksig netlist.SigBit) ClockDomain {
	if !clken {
		return AsyncDomain()
	}

	return ClockDomain{Signal: clksig, Polarity: clkpol}
}

// compatible reports whether PortInfo pi may take on the given clock
// domain: clocked logical ports require a clocked physical port whose
// cohort ids (if already bound) agree; asynchronous logical ports require
// an unclocked physical port.
func compatible(pi *PortInfo, clken bool, dom ClockDomain, res *Result) bool {
	if clken {
		if pi.Clocks == 0 {
			return false
		}

		if bound, ok := res.ClockDomains[pi.Clocks]; ok && !bound.Equal(dom) {
			return false
		}

		if bound, ok := res.ClockPolarities[pi.ClkPol]; ok && bound != dom.Polarity {
			return false
		}

		return true
	}

	return pi.Clocks == 0
}

func bindClock(pi *PortInfo, clken bool, dom ClockDomain, res *Result) {
	if !clken {
		return
	}

	res.ClockDomains[pi.Clocks] = dom
	res.ClockPolarities[pi.ClkPol] = dom.Polarity
	pi.SigClock = dom.Signal
	pi.EffectiveClkPol = dom.Polarity
}

// assignWritePorts implements the write-port phase: a non-resetting cursor
// over PortInfo, advanced once per write port, so two write ports never
// contend for the same physical port.
func assignWritePorts(m *mem.LogicalMemory, res *Result, dbits int) bool {
	cursor := 0

	for w := 0; w < m.WPorts; w++ {
		clken := m.WrClkEn[w]
		clkpol := m.WrClkPol[w]
		clksig := m.WrClk[w]
		dom := clockDomainOf(clken, clkpol, clksig)

		mapped := false

		for ; cursor < len(res.PortInfos); cursor++ {
			pi := &res.PortInfos[cursor]

			if pi.WrMode != 1 {
				continue
			}

			if !compatible(pi, clken, dom, res) {
				continue
			}

			sigEn, ok := writeEnableLanes(m, w, pi, dbits)
			if !ok {
				continue
			}

			bindClock(pi, clken, dom, res)
			pi.SigEn = sigEn
			pi.SigAddr = m.WrAddrPort(w)
			pi.SigData = m.WrDataPort(w)
			pi.MappedPort = w

			cursor++
			mapped = true

			break
		}

		if !mapped {
			return false
		}
	}

	return true
}

// writeEnableLanes performs the enable-granularity check: the bits of write
// port w's per-bit enable must be pairwise equal within
// each byte-enable lane the BRAM provides. It returns the one-bit-per-lane
// SigSpec on success.
func writeEnableLanes(m *mem.LogicalMemory, w int, pi *PortInfo, dbits int) (netlist.SigSpec, bool) {
	if pi.Enable == 0 {
		return nil, true
	}

	laneWidth := dbits / pi.Enable
	var sigEn netlist.SigSpec

	var lastBit netlist.SigBit

	for i := 0; i < m.Width; i++ {
		if i%laneWidth == 0 {
			lastBit = m.WrEnBit(w, i)
			sigEn = sigEn.Append(netlist.SigSpec{lastBit})
		}

		if m.WrEnBit(w, i) != lastBit {
			return nil, false
		}
	}

	return sigEn, true
}

// assignReadPorts implements the read-port phase, including the
// duplication/retry loop. It returns false only when no amount of growth
// can satisfy every read port.
func assignReadPorts(m *mem.LogicalMemory, res *Result) bool {
	backupDomains := util.ShallowCloneMap(res.ClockDomains)
	backupPolarities := util.ShallowCloneMap(res.ClockPolarities)

	growCursor := -1
	tryGrowth := false

	for {
		switch attemptReadRound(m, res, &growCursor, &tryGrowth) {
		case outcomeSucceeded:
			return true
		case outcomeFailed:
			return false
		case outcomeNeedsGrowth:
			duplicate(res)
			res.ClockDomains = util.ShallowCloneMap(backupDomains)
			res.ClockPolarities = util.ShallowCloneMap(backupPolarities)
			tryGrowth = false
		}
	}
}

// attemptReadRound tries to map every logical read port, in order, against
// the current PortInfo vector, scanning from the start for each one (the
// read phase does not use a non-resetting cursor, unlike the write phase).
func attemptReadRound(m *mem.LogicalMemory, res *Result, growCursor *int, tryGrowth *bool) outcome {
	for r := 0; r < m.RPorts; r++ {
		if mapOneReadPort(m, res, r) {
			if *growCursor < r {
				*growCursor = r
				*tryGrowth = true
			}

			continue
		}

		if *tryGrowth {
			return outcomeNeedsGrowth
		}

		return outcomeFailed
	}

	return outcomeSucceeded
}

func mapOneReadPort(m *mem.LogicalMemory, res *Result, r int) bool {
	clken := m.RdClkEn[r]
	clkpol := m.RdClkPol[r]
	clksig := m.RdClk[r]
	dom := clockDomainOf(clken, clkpol, clksig)

	for i := range res.PortInfos {
		pi := &res.PortInfos[i]

		if pi.WrMode != 0 || pi.Bound() {
			continue
		}

		if !compatible(pi, clken, dom, res) {
			continue
		}

		bindClock(pi, clken, dom, res)
		pi.SigAddr = m.RdAddrPort(r)
		pi.SigData = m.RdDataPort(r)
		pi.MappedPort = r

		return true
	}

	return false
}

// duplicate replicates the whole PortInfo vector to gain an extra
// independent set of read ports while sharing write ports across replicas.
// Every read-mode PortInfo's binding state is cleared, not only that of
// the freshly appended replica: growth always re-attempts every logical
// read port from scratch.
func duplicate(res *Result) {
	oldDupCount := res.DupCount
	newInfos := make([]PortInfo, 0, len(res.PortInfos)*2)

	for _, pi := range res.PortInfos {
		if pi.WrMode == 0 {
			pi.MappedPort = -1
			pi.SigClock = netlist.SigBit{}
			pi.SigAddr = nil
			pi.SigData = nil
			pi.SigEn = nil
		}

		newInfos = append(newInfos, pi)

		if pi.DupIdx == oldDupCount-1 {
			clone := pi

			if clone.Clocks != 0 && !res.ClocksWrPorts[clone.Clocks] {
				clone.Clocks += res.ClocksMax
			}

			if clone.ClkPol > 1 && !res.ClkPolWrPorts[clone.ClkPol] {
				clone.ClkPol += res.ClkPolMax
			}

			clone.DupIdx++
			newInfos = append(newInfos, clone)
		}
	}

	res.PortInfos = newInfos
	res.DupCount++
}
