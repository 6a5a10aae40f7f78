// Package stitch implements the grid stitcher: given a successful port
// assignment, it instantiates the (d-tile, a-tile, dup) grid of BRAM
// cells, wires address decode, enable masking and data slicing, builds
// the registered read-data reduction tree, and finally removes the
// original memory cell.
package stitch

import (
	"fmt"

	"github.com/openlane-go/membram/pkg/assign"
	"github.com/openlane-go/membram/pkg/mem"
	"github.com/openlane-go/membram/pkg/netlist"
	"github.com/openlane-go/membram/pkg/rules"
)

// doutKey identifies one logical read-data slice to merge tile outputs
// into. SigSpec isn't comparable (it's a slice), so the cache is keyed on
// a stable string rendering of the slice's bits instead of using it
// directly as a map key.
type doutKey string

func keyOf(s netlist.SigSpec) doutKey {
	b := make([]byte, 0, len(s)*8)
	for _, bit := range s {
		b = fmt.Appendf(b, "%s|", bit)
	}

	return doutKey(b)
}

type doutEntry struct {
	logical  netlist.SigSpec
	selects  netlist.SigSpec // one addr_ok_q bit per contributing tile (may be empty overall)
	data     netlist.SigSpec // one bram.DBits-wide chunk per contributing tile
	tiles    int
}

// Replace instantiates the BRAM grid for a successful assignment and
// removes the original cell. It never partially mutates the module: all
// cells are only added once the caller has already confirmed a
// successful Result from pkg/assign.
func Replace(mod *netlist.Module, cellName string, m *mem.LogicalMemory, bram *rules.BramType, res *assign.Result) error {
	gridD := ceilDiv(m.Width, bram.DBits)
	gridA := ceilDiv(m.Size, 1<<uint(bram.ABits))

	dout := make(map[doutKey]*doutEntry)

	for d := 0; d < gridD; d++ {
		for a := 0; a < gridA; a++ {
			for dup := 0; dup < res.DupCount; dup++ {
				instantiateTile(mod, cellName, bram, res, d, a, dup, dout)
			}
		}
	}

	resolveReadData(mod, bram, dout)

	mod.Remove(mod.Cell(cellName))

	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// instantiateTile emits one BRAM instance at grid position (d, a, dup) and
// wires every PortInfo belonging to that replica.
func instantiateTile(mod *netlist.Module, cellName string, bram *rules.BramType, res *assign.Result, d, a, dup int, dout map[doutKey]*doutEntry) {
	instName := fmt.Sprintf("%s.%d.%d.%d", cellName, d, a, dup)
	c := mod.AddCell(instName, bram.Name)

	clocks := make(map[int]netlist.SigBit)

	for i := range res.PortInfos {
		pi := &res.PortInfos[i]
		if pi.DupIdx != dup {
			continue
		}

		label := pi.Label()

		if pi.Clocks != 0 {
			if _, ok := clocks[pi.Clocks]; !ok || pi.SigClock.Wire != nil {
				clocks[pi.Clocks] = pi.SigClock
			}
		}

		addrOk := addressDecode(mod, pi, bram, a)

		if pi.Enable != 0 {
			c.SetPort(label+"EN", writeEnableSlice(mod, pi, bram, d, addrOk))
		}

		sigData := pi.SigData.ExtendU0((d + 1) * bram.DBits).Extract(d*bram.DBits, bram.DBits)

		if pi.WrMode == 1 {
			c.SetPort(label+"DATA", sigData)
		} else {
			bramDout := netlist.WireBits(mod.AddWire("", bram.DBits))
			c.SetPort(label+"DATA", bramDout)

			sigData, bramDout = pruneUnwiredLanes(sigData, bramDout)

			addrOkQ := registerAddrOk(mod, pi, addrOk)

			mergeReadData(dout, sigData, addrOkQ, bramDout)
		}

		sigAddr := pi.SigAddr.ExtendU0(bram.ABits).Extract(0, bram.ABits)
		c.SetPort(label+"ADDR", sigAddr)
	}

	setClockPorts(c, res, clocks)
}

// addressDecode builds the addr_ok predicate comparing the logical
// address's high bits against this tile's grid-a coordinate, or returns an
// empty SigSpec when the logical address exactly fits one tile.
func addressDecode(mod *netlist.Module, pi *assign.PortInfo, bram *rules.BramType, gridA int) netlist.SigSpec {
	if pi.SigAddr.Size() <= bram.ABits {
		return nil
	}

	extra := pi.SigAddr.Extract(bram.ABits, pi.SigAddr.Size()-bram.ABits)
	sel := constAddr(gridA, extra.Size())

	return mod.Eq(extra, sel)
}

// constAddr renders an integer as an n-bit constant SigSpec, little-endian
// (bit 0 first), the form grid_a is compared against in addr_ok.
func constAddr(value, n int) netlist.SigSpec {
	bits := make(netlist.SigSpec, n)
	for i := 0; i < n; i++ {
		if value&(1<<uint(i)) != 0 {
			bits[i] = netlist.Const(netlist.S1)
		} else {
			bits[i] = netlist.Const(netlist.S0)
		}
	}

	return bits
}

// writeEnableSlice slices sig_en to this tile's byte-enable lanes, then
// gates with addr_ok so only the selected address tile is actually
// written.
func writeEnableSlice(mod *netlist.Module, pi *assign.PortInfo, bram *rules.BramType, gridD int, addrOk netlist.SigSpec) netlist.SigSpec {
	sigEn := pi.SigEn.ExtendU0((gridD + 1) * pi.Enable)
	sigEn = sigEn.Extract(gridD*pi.Enable, pi.Enable)

	if !addrOk.Empty() {
		sigEn = mod.Mux(netlist.ConstSpec(netlist.S0, sigEn.Size()), sigEn, addrOk)
	}

	return sigEn
}

// pruneUnwiredLanes drops bit positions where the logical slice is a
// disconnected (constant) bit, such as the artificial zero-extension
// padding introduced when the logical width is narrower than bram.DBits.
// Only read output lanes are pruned; write data is left as-is, relying on
// the BRAM happily latching padding zeros it will never be read back
// from.
func pruneUnwiredLanes(sigData, bramDout netlist.SigSpec) (netlist.SigSpec, netlist.SigSpec) {
	prunedData := make(netlist.SigSpec, 0, sigData.Size())
	prunedDout := make(netlist.SigSpec, 0, bramDout.Size())

	for i := 0; i < sigData.Size(); i++ {
		if sigData[i].IsConst() {
			continue
		}

		prunedData = append(prunedData, sigData[i])
		prunedDout = append(prunedDout, bramDout[i])
	}

	return prunedData, prunedDout
}

// registerAddrOk registers a clocked read port's addr_ok through a
// flip-flop so it aligns with the BRAM's one-cycle-delayed read data.
func registerAddrOk(mod *netlist.Module, pi *assign.PortInfo, addrOk netlist.SigSpec) netlist.SigSpec {
	if pi.Clocks == 0 || addrOk.Empty() {
		return addrOk
	}

	q := netlist.WireBits(mod.AddWire("", 1))
	mod.AddDff(pi.SigClock, addrOk, q, pi.EffectiveClkPol)

	return q
}

// mergeReadData collects this tile's (addr_ok_q, bram_dout) pair into the
// cache keyed by the logical read slice it contributes to.
func mergeReadData(dout map[doutKey]*doutEntry, sigData, addrOkQ, bramDout netlist.SigSpec) {
	key := keyOf(sigData)

	entry, ok := dout[key]
	if !ok {
		entry = &doutEntry{logical: sigData}
		dout[key] = entry
	}

	entry.selects = entry.selects.Append(addrOkQ)
	entry.data = entry.data.Append(bramDout)
	entry.tiles++
}

// setClockPorts names CLK/CLKPOL ports modulo the undeduplicated cohort
// counts, so duplication-introduced cohort ids still land on a physical
// clock/polarity port.
func setClockPorts(c *netlist.Cell, res *assign.Result, clocks map[int]netlist.SigBit) {
	for cohort, sig := range clocks {
		port := fmt.Sprintf("CLK%d", (cohort-1)%res.ClocksMax+1)
		c.SetPort(port, netlist.SigSpec{sig})
	}

	for cohort, pol := range res.ClockPolarities {
		if cohort <= 1 {
			continue
		}

		param := fmt.Sprintf("CLKPOL%d", (cohort-1)%res.ClkPolMax+1)
		c.SetParamBool(param, pol)
	}
}

// resolveReadData finishes each logical read slice: connect it directly
// to the single contributing tile's output (single address tile, no
// addr_ok) or emit a priority multiplexer across every contributing tile.
func resolveReadData(mod *netlist.Module, bram *rules.BramType, dout map[doutKey]*doutEntry) {
	for _, entry := range dout {
		if entry.selects.Empty() {
			if entry.logical.Size() != entry.data.Size() {
				panic(fmt.Sprintf("stitch: dout-cache width mismatch: logical=%d data=%d", entry.logical.Size(), entry.data.Size()))
			}

			mod.Connect(entry.logical, entry.data)

			continue
		}

		if entry.logical.Size()*entry.tiles != entry.data.Size() {
			panic(fmt.Sprintf("stitch: dout-cache width mismatch: logical=%d tiles=%d data=%d",
				entry.logical.Size(), entry.tiles, entry.data.Size()))
		}

		def := netlist.ConstSpec(netlist.Sx, entry.logical.Size())
		mod.Pmux(def, entry.data, entry.selects, entry.logical)
	}
}
