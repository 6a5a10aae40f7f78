// Package mem provides the LogicalMemory view over an abstract $mem cell:
// the behavioral multi-port memory primitive consumed by the port assigner
// and grid stitcher.
package mem

import (
	"fmt"

	"github.com/openlane-go/membram/pkg/netlist"
)

// CellType is the distinguished type tag identifying a behavioral multi-port
// memory cell within a Module.
const CellType = "$mem"

// LogicalMemory is the derived, read-only view of a $mem cell's parameters
// and ports used throughout port assignment and stitching.
type LogicalMemory struct {
	Cell *netlist.Cell

	Size  int
	ABits int
	Width int

	WPorts int
	RPorts int

	WrClkEn  []bool
	WrClkPol []bool
	WrEn     netlist.SigSpec
	WrClk    netlist.SigSpec
	WrData   netlist.SigSpec
	WrAddr   netlist.SigSpec

	RdClkEn  []bool
	RdClkPol []bool
	RdTransp []bool
	RdClk    netlist.SigSpec
	RdData   netlist.SigSpec
	RdAddr   netlist.SigSpec
}

// FromCell derives a LogicalMemory from a $mem cell's parameters and
// ports. It returns an error if the cell isn't tagged as a memory
// primitive.
func FromCell(cell *netlist.Cell) (*LogicalMemory, error) {
	if cell.Type != CellType {
		return nil, fmt.Errorf("mem: cell %q has type %q, not %q", cell.Name, cell.Type, CellType)
	}

	m := &LogicalMemory{
		Cell:   cell,
		Size:   cell.GetParam("SIZE"),
		ABits:  cell.GetParam("ABITS"),
		Width:  cell.GetParam("WIDTH"),
		WPorts: cell.GetParam("WR_PORTS"),
		RPorts: cell.GetParam("RD_PORTS"),
	}

	m.WrClkEn = boolBits(cell, "WR_CLK_ENABLE", m.WPorts)
	m.WrClkPol = boolBits(cell, "WR_CLK_POLARITY", m.WPorts)
	m.WrEn = cell.GetPort("WR_EN").ExtendU0(m.WPorts * m.Width)
	m.WrClk = cell.GetPort("WR_CLK").ExtendU0(m.WPorts)
	m.WrData = cell.GetPort("WR_DATA").ExtendU0(m.WPorts * m.Width)
	m.WrAddr = cell.GetPort("WR_ADDR").ExtendU0(m.WPorts * m.ABits)

	m.RdClkEn = boolBits(cell, "RD_CLK_ENABLE", m.RPorts)
	m.RdClkPol = boolBits(cell, "RD_CLK_POLARITY", m.RPorts)
	m.RdTransp = boolBits(cell, "RD_TRANSPARENT", m.RPorts)
	m.RdClk = cell.GetPort("RD_CLK").ExtendU0(m.RPorts)
	m.RdData = cell.GetPort("RD_DATA").ExtendU0(m.RPorts * m.Width)
	m.RdAddr = cell.GetPort("RD_ADDR").ExtendU0(m.RPorts * m.ABits)

	return m, nil
}

// boolBits reads a per-port bit-parameter (stored on the cell as an integer
// bitmask, port i at bit i) and expands it to n booleans.
func boolBits(cell *netlist.Cell, name string, n int) []bool {
	mask := cell.GetParam(name)
	bits := make([]bool, n)

	for i := 0; i < n; i++ {
		bits[i] = mask&(1<<uint(i)) != 0
	}

	return bits
}

// WrAddrPort returns the address slice for write port i.
func (m *LogicalMemory) WrAddrPort(i int) netlist.SigSpec {
	return m.WrAddr.Extract(i*m.ABits, m.ABits)
}

// WrDataPort returns the data slice for write port i.
func (m *LogicalMemory) WrDataPort(i int) netlist.SigSpec {
	return m.WrData.Extract(i*m.Width, m.Width)
}

// WrEnBit returns the enable bit j of write port i.
func (m *LogicalMemory) WrEnBit(i, j int) netlist.SigBit {
	return m.WrEn[i*m.Width+j]
}

// RdAddrPort returns the address slice for read port i.
func (m *LogicalMemory) RdAddrPort(i int) netlist.SigSpec {
	return m.RdAddr.Extract(i*m.ABits, m.ABits)
}

// RdDataPort returns the data slice for read port i.
func (m *LogicalMemory) RdDataPort(i int) netlist.SigSpec {
	return m.RdData.Extract(i*m.Width, m.Width)
}
