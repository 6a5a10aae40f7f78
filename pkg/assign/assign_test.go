package assign

import (
	"testing"

	"github.com/openlane-go/membram/pkg/mem"
	"github.com/openlane-go/membram/pkg/netlist"
)

// buildMem constructs a $mem cell with the given geometry and port clocking.
// Write ports share one clock wire when sharedClock is set and otherwise get
// a clock wire each; read ports always use the shared clock wire.
func buildMem(t *testing.T, mod *netlist.Module, size, abits, width, wports, rports int, sharedClock bool) *mem.LogicalMemory {
	t.Helper()

	c := mod.AddCell("mem", mem.CellType)
	c.SetParam("SIZE", size)
	c.SetParam("ABITS", abits)
	c.SetParam("WIDTH", width)
	c.SetParam("WR_PORTS", wports)
	c.SetParam("RD_PORTS", rports)
	c.SetParam("WR_CLK_ENABLE", (1<<uint(wports))-1)
	c.SetParam("WR_CLK_POLARITY", (1<<uint(wports))-1)
	c.SetParam("RD_CLK_ENABLE", (1<<uint(rports))-1)
	c.SetParam("RD_CLK_POLARITY", (1<<uint(rports))-1)

	clk := mod.AddWire("clk", 1)

	wrEn := netlist.SigSpec{}
	wrData := netlist.SigSpec{}
	wrAddr := netlist.SigSpec{}
	wrClk := netlist.SigSpec{}

	for i := 0; i < wports; i++ {
		wrEn = wrEn.Append(netlist.ConstSpec(netlist.S1, width))
		wrData = wrData.Append(netlist.WireBits(mod.AddWire("", width)))
		wrAddr = wrAddr.Append(netlist.WireBits(mod.AddWire("", abits)))

		if sharedClock {
			wrClk = wrClk.Append(netlist.WireBits(clk))
		} else {
			wrClk = wrClk.Append(netlist.WireBits(mod.AddWire("", 1)))
		}
	}

	rdData := netlist.SigSpec{}
	rdAddr := netlist.SigSpec{}
	rdClk := netlist.SigSpec{}

	for i := 0; i < rports; i++ {
		rdData = rdData.Append(netlist.WireBits(mod.AddWire("", width)))
		rdAddr = rdAddr.Append(netlist.WireBits(mod.AddWire("", abits)))
		rdClk = rdClk.Append(netlist.WireBits(clk))
	}

	c.SetPort("WR_EN", wrEn)
	c.SetPort("WR_DATA", wrData)
	c.SetPort("WR_ADDR", wrAddr)
	c.SetPort("WR_CLK", wrClk)
	c.SetPort("RD_DATA", rdData)
	c.SetPort("RD_ADDR", rdAddr)
	c.SetPort("RD_CLK", rdClk)

	lm, err := mem.FromCell(c)
	if err != nil {
		t.Fatalf("unexpected error deriving logical memory: %v", err)
	}

	return lm
}

// singleWriteSingleReadPortInfos builds the PortInfo vector for a dual-port
// BRAM: one write group, one read group, both clocked on cohort 1.
func singleWriteSingleReadPortInfos() []PortInfo {
	return []PortInfo{
		{Group: 0, Index: 0, WrMode: 1, Clocks: 1, ClkPol: 1, MappedPort: -1},
		{Group: 1, Index: 0, WrMode: 0, Clocks: 1, ClkPol: 1, MappedPort: -1},
	}
}

func Test_Assign_SimpleDualPort_NoDuplication_00(t *testing.T) {
	mod := netlist.NewModule("top")
	lm := buildMem(t, mod, 4, 2, 4, 1, 1, true)

	res, ok := Assign(lm, singleWriteSingleReadPortInfos(), 4)
	if !ok {
		t.Fatalf("expected assignment to succeed")
	}

	if res.DupCount != 1 {
		t.Fatalf("expected no duplication, got dup_count=%d", res.DupCount)
	}

	for _, pi := range res.PortInfos {
		if !pi.Bound() {
			t.Fatalf("expected every PortInfo to be bound: %+v", pi)
		}
	}
}

func Test_Assign_TwoReadPorts_OneReadGroup_Duplicates_01(t *testing.T) {
	mod := netlist.NewModule("top")
	lm := buildMem(t, mod, 4, 2, 4, 1, 2, true)

	res, ok := Assign(lm, singleWriteSingleReadPortInfos(), 4)
	if !ok {
		t.Fatalf("expected assignment to succeed via duplication")
	}

	if res.DupCount != 2 {
		t.Fatalf("expected exactly one duplication (dup_count=2), got %d", res.DupCount)
	}

	writeBoundTwice := 0
	readMapped := map[int]bool{}

	for _, pi := range res.PortInfos {
		if !pi.Bound() {
			t.Fatalf("expected every PortInfo to be bound after duplication: %+v", pi)
		}

		if pi.WrMode == 1 {
			writeBoundTwice++
		} else {
			readMapped[pi.MappedPort] = true
		}
	}

	if writeBoundTwice != 2 {
		t.Fatalf("expected write port shared across both replicas (2 bound write PortInfos), got %d", writeBoundTwice)
	}

	if !readMapped[0] || !readMapped[1] {
		t.Fatalf("expected read ports 0 and 1 both mapped across replicas: %v", readMapped)
	}
}

func Test_Assign_IncompatibleEnableLanes_Rejected_02(t *testing.T) {
	mod := netlist.NewModule("top")
	c := mod.AddCell("mem", mem.CellType)
	c.SetParam("SIZE", 4)
	c.SetParam("ABITS", 2)
	c.SetParam("WIDTH", 4)
	c.SetParam("WR_PORTS", 1)
	c.SetParam("RD_PORTS", 0)
	c.SetParam("WR_CLK_ENABLE", 1)
	c.SetParam("WR_CLK_POLARITY", 1)

	clk := mod.AddWire("clk", 1)
	// Two enable bits disagree within what would be a single 4-bit lane.
	wrEn := netlist.SigSpec{netlist.Const(netlist.S1), netlist.Const(netlist.S0), netlist.Const(netlist.S1), netlist.Const(netlist.S1)}
	c.SetPort("WR_EN", wrEn)
	c.SetPort("WR_DATA", netlist.WireBits(mod.AddWire("d", 4)))
	c.SetPort("WR_ADDR", netlist.WireBits(mod.AddWire("a", 2)))
	c.SetPort("WR_CLK", netlist.WireBits(clk))

	lm, err := mem.FromCell(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	portInfos := []PortInfo{{Group: 0, Index: 0, WrMode: 1, Enable: 1, Clocks: 1, ClkPol: 1, MappedPort: -1}}

	if _, ok := Assign(lm, portInfos, 4); ok {
		t.Fatalf("expected assignment to fail: enable bits disagree within one lane")
	}
}

func Test_Assign_AsyncWritePort_RejectsClockedBram_03(t *testing.T) {
	mod := netlist.NewModule("top")
	c := mod.AddCell("mem", mem.CellType)
	c.SetParam("SIZE", 4)
	c.SetParam("ABITS", 2)
	c.SetParam("WIDTH", 4)
	c.SetParam("WR_PORTS", 1)
	c.SetParam("RD_PORTS", 0)
	// WR_CLK_ENABLE left at 0: this write port is asynchronous.
	c.SetPort("WR_EN", netlist.ConstSpec(netlist.S1, 4))
	c.SetPort("WR_DATA", netlist.WireBits(mod.AddWire("d", 4)))
	c.SetPort("WR_ADDR", netlist.WireBits(mod.AddWire("a", 2)))
	c.SetPort("WR_CLK", netlist.ConstSpec(netlist.S0, 1))

	lm, err := mem.FromCell(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	portInfos := []PortInfo{{Group: 0, Index: 0, WrMode: 1, Clocks: 1, ClkPol: 1, MappedPort: -1}}

	if _, ok := Assign(lm, portInfos, 4); ok {
		t.Fatalf("expected assignment to fail: async logical port cannot bind a clocked-only bram port")
	}
}
