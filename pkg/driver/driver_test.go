package driver

import (
	"strings"
	"testing"

	"github.com/openlane-go/membram/pkg/mem"
	"github.com/openlane-go/membram/pkg/netlist"
	"github.com/openlane-go/membram/pkg/rules"
)

const simpleRules = `
bram R
  abits 2
  dbits 4
  groups 1
  ports 1
  wrmode 1
  clocks 1
  clkpol 1
endbram

match R
  max waste 0
endmatch
`

func buildWriteOnlyMem(t *testing.T, mod *netlist.Module, name string, size, abits, width int) *netlist.Cell {
	t.Helper()

	c := mod.AddCell(name, mem.CellType)
	c.SetParam("SIZE", size)
	c.SetParam("ABITS", abits)
	c.SetParam("WIDTH", width)
	c.SetParam("WR_PORTS", 1)
	c.SetParam("RD_PORTS", 0)
	c.SetParam("WR_CLK_ENABLE", 1)
	c.SetParam("WR_CLK_POLARITY", 1)

	clk := mod.AddWire("clk", 1)
	c.SetPort("WR_EN", netlist.ConstSpec(netlist.S1, width))
	c.SetPort("WR_DATA", netlist.WireBits(mod.AddWire("", width)))
	c.SetPort("WR_ADDR", netlist.WireBits(mod.AddWire("", abits)))
	c.SetPort("WR_CLK", netlist.WireBits(clk))

	return c
}

func Test_Run_SuccessfulMapping_RemovesOriginalCell_00(t *testing.T) {
	mod := netlist.NewModule("top")
	buildWriteOnlyMem(t, mod, "mem", 4, 2, 4)

	doc, err := rules.Parse("rules.txt", strings.NewReader(simpleRules))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	reports := Run(mod, doc, Options{})
	if len(reports) != 1 || !reports[0].Mapped || reports[0].Bram != "R" {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	if mod.Cell("mem") != nil {
		t.Fatalf("expected original cell to be replaced")
	}
}

func Test_Run_DryRun_LeavesCellInPlace_01(t *testing.T) {
	mod := netlist.NewModule("top")
	buildWriteOnlyMem(t, mod, "mem", 4, 2, 4)

	doc, err := rules.Parse("rules.txt", strings.NewReader(simpleRules))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	reports := Run(mod, doc, Options{DryRun: true})
	if len(reports) != 1 || !reports[0].Mapped {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	if mod.Cell("mem") == nil {
		t.Fatalf("expected dry-run to leave the original cell in place")
	}
}

func Test_Run_NoMatchingRule_LeavesCellUntouched_02(t *testing.T) {
	mod := netlist.NewModule("top")
	// A memory whose waste against bram R is non-zero: words=5 vs abits=2.
	buildWriteOnlyMem(t, mod, "mem", 5, 2, 4)

	doc, err := rules.Parse("rules.txt", strings.NewReader(simpleRules))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	reports := Run(mod, doc, Options{})
	if len(reports) != 1 || reports[0].Mapped {
		t.Fatalf("expected no acceptable bram, got: %+v", reports)
	}

	if mod.Cell("mem") == nil {
		t.Fatalf("expected cell to be left untouched")
	}
}

func Test_Run_CellSelectionFilter_SkipsNonMatchingCells_03(t *testing.T) {
	mod := netlist.NewModule("top")
	buildWriteOnlyMem(t, mod, "memA", 4, 2, 4)
	buildWriteOnlyMem(t, mod, "memB", 4, 2, 4)

	doc, err := rules.Parse("rules.txt", strings.NewReader(simpleRules))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	reports := Run(mod, doc, Options{Cell: "memA"})
	if len(reports) != 1 || reports[0].Cell != "memA" {
		t.Fatalf("expected only memA to be considered, got: %+v", reports)
	}

	if mod.Cell("memB") == nil {
		t.Fatalf("expected memB to be left untouched by the cell filter")
	}
}

func Test_Run_ModuleSelectionFilter_SkipsNonMatchingModule_04(t *testing.T) {
	mod := netlist.NewModule("top")
	buildWriteOnlyMem(t, mod, "mem", 4, 2, 4)

	doc, err := rules.Parse("rules.txt", strings.NewReader(simpleRules))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	reports := Run(mod, doc, Options{Module: "other"})
	if reports != nil {
		t.Fatalf("expected no reports when module filter excludes the only module, got: %+v", reports)
	}
}
