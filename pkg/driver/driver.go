// Package driver implements the pass driver: it walks the cells of a
// module, tries each cell's applicable match rules in order, and invokes
// the match evaluator, port assigner and grid stitcher in turn.
package driver

import (
	log "github.com/sirupsen/logrus"

	"github.com/openlane-go/membram/pkg/assign"
	"github.com/openlane-go/membram/pkg/match"
	"github.com/openlane-go/membram/pkg/mem"
	"github.com/openlane-go/membram/pkg/netlist"
	"github.com/openlane-go/membram/pkg/rules"
	"github.com/openlane-go/membram/pkg/stitch"
)

// Options selects which module/cells a Run should touch and whether it
// should mutate the design at all. Module/Cell are simple name-equality
// filters; no selection-language collaborator is in scope.
type Options struct {
	Module string // empty matches any module
	Cell   string // empty matches any cell
	DryRun bool   // report the chosen bram without stitching
}

func (o Options) selectsModule(name string) bool {
	return o.Module == "" || o.Module == name
}

func (o Options) selectsCell(name string) bool {
	return o.Cell == "" || o.Cell == name
}

// Report records the outcome of mapping one memory cell, for --dry-run
// output and for tests.
type Report struct {
	Cell       string
	Bram       string
	Properties map[string]int
	DupCount   int
	Mapped     bool
}

// Run walks every $mem cell in mod (in the order pkg/netlist.Module.Cells
// enumerates them, deterministic emission order) and attempts to replace
// it per doc's match rules, honoring opts' selection filters. It returns
// one Report per considered cell.
func Run(mod *netlist.Module, doc *rules.Document, opts Options) []Report {
	if !opts.selectsModule(mod.Name) {
		return nil
	}

	var reports []Report

	for _, cell := range mod.Cells() {
		if cell.Type != mem.CellType || !opts.selectsCell(cell.Name) {
			continue
		}

		reports = append(reports, handleCell(mod, cell, doc, opts))
	}

	return reports
}

// handleCell tries every match rule in declaration order, skipping rules
// that reference a BRAM already recorded as failed for this cell, and
// stopping at the first rule whose assignment (and, unless DryRun,
// stitch) succeeds.
func handleCell(mod *netlist.Module, cell *netlist.Cell, doc *rules.Document, opts Options) Report {
	lm, err := mem.FromCell(cell)
	if err != nil {
		log.Fatalf("driver: %s", err)
	}

	failedBrams := make(map[string]bool)

	for _, rule := range doc.Matches {
		if failedBrams[rule.Name] {
			continue
		}

		bram, ok := doc.Brams[rule.Name]
		if !ok {
			log.Fatalf("cell %q: match rule references unknown bram %q", cell.Name, rule.Name)
		}

		accepted, props, err := match.Evaluate(lm, bram, rule)
		if err != nil {
			log.Fatalf("cell %q: %s", cell.Name, err)
		}

		if !accepted {
			continue
		}

		res, ok := assign.Assign(lm, bram.MakePortInfos(), bram.DBits)
		if !ok {
			log.Infof("cell %q: bram %q rejected (no legal port assignment)", cell.Name, bram.Name)
			failedBrams[bram.Name] = true

			continue
		}

		log.Infof("cell %q: mapped to bram %q (dup_count=%d, waste=%d)", cell.Name, bram.Name, res.DupCount, props["waste"])

		if !opts.DryRun {
			if err := stitch.Replace(mod, cell.Name, lm, bram, res); err != nil {
				log.Fatalf("cell %q: %s", cell.Name, err)
			}
		}

		return Report{Cell: cell.Name, Bram: bram.Name, Properties: props, DupCount: res.DupCount, Mapped: true}
	}

	log.Infof("cell %q: no acceptable bram resources found, leaving cell untouched", cell.Name)

	return Report{Cell: cell.Name, Mapped: false}
}
