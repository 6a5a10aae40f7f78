package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openlane-go/membram/pkg/driver"
	"github.com/openlane-go/membram/pkg/netlist"
	"github.com/openlane-go/membram/pkg/rules"
)

// MappingConfig is populated directly from cobra flags and passed down to
// the driver, rather than threading individual flag values through call
// chains.
type MappingConfig struct {
	RulesFile string
	Module    string
	Cell      string
	DryRun    bool
}

var mapCmd = &cobra.Command{
	Use:   "map --rules FILE [flags] [module]",
	Short: "Map $mem cells in a module onto concrete BRAM instances.",
	Long: `Map rewrites behavioral $mem cells into a grid of BRAM instances chosen from
a user-supplied resource description file.

Resource description grammar:

  bram NAME
    init INT
    abits INT | dbits INT | groups INT
    ports  INT+ | wrmode INT+ | enable INT+
    transp INT+ | clocks INT+ | clkpol INT+
  endbram

  match NAME
    (min|max) KEY INT
  endmatch

Properties usable in min/max limits: words, abits, dbits, wports, rports,
ports, bits, awaste, dwaste, waste.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		cfg := MappingConfig{
			RulesFile: GetString(cmd, "rules"),
			Module:    GetString(cmd, "module"),
			Cell:      GetString(cmd, "cell"),
			DryRun:    GetFlag(cmd, "dry-run"),
		}

		runMap(cfg, loadModule(args))
	},
}

// loadModule stands in for the surrounding design-loading machinery; a real
// deployment wires this to whatever reads the host netlist format into
// pkg/netlist.Module.
func loadModule(args []string) *netlist.Module {
	name := "top"
	if len(args) > 0 {
		name = args[0]
	}

	return netlist.NewModule(name)
}

func runMap(cfg MappingConfig, mod *netlist.Module) {
	doc, err := rules.ParseFile(cfg.RulesFile)
	exitOnError(err)

	opts := driver.Options{Module: cfg.Module, Cell: cfg.Cell, DryRun: cfg.DryRun}

	for _, report := range driver.Run(mod, doc, opts) {
		if !report.Mapped {
			continue
		}

		log.WithFields(log.Fields{
			"bram":      report.Bram,
			"dup_count": report.DupCount,
			"waste":     report.Properties["waste"],
		}).Infof("cell %q mapped", report.Cell)
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringP("rules", "r", "", "path to the BRAM resource description file")
	mapCmd.Flags().String("module", "", "restrict mapping to a single module (default: all)")
	mapCmd.Flags().String("cell", "", "restrict mapping to a single cell name (default: all)")
	mapCmd.Flags().Bool("dry-run", false, "report the chosen bram per cell without mutating the design")
	mapCmd.MarkFlagRequired("rules")
}
