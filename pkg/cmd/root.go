package cmd

import (
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "membram",
	Short: "Maps abstract memory cells onto a grid of concrete BRAM instances.",
	Long: `membram rewrites behavioral $mem cells into a grid of concrete block-RAM
instances, chosen and wired according to a user-supplied resource
description.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			if Version != "" {
				log.Println(Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				log.Println(info.Main.Version)
			} else {
				log.Println("(unknown version)")
			}
		} else {
			cmd.Help() //nolint:errcheck
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
}
