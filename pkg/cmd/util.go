package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GetFlag returns a boolean flag's value, or exits if the flag does not
// exist (a programming error in the command definition, not a user error).
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		log.Fatal(err)
	}

	return r
}

// GetString returns a string flag's value, exiting on the same programming
// errors as GetFlag.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		log.Fatal(err)
	}

	return r
}

// exitOnError prints err (if non-nil) and terminates with a non-zero exit
// code; configuration errors (bad rules file, missing required flag) are
// always fatal.
func exitOnError(err error) {
	if err == nil {
		return
	}

	log.Error(err)
	os.Exit(1)
}
