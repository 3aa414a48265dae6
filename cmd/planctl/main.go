// Command planctl validates and runs Document Constraint & Generation
// Orchestrator plans from the terminal, against an in-memory project and
// the default constraint catalog — for local iteration on a plan file
// without standing up the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planctl",
		Short: "Validate and run document generation plans",
	}
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRunCmd())
	return root
}
