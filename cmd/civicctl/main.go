// civicctl runs the report engine's pure core (distance, duplicate lookup,
// task routing) against JSON fixtures, and manages staff accounts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "civicctl",
		Short:         "Operator tools for the civic report engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDistanceCmd(),
		newNearbyCmd(),
		newRouteCmd(),
		newStaffCmd(),
		newTokenCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
