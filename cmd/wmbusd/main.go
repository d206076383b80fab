// Command wmbusd listens for wmbus telegrams on one or more dongles,
// decodes them against configured meters, and prints or files the
// results.
//
// Usage:
//
//	wmbusd run [flags]
//	wmbusd list-meters
//	wmbusd list-fields <driver>
//	wmbusd list-units
//
// See 'wmbusd <command> --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/wmbusd/wmbusd/internal/wmbus/drivers"

	"github.com/wmbusd/wmbusd/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "wmbusd",
	Short:   "wmbus/mbus telegram listener and meter reader",
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listMetersCmd)
	rootCmd.AddCommand(listFieldsCmd)
	rootCmd.AddCommand(listUnitsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wmbusd %s\n", version.Full())
	},
}
