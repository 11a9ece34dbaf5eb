// =============================================================================
// SEPA Member Collection Exporter - Version Command
// =============================================================================
//
// This file defines the 'version' command. Release builds stamp the version
// and build date via ldflags; a plain `go build` reports the development
// defaults below. The treasurer quotes this output when reporting problems,
// so it also names the Go runtime the binary was built with.
//
// BUILD STAMPING:
//   go build -ldflags "\
//     -X 'github.com/vereinskasse/sepa-exporter/cmd.Version=1.2.0' \
//     -X 'github.com/vereinskasse/sepa-exporter/cmd.BuildDate=2026-09-01'"
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is stamped by ldflags on release builds.
var Version = "dev"

// BuildDate is stamped by ldflags on release builds.
var BuildDate = "unknown"

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build information",
	Long:  `Display the exporter version, build date, and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sepa-exporter %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the version command with the root command.
func init() {
	rootCmd.AddCommand(versionCmd)
}
