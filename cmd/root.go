// =============================================================================
// SEPA Member Collection Exporter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sepa-exporter)
//   ├── generateCmd (sepa-exporter generate)
//   ├── addressesCmd (sepa-exporter addresses)
//   └── versionCmd (sepa-exporter version)
//
// The root command owns the global flags (--profile, --verbose) and the
// profile/logger bootstrap shared by the subcommands.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vereinskasse/sepa-exporter/internal/config"
	"github.com/vereinskasse/sepa-exporter/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// profileFile holds the path to the profile configuration file.
// This can be overridden using the --profile flag.
var profileFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "sepa-exporter",

	Short: "Generate SEPA direct debit documents from club member data",

	Long: `sepa-exporter extracts member data from the club's database (or from
CSV/XLSX exports) and generates pain.008.003.02 direct debit documents for
collecting membership contributions, plus serial letter address data.

Key Features:
  - Postgres, CSV and XLSX member data sources
  - Contribution grouping into one payment batch per amount
  - Per-member exclusion report instead of all-or-nothing runs
  - Checksum validation for IBAN and creditor identifiers
  - Serial letter address data with nickname salutations

Example Usage:
  sepa-exporter generate                      # Generate a collection document
  sepa-exporter generate --profile club.yaml  # Use a custom profile
  sepa-exporter addresses                     # Generate serial letter data`,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED BOOTSTRAP
// =============================================================================

// loadProfileAndLogger loads the profile and builds the logger the
// subcommands share. The --verbose flag overrides the configured level.
func loadProfileAndLogger() (*config.Profile, *slog.Logger, error) {
	profile, err := config.LoadProfile(profileFile)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		profile.Logging.Level = "debug"
	}
	return profile, logging.New(profile.Logging), nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&profileFile,
		"profile",
		"profile.yaml",
		"Path to the profile configuration file (default is profile.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
