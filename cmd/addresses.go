// =============================================================================
// SEPA Member Collection Exporter - Addresses Command
// =============================================================================
//
// This file defines the 'addresses' command. It extracts the member data and
// renders the serial letter address file: one semicolon-separated row per
// member with home address, birthday and a nickname-aware salutation.
//
// COMMAND USAGE:
//   sepa-exporter addresses
//   sepa-exporter addresses --out letters.csv
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vereinskasse/sepa-exporter/internal/pipeline"
	"github.com/vereinskasse/sepa-exporter/pkg/utils"
)

// addressOut overrides the output file path. Empty selects a generated name
// in the profile's output directory.
var addressOut string

// =============================================================================
// ADDRESSES COMMAND DEFINITION
// =============================================================================

// addressesCmd represents the 'addresses' command.
var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Generate serial letter address data for all members",
	Long: `Addresses extracts the member data from the configured source and writes
the address data for serial letters: prename, lastname, home address,
birthday and a personal salutation per member.

Salutations use the member's nickname when the nickname table knows one, so
letters read "Lieber Max" instead of "Lieber Maximilian".`,
	RunE: runAddresses,
}

// runAddresses executes the addresses workflow.
func runAddresses(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	profile, logger, err := loadProfileAndLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := pipeline.OpenSource(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to open data source: %w", err)
	}
	defer src.Close()

	result, err := pipeline.New(profile, src, logger).RunAddresses(ctx)
	if err != nil {
		return err
	}

	outputPath := addressOut
	if outputPath == "" {
		manager := utils.NewFileManager(profile.Output.Dir)
		outputPath, err = manager.WriteOutput("addresses_{timestamp}.csv", []byte(result.Data))
		if err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputPath, []byte(result.Data), 0644); err != nil {
			return fmt.Errorf("failed to write address file: %w", err)
		}
	}

	fmt.Println("=== Address Data Generated ===")
	fmt.Printf("Output file:     %s\n", outputPath)
	fmt.Printf("Rows read:       %d\n", result.Stats.RowsRead)
	fmt.Printf("Members:         %d\n", result.Stats.MembersBuilt)
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime))

	if len(result.Warnings) > 0 {
		fmt.Println("\nRow warnings:")
		for _, warning := range result.Warnings {
			fmt.Printf("  ! %s\n", warning)
		}
	}

	return nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the addresses command with the root command.
func init() {
	addressesCmd.Flags().StringVar(
		&addressOut,
		"out",
		"",
		"Output file path (default is a generated name in the output directory)",
	)

	rootCmd.AddCommand(addressesCmd)
}
