// =============================================================================
// SEPA Member Collection Exporter - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main workflow of the
// application. It runs the full pipeline: extract members, group them into
// payment batches, assemble the pain.008.003.02 document and write it to the
// output directory.
//
// COMMAND USAGE:
//   sepa-exporter generate
//   sepa-exporter generate --profile club.yaml
//   sepa-exporter generate --dry-run
//
// WORKFLOW:
//   1. Load and validate the profile
//   2. Open the configured data source
//   3. Run the export pipeline
//   4. Write the document (unless --dry-run)
//   5. Print the operator summary: groups, totals, exclusions
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vereinskasse/sepa-exporter/internal/pipeline"
	"github.com/vereinskasse/sepa-exporter/pkg/utils"
)

// dryRun skips writing the output file.
var dryRun bool

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a SEPA direct debit document for the membership contributions",
	Long: `Generate extracts the member data from the configured source, groups the
collectable members by contribution amount and assembles a pain.008.003.02
direct debit document ready for upload to the bank.

Members whose account data does not suffice for a direct debit (invalid IBAN,
missing BIC, missing mandate, no positive contribution) are excluded one by
one and listed in the summary; they never abort the run.`,
	RunE: runGenerate,
}

// runGenerate executes the generate workflow.
func runGenerate(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD PROFILE AND LOGGER
	// =========================================================================

	profile, logger, err := loadProfileAndLogger()
	if err != nil {
		return err
	}

	// Stop on Ctrl+C; the pipeline honors the context on source queries.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// =========================================================================
	// STEP 2: OPEN THE DATA SOURCE
	// =========================================================================

	src, err := pipeline.OpenSource(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to open data source: %w", err)
	}
	defer src.Close()

	// =========================================================================
	// STEP 3: RUN THE EXPORT PIPELINE
	// =========================================================================

	result, err := pipeline.New(profile, src, logger).RunExport(ctx)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: WRITE THE DOCUMENT
	// =========================================================================

	outputPath := "(dry run, not written)"
	if !dryRun {
		manager := utils.NewFileManager(profile.Output.Dir)
		outputPath, err = manager.WriteOutput(profile.Output.NameFormat, result.Document)
		if err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	fmt.Println("=== Collection Document Generated ===")
	fmt.Printf("Output file:     %s\n", outputPath)
	fmt.Printf("Rows read:       %d\n", result.Stats.RowsRead)
	fmt.Printf("Members:         %d\n", result.Stats.MembersBuilt)
	fmt.Printf("Transactions:    %d\n", result.Stats.MembersCollected)
	fmt.Printf("Excluded:        %d\n", result.Stats.MembersExcluded)
	fmt.Printf("Control sum:     %s EUR\n", result.Grouping.ControlSum())
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime))

	if len(result.Grouping.Groups) > 0 {
		fmt.Println("\nPayment groups:")
		for _, group := range result.Grouping.Groups {
			fmt.Printf("  %s: %d member(s) x %s EUR = %s EUR\n",
				group.PmtInfID, len(group.Members), group.Amount, group.Sum())
		}
	}

	if len(result.Grouping.Excluded) > 0 {
		fmt.Println("\nExcluded members:")
		for _, exclusion := range result.Grouping.Excluded {
			fmt.Printf("  ✗ %s\n", exclusion)
		}
	}

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

// init registers the generate command with the root command.
func init() {
	generateCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the full pipeline but do not write the output file",
	)

	rootCmd.AddCommand(generateCmd)
}
