// =============================================================================
// SEPA Member Collection Exporter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the sepa-exporter CLI application. It
// initializes the Cobra CLI framework and delegates command execution to the
// cmd package.
//
// USAGE:
//   sepa-exporter generate   - Generate a SEPA direct debit document
//   sepa-exporter addresses  - Generate serial letter address data
//   sepa-exporter version    - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/vereinskasse/sepa-exporter/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
