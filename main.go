// =============================================================================
// Subscription CSV Customiser - Main Entry Point
// =============================================================================
//
// USAGE:
//   customiser process       - Convert an order export
//   customiser serve         - Run the HTTP conversion service
//   customiser validate      - Check configuration and column discovery
//   customiser version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Ingest, rules engine, export, HTTP service
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csv-customiser/cmd"
)

func main() {
	cmd.Execute()
}
