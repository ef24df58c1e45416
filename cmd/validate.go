// =============================================================================
// Subscription CSV Customiser - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   customiser validate [--file <export>] [--json]
//
// Without --file, checks that config.yaml and the rules document load and
// prints what was loaded. With --file, also parses the export and prints
// which header was discovered for each column role.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-customiser/internal/converter"
)

var (
	validateFile string
	validateJSON bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and column discovery",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if validateFile == "" {
			printConfig(out)
			return nil
		}

		path := resolveInputFile(validateFile)
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		ds, err := app.converter.Parse(path, file)
		if err != nil {
			return err
		}
		report := app.converter.Inspect(ds)

		if validateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(out, report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFile, "file", "", "Export to run column discovery on")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the discovery report as JSON")
}

func printConfig(out io.Writer) {
	cfg := app.config
	rules := app.rules

	fmt.Fprintln(out, "Configuration OK")
	fmt.Fprintf(out, "  Input dir:       %s\n", cfg.InputDir)
	fmt.Fprintf(out, "  Output dir:      %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Archive input:   %t (%s)\n", cfg.ArchiveInput, cfg.InputArchiveDir)
	fmt.Fprintf(out, "  Output:          %s, prefix %q\n", cfg.OutputFormat, cfg.OutputPrefix)
	fmt.Fprintf(out, "  CSV:             delimiter %q, encoding %s\n", cfg.CSVSettings.Delimiter, cfg.CSVSettings.Encoding)
	fmt.Fprintf(out, "  Rules:           %s\n", rulesSource(cfg.RulesFile))

	groups := 0
	for _, g := range rules.Weights.Groups {
		groups += len(g.IDs)
	}
	fmt.Fprintf(out, "  Weighted ids:    %d (%d exceptions)\n", groups+len(rules.Weights.Exceptions), len(rules.Weights.Exceptions))
	fmt.Fprintf(out, "  EU countries:    %d (IOSS %s)\n", len(rules.IOSS.Countries), rules.IOSS.Number)
	fmt.Fprintf(out, "  Product names:   %d allowed\n", len(rules.ProductNames))
	fmt.Fprintf(out, "  Price threshold: %g\n", rules.Price.Threshold)
}

func printReport(out io.Writer, report *converter.Report) {
	fmt.Fprintf(out, "File:    %s\n", report.File)
	fmt.Fprintf(out, "Rows:    %d\n", report.Rows)
	fmt.Fprintf(out, "Columns: %d\n\n", len(report.Columns))

	roles := make([]string, 0, len(report.Resolved))
	for role := range report.Resolved {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	fmt.Fprintln(out, "Discovered:")
	for _, role := range roles {
		fmt.Fprintf(out, "  %-16s <- %q\n", role, report.Resolved[role])
	}
	if len(report.Missing) > 0 {
		fmt.Fprintln(out, "Not found:")
		for _, role := range report.Missing {
			fmt.Fprintf(out, "  %s\n", role)
		}
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "%s\n", w.String())
	}
}
