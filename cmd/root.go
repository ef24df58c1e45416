// =============================================================================
// Subscription CSV Customiser - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (customiser)
//   ├── processCmd  (customiser process)
//   ├── serveCmd    (customiser serve)
//   ├── validateCmd (customiser validate)
//   └── versionCmd  (customiser version)
//
// SETUP:
//   Before any command except 'version' runs, the root command:
//   1. Loads config.yaml (plus CUSTOMISER_* environment overrides)
//   2. Sets up logging
//   3. Loads and compiles the rules document
//   4. Builds the converter shared by the subcommands
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-customiser/internal/config"
	"github.com/ginjaninja78/csv-customiser/internal/converter"
	"github.com/ginjaninja78/csv-customiser/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// skipSetup marks commands that run without configuration.
const skipSetup = "skip-setup"

// application holds what the subcommands share once setup has run.
type application struct {
	config    *config.MainConfig
	rules     *config.Rules
	logger    *slog.Logger
	converter *converter.Converter
	logCloser io.Closer
}

var app *application

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "customiser",
	Short: "Subscription CSV Customiser - prepare order exports for shipping label import",
	Long: `Subscription CSV Customiser rewrites subscription-order exports so they can be
imported into a shipping-label tool.

For every row it:
  - Assigns the product weight from the product id
  - Marks EU destinations with the IOSS number
  - Sets package size and service code by destination (USA, UK, other)
  - Fills a placeholder phone number for USA orders without one
  - Blanks product names outside the allowed set
  - Redacts prices, totals and postage on high-value orders

Example Usage:
  customiser process --file orders.csv   # Convert one export
  customiser process --file orders.xlsx --format xlsx
  customiser serve                       # Start the HTTP service
  customiser validate --file orders.csv  # Show how columns were discovered`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipSetup] == "true" {
			return nil
		}
		a, err := setup(cfgFile, verbose)
		if err != nil {
			return err
		}
		app = a
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app != nil && app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and builds the shared application state.
func setup(configPath string, debug bool) (*application, error) {
	cfg, err := config.LoadMainConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	logger, closer, err := logging.Setup(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	transformer := converter.NewTransformer(converter.NewTables(rules), logger)

	logger.Debug("configuration loaded",
		slog.String("config", configPath),
		slog.String("rules", rulesSource(cfg.RulesFile)),
		slog.String("output_format", cfg.OutputFormat))

	return &application{
		config:    cfg,
		rules:     rules,
		logger:    logger,
		converter: converter.New(cfg, transformer, logger),
		logCloser: closer,
	}, nil
}

func rulesSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
