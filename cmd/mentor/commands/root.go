// Package commands defines all Cobra CLI commands for the mentor binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/audit"
	"github.com/studyloop/mentor-go/internal/config"
	"github.com/studyloop/mentor-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mentor",
		Short: "Mentor — semantic search and grounded answers over course material",
		Long: `Mentor is the StudyLoop knowledge engine for programming courses.

It indexes lesson content into an embedded vector store, answers student
questions with retrieval-augmented generation, and degrades gracefully when
no language model is reachable.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.mentor/config.yaml).
See 'mentor --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load .env if present, before the YAML config so both layers
			// feed the same env-var precedence. Absence is not an error.
			_ = godotenv.Load()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.mentor/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewSearchCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewExportCmd(),
		NewImportCmd(),
		NewStatsCmd(),
		NewVersionCmd(),
	)

	return root
}
