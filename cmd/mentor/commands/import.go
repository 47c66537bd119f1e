package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/logging"
)

// NewImportCmd constructs the `mentor import` command, which replaces the
// knowledge base with documents from a previously exported JSON file.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a knowledge-base export",
		Long: `Replace the entire knowledge base with the documents from a JSON export.

Documents that carry an embedding are restored as-is; documents without
one are re-embedded during import. The result is saved to the snapshot
database.

Examples:
  mentor import backup.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("import: failed to read %s: %w", args[0], err)
			}
			var envelope exportEnvelope
			if err := json.Unmarshal(data, &envelope); err != nil {
				return fmt.Errorf("import: failed to parse %s: %w", args[0], err)
			}

			gw := gateway.NewFromEnv(ctx)

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer cleanup()

			if err := app.store.Import(ctx, envelope.Documents); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			app.save(ctx, log)

			log.Info("import complete",
				slog.String("path", args[0]),
				slog.Int("documents", app.store.Len()),
			)
			return nil
		},
	}

	return cmd
}
