package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/logging"
)

// exportEnvelope is the JSON document written by `mentor export` and read
// back by `mentor import`. It matches the HTTP export endpoint's shape.
type exportEnvelope struct {
	Documents  []knowledge.Document `json:"documents"`
	ExportedAt time.Time            `json:"exportedAt"`
}

// NewExportCmd constructs the `mentor export` command, which writes the full
// knowledge base as JSON to a file or stdout.
func NewExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the knowledge base as JSON",
		Long: `Write every indexed document, embeddings included, as a JSON envelope.

The output can be re-imported with 'mentor import' or POST /api/import,
which reuses the stored embeddings instead of re-embedding.

Examples:
  mentor export
  mentor export --output backup.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			gw := gateway.NewFromEnv(ctx)

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			defer cleanup()

			envelope := exportEnvelope{
				Documents:  app.store.Export(),
				ExportedAt: time.Now().UTC(),
			}
			data, err := json.MarshalIndent(envelope, "", "  ")
			if err != nil {
				return fmt.Errorf("export: failed to encode documents: %w", err)
			}

			if out == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("export: failed to write %s: %w", out, err)
			}
			log.Info("export written",
				slog.String("path", out),
				slog.Int("documents", len(envelope.Documents)),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Destination file (default: stdout)")

	return cmd
}
