package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/ingestion"
	"github.com/studyloop/mentor-go/internal/logging"
)

// NewIngestCmd constructs the `mentor ingest` command, which loads YAML seed
// files into the knowledge base and persists the result.
func NewIngestCmd() *cobra.Command {
	var dir string
	var files []string
	var chunkSize int
	var chunkOverlap int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest YAML course material into the knowledge base",
		Long: `Load course material from YAML seed files, chunk long documents into
overlapping passages, embed them, and save the result to the snapshot
database.

Seed files hold a source label and a list of documents. Missing metadata
(type, difficulty, topics) is inferred from the content; explicit values
always win. Long documents are split into overlapping chunks so each
passage stays within a useful retrieval size.

Examples:
  mentor ingest --dir ./seeds
  mentor ingest --file lessons/go-basics.yaml --file lessons/go-concurrency.yaml
  mentor ingest --dir ./seeds --chunk-size 800 --chunk-overlap 80`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if dir == "" && len(files) == 0 {
				return fmt.Errorf("ingest: at least one --dir or --file is required")
			}

			var seeds []ingestion.SeedFile
			if dir != "" {
				fromDir, err := ingestion.LoadDir(dir)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				seeds = append(seeds, fromDir...)
			}
			for _, f := range files {
				seed, err := ingestion.Load(f)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				seeds = append(seeds, *seed)
			}

			gw := gateway.NewFromEnv(ctx)

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer cleanup()

			pipeline, err := ingestion.NewPipeline(app.store, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			log.Info("starting ingestion", slog.Int("seed_files", len(seeds)))

			added, err := pipeline.Ingest(ctx, seeds, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed after %d documents: %w", added, err)
			}

			app.save(ctx, log)

			if app.gateway.DegradedEmbeds() > 0 {
				log.Warn("some documents were embedded in degraded mode",
					slog.Uint64("degraded", app.gateway.DegradedEmbeds()),
				)
			}
			log.Info("ingestion complete",
				slog.Int("documents", added),
				slog.Int("total", app.store.Len()),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory of YAML seed files to ingest")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "YAML seed file to ingest (repeatable)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Chunk size in characters (default 1000)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "Chunk overlap in characters (default 100)")

	return cmd
}
