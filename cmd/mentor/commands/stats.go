package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/logging"
)

// NewStatsCmd constructs the `mentor stats` command, which prints an
// aggregate view of the knowledge base.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge-base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			gw := gateway.NewFromEnv(ctx)

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer cleanup()

			st := app.store.Stats()

			fmt.Printf("Documents:   %d\n", st.TotalDocuments)
			if !st.LastIndexUpdate.IsZero() {
				fmt.Printf("Last update: %s\n", st.LastIndexUpdate.Format("2006-01-02 15:04:05 MST"))
			}

			if len(st.DocumentTypes) > 0 {
				fmt.Println("\nBy type:")
				for _, t := range []knowledge.DocType{
					knowledge.TypeLesson, knowledge.TypeSummary, knowledge.TypeConcept,
					knowledge.TypeExample, knowledge.TypeExercise,
				} {
					if n := st.DocumentTypes[t]; n > 0 {
						fmt.Printf("  %-10s %d\n", t, n)
					}
				}
			}

			if len(st.DifficultyLevels) > 0 {
				fmt.Println("\nBy difficulty:")
				for _, d := range []knowledge.Difficulty{
					knowledge.Beginner, knowledge.Intermediate, knowledge.Advanced,
				} {
					if n := st.DifficultyLevels[d]; n > 0 {
						fmt.Printf("  %-12s %d\n", d, n)
					}
				}
			}

			if len(st.TopTopics) > 0 {
				fmt.Println("\nTop topics:")
				for _, tc := range st.TopTopics {
					fmt.Printf("  %-20s %d\n", tc.Topic, tc.Count)
				}
			}

			return nil
		},
	}
}
