package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/logging"
	"github.com/studyloop/mentor-go/internal/rag"
)

// NewAskCmd constructs the `mentor ask` command, which answers a single
// natural language question from the indexed course material.
func NewAskCmd() *cobra.Command {
	var maxSources int
	var style string
	var followUp bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the course material",
		Long: `Ask a natural language question and get an answer grounded in the
indexed course material.

The answer cites its sources with relevance scores and a confidence
estimate. When the language model is unreachable, retrieval still runs
and the command reports degraded mode instead of failing.

Examples:
  mentor ask "what is a goroutine?"
  mentor ask --style concise "how do maps handle missing keys?"
  mentor ask --sources 3 "explain slices versus arrays"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			gw := gateway.NewFromEnv(ctx)

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer cleanup()

			if app.store.Len() == 0 {
				fmt.Fprintln(os.Stderr, "warning: the knowledge base is empty — run 'mentor ingest' first")
			}

			answer, err := app.engine.Ask(ctx, rag.Question{
				Text:            strings.Join(args, " "),
				MaxSources:      maxSources,
				IncludeFollowUp: followUp,
				Style:           rag.Style(style),
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(answer.Answer)

			if len(answer.Sources) > 0 {
				fmt.Printf("\nSources (confidence %d%%):\n", answer.Confidence)
				for _, s := range answer.Sources {
					fmt.Printf("  [%3d%%] %s — %s\n", s.Relevance, s.Title, s.Source)
				}
			}

			if len(answer.FollowUpQuestions) > 0 {
				fmt.Println("\nYou could ask next:")
				for _, q := range answer.FollowUpQuestions {
					fmt.Printf("  - %s\n", q)
				}
			}

			if answer.Degraded {
				fmt.Fprintln(os.Stderr, "\nnote: answered in degraded mode — the language model was unavailable")
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&maxSources, "sources", "s", 0, "Maximum number of source passages to retrieve (default 5)")
	cmd.Flags().StringVar(&style, "style", "", "Response style: concise, detailed, conversational (default detailed)")
	cmd.Flags().BoolVar(&followUp, "follow-up", true, "Suggest follow-up questions after the answer")

	return cmd
}
