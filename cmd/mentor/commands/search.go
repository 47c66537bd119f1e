package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/logging"
)

// NewSearchCmd constructs the `mentor search` command, which runs a single
// semantic search over the indexed course material and prints the results.
func NewSearchCmd() *cobra.Command {
	var limit int
	var threshold float64
	var types []string
	var difficulties []string
	var topics []string
	var sources []string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the course material semantically",
		Long: `Run a semantic search over the indexed course material.

Results are ranked by embedding similarity with a lexical fallback when
no embedding provider is reachable. Metadata filters narrow the candidate
set before ranking; all given filters must match.

Examples:
  mentor search "error handling"
  mentor search --type exercise --difficulty beginner "loops"
  mentor search --limit 3 --threshold 0.5 "interfaces"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			gw := gateway.NewFromEnv(ctx)

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer cleanup()

			q := knowledge.Query{
				Text:   strings.Join(args, " "),
				Filter: buildFilter(types, difficulties, topics, sources),
				Limit:  limit,
			}
			if cmd.Flags().Changed("threshold") {
				q.Threshold = &threshold
			}

			res, err := app.searcher.Search(ctx, q)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(res.Documents) == 0 {
				fmt.Println("No matching documents.")
				return nil
			}

			fmt.Printf("%d of %d matches in %s (avg similarity %.2f)\n\n",
				len(res.Documents), res.TotalResults, res.SearchTime.Round(time.Millisecond), res.AvgSimilarity)
			for i, d := range res.Documents {
				fmt.Printf("%d. [%3.0f%%] %s (%s, %s)\n", i+1, d.Similarity*100,
					d.Metadata.Title, d.Metadata.Type, d.Metadata.Difficulty)
				fmt.Printf("   %s\n", preview(d.Content))
			}

			if res.Degraded {
				fmt.Println("\nnote: ranked in degraded mode — the embedding provider was unavailable")
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default 10)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum similarity a result must reach")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Filter by document type (lesson, summary, concept, example, exercise)")
	cmd.Flags().StringSliceVar(&difficulties, "difficulty", nil, "Filter by difficulty (beginner, intermediate, advanced)")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "Filter by topic tag")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Filter by source label")

	return cmd
}

// buildFilter assembles a metadata filter from flag values, returning nil
// when no filter flags were given.
func buildFilter(types, difficulties, topics, sources []string) *knowledge.Filter {
	if len(types) == 0 && len(difficulties) == 0 && len(topics) == 0 && len(sources) == 0 {
		return nil
	}
	f := &knowledge.Filter{Topics: topics, Sources: sources}
	for _, t := range types {
		f.Types = append(f.Types, knowledge.DocType(t))
	}
	for _, d := range difficulties {
		f.Difficulties = append(f.Difficulties, knowledge.Difficulty(d))
	}
	return f
}

// preview returns the first line of content, truncated for terminal display.
func preview(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	const max = 120
	runes := []rune(line)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return line
}
