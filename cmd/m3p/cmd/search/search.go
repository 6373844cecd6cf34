package search

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mp3player/internal/app"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/timeutil"
	"mp3player/internal/config"
)

var (
	fileName   string
	limit      int
	semantic   bool
	indexLimit int
	batchSize  int
)

func init() {
	Cmd.Flags().StringVarP(&fileName, "file", "f", "", "restrict to one file name")
	Cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max results")
	Cmd.Flags().BoolVar(&semantic, "semantic", false, "search by meaning (requires postgres + OPENAI_API_KEY)")

	indexCmd.Flags().IntVarP(&indexLimit, "limit", "n", 500, "max transcripts to index")
	indexCmd.Flags().IntVar(&batchSize, "batch", 16, "embeddings per API call")
	Cmd.AddCommand(indexCmd)
}

// Cmd represents the search command
var Cmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search stored transcripts",
	Long: `Search the transcript library. The default is a substring match; with
--semantic the query is embedded and matched against indexed transcript
vectors (run "m3p search index" first).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		a, cleanup, err := app.InitializeApp(app.Options{SkipProviders: true})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		if semantic {
			keys, err := config.GetAPIKeys()
			if err != nil {
				return err
			}
			if keys.OpenAI == "" {
				return errors.Wrap(errors.ErrMissingAPIKey, "semantic search needs OPENAI_API_KEY")
			}

			matches, err := a.Searcher.Semantic(ctx, query, limit)
			if err != nil {
				return err
			}
			for _, m := range matches {
				fmt.Printf("%.3f  %s  %s\n", m.Similarity, m.Transcript.FileName, snippet(m.Transcript.Text))
			}
			return nil
		}

		rows, err := a.Searcher.Plain(ctx, fileName, query, limit)
		if err != nil {
			return err
		}
		for _, t := range rows {
			loc := t.FileName
			if t.IsSegment() {
				loc += " " + timeutil.Format(t.SegmentStart)
			}
			fmt.Printf("%s  %s\n", loc, snippet(t.Text))
		}
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed transcripts that are missing from the vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := app.InitializeApp(app.Options{SkipProviders: true})
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := a.Searcher.IndexMissing(cmd.Context(), indexLimit, batchSize)
		if err != nil {
			return err
		}
		fmt.Printf("indexed %d transcripts, %d failed\n", result.Indexed, result.Failed)
		return nil
	},
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 120 {
		return text[:117] + "..."
	}
	return text
}
