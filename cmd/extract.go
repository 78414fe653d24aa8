package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/extract"
	"github.com/Kizuruki/historybowlreview/internal/importer"
	"github.com/Kizuruki/historybowlreview/internal/logger"
	"github.com/Kizuruki/historybowlreview/internal/questionbank"
)

var (
	extractOut      string
	extractLimit    int
	extractTaxonomy string
	extractDelay    time.Duration
	extractProvider string
	extractModel    string
	extractBaseURL  string
	extractImport   bool
)

// newGenerator builds the text generator; tests replace it.
var newGenerator = extract.NewGenerator

var extractCmd = &cobra.Command{
	Use:   "extract <question-bank>",
	Short: "Extract graph nodes and relationships from a question bank with an LLM",
	Long: `Send each question of a bank (a JSON, YAML or HTML file, or a directory
of them) to the configured LLM and write the extracted nodes and
relationships to an output file for "historybowl import".

Questions that fail are skipped and listed in the output. Interrupting the
run writes what was extracted so far.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		bank := args[0]

		questions, err := questionbank.Load(bank)
		if err != nil {
			return err
		}
		if extractLimit > 0 && len(questions) > extractLimit {
			questions = questions[:extractLimit]
		}
		if len(questions) == 0 {
			return fmt.Errorf("no questions in %s", bank)
		}

		ctx, stop := notifyContext(cmd.Context())
		defer stop()

		gen, err := newGenerator(ctx, c.LLM)
		if err != nil {
			return err
		}

		runner := &extract.Runner{
			Generator: gen,
			Taxonomy:  c.Extract.Taxonomy,
			MaxTokens: c.LLM.MaxTokens,
			Delay:     c.Extract.Delay,
			Logger:    logger.Get(),
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Extracting %d question(s) from %s with %s\n", len(questions), truncateMiddle(bank, 50), gen.Model())

		start := time.Now()
		out, runErr := runner.Run(ctx, bank, questions)
		if out == nil {
			return runErr
		}
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}

		path := extractOut
		if path == "" {
			path = fmt.Sprintf("extract-%s.json", out.RunID[:8])
		}
		if err := out.WriteFile(path); err != nil {
			return err
		}
		printExtractSummary(w, out, path, time.Since(start), runErr != nil)

		if extractImport && runErr == nil {
			d, err := OpenDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()
			res, err := importer.New(d, logger.Get()).ImportOutput(cmd.Context(), out)
			if err != nil {
				return err
			}
			printImportResult(w, path, res)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Output file (default: extract-<run>.json)")
	extractCmd.Flags().IntVar(&extractLimit, "limit", 0, "Only extract the first N questions")
	extractCmd.Flags().StringVar(&extractTaxonomy, "taxonomy", "", "Classification scheme: division or category")
	extractCmd.Flags().DurationVar(&extractDelay, "delay", 0, "Pause between requests (default from config)")
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "LLM provider: openai or gemini")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "Model name")
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", "", "OpenAI-compatible endpoint")
	extractCmd.Flags().BoolVar(&extractImport, "import", false, "Import the output into the store when the run completes")
	rootCmd.AddCommand(extractCmd)
}

func printExtractSummary(w io.Writer, out *extract.OutputFile, path string, elapsed time.Duration, interrupted bool) {
	nodes, rels := 0, 0
	for _, r := range out.Records {
		nodes += len(r.Nodes)
		rels += len(r.Relationships)
	}
	status := "done"
	if interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(w, "\nExtraction %s in %s (run %s)\n", status, formatDurationShort(elapsed), out.RunID[:8])
	fmt.Fprintf(w, "  records: %d  nodes: %d  relationships: %d  skipped: %d\n",
		len(out.Records), nodes, rels, len(out.Skipped))
	for _, s := range out.Skipped {
		fmt.Fprintf(w, "    - %s: %s\n", s.QuestionID, truncateMiddle(s.Reason, 70))
	}
	fmt.Fprintf(w, "  wrote %s\n", path)
}
