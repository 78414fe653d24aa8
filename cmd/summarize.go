package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/extract"
	"github.com/Kizuruki/historybowlreview/internal/questionbank"
)

var (
	summarizeBank     string
	summarizeDryRun   bool
	summarizeProvider string
	summarizeModel    string
	summarizeBaseURL  string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <node>",
	Short: "Write a study summary for a node from the questions that mention it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()

		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		node, err := ResolveNode(cmd.Context(), d, args[0])
		if err != nil {
			return err
		}
		ids, err := d.QuestionsForNode(cmd.Context(), node.ID)
		if err != nil {
			return err
		}
		bank, err := questionbank.Load(summarizeBank)
		if err != nil {
			return err
		}
		questions := questionbank.Find(bank, ids)
		if len(questions) == 0 {
			return fmt.Errorf("none of the %d question(s) linked to %s are in %s", len(ids), node.ID, summarizeBank)
		}

		ctx, stop := notifyContext(cmd.Context())
		defer stop()

		gen, err := newGenerator(ctx, c.LLM)
		if err != nil {
			return err
		}
		summary, err := extract.Summarize(ctx, gen, node.Name, questions, c.LLM.SummaryMaxTokens)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s (%d question(s))\n\n%s\n", node.Name, len(questions), summary)
		if summarizeDryRun {
			return nil
		}
		if err := d.SetNodeSummary(cmd.Context(), node.ID, summary); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nSaved summary to %s\n", node.ID)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeBank, "bank", "", "Question bank file or directory")
	summarizeCmd.Flags().BoolVar(&summarizeDryRun, "dry-run", false, "Print the summary without saving it")
	summarizeCmd.Flags().StringVar(&summarizeProvider, "provider", "", "LLM provider: openai or gemini")
	summarizeCmd.Flags().StringVar(&summarizeModel, "model", "", "Model name")
	summarizeCmd.Flags().StringVar(&summarizeBaseURL, "base-url", "", "OpenAI-compatible endpoint")
	_ = summarizeCmd.MarkFlagRequired("bank")
	rootCmd.AddCommand(summarizeCmd)
}
