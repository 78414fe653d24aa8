package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/mastery"
)

var (
	progressCorrect bool
	progressWrong   bool
	progressMode    string
	progressJSON    bool
	masteredJSON    bool
)

var progressCmd = &cobra.Command{
	Use:   "progress <node>",
	Short: "Show a node's mastery, or record an attempt with --correct / --wrong",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		node, err := ResolveNode(cmd.Context(), d, args[0])
		if err != nil {
			return err
		}

		var p *db.UserProgress
		if progressCorrect || progressWrong {
			mode, err := mastery.ParseMode(progressMode)
			if err != nil {
				return err
			}
			p, err = d.UpdateProgress(cmd.Context(), node.ID, progressCorrect, mode)
			if err != nil {
				return err
			}
		} else {
			p, err = d.GetProgress(cmd.Context(), node.ID)
			if errors.Is(err, db.ErrNotFound) {
				p = &db.UserProgress{NodeID: node.ID}
			} else if err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		if progressJSON {
			return printJSON(w, p)
		}
		printProgress(w, node, *p, d.Now())
		return nil
	},
}

var masteredCmd = &cobra.Command{
	Use:   "mastered",
	Short: "List practiced nodes by stars",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		all, err := d.AllProgress(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if masteredJSON {
			return printJSON(w, all)
		}
		if len(all) == 0 {
			fmt.Fprintln(w, "Nothing practiced yet.")
			return nil
		}
		now := d.Now()
		for _, p := range all {
			mark := ""
			if mastery.IsPlatinum(p.PlatinumUntil, now) {
				mark = "  platinum"
			}
			fmt.Fprintf(w, "  %s  %-40s %3d/%-3d%s\n",
				starBar(p.Stars), truncTitle(p.NodeID, 40), p.TimesCorrect, p.TimesWrong, mark)
		}
		return nil
	},
}

func init() {
	progressCmd.Flags().BoolVar(&progressCorrect, "correct", false, "Record a correct answer")
	progressCmd.Flags().BoolVar(&progressWrong, "wrong", false, "Record a wrong answer")
	progressCmd.Flags().StringVar(&progressMode, "mode", string(mastery.ModeInitial), "Practice mode: initial, practice or advanced")
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "Output as JSON")
	progressCmd.MarkFlagsMutuallyExclusive("correct", "wrong")
	masteredCmd.Flags().BoolVar(&masteredJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(progressCmd, masteredCmd)
}
