package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var wrongLimit int

var wrongCmd = &cobra.Command{
	Use:   "wrong",
	Short: "Record and review missed questions",
}

var wrongAddCmd = &cobra.Command{
	Use:   "add <json|->",
	Short: "Store a JSON record of a missed question ('-' reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := []byte(args[0])
		if args[0] == "-" {
			var err error
			payload, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
		}

		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		rec, err := d.RecordWrongAnswer(cmd.Context(), json.RawMessage(payload))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded wrong answer #%d\n", rec.ID)
		return nil
	},
}

var wrongListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print recorded wrong answers, newest first, as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		records, err := d.WrongAnswers(cmd.Context(), wrongLimit)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(w, "[]")
			return nil
		}
		type entry struct {
			ID        int64           `json:"id"`
			Payload   json.RawMessage `json:"payload"`
			CreatedAt string          `json:"created_at"`
		}
		out := make([]entry, len(records))
		for i, r := range records {
			out[i] = entry{r.ID, r.Payload, time.UnixMilli(r.CreatedAt).Format(time.RFC3339)}
		}
		return printJSON(w, out)
	},
}

func init() {
	wrongListCmd.Flags().IntVar(&wrongLimit, "limit", 20, "Max records to print (0 for all)")
	wrongCmd.AddCommand(wrongAddCmd, wrongListCmd)
	rootCmd.AddCommand(wrongCmd)
}
