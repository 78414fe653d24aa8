package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/importer"
	"github.com/Kizuruki/historybowlreview/internal/logger"
)

var (
	importWatch    bool
	importDebounce time.Duration
	importJSON     bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>",
	Short: "Load extraction output into the graph store",
	Long: `Load extraction output files into the graph store.

A directory imports every *.json file in name order. With --watch the
directory is imported once, then re-imported file by file as new output
lands, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		log := logger.Get()
		im := importer.New(d, log)

		res, err := im.Import(ctx, path)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if importJSON {
			if err := printJSON(w, res); err != nil {
				return err
			}
		} else {
			printImportResult(w, path, res)
		}

		if !importWatch {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("--watch needs a directory, got file %s", path)
		}

		ctx, stop := notifyContext(ctx)
		defer stop()

		fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", path)
		err = im.Watch(ctx, path, importDebounce, func(ev importer.ImportEvent) {
			if ev.Err != nil {
				log.Warn("import failed", zap.String("path", ev.Path), zap.Error(ev.Err))
				return
			}
			printImportResult(w, ev.Path, ev.Result)
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	importCmd.Flags().BoolVar(&importWatch, "watch", false, "Keep watching the directory for new output")
	importCmd.Flags().DurationVar(&importDebounce, "debounce", importer.DefaultDebounce, "Quiet period before a changed file is imported")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output the initial import result as JSON")
	rootCmd.AddCommand(importCmd)
}

func printImportResult(w io.Writer, path string, r importer.Result) {
	fmt.Fprintf(w, "Imported %s: %d record(s) from %d file(s)\n", truncateMiddle(path, 60), r.Records, r.Files)
	fmt.Fprintf(w, "  nodes: %d new, %d existing  relationships: %d  question links: %d\n",
		r.NodesAdded, r.NodesExisting, r.Relationships, r.QuestionLinks)
	if r.Unresolved > 0 {
		fmt.Fprintf(w, "  %d relationship(s) skipped: endpoint not in file\n", r.Unresolved)
	}
}
