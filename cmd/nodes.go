package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	nodesJSON   bool
	relatedJSON bool
)

var nodesCmd = &cobra.Command{
	Use:   "nodes [division]",
	Short: "List the nodes of a division, or every division when none is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()
		w := cmd.OutOrStdout()

		if len(args) == 0 {
			divisions, err := d.Divisions(cmd.Context())
			if err != nil {
				return err
			}
			if nodesJSON {
				return printJSON(w, divisions)
			}
			if len(divisions) == 0 {
				fmt.Fprintln(w, "No divisions yet. Import extraction output with `historybowl import`.")
				return nil
			}
			for _, dc := range divisions {
				fmt.Fprintf(w, "  %-30s %5d\n", dc.Division, dc.Nodes)
			}
			return nil
		}

		nodes, err := d.NodesByDivision(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if nodesJSON {
			return printJSON(w, nodes)
		}
		printNodeTable(w, nodes)
		return nil
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related <node>",
	Short: "List nodes sharing a relationship with a node, in either direction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		source, err := ResolveNode(cmd.Context(), d, args[0])
		if err != nil {
			return err
		}
		nodes, err := d.RelatedNodes(cmd.Context(), source.ID)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if relatedJSON {
			return printJSON(w, nodes)
		}
		fmt.Fprintf(w, "Related to %s (%s):\n", source.Name, source.ID)
		printNodeTable(w, nodes)
		return nil
	},
}

func init() {
	nodesCmd.Flags().BoolVar(&nodesJSON, "json", false, "Output as JSON")
	relatedCmd.Flags().BoolVar(&relatedJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(nodesCmd, relatedCmd)
}
