package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/db"
)

var (
	exploreBudget    int
	exploreMaxHops   int
	exploreMaxCost   float64
	exploreRelations string
	exploreTypes     string
	exploreJSON      bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore <node>",
	Short: "Weighted neighborhood of a node: what to study next",
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

		config := &db.ExploreConfig{
			Budget:    exploreBudget,
			MaxHops:   exploreMaxHops,
			MaxCost:   exploreMaxCost,
			Relations: splitList(exploreRelations),
			Types:     splitList(exploreTypes),
		}

		results, err := d.Explore(cmd.Context(), source.ID, config)
		if err != nil {
			return fmt.Errorf("exploring: %w", err)
		}

		w := cmd.OutOrStdout()
		if exploreJSON {
			return printJSON(w, struct {
				Source  db.Node       `json:"source"`
				Budget  int           `json:"budget"`
				Results []db.Neighbor `json:"results"`
				Count   int           `json:"count"`
			}{*source, exploreBudget, results, len(results)})
		}

		printExploreHumanReadable(w, source, results)
		return nil
	},
}

func init() {
	def := db.DefaultExploreConfig()
	exploreCmd.Flags().IntVar(&exploreBudget, "budget", def.Budget, "Max nodes to return")
	exploreCmd.Flags().IntVar(&exploreMaxHops, "max-hops", def.MaxHops, "Max relationships crossed")
	exploreCmd.Flags().Float64Var(&exploreMaxCost, "max-cost", def.MaxCost, "Distance ceiling")
	exploreCmd.Flags().StringVar(&exploreRelations, "relations", "", "Comma-separated relation allowlist")
	exploreCmd.Flags().StringVar(&exploreTypes, "types", "", "Comma-separated node types to return")
	exploreCmd.Flags().BoolVar(&exploreJSON, "json", false, "JSON output")
	rootCmd.AddCommand(exploreCmd)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printExploreHumanReadable(w io.Writer, source *db.Node, results []db.Neighbor) {
	if len(results) == 0 {
		fmt.Fprintf(w, "Nothing connected to: %s\n", source.Name)
		return
	}

	fmt.Fprintf(w, "Around: %s (%s)\n\n", source.Name, source.ID)

	for _, r := range results {
		fmt.Fprintf(w, "  %2d. [%s] %s  dist=%.2f rel=%.0f%% hops=%d\n",
			r.Rank, r.Node.Type, r.Node.Name, r.Distance, r.Relevance*100, r.Hops)

		if len(r.Path) > 1 {
			hops := make([]string, len(r.Path))
			for i, hop := range r.Path {
				hops[i] = fmt.Sprintf("-[%s]-> %s", hop.Relation, truncTitle(hop.NodeName, 40))
			}
			fmt.Fprintf(w, "      %s\n", strings.Join(hops, " "))
		}
	}

	fmt.Fprintf(w, "\n%d node(s) within budget\n", len(results))
}
