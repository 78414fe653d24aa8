package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/graph"
)

var (
	statsJSON         bool
	statsDivision     string
	statsTopN         int
	statsHubThreshold int
	statsMaxCross     int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Mastery per division and graph structure: cohesion, keystones, thin links",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		snap, err := graph.SnapshotFromDB(ctx, d, statsDivision)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		config := &graph.AnalyzerConfig{
			HubThreshold: statsHubThreshold,
			TopN:         statsTopN,
			MaxCross:     statsMaxCross,
		}
		report := graph.Analyze(snap, config)
		report.Division = db.NormalizeDivision(statsDivision)

		mastered, err := d.MasteryStats(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if statsJSON {
			return printJSON(w, struct {
				Mastery *db.MasteryReport     `json:"mastery"`
				Graph   *graph.AnalysisReport `json:"graph"`
			}{mastered, report})
		}

		printMastery(w, mastered, report.Division)
		printHumanReadable(w, report, snap)
		return nil
	},
}

func init() {
	def := graph.DefaultConfig()
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().StringVar(&statsDivision, "division", "", "Scope graph analysis to one division")
	statsCmd.Flags().IntVar(&statsTopN, "top-n", def.TopN, "Number of top items to show per section")
	statsCmd.Flags().IntVar(&statsHubThreshold, "hub-threshold", def.HubThreshold, "Minimum degree to consider a node a hub")
	statsCmd.Flags().IntVar(&statsMaxCross, "max-cross", def.MaxCross, "Cross-subdivision relationships at or below which a link is thin")
	rootCmd.AddCommand(statsCmd)
}

func printMastery(w io.Writer, m *db.MasteryReport, division string) {
	fmt.Fprintln(w, "\n  MASTERY")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  %-24s %6s %6s %4s %4s %4s %4s %5s\n", "division", "nodes", "seen", "☆", "1★", "2★", "3★", "plat")
	row := func(dm db.DivisionMastery) {
		fmt.Fprintf(w, "  %-24s %6d %6d %4d %4d %4d %4d %5d\n",
			truncTitle(dm.Division, 24), dm.Nodes, dm.Practiced,
			dm.Stars[0], dm.Stars[1], dm.Stars[2], dm.Stars[3], dm.PlatinumActive)
	}
	for _, dm := range m.Divisions {
		if division == "" || dm.Division == division {
			row(dm)
		}
	}
	if division == "" {
		row(m.Total)
	}
}

func printHumanReadable(w io.Writer, report *graph.AnalysisReport, snap *graph.GraphSnapshot) {
	// Cohesion bar
	barLen := int(report.CohesionScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	scope := "all divisions"
	if report.Division != "" {
		scope = report.Division
	}
	fmt.Fprintf(w, "\n  Cohesion (%s): %.0f%%  [%s]\n", scope, report.CohesionScore*100, bar)
	fmt.Fprintf(w, "  breakdown: connectivity=%.2f components=%.2f fragility=%.2f\n\n",
		report.CohesionBreakdown.Connectivity,
		report.CohesionBreakdown.Components,
		report.CohesionBreakdown.Fragility)

	// Topology
	t := report.Topology
	fmt.Fprintln(w, "  TOPOLOGY")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Nodes: %d  Relationships: %d  Components: %d\n", t.TotalNodes, t.TotalEdges, t.NumComponents)
	fmt.Fprintf(w, "  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)
	if len(t.TypeCounts) > 0 {
		fmt.Fprintf(w, "  Types: %s\n", formatCounts(t.TypeCounts))
	}
	if len(t.RelationCounts) > 0 {
		fmt.Fprintf(w, "  Relations: %s\n", formatCounts(t.RelationCounts))
	}

	if t.OrphanCount > 0 {
		fmt.Fprintf(w, "  Orphans: %d unconnected nodes\n", t.OrphanCount)
		limit := min(5, len(t.OrphanIDs))
		for _, id := range t.OrphanIDs[:limit] {
			name := "?"
			if node := snap.Nodes[id]; node != nil {
				name = truncTitle(node.Name, 50)
			}
			fmt.Fprintf(w, "    - %s (%s)\n", truncTitle(id, 30), name)
		}
		if t.OrphanCount > 5 {
			fmt.Fprintf(w, "    ... and %d more\n", t.OrphanCount-5)
		}
	}

	// Degree distribution
	if t.TotalNodes > 0 {
		fmt.Fprintln(w, "\n  Degree distribution:")
		for _, b := range t.DegreeHistogram {
			if b.Count > 0 {
				barWidth := int(math.Log2(float64(b.Count))) + 2
				fmt.Fprintf(w, "    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
			}
		}
	}

	// Hubs
	if len(t.Hubs) > 0 {
		fmt.Fprintln(w, "\n  Hubs (degree >= threshold):")
		for _, hub := range t.Hubs {
			fmt.Fprintf(w, "    %-30s degree=%d (in=%d, out=%d)  %s\n",
				truncTitle(hub.ID, 30), hub.Degree, hub.InDegree, hub.OutDegree, truncTitle(hub.Name, 40))
		}
	}

	// Bridges
	br := report.Bridges
	if br.KeystoneCount > 0 || br.BridgeCount > 0 || len(br.ThinLinks) > 0 {
		fmt.Fprintln(w, "\n  WEAK POINTS")
		fmt.Fprintln(w, "  ────────────────────────────────────────")
		if br.KeystoneCount > 0 {
			fmt.Fprintf(w, "  %d keystone nodes (forgetting one splits what you know):\n", br.KeystoneCount)
			for _, k := range br.Keystones[:min(10, len(br.Keystones))] {
				fmt.Fprintf(w, "    %-40s %d neighbours  [%s]\n", truncTitle(k.Name, 40), k.Neighbours, k.Division)
			}
		}
		if br.BridgeCount > 0 {
			fmt.Fprintf(w, "  %d bridge relationships:\n", br.BridgeCount)
			for _, b := range br.Bridges[:min(10, len(br.Bridges))] {
				fmt.Fprintf(w, "    %s -[%s]- %s\n", truncTitle(b.FromName, 30), b.Relation, truncTitle(b.ToName, 30))
			}
		}
		if len(br.ThinLinks) > 0 {
			fmt.Fprintf(w, "  %d thin links between subdivisions:\n", len(br.ThinLinks))
			for _, tl := range br.ThinLinks[:min(10, len(br.ThinLinks))] {
				s := ""
				if tl.CrossEdges != 1 {
					s = "s"
				}
				fmt.Fprintf(w, "    %s <-> %s (%d relationship%s)\n",
					truncTitle(tl.RegionA, 30), truncTitle(tl.RegionB, 30), tl.CrossEdges, s)
			}
		}
	}

	fmt.Fprintln(w)
}

// formatCounts renders a count map as "k=v" pairs, largest first.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
