package graph

import "sort"

// HubNode is a node with high connectivity
type HubNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Division  string `json:"division"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalNodes        int            `json:"total_nodes"`
	TotalEdges        int            `json:"total_edges"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	OrphanCount       int            `json:"orphan_count"`
	OrphanIDs         []string       `json:"orphan_ids"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	Hubs              []HubNode      `json:"hubs"`
	TypeCounts        map[string]int `json:"type_counts"`
	RelationCounts    map[string]int `json:"relation_counts"`
}

// ComputeTopology analyzes graph topology: components, orphans, degree distribution, hubs
func ComputeTopology(snap *GraphSnapshot, hubThreshold, topN int) *TopologyReport {
	totalNodes := len(snap.Nodes)
	totalEdges := len(snap.Edges)

	if totalNodes == 0 {
		return &TopologyReport{
			OrphanIDs:       []string{},
			DegreeHistogram: defaultHistogram(),
			Hubs:            []HubNode{},
			TypeCounts:      map[string]int{},
			RelationCounts:  map[string]int{},
		}
	}

	nodeIDs := snap.NodeIDs()
	uf := NewUnionFind(nodeIDs)
	relationCounts := make(map[string]int)
	for _, e := range snap.Edges {
		uf.Union(e.Source, e.Target)
		relationCounts[e.Relation]++
	}

	components := uf.Components()
	largest := len(components[0])
	smallest := len(components[len(components)-1])

	// Orphans: no relationship in either direction
	orphans := []string{}
	typeCounts := make(map[string]int)
	for _, id := range nodeIDs {
		typeCounts[snap.Nodes[id].Type]++
		if len(snap.Adj[id]) == 0 {
			orphans = append(orphans, id)
		}
	}
	orphanCount := len(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}

	// Degree histogram (log-scale buckets)
	buckets := [7]int{}
	for _, id := range nodeIDs {
		buckets[degreeBucket(len(snap.Adj[id]))]++
	}
	histogram := defaultHistogram()
	for i := range histogram {
		histogram[i].Count = buckets[i]
	}

	hubs := []HubNode{}
	for _, id := range nodeIDs {
		degree := len(snap.Adj[id])
		if degree > hubThreshold {
			n := snap.Nodes[id]
			hubs = append(hubs, HubNode{
				ID:        id,
				Name:      n.Name,
				Division:  n.Division,
				Degree:    degree,
				InDegree:  len(snap.InAdj[id]),
				OutDegree: len(snap.OutAdj[id]),
			})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}

	return &TopologyReport{
		TotalNodes:        totalNodes,
		TotalEdges:        totalEdges,
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		OrphanCount:       orphanCount,
		OrphanIDs:         orphans,
		DegreeHistogram:   histogram,
		Hubs:              hubs,
		TypeCounts:        typeCounts,
		RelationCounts:    relationCounts,
	}
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
