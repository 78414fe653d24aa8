package graph

import (
	"sort"

	"github.com/Kizuruki/historybowlreview/internal/db"
)

// NodeInfo is a lightweight node representation decoupled from DB types
type NodeInfo struct {
	ID          string
	Name        string
	Division    string
	Subdivision string
	Type        string
}

// EdgeInfo is a lightweight relationship representation
type EdgeInfo struct {
	ID       int64
	Source   string
	Target   string
	Relation string
}

// GraphSnapshot holds a graph with precomputed adjacency lists and subdivision map
type GraphSnapshot struct {
	Nodes   map[string]*NodeInfo
	Edges   []EdgeInfo
	Adj     map[string][]string // undirected
	OutAdj  map[string][]string // from_node -> to_nodes
	InAdj   map[string][]string // to_node -> from_nodes
	Regions map[string]string   // node_id -> division/subdivision
}

// NewSnapshot builds a GraphSnapshot from raw nodes and edges.
// Edges with an endpoint outside nodes are kept in Edges but never enter adjacency.
func NewSnapshot(nodes []*NodeInfo, edges []EdgeInfo) *GraphSnapshot {
	nodeMap := make(map[string]*NodeInfo, len(nodes))
	adj := make(map[string][]string)
	outAdj := make(map[string][]string)
	inAdj := make(map[string][]string)
	regions := make(map[string]string, len(nodes))

	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = nil
		outAdj[n.ID] = nil
		inAdj[n.ID] = nil
		regions[n.ID] = regionOf(n)
	}

	var linked []EdgeInfo
	for _, e := range edges {
		if _, ok := nodeMap[e.Source]; !ok {
			continue
		}
		if _, ok := nodeMap[e.Target]; !ok {
			continue
		}
		linked = append(linked, e)
		adj[e.Source] = append(adj[e.Source], e.Target)
		if e.Source != e.Target {
			adj[e.Target] = append(adj[e.Target], e.Source)
		}
		outAdj[e.Source] = append(outAdj[e.Source], e.Target)
		inAdj[e.Target] = append(inAdj[e.Target], e.Source)
	}

	return &GraphSnapshot{
		Nodes:   nodeMap,
		Edges:   linked,
		Adj:     adj,
		OutAdj:  outAdj,
		InAdj:   inAdj,
		Regions: regions,
	}
}

// FromStore converts store rows into a snapshot.
func FromStore(nodes []db.Node, rels []db.Relationship) *GraphSnapshot {
	infos := make([]*NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		infos = append(infos, &NodeInfo{
			ID:          n.ID,
			Name:        n.Name,
			Division:    n.Division,
			Subdivision: n.Subdivision,
			Type:        n.Type,
		})
	}
	edges := make([]EdgeInfo, 0, len(rels))
	for _, r := range rels {
		edges = append(edges, EdgeInfo{
			ID:       r.ID,
			Source:   r.FromNode,
			Target:   r.ToNode,
			Relation: r.Relation,
		})
	}
	return NewSnapshot(infos, edges)
}

// FilterToDivision returns a new snapshot containing only nodes of the given
// division and the relationships between them. The division is normalized first.
func (s *GraphSnapshot) FilterToDivision(division string) *GraphSnapshot {
	want := db.NormalizeDivision(division)

	var nodes []*NodeInfo
	for _, id := range s.NodeIDs() {
		if n := s.Nodes[id]; n.Division == want {
			nodes = append(nodes, n)
		}
	}
	// NewSnapshot drops the cross-division edges.
	return NewSnapshot(nodes, s.Edges)
}

// NodeIDs returns a sorted list of all node IDs (for deterministic output)
func (s *GraphSnapshot) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Divisions returns the sorted set of divisions present in the snapshot.
func (s *GraphSnapshot) Divisions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range s.Nodes {
		if !seen[n.Division] {
			seen[n.Division] = true
			out = append(out, n.Division)
		}
	}
	sort.Strings(out)
	return out
}

func regionOf(n *NodeInfo) string {
	switch {
	case n.Division == "" && n.Subdivision == "":
		return "unassigned"
	case n.Subdivision == "":
		return n.Division
	default:
		return n.Division + "/" + n.Subdivision
	}
}
