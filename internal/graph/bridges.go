package graph

import "sort"

// KeystoneNode is a node whose removal splits its component. In study terms
// these are the figures and events that tie otherwise separate topics together.
type KeystoneNode struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Division   string `json:"division"`
	Neighbours int    `json:"neighbours"`
}

// BridgeLink is a relationship whose removal splits its component
type BridgeLink struct {
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	FromName string `json:"from_name"`
	ToName   string `json:"to_name"`
	Relation string `json:"relation"`
}

// ThinLink is a pair of subdivisions joined by few relationships
type ThinLink struct {
	RegionA    string `json:"region_a"`
	RegionB    string `json:"region_b"`
	CrossEdges int    `json:"cross_edges"`
}

// BridgeReport contains bridge analysis results
type BridgeReport struct {
	Keystones     []KeystoneNode `json:"keystones"`
	Bridges       []BridgeLink   `json:"bridges"`
	ThinLinks     []ThinLink     `json:"thin_links"`
	KeystoneCount int            `json:"keystone_count"`
	BridgeCount   int            `json:"bridge_count"`
}

// ComputeBridges finds keystone nodes (articulation points), bridge
// relationships and subdivision pairs joined by at most maxCross relationships.
func ComputeBridges(snap *GraphSnapshot, maxCross int) *BridgeReport {
	if len(snap.Nodes) == 0 {
		return &BridgeReport{Keystones: []KeystoneNode{}, Bridges: []BridgeLink{}, ThinLinks: []ThinLink{}}
	}

	nodeIDs := snap.NodeIDs()
	idToIdx := make(map[string]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idToIdx[id] = i
	}
	n := len(nodeIDs)

	// Deduplicated undirected adjacency as indices; parallel relations count once.
	adjIdx := make([][]int, n)
	type edgePair struct{ u, v int }
	seen := make(map[edgePair]bool)
	relationOf := make(map[edgePair]string)

	for _, e := range snap.Edges {
		u, okU := idToIdx[e.Source]
		v, okV := idToIdx[e.Target]
		if !okU || !okV || u == v {
			continue
		}
		key := edgePair{u, v}
		if u > v {
			key = edgePair{v, u}
		}
		if !seen[key] {
			seen[key] = true
			relationOf[key] = e.Relation
			adjIdx[u] = append(adjIdx[u], v)
			adjIdx[v] = append(adjIdx[v], u)
		}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isAP := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1

	// Iterative Tarjan for each connected component
	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node
			parent := top.parent

			if top.ni < len(adjIdx[node]) {
				child := adjIdx[node][top.ni]
				top.ni++

				if child == parent {
					continue
				}

				if visited[child] {
					// Back edge
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
				} else {
					// Tree edge
					visited[child] = true
					disc[child] = counter
					low[child] = counter
					counter++

					if node == start {
						rootChildren++
					}

					stack = append(stack, frame{child, node, 0})
				}
			} else {
				// Done with this node, pop and propagate
				stack = stack[:len(stack)-1]

				if len(stack) > 0 {
					parentFrame := &stack[len(stack)-1]
					pn := parentFrame.node

					if low[node] < low[pn] {
						low[pn] = low[node]
					}

					// Bridge check
					if low[node] > disc[pn] {
						bridgePairs = append(bridgePairs, [2]int{pn, node})
					}

					// AP check (non-root)
					if pn != start && low[node] >= disc[pn] {
						isAP[pn] = true
					}
				}
			}
		}

		// Root is AP if 2+ tree children
		if rootChildren >= 2 {
			isAP[start] = true
		}
	}

	keystones := []KeystoneNode{}
	for i := 0; i < n; i++ {
		if isAP[i] {
			node := snap.Nodes[nodeIDs[i]]
			keystones = append(keystones, KeystoneNode{
				ID:         node.ID,
				Name:       node.Name,
				Division:   node.Division,
				Neighbours: len(adjIdx[i]),
			})
		}
	}
	sort.SliceStable(keystones, func(i, j int) bool { return keystones[i].Neighbours > keystones[j].Neighbours })

	bridges := []BridgeLink{}
	for _, pair := range bridgePairs {
		key := edgePair{pair[0], pair[1]}
		if key.u > key.v {
			key = edgePair{key.v, key.u}
		}
		from := snap.Nodes[nodeIDs[pair[0]]]
		to := snap.Nodes[nodeIDs[pair[1]]]
		bridges = append(bridges, BridgeLink{
			FromID:   from.ID,
			ToID:     to.ID,
			FromName: from.Name,
			ToName:   to.Name,
			Relation: relationOf[key],
		})
	}

	type regionPair struct{ a, b string }
	pairCounts := make(map[regionPair]int)
	for _, e := range snap.Edges {
		ra, rb := snap.Regions[e.Source], snap.Regions[e.Target]
		if ra == rb {
			continue
		}
		key := regionPair{ra, rb}
		if ra > rb {
			key = regionPair{rb, ra}
		}
		pairCounts[key]++
	}

	thin := []ThinLink{}
	for pair, count := range pairCounts {
		if count <= maxCross {
			thin = append(thin, ThinLink{RegionA: pair.a, RegionB: pair.b, CrossEdges: count})
		}
	}
	sort.Slice(thin, func(i, j int) bool {
		if thin[i].CrossEdges != thin[j].CrossEdges {
			return thin[i].CrossEdges < thin[j].CrossEdges
		}
		if thin[i].RegionA != thin[j].RegionA {
			return thin[i].RegionA < thin[j].RegionA
		}
		return thin[i].RegionB < thin[j].RegionB
	})

	return &BridgeReport{
		Keystones:     keystones,
		Bridges:       bridges,
		ThinLinks:     thin,
		KeystoneCount: len(keystones),
		BridgeCount:   len(bridges),
	}
}
