package db

import (
	"container/heap"
	"context"
	"errors"
)

// Neighbor is a node reached by expanding outward from a study node.
type Neighbor struct {
	Rank      int       `json:"rank"`
	Node      Node      `json:"node"`
	Distance  float64   `json:"distance"`
	Relevance float64   `json:"relevance"`
	Hops      int       `json:"hops"`
	Path      []PathHop `json:"path"`
}

// PathHop is one relationship crossed on the way to a Neighbor.
type PathHop struct {
	RelationshipID int64  `json:"relationship_id"`
	Relation       string `json:"relation"`
	NodeID         string `json:"node_id"`
	NodeName       string `json:"node_name"`
}

// ExploreConfig bounds a neighborhood expansion.
type ExploreConfig struct {
	Budget    int      // max neighbors returned
	MaxHops   int      // max relationships crossed
	MaxCost   float64  // distance ceiling
	Relations []string // allowlist; nil means all
	Types     []string // node types returned (all types are traversed); nil means all
}

// DefaultExploreConfig returns the CLI defaults.
func DefaultExploreConfig() *ExploreConfig {
	return &ExploreConfig{
		Budget:  15,
		MaxHops: 3,
		MaxCost: 2.5,
	}
}

// RelationCost is the distance added by crossing one relationship. Agency and
// causation bind entities tighter than loose association.
func RelationCost(relation string) float64 {
	switch relation {
	case RelCaused, RelLed, RelEnactedBy:
		return 0.5
	case RelOpposed, RelOccurredIn:
		return 0.7
	default:
		return 1.0
	}
}

type prevEntry struct {
	prevNodeID string
	relID      int64
	relation   string
}

type exploreEntry struct {
	distance float64
	nodeID   string
	hops     int
}

// exploreHeap is a min-heap on distance, ties broken by node ID.
type exploreHeap []exploreEntry

func (h exploreHeap) Len() int { return len(h) }
func (h exploreHeap) Less(i, j int) bool {
	if h[i].distance != h[j].distance {
		return h[i].distance < h[j].distance
	}
	return h[i].nodeID < h[j].nodeID
}
func (h exploreHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *exploreHeap) Push(x any)   { *h = append(*h, x.(exploreEntry)) }
func (h *exploreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Explore runs Dijkstra outward from sourceID over relationships in both
// directions and returns up to Budget neighbors, nearest first. Dangling
// endpoints are traversed but never returned.
func (d *DB) Explore(ctx context.Context, sourceID string, config *ExploreConfig) ([]Neighbor, error) {
	if config == nil {
		config = DefaultExploreConfig()
	}
	def := DefaultExploreConfig()
	budget, maxHops, maxCost := config.Budget, config.MaxHops, config.MaxCost
	if budget <= 0 {
		budget = def.Budget
	}
	if maxHops <= 0 {
		maxHops = def.MaxHops
	}
	if maxCost <= 0 {
		maxCost = def.MaxCost
	}
	allowRel := toSet(config.Relations)
	allowType := toSet(config.Types)

	dist := map[string]float64{sourceID: 0}
	prev := map[string]prevEntry{}
	visited := map[string]bool{}
	names := map[string]string{}

	h := &exploreHeap{{distance: 0, nodeID: sourceID}}
	heap.Init(h)

	var results []Neighbor
	for h.Len() > 0 && len(results) < budget {
		entry := heap.Pop(h).(exploreEntry)
		current := entry.nodeID
		if visited[current] {
			continue
		}
		visited[current] = true

		if current != sourceID {
			node, err := d.GetNode(ctx, current)
			switch {
			case errors.Is(err, ErrNotFound):
			case err != nil:
				return nil, err
			default:
				names[current] = node.Name
				if allowType == nil || allowType[node.Type] {
					results = append(results, Neighbor{
						Node:      *node,
						Distance:  entry.distance,
						Relevance: 1.0 / (1.0 + entry.distance),
						Hops:      entry.hops,
						Path:      reconstructPath(prev, names, sourceID, current),
					})
				}
			}
		}

		if entry.hops >= maxHops {
			continue
		}

		rels, err := d.RelationshipsForNode(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if allowRel != nil && !allowRel[r.Relation] {
				continue
			}
			neighbor := r.ToNode
			if r.FromNode != current {
				neighbor = r.FromNode
			}
			if visited[neighbor] {
				continue
			}
			newDist := entry.distance + RelationCost(r.Relation)
			if newDist > maxCost {
				continue
			}
			if old, ok := dist[neighbor]; !ok || newDist < old {
				dist[neighbor] = newDist
				prev[neighbor] = prevEntry{prevNodeID: current, relID: r.ID, relation: r.Relation}
				heap.Push(h, exploreEntry{distance: newDist, nodeID: neighbor, hops: entry.hops + 1})
			}
		}
	}

	for i := range results {
		results[i].Rank = i + 1
	}
	if results == nil {
		results = []Neighbor{}
	}
	return results, nil
}

// reconstructPath walks prev back from target and returns hops in
// source-to-target order. Unresolved nodes are named by ID.
func reconstructPath(prev map[string]prevEntry, names map[string]string, source, target string) []PathHop {
	var path []PathHop
	for current := target; current != source; {
		entry, ok := prev[current]
		if !ok {
			break
		}
		name, ok := names[current]
		if !ok {
			name = current
		}
		path = append(path, PathHop{
			RelationshipID: entry.relID,
			Relation:       entry.relation,
			NodeID:         current,
			NodeName:       name,
		})
		current = entry.prevNodeID
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func toSet(values []string) map[string]bool {
	if values == nil {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
