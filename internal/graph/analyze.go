package graph

import "math"

// CohesionBreakdown shows the sub-scores of the cohesion formula
type CohesionBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Fragility    float64 `json:"fragility"`
}

// AnalysisReport is the full analysis result for one division or the whole graph
type AnalysisReport struct {
	Division          string            `json:"division,omitempty"`
	CohesionScore     float64           `json:"cohesion_score"`
	CohesionBreakdown CohesionBreakdown `json:"cohesion_breakdown"`
	Topology          *TopologyReport   `json:"topology"`
	Bridges           *BridgeReport     `json:"bridges"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	HubThreshold int
	TopN         int
	MaxCross     int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		HubThreshold: 5,
		TopN:         25,
		MaxCross:     2,
	}
}

// Analyze runs topology and bridge analysis and computes a cohesion score in [0, 1].
// A well-linked division (few orphans, one component, few keystones) scores near 1.
func Analyze(snap *GraphSnapshot, config *AnalyzerConfig) *AnalysisReport {
	topology := ComputeTopology(snap, config.HubThreshold, config.TopN)
	bridges := ComputeBridges(snap, config.MaxCross)

	total := float64(topology.TotalNodes)

	var connectivity, components, fragility float64
	if total > 0 {
		connectivity = clamp(1.0-math.Min(float64(topology.OrphanCount)/total, 0.2)*5.0, 0, 1)
		fragility = clamp(1.0-math.Min(float64(bridges.KeystoneCount)/total, 0.05)*20.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}

	return &AnalysisReport{
		CohesionScore: 0.40*connectivity + 0.35*components + 0.25*fragility,
		CohesionBreakdown: CohesionBreakdown{
			Connectivity: connectivity,
			Components:   components,
			Fragility:    fragility,
		},
		Topology: topology,
		Bridges:  bridges,
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
