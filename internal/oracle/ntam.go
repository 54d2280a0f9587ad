package oracle

import (
	"math"

	"stratus/internal/topology"
)

// NTAMParams are the tunables of the Normalized Topology-Aware Match score.
type NTAMParams struct {
	Alpha float64 // node importance weight
	Beta  float64 // subtree size weight; accepted but not currently applied
	Gamma float64 // length mismatch penalty sharpness
	Omega float64 // per-rank importance decay
	Tau   float64 // per-hop topology distance decay
}

// DefaultNTAMParams returns the calibrated defaults.
func DefaultNTAMParams() NTAMParams {
	return NTAMParams{Alpha: 1.0, Beta: 1.0, Gamma: 1.0, Omega: 0.7, Tau: 0.8}
}

// NTAMScore scores a ranked list of predicted fault-culprit services against
// ground truth over the service topology. Exact hits earn full rank-decayed
// credit; topologically-near misses earn partial credit decayed by hop
// distance and up-weighted for structurally peripheral nodes; predicting the
// wrong number of culprits is penalized exponentially. The result is in
// [0,1], and equals 1.0 exactly when the prediction matches ground truth in
// both membership and cardinality.
func NTAMScore(g *topology.Graph, predicted, groundTruths []string, p NTAMParams) float64 {
	if len(groundTruths) == 0 {
		return 0
	}

	dist := g.AllPairsShortestPaths()

	truth := make(map[string]struct{}, len(groundTruths))
	for _, gt := range groundTruths {
		truth[gt] = struct{}{}
	}

	score := 0.0
	for i, pred := range predicted {
		importance := math.Pow(p.Omega, float64(i))
		if _, hit := truth[pred]; hit {
			score += p.Alpha * importance
			continue
		}

		// Nearest ground-truth node, checking both lookup directions: the
		// distance table may be asymmetric when nodes are missing.
		minDist, found := math.MaxInt, false
		for _, gt := range groundTruths {
			if d, ok := dist[pred][gt]; ok && d < minDist {
				minDist, found = d, true
			}
			if d, ok := dist[gt][pred]; ok && d < minDist {
				minDist, found = d, true
			}
		}
		if !found {
			continue // disconnected or unknown service: no partial credit
		}

		// Low-degree (peripheral) predictions are worth more than hubs.
		edges := float64(g.EdgeCount())
		deg := float64(g.Degree(pred))
		subtreeFactor := (math.Log((edges+1)/(deg+1)) + 1) / (math.Log(edges+1) + 1)

		score += p.Alpha * subtreeFactor * math.Pow(p.Tau, float64(minDist))
	}

	maxPossible := 0.0
	for i := range groundTruths {
		maxPossible += p.Alpha * math.Pow(p.Omega, float64(i))
	}

	score = math.Min(1, score/maxPossible)

	// Length mismatch penalty applies after normalization.
	lenDiff := math.Abs(float64(len(predicted) - len(groundTruths)))
	score *= math.Exp(-p.Gamma * lenDiff)

	return score
}
