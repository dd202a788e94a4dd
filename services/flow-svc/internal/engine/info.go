package engine

import (
	"flownet/pkg/domain"
)

// =============================================================================
// Algorithm Information
// =============================================================================

// AlgorithmName identifies the augmenting-path strategy of the engine.
// Only the BFS (Edmonds-Karp) strategy is implemented: a DFS variant offers
// no augmentation-count guarantee independent of capacity magnitudes and is
// deliberately not provided.
const AlgorithmName = "edmonds-karp"

// AlgorithmInfo is the metadata the API exposes about a flow algorithm.
type AlgorithmInfo struct {
	// Name is the machine-readable identifier.
	Name string `json:"name"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name"`

	// Description is a brief description of the algorithm.
	Description string `json:"description"`

	// TimeComplexity and SpaceComplexity are the Big-O bounds.
	TimeComplexity  string `json:"time_complexity"`
	SpaceComplexity string `json:"space_complexity"`

	// MaxNodes is the largest network the engine accepts.
	MaxNodes int `json:"max_nodes"`

	// Deterministic reports whether identical inputs yield identical paths.
	Deterministic bool `json:"deterministic"`

	// BestFor lists scenarios where this algorithm excels.
	BestFor []string `json:"best_for"`

	// Caveats lists limitations worth knowing before relying on it.
	Caveats []string `json:"caveats"`
}

// Info returns the metadata of the implemented algorithm.
func Info() *AlgorithmInfo {
	return &AlgorithmInfo{
		Name:            AlgorithmName,
		DisplayName:     "Edmonds-Karp",
		Description:     "Ford-Fulkerson method with shortest augmenting paths found by BFS",
		TimeComplexity:  "O(V × E²)",
		SpaceComplexity: "O(V²)",
		MaxNodes:        domain.MaxNetworkNodes,
		Deterministic:   true,
		BestFor:         []string{"small_dense_networks", "reproducible_results", "min_cut_extraction"},
		Caveats: []string{
			"Augmentation count grows with V × E on adversarial layouts",
			"Dense residual matrix is sized V², not suited to large sparse networks",
		},
	}
}

// Algorithms returns metadata for every available algorithm in stable order.
func Algorithms() []*AlgorithmInfo {
	return []*AlgorithmInfo{Info()}
}
