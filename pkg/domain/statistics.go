package domain

// NetworkStatistics структурная статистика сети
type NetworkStatistics struct {
	NodeCount         int     `json:"node_count"`
	EdgeCount         int     `json:"edge_count"`
	TotalCapacity     float64 `json:"total_capacity"`
	SourceOutCapacity float64 `json:"source_out_capacity"`
	SinkInCapacity    float64 `json:"sink_in_capacity"`
	Density           float64 `json:"density"`
	AverageDegree     float64 `json:"average_degree"`
	MaxDegree         int     `json:"max_degree"`
	MinDegree         int     `json:"min_degree"`
	IsolatedNodes     int     `json:"isolated_nodes"`
	IsConnected       bool    `json:"is_connected"`
}

// CalculateNetworkStatistics вычисляет структурную статистику сети
func CalculateNetworkStatistics(n *Network) *NetworkStatistics {
	stats := &NetworkStatistics{
		NodeCount:         n.NodeCount(),
		EdgeCount:         n.EdgeCount(),
		TotalCapacity:     n.TotalCapacity(),
		SourceOutCapacity: n.SourceOutCapacity(),
		SinkInCapacity:    n.SinkInCapacity(),
		IsConnected:       IsConnected(n),
		IsolatedNodes:     len(IsolatedNodes(n)),
	}

	// Плотность: доля заполненных упорядоченных пар
	if stats.NodeCount > 1 {
		stats.Density = float64(stats.EdgeCount) /
			float64(stats.NodeCount*(stats.NodeCount-1))
	}

	stats.MinDegree = int(^uint(0) >> 1) // MaxInt
	totalDegree := 0
	for i := 0; i < n.NodeCount(); i++ {
		degree := len(n.Successors(i)) + len(n.Predecessors(i))
		totalDegree += degree
		if degree > stats.MaxDegree {
			stats.MaxDegree = degree
		}
		if degree < stats.MinDegree {
			stats.MinDegree = degree
		}
	}
	if stats.NodeCount > 0 {
		stats.AverageDegree = float64(totalDegree) / float64(stats.NodeCount)
	} else {
		stats.MinDegree = 0
	}

	return stats
}
