//go:build integration

package v1_test

import (
	v1 "flownet/api/v1"
	"flownet/pkg/domain"
)

// diamondNetwork классическая ромбовидная сеть: максимум 13 (8 по A-B-D,
// 5 по A-C-D), минимальный разрез {A→C, B→D} ёмкостью 13
func diamondNetwork() v1.Network {
	return v1.Network{
		Nodes: []string{"A", "B", "C", "D"},
		Edges: []domain.Edge{
			{From: "A", To: "B", Capacity: 10},
			{From: "A", To: "C", Capacity: 5},
			{From: "B", To: "D", Capacity: 8},
			{From: "C", To: "D", Capacity: 10},
		},
		Source: "A",
		Sink:   "D",
	}
}

// singleEdgeNetwork одно ребро source→sink ёмкостью 7
func singleEdgeNetwork() v1.Network {
	return v1.Network{
		Nodes:  []string{"S", "T"},
		Edges:  []domain.Edge{{From: "S", To: "T", Capacity: 7}},
		Source: "S",
		Sink:   "T",
	}
}

// disconnectedNetwork терминалы без соединяющего пути
func disconnectedNetwork() v1.Network {
	return v1.Network{
		Nodes: []string{"S", "A", "B", "T"},
		Edges: []domain.Edge{
			{From: "S", To: "A", Capacity: 4},
			{From: "B", To: "T", Capacity: 4},
		},
		Source: "S",
		Sink:   "T",
	}
}

// classicNetwork сеть CLRS с максимумом 23
func classicNetwork() v1.Network {
	return v1.Network{
		Nodes: []string{"s", "v1", "v2", "v3", "v4", "t"},
		Edges: []domain.Edge{
			{From: "s", To: "v1", Capacity: 16},
			{From: "s", To: "v2", Capacity: 13},
			{From: "v1", To: "v3", Capacity: 12},
			{From: "v2", To: "v1", Capacity: 4},
			{From: "v2", To: "v4", Capacity: 14},
			{From: "v3", To: "v2", Capacity: 9},
			{From: "v3", To: "t", Capacity: 20},
			{From: "v4", To: "v3", Capacity: 7},
			{From: "v4", To: "t", Capacity: 4},
		},
		Source: "s",
		Sink:   "t",
	}
}
