package domain

import (
	"fmt"
	"slices"

	"flownet/pkg/apperror"
)

// Edge направленное ребро сети с неотрицательной пропускной способностью
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Capacity float64 `json:"capacity"`
}

// NetworkSpec входное описание сети для конструктора
type NetworkSpec struct {
	Nodes  []string `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Source string   `json:"source"`
	Sink   string   `json:"sink"`

	// MaxNodes переопределяет лимит узлов (0 — MaxNetworkNodes)
	MaxNodes int `json:"max_nodes,omitempty"`
}

// Network неизменяемый снимок направленной сети. Создаётся один раз из
// NetworkSpec, после конструктора только читается.
type Network struct {
	names    []string
	index    map[string]int
	capacity [][]float64
	edges    []Edge
	succ     [][]int
	pred     [][]int
	source   int
	sink     int
}

// NewNetwork строит и валидирует сеть. Все проверки входных данных
// выполняются до каких-либо вычислений; первая нарушенная приводит к
// ошибке класса InvalidInput.
func NewNetwork(spec NetworkSpec) (*Network, error) {
	if len(spec.Nodes) == 0 {
		return nil, apperror.ErrEmptyNetwork
	}

	maxNodes := spec.MaxNodes
	if maxNodes <= 0 {
		maxNodes = MaxNetworkNodes
	}
	if len(spec.Nodes) > maxNodes {
		return nil, apperror.New(apperror.CodeTooManyNodes,
			fmt.Sprintf("network has %d nodes, limit is %d", len(spec.Nodes), maxNodes)).
			WithDetails("node_count", len(spec.Nodes)).
			WithDetails("max_nodes", maxNodes)
	}

	n := &Network{
		names:    make([]string, 0, len(spec.Nodes)),
		index:    make(map[string]int, len(spec.Nodes)),
		edges:    make([]Edge, 0, len(spec.Edges)),
		capacity: make([][]float64, len(spec.Nodes)),
		succ:     make([][]int, len(spec.Nodes)),
		pred:     make([][]int, len(spec.Nodes)),
	}

	for _, name := range spec.Nodes {
		if name == "" {
			return nil, apperror.NewWithField(apperror.CodeInvalidNetwork,
				"node name is empty", "nodes")
		}
		if _, exists := n.index[name]; exists {
			return nil, apperror.NewWithField(apperror.CodeDuplicateNode,
				fmt.Sprintf("duplicate node %q", name), "nodes")
		}
		n.index[name] = len(n.names)
		n.names = append(n.names, name)
	}

	src, ok := n.index[spec.Source]
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeInvalidSource,
			fmt.Sprintf("source node %q not found", spec.Source), "source")
	}
	dst, ok := n.index[spec.Sink]
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeInvalidSink,
			fmt.Sprintf("sink node %q not found", spec.Sink), "sink")
	}
	if src == dst {
		return nil, apperror.ErrSourceEqualsSink
	}
	n.source = src
	n.sink = dst

	for i := range n.capacity {
		n.capacity[i] = make([]float64, len(spec.Nodes))
	}

	for i, e := range spec.Edges {
		field := fmt.Sprintf("edges[%d]", i)

		u, ok := n.index[e.From]
		if !ok {
			return nil, apperror.NewWithField(apperror.CodeDanglingEdge,
				fmt.Sprintf("edge references unknown node %q", e.From), field)
		}
		v, ok := n.index[e.To]
		if !ok {
			return nil, apperror.NewWithField(apperror.CodeDanglingEdge,
				fmt.Sprintf("edge references unknown node %q", e.To), field)
		}
		if u == v {
			return nil, apperror.NewWithField(apperror.CodeSelfLoop,
				fmt.Sprintf("self-loop on node %q", e.From), field)
		}
		if !IsFinite(e.Capacity) {
			return nil, apperror.NewWithField(apperror.CodeInvalidCapacity,
				fmt.Sprintf("capacity of edge %s->%s is not a finite number", e.From, e.To), field)
		}
		if e.Capacity < 0 {
			return nil, apperror.NewWithField(apperror.CodeInvalidCapacity,
				fmt.Sprintf("capacity of edge %s->%s is negative", e.From, e.To), field)
		}
		if n.hasArc(u, v) {
			return nil, apperror.NewWithField(apperror.CodeDuplicateEdge,
				fmt.Sprintf("duplicate edge %s->%s", e.From, e.To), field)
		}

		n.capacity[u][v] = e.Capacity
		n.edges = append(n.edges, Edge{From: e.From, To: e.To, Capacity: e.Capacity})
		n.succ[u] = append(n.succ[u], v)
		n.pred[v] = append(n.pred[v], u)
	}

	// Порядок обхода соседей фиксируется по возрастанию индекса
	for i := range n.succ {
		slices.Sort(n.succ[i])
		slices.Sort(n.pred[i])
	}

	return n, nil
}

// hasArc различает нулевую пропускную способность и отсутствие ребра
func (n *Network) hasArc(u, v int) bool {
	for _, w := range n.succ[u] {
		if w == v {
			return true
		}
	}
	return false
}

// NodeCount возвращает число узлов
func (n *Network) NodeCount() int {
	return len(n.names)
}

// EdgeCount возвращает число рёбер
func (n *Network) EdgeCount() int {
	return len(n.edges)
}

// Nodes возвращает имена узлов в каноническом порядке (копия)
func (n *Network) Nodes() []string {
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

// Edges возвращает рёбра в порядке вставки (копия)
func (n *Network) Edges() []Edge {
	out := make([]Edge, len(n.edges))
	copy(out, n.edges)
	return out
}

// Index возвращает канонический индекс узла по имени
func (n *Network) Index(name string) (int, bool) {
	i, ok := n.index[name]
	return i, ok
}

// Name возвращает имя узла по индексу
func (n *Network) Name(i int) string {
	if i < 0 || i >= len(n.names) {
		return ""
	}
	return n.names[i]
}

// Source возвращает индекс истока
func (n *Network) Source() int {
	return n.source
}

// Sink возвращает индекс стока
func (n *Network) Sink() int {
	return n.sink
}

// SourceName возвращает имя истока
func (n *Network) SourceName() string {
	return n.names[n.source]
}

// SinkName возвращает имя стока
func (n *Network) SinkName() string {
	return n.names[n.sink]
}

// Capacity возвращает пропускную способность дуги (i,j), 0 если ребра нет.
// Антипараллельные рёбра (i,j) и (j,i) хранятся независимо.
func (n *Network) Capacity(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(n.names) || j >= len(n.names) {
		return 0
	}
	return n.capacity[i][j]
}

// HasEdge проверяет наличие исходного ребра (i,j)
func (n *Network) HasEdge(i, j int) bool {
	if i < 0 || j < 0 || i >= len(n.names) || j >= len(n.names) {
		return false
	}
	return n.hasArc(i, j)
}

// Successors возвращает индексы узлов-приёмников исходных рёбер из i
// по возрастанию (копия)
func (n *Network) Successors(i int) []int {
	if i < 0 || i >= len(n.succ) {
		return nil
	}
	out := make([]int, len(n.succ[i]))
	copy(out, n.succ[i])
	return out
}

// Predecessors возвращает индексы узлов-источников исходных рёбер в i
// по возрастанию (копия)
func (n *Network) Predecessors(i int) []int {
	if i < 0 || i >= len(n.pred) {
		return nil
	}
	out := make([]int, len(n.pred[i]))
	copy(out, n.pred[i])
	return out
}

// SourceOutCapacity возвращает суммарную пропускную способность рёбер из истока
func (n *Network) SourceOutCapacity() float64 {
	total := 0.0
	for _, v := range n.succ[n.source] {
		total += n.capacity[n.source][v]
	}
	return total
}

// SinkInCapacity возвращает суммарную пропускную способность рёбер в сток
func (n *Network) SinkInCapacity() float64 {
	total := 0.0
	for _, u := range n.pred[n.sink] {
		total += n.capacity[u][n.sink]
	}
	return total
}

// TotalCapacity возвращает сумму пропускных способностей всех рёбер
func (n *Network) TotalCapacity() float64 {
	total := 0.0
	for _, e := range n.edges {
		total += e.Capacity
	}
	return total
}

// Spec восстанавливает NetworkSpec (для сериализации и хэширования)
func (n *Network) Spec() NetworkSpec {
	return NetworkSpec{
		Nodes:  n.Nodes(),
		Edges:  n.Edges(),
		Source: n.names[n.source],
		Sink:   n.names[n.sink],
	}
}
