package domain

// Reachable возвращает узлы, достижимые из from по рёбрам с положительной
// пропускной способностью
func Reachable(n *Network, from int) []bool {
	visited := make([]bool, n.NodeCount())
	if from < 0 || from >= n.NodeCount() {
		return visited
	}

	queue := []int{from}
	visited[from] = true

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range n.Successors(u) {
			if visited[v] || n.Capacity(u, v) <= Epsilon {
				continue
			}
			visited[v] = true
			queue = append(queue, v)
		}
	}

	return visited
}

// ReverseReachable возвращает узлы, из которых достижим to по рёбрам с
// положительной пропускной способностью
func ReverseReachable(n *Network, to int) []bool {
	visited := make([]bool, n.NodeCount())
	if to < 0 || to >= n.NodeCount() {
		return visited
	}

	queue := []int{to}
	visited[to] = true

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range n.Predecessors(u) {
			if visited[v] || n.Capacity(v, u) <= Epsilon {
				continue
			}
			visited[v] = true
			queue = append(queue, v)
		}
	}

	return visited
}

// IsConnected проверяет, существует ли путь от истока к стоку
func IsConnected(n *Network) bool {
	return Reachable(n, n.Source())[n.Sink()]
}

// IsolatedNodes возвращает индексы узлов без инцидентных рёбер
func IsolatedNodes(n *Network) []int {
	var isolated []int
	for i := 0; i < n.NodeCount(); i++ {
		if len(n.Successors(i)) == 0 && len(n.Predecessors(i)) == 0 {
			isolated = append(isolated, i)
		}
	}
	return isolated
}
