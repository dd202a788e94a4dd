package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"flownet/pkg/domain"
)

// NetworkHash вычисляет хеш сети для использования как ключ кэша
func NetworkHash(spec *domain.NetworkSpec) string {
	if spec == nil {
		return ""
	}

	data := networkToCanonical(spec)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// networkToCanonical создаёт детерминированное представление сети.
// Порядок узлов и рёбер во входной спецификации не влияет на результат.
func networkToCanonical(spec *domain.NetworkSpec) []byte {
	// Сортируем имена узлов
	nodes := make([]string, len(spec.Nodes))
	copy(nodes, spec.Nodes)
	sort.Strings(nodes)

	// Сортируем рёбра
	edges := make([]domain.Edge, len(spec.Edges))
	copy(edges, spec.Edges)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	// Строим каноническую строку
	var result []byte

	// Source и Sink
	result = append(result, []byte(fmt.Sprintf("s:%s,t:%s;", spec.Source, spec.Sink))...)

	// Узлы
	for _, name := range nodes {
		result = append(result, []byte(fmt.Sprintf("n:%s;", name))...)
	}

	// Рёбра
	for _, e := range edges {
		result = append(result, []byte(fmt.Sprintf("e:%s:%s:%.6f;", e.From, e.To, e.Capacity))...)
	}

	return result
}

// BuildSolveKey строит ключ кэша для результата вычисления
func BuildSolveKey(networkHash, algorithm string) string {
	return fmt.Sprintf("solve:%s:%s", algorithm, networkHash)
}

// BuildSolveKeyWithOptions строит ключ с учётом опций
func BuildSolveKeyWithOptions(networkHash, algorithm, optionsHash string) string {
	if optionsHash == "" {
		return BuildSolveKey(networkHash, algorithm)
	}
	return fmt.Sprintf("solve:%s:%s:%s", algorithm, networkHash, optionsHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
