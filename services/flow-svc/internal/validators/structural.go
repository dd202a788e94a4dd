package validators

import (
	"fmt"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

// ValidateStructure проверяет базовую структуру описания сети: узлы,
// исток/сток и рёбра. Набор проверок повторяет конструктор domain.NewNetwork,
// но вместо первой ошибки собирает полный список, чтобы клиент исправил всё
// за один заход. Нулевая пропускная способность допустима и даёт только
// предупреждение: такое ребро корректно, но поток по нему не пойдёт.
func ValidateStructure(spec domain.NetworkSpec) *apperror.ValidationErrors {
	res := apperror.NewValidationErrors()

	// Пустая сеть: дальше проверять нечего
	if len(spec.Nodes) == 0 {
		res.AddErrorWithField(apperror.CodeEmptyNetwork, "network has no nodes", "nodes")
		return res
	}

	maxNodes := spec.MaxNodes
	if maxNodes <= 0 {
		maxNodes = domain.MaxNetworkNodes
	}
	if len(spec.Nodes) > maxNodes {
		res.AddErrorWithField(apperror.CodeTooManyNodes,
			fmt.Sprintf("network has %d nodes, limit is %d", len(spec.Nodes), maxNodes), "nodes")
	}

	// Индексация узлов для O(1) проверок рёбер
	nodeSet := make(map[string]bool, len(spec.Nodes))
	for i, name := range spec.Nodes {
		if name == "" {
			res.AddErrorWithField(apperror.CodeInvalidNetwork,
				"node name is empty", fmt.Sprintf("nodes[%d]", i))
			continue
		}
		if nodeSet[name] {
			res.AddErrorWithField(apperror.CodeDuplicateNode,
				fmt.Sprintf("duplicate node %q", name), fmt.Sprintf("nodes[%d]", i))
		}
		nodeSet[name] = true
	}

	if !nodeSet[spec.Source] {
		res.AddErrorWithField(apperror.CodeInvalidSource,
			fmt.Sprintf("source node %q not found", spec.Source), "source")
	}
	if !nodeSet[spec.Sink] {
		res.AddErrorWithField(apperror.CodeInvalidSink,
			fmt.Sprintf("sink node %q not found", spec.Sink), "sink")
	}
	if spec.Source != "" && spec.Source == spec.Sink {
		res.AddErrorWithField(apperror.CodeSourceEqualsSink,
			"source and sink cannot be the same", "sink")
	}

	type pair struct{ from, to string }
	seen := make(map[pair]bool, len(spec.Edges))

	for i, e := range spec.Edges {
		field := fmt.Sprintf("edges[%d]", i)

		if !nodeSet[e.From] {
			res.AddErrorWithField(apperror.CodeDanglingEdge,
				fmt.Sprintf("edge references unknown node %q", e.From), field+".from")
		}
		if !nodeSet[e.To] {
			res.AddErrorWithField(apperror.CodeDanglingEdge,
				fmt.Sprintf("edge references unknown node %q", e.To), field+".to")
		}
		if e.From != "" && e.From == e.To {
			res.AddErrorWithField(apperror.CodeSelfLoop,
				fmt.Sprintf("self-loop on node %q", e.From), field)
		}

		switch {
		case !domain.IsFinite(e.Capacity):
			res.AddErrorWithField(apperror.CodeInvalidCapacity,
				fmt.Sprintf("capacity of edge %s->%s is not a finite number", e.From, e.To),
				field+".capacity")
		case e.Capacity < 0:
			res.AddErrorWithField(apperror.CodeInvalidCapacity,
				fmt.Sprintf("capacity of edge %s->%s is negative", e.From, e.To),
				field+".capacity")
		case domain.IsZero(e.Capacity):
			res.AddWarningWithField(apperror.CodeInvalidCapacity,
				fmt.Sprintf("capacity of edge %s->%s is zero, no flow can pass", e.From, e.To),
				field+".capacity")
		}

		p := pair{e.From, e.To}
		if seen[p] {
			res.AddErrorWithField(apperror.CodeDuplicateEdge,
				fmt.Sprintf("duplicate edge %s->%s", e.From, e.To), field)
		}
		seen[p] = true
	}

	return res
}
