package validators

import (
	"fmt"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

// ValidatePolicies проверяет доменные ограничения на направление рёбер:
// в исток ничего не входит, из стока ничего не выходит, прямое ребро
// исток→сток запрещено, встречная пара рёбер между двумя узлами запрещена.
// Ядро алгоритма таких сетей не требует — ограничения действуют на входе,
// чтобы результат был интерпретируемым для предметной области.
func ValidatePolicies(spec domain.NetworkSpec) *apperror.ValidationErrors {
	res := apperror.NewValidationErrors()

	type pair struct{ from, to string }
	seen := make(map[pair]bool, len(spec.Edges))

	for i, e := range spec.Edges {
		field := fmt.Sprintf("edges[%d]", i)

		if spec.Source != "" && e.To == spec.Source {
			res.AddErrorWithField(apperror.CodeEdgeIntoSource,
				fmt.Sprintf("edge %s->%s enters the source", e.From, e.To), field)
		}
		if spec.Sink != "" && e.From == spec.Sink {
			res.AddErrorWithField(apperror.CodeEdgeOutOfSink,
				fmt.Sprintf("edge %s->%s leaves the sink", e.From, e.To), field)
		}
		if spec.Source != "" && e.From == spec.Source && e.To == spec.Sink {
			res.AddErrorWithField(apperror.CodeDirectSourceSink,
				fmt.Sprintf("direct edge %s->%s from source to sink is not allowed", e.From, e.To),
				field)
		}

		// Встречное ребро фиксируется на втором ребре пары
		if seen[pair{e.To, e.From}] {
			res.AddErrorWithField(apperror.CodeBidirectionalPair,
				fmt.Sprintf("edges %s->%s and %s->%s form a bidirectional pair",
					e.To, e.From, e.From, e.To), field)
		}
		seen[pair{e.From, e.To}] = true
	}

	return res
}
