package validators

import (
	"fmt"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

// ValidateConnectivity проверяет достижимость в уже построенной сети.
// Отсутствие пути исток→сток — ошибка: максимальный поток заведомо нулевой.
// Узлы вне какого-либо пути — предупреждения: задача остаётся корректной,
// но поток через них невозможен.
func ValidateConnectivity(n *domain.Network) *apperror.ValidationErrors {
	res := apperror.NewValidationErrors()
	if n == nil {
		res.Add(apperror.ErrNilNetwork)
		return res
	}

	fromSource := domain.Reachable(n, n.Source())
	toSink := domain.ReverseReachable(n, n.Sink())

	if !fromSource[n.Sink()] {
		res.AddErrorWithField(apperror.CodeNoPath,
			fmt.Sprintf("sink %q is not reachable from source %q", n.SinkName(), n.SourceName()),
			"network")
	}

	isolated := make(map[int]bool)
	for _, i := range domain.IsolatedNodes(n) {
		isolated[i] = true
		res.AddWarningWithField(apperror.CodeIsolatedNode,
			fmt.Sprintf("node %q has no incident edges", n.Name(i)), "nodes")
	}

	for i := 0; i < n.NodeCount(); i++ {
		if i == n.Source() || i == n.Sink() || isolated[i] {
			continue
		}
		switch {
		case !fromSource[i] && !toSink[i]:
			// Узел в компоненте, не связанной ни с истоком, ни со стоком
			res.AddWarningWithField(apperror.CodeDisconnectedNetwork,
				fmt.Sprintf("node %q is disconnected from both source and sink", n.Name(i)),
				"nodes")
		case !fromSource[i]:
			res.AddWarningWithField(apperror.CodeUnreachableNode,
				fmt.Sprintf("node %q is not reachable from source", n.Name(i)), "nodes")
		case !toSink[i]:
			res.AddWarningWithField(apperror.CodeUnreachableNode,
				fmt.Sprintf("node %q cannot reach sink", n.Name(i)), "nodes")
		}
	}

	return res
}
