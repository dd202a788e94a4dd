package graph

import (
	"flownet/pkg/apperror"
)

// ReconstructPath walks the parent assignments of a successful search from
// sink back to source and returns the path in source→sink order.
//
// The parent slice comes from a SearchResult with Found=true; a hole in the
// chain (missing parent, out-of-range index, or a cycle) means the search
// state is corrupt and is reported as a critical invariant violation.
func ReconstructPath(parent []int, source, sink int) ([]int, error) {
	n := len(parent)
	if source < 0 || source >= n || sink < 0 || sink >= n {
		return nil, apperror.NewCritical(apperror.CodeBrokenPath,
			"path endpoints outside the parent table").
			WithDetails("source", source).
			WithDetails("sink", sink).
			WithDetails("nodes", n)
	}

	path := make([]int, 0, n)
	cur := sink
	for cur != source {
		path = append(path, cur)
		if len(path) > n {
			return nil, apperror.NewCritical(apperror.CodeBrokenPath,
				"parent assignments form a cycle")
		}
		p := parent[cur]
		if p < 0 || p >= n {
			return nil, apperror.NewCritical(apperror.CodeBrokenPath,
				"missing parent while reconstructing augmenting path").
				WithDetails("node", cur).
				WithDetails("parent", p)
		}
		cur = p
	}
	path = append(path, source)

	// Built sink-first; reverse in place.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}
