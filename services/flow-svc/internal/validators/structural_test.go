package validators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

// validSpec — ромб с максимальным потоком 13
func validSpec() domain.NetworkSpec {
	return domain.NetworkSpec{
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

func codesOf(errs []*apperror.Error) []string {
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, string(e.Code))
	}
	return codes
}

func TestValidateStructure(t *testing.T) {
	manyNodes := make([]string, domain.MaxNetworkNodes+1)
	for i := range manyNodes {
		manyNodes[i] = string(rune('a' + i))
	}

	tests := []struct {
		name      string
		mutate    func(*domain.NetworkSpec)
		wantCodes []string
	}{
		{
			name:      "valid_network",
			mutate:    func(s *domain.NetworkSpec) {},
			wantCodes: nil,
		},
		{
			name: "empty_network",
			mutate: func(s *domain.NetworkSpec) {
				s.Nodes = nil
				s.Edges = nil
			},
			wantCodes: []string{string(apperror.CodeEmptyNetwork)},
		},
		{
			name: "too_many_nodes",
			mutate: func(s *domain.NetworkSpec) {
				s.Nodes = append(s.Nodes, manyNodes...)
			},
			wantCodes: []string{string(apperror.CodeTooManyNodes)},
		},
		{
			name: "empty_node_name",
			mutate: func(s *domain.NetworkSpec) {
				s.Nodes = append(s.Nodes, "")
			},
			wantCodes: []string{string(apperror.CodeInvalidNetwork)},
		},
		{
			name: "duplicate_node",
			mutate: func(s *domain.NetworkSpec) {
				s.Nodes = append(s.Nodes, "B")
			},
			wantCodes: []string{string(apperror.CodeDuplicateNode)},
		},
		{
			name: "unknown_source",
			mutate: func(s *domain.NetworkSpec) {
				s.Source = "X"
			},
			wantCodes: []string{string(apperror.CodeInvalidSource)},
		},
		{
			name: "unknown_sink",
			mutate: func(s *domain.NetworkSpec) {
				s.Sink = "X"
			},
			wantCodes: []string{string(apperror.CodeInvalidSink)},
		},
		{
			name: "source_equals_sink",
			mutate: func(s *domain.NetworkSpec) {
				s.Sink = "A"
			},
			wantCodes: []string{string(apperror.CodeSourceEqualsSink)},
		},
		{
			name: "dangling_edge",
			mutate: func(s *domain.NetworkSpec) {
				s.Edges = append(s.Edges, domain.Edge{From: "B", To: "X", Capacity: 1})
			},
			wantCodes: []string{string(apperror.CodeDanglingEdge)},
		},
		{
			name: "self_loop",
			mutate: func(s *domain.NetworkSpec) {
				s.Edges = append(s.Edges, domain.Edge{From: "B", To: "B", Capacity: 1})
			},
			wantCodes: []string{string(apperror.CodeSelfLoop)},
		},
		{
			name: "negative_capacity",
			mutate: func(s *domain.NetworkSpec) {
				s.Edges[0].Capacity = -3
			},
			wantCodes: []string{string(apperror.CodeInvalidCapacity)},
		},
		{
			name: "nan_capacity",
			mutate: func(s *domain.NetworkSpec) {
				s.Edges[0].Capacity = math.NaN()
			},
			wantCodes: []string{string(apperror.CodeInvalidCapacity)},
		},
		{
			name: "infinite_capacity",
			mutate: func(s *domain.NetworkSpec) {
				s.Edges[0].Capacity = math.Inf(1)
			},
			wantCodes: []string{string(apperror.CodeInvalidCapacity)},
		},
		{
			name: "duplicate_edge",
			mutate: func(s *domain.NetworkSpec) {
				s.Edges = append(s.Edges, domain.Edge{From: "A", To: "B", Capacity: 2})
			},
			wantCodes: []string{string(apperror.CodeDuplicateEdge)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			res := ValidateStructure(spec)
			assert.ElementsMatch(t, tt.wantCodes, codesOf(res.Errors))
		})
	}
}

func TestValidateStructure_CollectsAllErrors(t *testing.T) {
	// Несколько независимых нарушений должны попасть в один ответ
	spec := domain.NetworkSpec{
		Nodes: []string{"A", "B", "B"},
		Edges: []domain.Edge{
			{From: "A", To: "X", Capacity: 1},
			{From: "A", To: "B", Capacity: -1},
		},
		Source: "A",
		Sink:   "missing",
	}

	res := ValidateStructure(spec)
	codes := codesOf(res.Errors)

	assert.Contains(t, codes, string(apperror.CodeDuplicateNode))
	assert.Contains(t, codes, string(apperror.CodeInvalidSink))
	assert.Contains(t, codes, string(apperror.CodeDanglingEdge))
	assert.Contains(t, codes, string(apperror.CodeInvalidCapacity))
	assert.Len(t, codes, 4)
}

func TestValidateStructure_ZeroCapacityWarning(t *testing.T) {
	spec := validSpec()
	spec.Edges[1].Capacity = 0

	res := ValidateStructure(spec)

	assert.False(t, res.HasErrors())
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, apperror.CodeInvalidCapacity, res.Warnings[0].Code)
	assert.Equal(t, "edges[1].capacity", res.Warnings[0].Field)
}

func TestValidateStructure_FieldPaths(t *testing.T) {
	spec := validSpec()
	spec.Edges = append(spec.Edges, domain.Edge{From: "X", To: "D", Capacity: 1})

	res := ValidateStructure(spec)

	assert.Len(t, res.Errors, 1)
	assert.Equal(t, "edges[4].from", res.Errors[0].Field)
}
