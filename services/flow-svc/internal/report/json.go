package report

import (
	"context"
	"encoding/json"

	"flownet/services/flow-svc/internal/analysis"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

func (g *JSONGenerator) ContentType() string {
	return "application/json"
}

func (g *JSONGenerator) Filename(data *ReportData) string {
	return g.baseName(data) + ".json"
}

// Структура JSON отчёта. Ключи в camelCase: выгрузка читается внешними
// инструментами, а не нашим API, и не обязана повторять его snake_case.
type jsonReport struct {
	Metadata jsonMetadata   `json:"metadata"`
	Network  jsonNetwork    `json:"network"`
	Result   jsonResult     `json:"result"`
	Flows    []jsonFlowEdge `json:"flows,omitempty"`
	MinCut   *jsonMinCut    `json:"minCut,omitempty"`
	Summary  *jsonSummary   `json:"summary,omitempty"`
	Paths    []jsonPath     `json:"paths,omitempty"`
}

type jsonMetadata struct {
	Title       string `json:"title"`
	RunID       string `json:"runId,omitempty"`
	GeneratedAt string `json:"generatedAt"`
}

type jsonNetwork struct {
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
	Source    string `json:"source"`
	Sink      string `json:"sink"`
}

type jsonResult struct {
	MaxFlow    float64 `json:"maxFlow"`
	Status     string  `json:"status"`
	Iterations int     `json:"iterations"`
	DurationMs int64   `json:"durationMs"`
}

type jsonFlowEdge struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Capacity    float64 `json:"capacity"`
	Flow        float64 `json:"flow"`
	Residual    float64 `json:"residual"`
	Utilization float64 `json:"utilization"`
	Saturated   bool    `json:"saturated"`
	CutEdge     bool    `json:"cutEdge"`
}

type jsonMinCut struct {
	Capacity   float64       `json:"capacity"`
	Edges      []jsonCutEdge `json:"edges"`
	SourceSide []string      `json:"sourceSide"`
	SinkSide   []string      `json:"sinkSide"`
}

type jsonCutEdge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Capacity float64 `json:"capacity"`
}

type jsonSummary struct {
	MaxFlow            float64  `json:"maxFlow"`
	Augmentations      int      `json:"augmentations"`
	SaturatedEdges     int      `json:"saturatedEdges"`
	SourceOutCapacity  float64  `json:"sourceOutCapacity"`
	SinkInCapacity     float64  `json:"sinkInCapacity"`
	AverageUtilization float64  `json:"averageUtilization"`
	SourceEfficiency   *float64 `json:"sourceEfficiency"`
	SinkEfficiency     *float64 `json:"sinkEfficiency"`
}

type jsonPath struct {
	Nodes []string `json:"nodes"`
	Flow  float64  `json:"flow"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	out := jsonReport{
		Metadata: jsonMetadata{
			Title:       g.GetTitle(data),
			RunID:       data.RunID,
			GeneratedAt: g.GeneratedAt(data).Format("2006-01-02T15:04:05Z07:00"),
		},
		Network: jsonNetwork{
			NodeCount: len(data.Network.Nodes),
			EdgeCount: len(data.Network.Edges),
			Source:    data.Network.Source,
			Sink:      data.Network.Sink,
		},
		Result: jsonResult{
			MaxFlow:    data.MaxFlow,
			Status:     data.Status,
			Iterations: data.Iterations,
			DurationMs: data.DurationMs,
		},
	}

	for _, f := range data.Flows {
		out.Flows = append(out.Flows, jsonFlowEdge(f))
	}

	if data.MinCut != nil {
		out.MinCut = convertMinCut(data.MinCut)
	}

	if s := data.Summary; s != nil {
		out.Summary = &jsonSummary{
			MaxFlow:            s.MaxFlow,
			Augmentations:      s.Augmentations,
			SaturatedEdges:     s.SaturatedEdges,
			SourceOutCapacity:  s.SourceOutCapacity,
			SinkInCapacity:     s.SinkInCapacity,
			AverageUtilization: s.AverageUtilization,
			SourceEfficiency:   s.SourceEfficiency,
			SinkEfficiency:     s.SinkEfficiency,
		}
	}

	for _, p := range data.Paths {
		out.Paths = append(out.Paths, jsonPath(p))
	}

	return json.MarshalIndent(out, "", "  ")
}

func convertMinCut(mc *analysis.MinCut) *jsonMinCut {
	out := &jsonMinCut{
		Capacity:   mc.Capacity,
		Edges:      make([]jsonCutEdge, 0, len(mc.Edges)),
		SourceSide: mc.SourceSide,
		SinkSide:   mc.SinkSide,
	}
	for _, e := range mc.Edges {
		out.Edges = append(out.Edges, jsonCutEdge(e))
	}
	return out
}
