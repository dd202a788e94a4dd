package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

func (g *CSVGenerator) ContentType() string {
	return "text/csv"
}

func (g *CSVGenerator) Filename(data *ReportData) string {
	return g.baseName(data) + ".csv"
}

// csvWriter обёртка для отслеживания первой ошибки записи
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

// Generate генерирует CSV отчёт
func (g *CSVGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write([]string{"# " + g.GetTitle(data)})
	if data.RunID != "" {
		cw.Write([]string{"Run ID", data.RunID})
	}
	cw.Write([]string{"Generated", g.FormatTimestamp(g.GeneratedAt(data))})
	cw.Write([]string{""})

	cw.Write([]string{"Network"})
	cw.Write([]string{"Nodes", fmt.Sprintf("%d", len(data.Network.Nodes))})
	cw.Write([]string{"Edges", fmt.Sprintf("%d", len(data.Network.Edges))})
	cw.Write([]string{"Source", data.Network.Source})
	cw.Write([]string{"Sink", data.Network.Sink})
	cw.Write([]string{""})

	cw.Write([]string{"Result"})
	cw.Write([]string{"Max Flow", g.FormatFloat(data.MaxFlow, 4)})
	cw.Write([]string{"Status", data.Status})
	cw.Write([]string{"Iterations", fmt.Sprintf("%d", data.Iterations)})
	cw.Write([]string{"Duration", g.FormatDuration(data.DurationMs)})
	cw.Write([]string{""})

	if len(data.Flows) > 0 {
		cw.Write([]string{"Edge Flows"})
		cw.Write([]string{"From", "To", "Flow", "Capacity", "Residual", "Utilization", "Saturated", "In Cut"})
		for _, e := range data.Flows {
			cw.Write([]string{
				e.From,
				e.To,
				g.FormatFloat(e.Flow, 4),
				g.FormatFloat(e.Capacity, 4),
				g.FormatFloat(e.Residual, 4),
				g.FormatPercent(e.Utilization),
				g.FormatBool(e.Saturated),
				g.FormatBool(e.CutEdge),
			})
		}
		cw.Write([]string{""})
	}

	if mc := data.MinCut; mc != nil {
		cw.Write([]string{"Minimum Cut"})
		cw.Write([]string{"Capacity", g.FormatFloat(mc.Capacity, 4)})
		cw.Write([]string{"From", "To", "Edge Capacity"})
		for _, e := range mc.Edges {
			cw.Write([]string{e.From, e.To, g.FormatFloat(e.Capacity, 4)})
		}
		cw.Write(append([]string{"Source Side"}, mc.SourceSide...))
		cw.Write(append([]string{"Sink Side"}, mc.SinkSide...))
		cw.Write([]string{""})
	}

	if s := data.Summary; s != nil {
		cw.Write([]string{"Summary"})
		cw.Write([]string{"Saturated Edges", fmt.Sprintf("%d", s.SaturatedEdges)})
		cw.Write([]string{"Source Out Capacity", g.FormatFloat(s.SourceOutCapacity, 4)})
		cw.Write([]string{"Sink In Capacity", g.FormatFloat(s.SinkInCapacity, 4)})
		cw.Write([]string{"Average Utilization", g.FormatPercent(s.AverageUtilization)})
		cw.Write([]string{"Source Efficiency", g.FormatEfficiency(s.SourceEfficiency)})
		cw.Write([]string{"Sink Efficiency", g.FormatEfficiency(s.SinkEfficiency)})
		cw.Write([]string{""})
	}

	if len(data.Paths) > 0 {
		cw.Write([]string{"Augmenting Paths"})
		cw.Write([]string{"#", "Path", "Flow"})
		for i, p := range data.Paths {
			cw.Write([]string{
				fmt.Sprintf("%d", i+1),
				g.FormatPath(p),
				g.FormatFloat(p.Flow, 4),
			})
		}
	}

	cw.Flush()
	if cw.err != nil {
		return nil, fmt.Errorf("csv write error: %w", cw.err)
	}

	return buf.Bytes(), nil
}
