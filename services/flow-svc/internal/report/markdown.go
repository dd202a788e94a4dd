package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// MarkdownGenerator генератор Markdown отчётов
type MarkdownGenerator struct {
	BaseGenerator
}

// NewMarkdownGenerator создаёт новый генератор
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (g *MarkdownGenerator) Format() Format {
	return FormatMarkdown
}

func (g *MarkdownGenerator) ContentType() string {
	return "text/markdown"
}

func (g *MarkdownGenerator) Filename(data *ReportData) string {
	return g.baseName(data) + ".md"
}

// Generate генерирует Markdown отчёт
func (g *MarkdownGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer

	g.writeHeader(&buf, data)
	g.writeNetwork(&buf, data)
	g.writeResult(&buf, data)
	g.writeFlows(&buf, data)
	g.writeMinCut(&buf, data)
	g.writeSummary(&buf, data)
	g.writePaths(&buf, data)
	g.writeFooter(&buf, data)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *ReportData) {
	fmt.Fprintf(buf, "# %s\n\n", g.GetTitle(data))
	if data.RunID != "" {
		fmt.Fprintf(buf, "*Run `%s`*\n\n", data.RunID)
	}
	fmt.Fprintf(buf, "*Generated: %s*\n\n", g.FormatTimestamp(g.GeneratedAt(data)))
}

func (g *MarkdownGenerator) writeNetwork(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString("## Network\n\n")
	buf.WriteString("| Property | Value |\n|---|---|\n")
	fmt.Fprintf(buf, "| Nodes | %d |\n", len(data.Network.Nodes))
	fmt.Fprintf(buf, "| Edges | %d |\n", len(data.Network.Edges))
	fmt.Fprintf(buf, "| Source | `%s` |\n", data.Network.Source)
	fmt.Fprintf(buf, "| Sink | `%s` |\n", data.Network.Sink)
	if st := data.Statistics; st != nil {
		fmt.Fprintf(buf, "| Total capacity | %s |\n", g.FormatFloat(st.TotalCapacity, 2))
		fmt.Fprintf(buf, "| Density | %s |\n", g.FormatFloat(st.Density, 4))
		fmt.Fprintf(buf, "| Connected | %s |\n", g.FormatBool(st.IsConnected))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeResult(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString("## Result\n\n")
	buf.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(buf, "| **Max flow** | **%s** |\n", g.FormatFloat(data.MaxFlow, 4))
	fmt.Fprintf(buf, "| Status | %s |\n", data.Status)
	fmt.Fprintf(buf, "| Iterations | %d |\n", data.Iterations)
	fmt.Fprintf(buf, "| Duration | %s |\n", g.FormatDuration(data.DurationMs))
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeFlows(buf *bytes.Buffer, data *ReportData) {
	if len(data.Flows) == 0 {
		return
	}

	buf.WriteString("## Edge Flows\n\n")
	buf.WriteString("| From | To | Flow | Capacity | Utilization | Saturated | In Cut |\n")
	buf.WriteString("|---|---|---|---|---|---|---|\n")
	for _, e := range data.Flows {
		fmt.Fprintf(buf, "| %s | %s | %s | %s | %s | %s | %s |\n",
			e.From, e.To,
			g.FormatFloat(e.Flow, 2),
			g.FormatFloat(e.Capacity, 2),
			g.FormatPercent(e.Utilization),
			g.FormatBool(e.Saturated),
			g.FormatBool(e.CutEdge),
		)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeMinCut(buf *bytes.Buffer, data *ReportData) {
	mc := data.MinCut
	if mc == nil {
		return
	}

	buf.WriteString("## Minimum Cut\n\n")
	fmt.Fprintf(buf, "Cut capacity: **%s** (equals max flow)\n\n", g.FormatFloat(mc.Capacity, 4))

	buf.WriteString("| From | To | Capacity |\n|---|---|---|\n")
	for _, e := range mc.Edges {
		fmt.Fprintf(buf, "| %s | %s | %s |\n", e.From, e.To, g.FormatFloat(e.Capacity, 2))
	}
	buf.WriteString("\n")

	fmt.Fprintf(buf, "- Source side: %s\n", codeList(mc.SourceSide))
	fmt.Fprintf(buf, "- Sink side: %s\n\n", codeList(mc.SinkSide))
}

func (g *MarkdownGenerator) writeSummary(buf *bytes.Buffer, data *ReportData) {
	s := data.Summary
	if s == nil {
		return
	}

	buf.WriteString("## Summary\n\n")
	buf.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(buf, "| Saturated edges | %d of %d |\n", s.SaturatedEdges, s.EdgeCount)
	fmt.Fprintf(buf, "| Source out capacity | %s |\n", g.FormatFloat(s.SourceOutCapacity, 2))
	fmt.Fprintf(buf, "| Sink in capacity | %s |\n", g.FormatFloat(s.SinkInCapacity, 2))
	fmt.Fprintf(buf, "| Average utilization | %s |\n", g.FormatPercent(s.AverageUtilization))
	fmt.Fprintf(buf, "| Source efficiency | %s |\n", g.FormatEfficiency(s.SourceEfficiency))
	fmt.Fprintf(buf, "| Sink efficiency | %s |\n", g.FormatEfficiency(s.SinkEfficiency))
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writePaths(buf *bytes.Buffer, data *ReportData) {
	if len(data.Paths) == 0 {
		return
	}

	buf.WriteString("## Augmenting Paths\n\n")
	for i, p := range data.Paths {
		fmt.Fprintf(buf, "%d. `%s` - flow %s\n", i+1, g.FormatPath(p), g.FormatFloat(p.Flow, 2))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString("---\n\n")
	fmt.Fprintf(buf, "*flownet | %s*\n", g.FormatTimestamp(g.GeneratedAt(data)))
}

// codeList рендерит имена узлов как список `код`-элементов
func codeList(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}
