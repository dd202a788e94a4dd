package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/analysis"
)

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

func (g *PDFGenerator) ContentType() string {
	return "application/pdf"
}

func (g *PDFGenerator) Filename(data *ReportData) string {
	return g.baseName(data) + ".pdf"
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	warningColor   = &props.Color{Red: 243, Green: 156, Blue: 18}  // #f39c12
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	// Стили текста
	titleStyle = props.Text{
		Size:  24,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	h3Style = props.Text{
		Size:  12,
		Style: fontstyle.Bold,
		Color: darkGrayColor,
		Top:   3,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	g.addHeader(m, data)
	g.addNetworkSection(m, data)
	g.addResultSection(m, data)

	if len(data.Flows) > 0 {
		g.addSection(m, "Edge Flows")
		g.addEdgeFlowsTable(m, data.Flows)
	}
	if data.MinCut != nil {
		g.addMinCutSection(m, data.MinCut)
	}
	if data.Summary != nil {
		g.addSummarySection(m, data.Summary)
	}
	if len(data.Paths) > 0 {
		g.addPathsSection(m, data.Paths)
	}

	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *ReportData) {
	m.AddRow(15,
		text.NewCol(12, g.GetTitle(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	// Метаданные
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Network: %s -> %s", data.Network.Source, data.Network.Sink), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	if data.RunID != "" {
		m.AddRow(5,
			text.NewCol(12, fmt.Sprintf("Run: %s", data.RunID), smallStyle),
		)
	}

	m.AddRow(8) // Отступ
}

func (g *PDFGenerator) addNetworkSection(m core.Maroto, data *ReportData) {
	g.addSection(m, "Network Information")

	g.addMetricCards(m, []metricCard{
		{Label: "Nodes", Value: fmt.Sprintf("%d", len(data.Network.Nodes))},
		{Label: "Edges", Value: fmt.Sprintf("%d", len(data.Network.Edges))},
		{Label: "Source", Value: data.Network.Source},
		{Label: "Sink", Value: data.Network.Sink},
	})

	if stats := data.Statistics; stats != nil {
		m.AddRow(5)
		g.addKeyValueTable(m, []keyValue{
			{"Total Capacity", g.FormatFloat(stats.TotalCapacity, 2)},
			{"Density", g.FormatFloat(stats.Density, 4)},
			{"Average Degree", g.FormatFloat(stats.AverageDegree, 2)},
			{"Connected", g.FormatBool(stats.IsConnected)},
		})
	}
}

func (g *PDFGenerator) addResultSection(m core.Maroto, data *ReportData) {
	g.addSection(m, "Flow Results")

	// Главная метрика
	g.addMetricCards(m, []metricCard{
		{Label: "Maximum Flow", Value: g.FormatFloat(data.MaxFlow, 4), Highlight: true},
	})

	// Дополнительные метрики
	m.AddRow(5)
	g.addMetricCards(m, []metricCard{
		{Label: "Iterations", Value: fmt.Sprintf("%d", data.Iterations)},
		{Label: "Duration", Value: g.FormatDuration(data.DurationMs)},
	})

	// Статус с цветовой индикацией
	statusStyle := boldStyle
	switch data.Status {
	case "optimal":
		statusStyle.Color = successColor
	case "not_converged":
		statusStyle.Color = warningColor
	case "failed", "canceled":
		statusStyle.Color = dangerColor
	}

	m.AddRow(5)
	m.AddRow(6,
		text.NewCol(6, "Status", boldStyle),
		text.NewCol(6, data.Status, statusStyle),
	)
}

func (g *PDFGenerator) addMinCutSection(m core.Maroto, mc *analysis.MinCut) {
	g.addSection(m, "Minimum Cut")

	g.addMetricCards(m, []metricCard{
		{Label: "Cut Capacity", Value: g.FormatFloat(mc.Capacity, 4), Highlight: true},
	})

	if len(mc.Edges) > 0 {
		m.AddRow(5)
		g.addSubSection(m, "Cut Edges")

		m.AddRow(8,
			text.NewCol(4, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
			text.NewCol(4, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
			text.NewCol(4, "Capacity", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		)

		for _, edge := range mc.Edges {
			m.AddRow(6,
				text.NewCol(4, edge.From, tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(4, edge.To, tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(4, g.FormatFloat(edge.Capacity, 4), tableCellTextStyle).WithStyle(tableCellStyle),
			)
		}
	}

	m.AddRow(5)
	g.addKeyValueTable(m, []keyValue{
		{"Source Side", strings.Join(mc.SourceSide, ", ")},
		{"Sink Side", strings.Join(mc.SinkSide, ", ")},
	})
}

func (g *PDFGenerator) addSummarySection(m core.Maroto, s *analysis.FlowSummary) {
	g.addSection(m, "Flow Summary")

	g.addKeyValueTable(m, []keyValue{
		{"Augmentations", fmt.Sprintf("%d", s.Augmentations)},
		{"Saturated Edges", fmt.Sprintf("%d of %d", s.SaturatedEdges, s.EdgeCount)},
		{"Source Out Capacity", g.FormatFloat(s.SourceOutCapacity, 2)},
		{"Sink In Capacity", g.FormatFloat(s.SinkInCapacity, 2)},
		{"Average Utilization", g.FormatPercent(s.AverageUtilization)},
		{"Source Efficiency", g.FormatEfficiency(s.SourceEfficiency)},
		{"Sink Efficiency", g.FormatEfficiency(s.SinkEfficiency)},
	})
}

func (g *PDFGenerator) addPathsSection(m core.Maroto, paths []Path) {
	g.addSection(m, "Augmenting Paths")

	m.AddRow(8,
		text.NewCol(1, "#", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(8, "Path", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Flow", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	maxRows := 30
	for i, p := range paths {
		if i >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(paths)-maxRows), smallStyle),
			)
			break
		}

		m.AddRow(6,
			text.NewCol(1, fmt.Sprintf("%d", i+1), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(8, g.FormatPath(p), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, g.FormatFloat(p.Flow, 4), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}

// === Вспомогательные методы ===

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 14
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFGenerator) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(6, item.Key, boldStyle),
			text.NewCol(6, item.Value, normalStyle),
		)
	}
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(5)
}

func (g *PDFGenerator) addSubSection(m core.Maroto, title string) {
	m.AddRow(8,
		text.NewCol(12, title, h3Style),
	)
}

func (g *PDFGenerator) addEdgeFlowsTable(m core.Maroto, edges []analysis.EdgeFlow) {
	// Заголовок
	m.AddRow(8,
		text.NewCol(2, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Flow", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Capacity", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Utilization", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Saturated", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	// Рёбра без потока в PDF не показываем
	positive := 0
	for _, edge := range edges {
		if edge.Flow > domain.Epsilon {
			positive++
		}
	}

	// Количество строк ограничено
	maxRows := 30
	count := 0
	for _, edge := range edges {
		if edge.Flow <= domain.Epsilon {
			continue
		}
		if count >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", positive-maxRows), smallStyle),
			)
			break
		}

		saturatedStyle := tableCellTextStyle
		if edge.Saturated {
			saturatedStyle.Color = warningColor
		}

		m.AddRow(6,
			text.NewCol(2, edge.From, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, edge.To, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatFloat(edge.Flow, 4), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatFloat(edge.Capacity, 4), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatPercent(edge.Utilization), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatBool(edge.Saturated), saturatedStyle).WithStyle(tableCellStyle),
		)
		count++
	}
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *ReportData) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by flownet | %s", g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
