package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatExcel
}

func (g *ExcelGenerator) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (g *ExcelGenerator) Filename(data *ReportData) string {
	return g.baseName(data) + ".xlsx"
}

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	g.writeSummarySheet(f, data)
	if len(data.Flows) > 0 {
		g.writeFlowsSheet(f, data)
	}
	if data.MinCut != nil {
		g.writeMinCutSheet(f, data)
	}
	if len(data.Paths) > 0 {
		g.writePathsSheet(f, data)
	}

	// Дефолтный лист удаляем после создания остальных: книга не может
	// остаться без единственного листа
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex("Summary"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	// Записываем в буфер
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummarySheet(f *excelize.File, data *ReportData) {
	sheetName := "Summary"
	f.NewSheet(sheetName)

	// Стили
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	row := 1

	// Заголовок
	f.SetCellValue(sheetName, cellAddr("A", row), g.GetTitle(data))
	f.MergeCell(sheetName, cellAddr("A", row), cellAddr("B", row))
	row += 2

	// Метаданные
	if data.RunID != "" {
		f.SetCellValue(sheetName, cellAddr("A", row), "Run ID")
		f.SetCellValue(sheetName, cellAddr("B", row), data.RunID)
		row++
	}
	f.SetCellValue(sheetName, cellAddr("A", row), "Generated")
	f.SetCellValue(sheetName, cellAddr("B", row), g.FormatTimestamp(g.GeneratedAt(data)))
	row += 2

	// Сеть
	f.SetCellValue(sheetName, cellAddr("A", row), "Network")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Nodes")
	f.SetCellValue(sheetName, cellAddr("B", row), len(data.Network.Nodes))
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Edges")
	f.SetCellValue(sheetName, cellAddr("B", row), len(data.Network.Edges))
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Source")
	f.SetCellValue(sheetName, cellAddr("B", row), data.Network.Source)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Sink")
	f.SetCellValue(sheetName, cellAddr("B", row), data.Network.Sink)
	row += 2

	// Результат
	f.SetCellValue(sheetName, cellAddr("A", row), "Result")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Max Flow")
	f.SetCellValue(sheetName, cellAddr("B", row), data.MaxFlow)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Status")
	f.SetCellValue(sheetName, cellAddr("B", row), data.Status)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Iterations")
	f.SetCellValue(sheetName, cellAddr("B", row), data.Iterations)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Duration")
	f.SetCellValue(sheetName, cellAddr("B", row), g.FormatDuration(data.DurationMs))
	row += 2

	// Сводка по потоку
	if data.Summary != nil {
		s := data.Summary

		f.SetCellValue(sheetName, cellAddr("A", row), "Flow Summary")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		metrics := []struct {
			name  string
			value any
		}{
			{"Augmentations", s.Augmentations},
			{"Saturated Edges", s.SaturatedEdges},
			{"Source Out Capacity", s.SourceOutCapacity},
			{"Sink In Capacity", s.SinkInCapacity},
			{"Average Utilization", g.FormatPercent(s.AverageUtilization)},
			{"Source Efficiency", g.FormatEfficiency(s.SourceEfficiency)},
			{"Sink Efficiency", g.FormatEfficiency(s.SinkEfficiency)},
		}
		for _, m := range metrics {
			f.SetCellValue(sheetName, cellAddr("A", row), m.name)
			f.SetCellValue(sheetName, cellAddr("B", row), m.value)
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "B", 22)
}

func (g *ExcelGenerator) writeFlowsSheet(f *excelize.File, data *ReportData) {
	sheetName := "Flow Details"
	f.NewSheet(sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"From", "To", "Flow", "Capacity", "Residual", "Utilization %", "Saturated", "In Cut"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "H1", headerStyle)

	for i, edge := range data.Flows {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), edge.From)
		f.SetCellValue(sheetName, cellAddr("B", row), edge.To)
		f.SetCellValue(sheetName, cellAddr("C", row), edge.Flow)
		f.SetCellValue(sheetName, cellAddr("D", row), edge.Capacity)
		f.SetCellValue(sheetName, cellAddr("E", row), edge.Residual)
		f.SetCellValue(sheetName, cellAddr("F", row), edge.Utilization)
		f.SetCellValue(sheetName, cellAddr("G", row), g.FormatBool(edge.Saturated))
		f.SetCellValue(sheetName, cellAddr("H", row), g.FormatBool(edge.CutEdge))
	}

	f.SetColWidth(sheetName, "A", "H", 14)
}

func (g *ExcelGenerator) writeMinCutSheet(f *excelize.File, data *ReportData) {
	sheetName := "Min Cut"
	f.NewSheet(sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	mc := data.MinCut
	row := 1

	f.SetCellValue(sheetName, cellAddr("A", row), "Cut Capacity")
	f.SetCellValue(sheetName, cellAddr("B", row), mc.Capacity)
	row += 2

	// Рёбра разреза
	headers := []string{"From", "To", "Capacity"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), row), h)
	}
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("C", row), headerStyle)
	row++

	for _, edge := range mc.Edges {
		f.SetCellValue(sheetName, cellAddr("A", row), edge.From)
		f.SetCellValue(sheetName, cellAddr("B", row), edge.To)
		f.SetCellValue(sheetName, cellAddr("C", row), edge.Capacity)
		row++
	}
	row++

	// Стороны разреза
	f.SetCellValue(sheetName, cellAddr("A", row), "Source Side")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("A", row), headerStyle)
	for i, node := range mc.SourceSide {
		f.SetCellValue(sheetName, cellAddr(string(rune('B'+i)), row), node)
	}
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Sink Side")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("A", row), headerStyle)
	for i, node := range mc.SinkSide {
		f.SetCellValue(sheetName, cellAddr(string(rune('B'+i)), row), node)
	}

	f.SetColWidth(sheetName, "A", "C", 14)
}

func (g *ExcelGenerator) writePathsSheet(f *excelize.File, data *ReportData) {
	sheetName := "Paths"
	f.NewSheet(sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"#", "Path", "Flow"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

	for i, p := range data.Paths {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), i+1)
		f.SetCellValue(sheetName, cellAddr("B", row), g.FormatPath(p))
		f.SetCellValue(sheetName, cellAddr("C", row), p.Flow)
	}

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "C", 12)
}

// cellAddr формирует адрес ячейки
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
