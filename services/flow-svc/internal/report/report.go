// Package report генерирует выгрузки результата вычисления в пяти форматах:
// JSON, CSV, Markdown, Excel и PDF. Все генераторы потребляют один и тот же
// набор данных (сеть, результат, порёберные потоки, минимальный разрез,
// сводка) и отличаются только рендерингом.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/analysis"
)

// Format формат отчёта.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatExcel    Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// ParseFormat разбирает формат из запроса. Пустая строка означает JSON,
// незнакомое значение — ошибка INVALID_ARGUMENT.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown report format %q", s), "format")
	}
}

// Formats возвращает поддерживаемые форматы в стабильном порядке.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatExcel, FormatPDF}
}

// Path увеличивающий путь для отчёта.
type Path struct {
	Nodes []string
	Flow  float64
}

// ReportData входные данные всех генераторов. Flows приходит уже
// отсортированным (analysis.FlowDetails сортирует по числовому ключу узла).
type ReportData struct {
	Title       string
	RunID       string
	GeneratedAt time.Time

	Network    domain.NetworkSpec
	Statistics *domain.NetworkStatistics

	MaxFlow    float64
	Status     string
	Iterations int
	DurationMs int64

	Flows   []analysis.EdgeFlow
	MinCut  *analysis.MinCut
	Summary *analysis.FlowSummary
	Paths   []Path
}

// Generator рендерит отчёт в одном формате.
type Generator interface {
	Format() Format
	ContentType() string
	Filename(data *ReportData) string
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
}

// New возвращает генератор запрошенного формата.
func New(format Format) (Generator, error) {
	switch format {
	case FormatJSON:
		return NewJSONGenerator(), nil
	case FormatCSV:
		return NewCSVGenerator(), nil
	case FormatMarkdown:
		return NewMarkdownGenerator(), nil
	case FormatExcel:
		return NewExcelGenerator(), nil
	case FormatPDF:
		return NewPDFGenerator(), nil
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("no generator for format %q", format), "format")
	}
}

// BaseGenerator общие утилиты форматирования.
type BaseGenerator struct{}

// GetTitle возвращает заголовок отчёта.
func (b *BaseGenerator) GetTitle(data *ReportData) string {
	if data.Title != "" {
		return data.Title
	}
	return "Maximum Flow Report"
}

// GeneratedAt возвращает момент генерации.
func (b *BaseGenerator) GeneratedAt(data *ReportData) time.Time {
	if data.GeneratedAt.IsZero() {
		return time.Now()
	}
	return data.GeneratedAt
}

// FormatFloat форматирует число с заданной точностью.
func (b *BaseGenerator) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatPercent форматирует величину, уже выраженную в процентах.
func (b *BaseGenerator) FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatEfficiency форматирует долю 0..1 как процент; nil рендерится как
// "N/A" вместо деления на ноль на стороне читателя.
func (b *BaseGenerator) FormatEfficiency(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// FormatDuration форматирует длительность в миллисекундах.
func (b *BaseGenerator) FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.2f s", float64(ms)/1000)
}

// FormatTimestamp форматирует время.
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatBool рендерит признак как yes/no.
func (b *BaseGenerator) FormatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// FormatPath рендерит путь как цепочку узлов.
func (b *BaseGenerator) FormatPath(p Path) string {
	return strings.Join(p.Nodes, " -> ")
}

// baseName общая часть имени файла: идентификатор запуска либо момент
// генерации.
func (b *BaseGenerator) baseName(data *ReportData) string {
	if data.RunID != "" {
		return "flow-report-" + data.RunID
	}
	return "flow-report-" + b.GeneratedAt(data).Format("20060102-150405")
}
