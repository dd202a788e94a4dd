package repository

import (
	"time"

	"github.com/google/uuid"
)

// Run сохранённый запуск решателя. Network и Result хранят JSON: описание
// сети как принято на вход и заголовочную часть ответа.
type Run struct {
	ID         string
	Network    []byte
	Result     []byte
	MaxFlow    float64
	Status     string
	Iterations int
	NodeCount  int
	EdgeCount  int
	DurationMs int64
	CreatedAt  time.Time
}

// RunSummary строка списка без тяжёлых JSON-полей
type RunSummary struct {
	ID         string
	MaxFlow    float64
	Status     string
	Iterations int
	NodeCount  int
	EdgeCount  int
	DurationMs int64
	CreatedAt  time.Time
}

// ListFilter фильтры выборки истории
type ListFilter struct {
	Status    string
	MinFlow   *float64
	MaxFlow   *float64
	StartTime *time.Time
	EndTime   *time.Time
}

// SortOrder порядок сортировки списка
type SortOrder string

const (
	SortByCreatedDesc    SortOrder = "created_desc"
	SortByCreatedAsc     SortOrder = "created_asc"
	SortByMaxFlowDesc    SortOrder = "max_flow_desc"
	SortByMaxFlowAsc     SortOrder = "max_flow_asc"
	SortByIterationsDesc SortOrder = "iterations_desc"
	SortByIterationsAsc  SortOrder = "iterations_asc"
	SortByDurationDesc   SortOrder = "duration_desc"
	SortByDurationAsc    SortOrder = "duration_asc"
)

// ParseSort собирает SortOrder из пары query-параметров. Неизвестное поле
// трактуется как created_at, неизвестное направление как desc.
func ParseSort(field, order string) SortOrder {
	asc := order == "asc"

	switch field {
	case "max_flow":
		if asc {
			return SortByMaxFlowAsc
		}
		return SortByMaxFlowDesc
	case "iterations":
		if asc {
			return SortByIterationsAsc
		}
		return SortByIterationsDesc
	case "duration_ms":
		if asc {
			return SortByDurationAsc
		}
		return SortByDurationDesc
	default:
		if asc {
			return SortByCreatedAsc
		}
		return SortByCreatedDesc
	}
}

// ListOptions параметры выборки истории
type ListOptions struct {
	Limit  int
	Offset int
	Filter *ListFilter
	Sort   SortOrder
}

// RunStatistics агрегированная статистика запусков
type RunStatistics struct {
	TotalRuns         int64
	AverageMaxFlow    float64
	AverageIterations float64
	AverageDurationMs float64
	RunsByStatus      map[string]int64
	DailyStats        []DailyRunStats
}

// DailyRunStats статистика за день
type DailyRunStats struct {
	Date      string
	Count     int
	TotalFlow float64
}

// StoredReport сгенерированный отчёт в хранилище
type StoredReport struct {
	ID               uuid.UUID
	RunID            string
	Format           string
	Content          []byte
	ContentType      string
	Filename         string
	SizeBytes        int64
	GenerationTimeMs float64
	Tags             []string
	CreatedAt        time.Time
	ExpiresAt        *time.Time
}

// CreateReportParams параметры сохранения отчёта
type CreateReportParams struct {
	RunID            string
	Format           string
	Content          []byte
	ContentType      string
	Filename         string
	GenerationTimeMs float64
	Tags             []string

	// TTL для автоудаления (0 = бессрочно)
	TTL time.Duration
}

// ReportListParams параметры фильтрации списка отчётов
type ReportListParams struct {
	Limit  int
	Offset int

	RunID  string
	Format string
	Tags   []string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	OrderBy   string // created_at, size_bytes
	OrderDesc bool
}

// ReportListResult результат списка с пагинацией
type ReportListResult struct {
	Reports    []*StoredReport
	TotalCount int64
	HasMore    bool
}
