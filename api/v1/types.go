// Package v1 описывает JSON-контракт HTTP API версии v1. Типы используются
// сервисом, клиентским SDK и интеграционными тестами; машинное описание того
// же контракта лежит в api/openapi/api.swagger.json.
package v1

import (
	"time"

	"flownet/pkg/domain"
)

// Network и смежные типы совпадают с доменными: NetworkSpec спроектирован
// как сериализуемое описание сети, дублировать его в контракте незачем.
type (
	Network           = domain.NetworkSpec
	Edge              = domain.Edge
	NetworkStatistics = domain.NetworkStatistics
)

// Статусы вычисления в ответах и фильтрах списка
const (
	StatusOptimal      = "optimal"
	StatusNotConverged = "not_converged"
	StatusFailed       = "failed"
)

// SolveOptions настройки отдельного запуска решателя.
type SolveOptions struct {
	// MaxIterations переопределяет лимит аугментаций (0 — лимит по умолчанию)
	MaxIterations int `json:"max_iterations,omitempty"`

	// RecordPaths включает запись найденных увеличивающих путей
	RecordPaths bool `json:"record_paths,omitempty"`

	// IncludeDetails включает в ответ порёберные потоки, разрез и сводку
	IncludeDetails bool `json:"include_details,omitempty"`
}

// SolveRequest запрос на вычисление максимального потока.
type SolveRequest struct {
	Network Network       `json:"network"`
	Options *SolveOptions `json:"options,omitempty"`
}

// PathFlow увеличивающий путь и поток, пущенный по нему.
type PathFlow struct {
	Nodes []string `json:"nodes"`
	Flow  float64  `json:"flow"`
}

// FlowEdge поток по одному ребру исходной сети.
type FlowEdge struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Capacity    float64 `json:"capacity"`
	Flow        float64 `json:"flow"`
	Residual    float64 `json:"residual"`
	Utilization float64 `json:"utilization"`
	Saturated   bool    `json:"saturated"`
	CutEdge     bool    `json:"cut_edge"`
}

// CutEdge ребро минимального разреза.
type CutEdge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Capacity float64 `json:"capacity"`
}

// MinCut минимальный разрез: рёбра и разбиение узлов на стороны.
type MinCut struct {
	Edges      []CutEdge `json:"edges"`
	Capacity   float64   `json:"capacity"`
	SourceSide []string  `json:"source_side"`
	SinkSide   []string  `json:"sink_side"`
}

// Summary агрегированная сводка результата.
type Summary struct {
	MaxFlow            float64 `json:"max_flow"`
	Augmentations      int     `json:"augmentations"`
	NodeCount          int     `json:"node_count"`
	EdgeCount          int     `json:"edge_count"`
	SaturatedEdges     int     `json:"saturated_edges"`
	SourceOutCapacity  float64 `json:"source_out_capacity"`
	SinkInCapacity     float64 `json:"sink_in_capacity"`
	AverageUtilization float64 `json:"average_utilization"`

	// Эффективность не определена при нулевой пропускной способности
	// терминала, поэтому поля nullable
	SourceEfficiency *float64 `json:"source_efficiency"`
	SinkEfficiency   *float64 `json:"sink_efficiency"`
}

// SolveResponse результат вычисления максимального потока.
type SolveResponse struct {
	// RunID идентификатор сохранённого запуска
	RunID string `json:"run_id,omitempty"`

	MaxFlow    float64 `json:"max_flow"`
	Maximal    bool    `json:"maximal"`
	Status     string  `json:"status"`
	Iterations int     `json:"iterations"`
	DurationMs int64   `json:"duration_ms"`

	// Cached признак ответа из кэша, а не свежего вычисления
	Cached bool `json:"cached"`

	// Детали присутствуют только при options.include_details
	FlowDetails []FlowEdge `json:"flow_details,omitempty"`
	MinCut      *MinCut    `json:"min_cut,omitempty"`
	Summary     *Summary   `json:"summary,omitempty"`

	// Paths присутствует только при options.record_paths
	Paths []PathFlow `json:"paths,omitempty"`
}

// ValidateRequest запрос на валидацию описания сети.
type ValidateRequest struct {
	Network Network `json:"network"`

	// Level глубина проверки: structural, policy, connectivity или full
	// (по умолчанию full)
	Level string `json:"level,omitempty"`
}

// ValidationIssue одна ошибка или предупреждение валидации.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ValidateResponse вердикт валидации.
type ValidateResponse struct {
	Valid      bool               `json:"valid"`
	Level      string             `json:"level"`
	Errors     []ValidationIssue  `json:"errors"`
	Warnings   []ValidationIssue  `json:"warnings"`
	Statistics *NetworkStatistics `json:"statistics,omitempty"`
}

// GenerateRequest параметры генерации случайной слоистой сети.
// Нулевые значения заменяются настройками сервиса.
type GenerateRequest struct {
	Layers           int     `json:"layers,omitempty"`
	NodesPerLayerMin int     `json:"nodes_per_layer_min,omitempty"`
	NodesPerLayerMax int     `json:"nodes_per_layer_max,omitempty"`
	CapacityMin      float64 `json:"capacity_min,omitempty"`
	CapacityMax      float64 `json:"capacity_max,omitempty"`
	Density          float64 `json:"density,omitempty"`

	// Seed фиксирует генератор для воспроизводимости (0 — случайный)
	Seed int64 `json:"seed,omitempty"`
}

// GenerateResponse сгенерированная сеть.
type GenerateResponse struct {
	Network    Network            `json:"network"`
	Statistics *NetworkStatistics `json:"statistics,omitempty"`
}

// Run сохранённый запуск решателя. В строках списка Network и Result
// опускаются, полные документы возвращает только выборка по ID.
type Run struct {
	ID         string         `json:"id"`
	Network    *Network       `json:"network,omitempty"`
	Result     *SolveResponse `json:"result,omitempty"`
	MaxFlow    float64        `json:"max_flow"`
	Status     string         `json:"status"`
	Iterations int            `json:"iterations"`
	NodeCount  int            `json:"node_count"`
	EdgeCount  int            `json:"edge_count"`
	DurationMs int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RunList страница истории запусков.
type RunList struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ListRunsParams параметры выборки истории. Передаются в query string,
// поэтому json-тегов нет.
type ListRunsParams struct {
	Limit   int
	Offset  int
	Status  string
	MinFlow float64

	// Sort поле сортировки: created_at, max_flow, iterations, duration_ms
	Sort string

	// Order направление: asc или desc
	Order string
}

// RunStats агрегированная статистика сохранённых запусков.
type RunStats struct {
	TotalRuns         int64            `json:"total_runs"`
	AverageMaxFlow    float64          `json:"average_max_flow"`
	AverageIterations float64          `json:"average_iterations"`
	AverageDurationMs float64          `json:"average_duration_ms"`
	RunsByStatus      map[string]int64 `json:"runs_by_status"`
	Daily             []DailyRunStats  `json:"daily"`
}

// DailyRunStats статистика запусков за один день.
type DailyRunStats struct {
	Date      string  `json:"date"`
	Count     int     `json:"count"`
	TotalFlow float64 `json:"total_flow"`
}

// Report метаданные сохранённого отчёта. Содержимое отдаёт отдельный
// маршрут скачивания.
type Report struct {
	ID               string     `json:"id"`
	RunID            string     `json:"run_id"`
	Format           string     `json:"format"`
	ContentType      string     `json:"content_type"`
	Filename         string     `json:"filename"`
	SizeBytes        int64      `json:"size_bytes"`
	GenerationTimeMs float64    `json:"generation_time_ms"`
	Tags             []string   `json:"tags,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// ReportList страница списка отчётов.
type ReportList struct {
	Reports []Report `json:"reports"`
	Total   int64    `json:"total"`
	HasMore bool     `json:"has_more"`
}

// SolverInfo метаданные решателя: доступные алгоритмы и их лимиты.
type SolverInfo struct {
	Algorithms []AlgorithmInfo `json:"algorithms"`
}

// AlgorithmInfo метаданные алгоритма решателя.
type AlgorithmInfo struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	Description     string   `json:"description"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
	MaxNodes        int      `json:"max_nodes"`
	Deterministic   bool     `json:"deterministic"`
	BestFor         []string `json:"best_for"`
	Caveats         []string `json:"caveats"`
}

// TokenRequest запрос токена по client credentials.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// RefreshRequest запрос обновления access токена.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse выданная пара токенов.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	Scopes       []string `json:"scopes"`
}
