package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/config"
	"flownet/pkg/domain"
	"flownet/pkg/logger"
	"flownet/pkg/metrics"
	"flownet/pkg/middleware"
	"flownet/pkg/telemetry"
	"flownet/services/flow-svc/internal/analysis"
	"flownet/services/flow-svc/internal/engine"
	"flownet/services/flow-svc/internal/graph"
	"flownet/services/flow-svc/internal/report"
	"flownet/services/flow-svc/internal/repository"
)

// ReportHandler обработчики генерации и хранилища отчётов
type ReportHandler struct {
	config  *config.Config
	runs    repository.RunRepository
	reports repository.ReportRepository
	pool    *graph.ScratchPool
}

// NewReportHandler создаёт handler
func NewReportHandler(cfg *config.Config, runs repository.RunRepository, reports repository.ReportRepository, pool *graph.ScratchPool) *ReportHandler {
	return &ReportHandler{
		config:  cfg,
		runs:    runs,
		reports: reports,
		pool:    pool,
	}
}

// Download обрабатывает GET /v1/solves/{id}/report.
//
// Вместе с запуском хранится только заголовочная часть результата, поэтому
// сеть решается заново с записью путей. Алгоритм детерминирован: повторное
// вычисление воспроизводит сохранённый результат. Готовый отчёт кладётся в
// хранилище и при следующем запросе отдаётся оттуда без пересчёта.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "ReportHandler.Download")
	defer span.End()

	if h.runs == nil {
		middleware.WriteError(w, r, errPersistenceDisabled())
		return
	}

	runID, err := parseRunID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String(telemetry.AttrReportFormat, string(format)),
	)

	ttl, err := parseTTLParam(r, h.config.Report.DefaultTTL)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	run, err := h.runs.GetByID(ctx, runID)
	if err != nil {
		middleware.WriteError(w, r, runLookupError(runID, err))
		return
	}

	// Хранилище отчётов служит кэшем: свежий неистёкший отчёт того же
	// формата отдаётся без повторной генерации
	if h.storageEnabled() && !noCacheRequested(r) {
		if stored := h.findStored(ctx, runID, format); stored != nil {
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			telemetry.AddEvent(ctx, "stored_report_hit",
				attribute.String("report_id", stored.ID.String()))
			serveReport(w, stored.Content, stored.ContentType, stored.Filename, stored.ID.String())
			return
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	data, err := h.buildReportData(ctx, run, r.URL.Query().Get("title"))
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, err)
		return
	}

	gen, err := report.New(format)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	start := time.Now()
	content, err := gen.Generate(ctx, data)
	generationTime := time.Since(start)

	if m := metrics.Get(); m != nil {
		m.RecordReport(string(format), err == nil)
	}
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to generate report"))
		return
	}

	if max := h.config.Report.MaxReportSizeBytes; max > 0 && int64(len(content)) > max {
		err := apperror.New(apperror.CodeInternal,
			fmt.Sprintf("generated report is %d bytes, limit is %d", len(content), max))
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, err)
		return
	}

	telemetry.SetAttributes(ctx, telemetry.ReportAttributes(string(format), len(content))...)

	// Отказ хранилища не роняет выдачу: отчёт уже сгенерирован
	var reportID string
	if h.storageEnabled() {
		stored, err := h.reports.Create(ctx, &repository.CreateReportParams{
			RunID:            run.ID,
			Format:           string(format),
			Content:          content,
			ContentType:      gen.ContentType(),
			Filename:         gen.Filename(data),
			GenerationTimeMs: float64(generationTime.Microseconds()) / 1000.0,
			Tags:             parseTags(r.URL.Query().Get("tags")),
			TTL:              ttl,
		})
		if err != nil {
			logger.Log.Warn("Failed to store report", "run_id", run.ID, "error", err)
		} else {
			reportID = stored.ID.String()
		}
	}

	serveReport(w, content, gen.ContentType(), gen.Filename(data), reportID)
}

// ListStored обрабатывает GET /v1/reports
func (h *ReportHandler) ListStored(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "ReportHandler.ListStored")
	defer span.End()

	if h.reports == nil {
		middleware.WriteError(w, r, errReportStorageDisabled())
		return
	}

	params, err := parseReportListParams(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	result, err := h.reports.List(ctx, params)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to list reports"))
		return
	}

	span.SetAttributes(
		attribute.Int("returned", len(result.Reports)),
		attribute.Int64("total", result.TotalCount),
	)

	resp := v1.ReportList{
		Reports: make([]v1.Report, 0, len(result.Reports)),
		Total:   result.TotalCount,
		HasMore: result.HasMore,
	}
	for _, stored := range result.Reports {
		resp.Reports = append(resp.Reports, toReportMeta(stored))
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// GetStored обрабатывает GET /v1/reports/{id}: метаданные без контента
func (h *ReportHandler) GetStored(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "ReportHandler.GetStored")
	defer span.End()

	if h.reports == nil {
		middleware.WriteError(w, r, errReportStorageDisabled())
		return
	}

	id, err := parseReportID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("report_id", id.String()))

	stored, err := h.reports.Get(ctx, id)
	if err != nil {
		middleware.WriteError(w, r, reportLookupError(id, err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toReportMeta(stored))
}

// DownloadStored обрабатывает GET /v1/reports/{id}/content
func (h *ReportHandler) DownloadStored(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "ReportHandler.DownloadStored")
	defer span.End()

	if h.reports == nil {
		middleware.WriteError(w, r, errReportStorageDisabled())
		return
	}

	id, err := parseReportID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("report_id", id.String()))

	stored, err := h.reports.Get(ctx, id)
	if err != nil {
		middleware.WriteError(w, r, reportLookupError(id, err))
		return
	}

	telemetry.SetAttributes(ctx, telemetry.ReportAttributes(stored.Format, len(stored.Content))...)
	serveReport(w, stored.Content, stored.ContentType, stored.Filename, stored.ID.String())
}

// DeleteStored обрабатывает DELETE /v1/reports/{id}
func (h *ReportHandler) DeleteStored(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "ReportHandler.DeleteStored")
	defer span.End()

	if h.reports == nil {
		middleware.WriteError(w, r, errReportStorageDisabled())
		return
	}

	id, err := parseReportID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("report_id", id.String()))

	if err := h.reports.Delete(ctx, id); err != nil {
		middleware.WriteError(w, r, reportLookupError(id, err))
		return
	}

	logger.Log.Info("Report deleted", "report_id", id)
	writeNoContent(w)
}

// storageEnabled сообщает, включено ли сохранение отчётов
func (h *ReportHandler) storageEnabled() bool {
	return h.reports != nil && h.config.Report.SaveToStorage
}

// findStored возвращает сохранённый отчёт запуска или nil при промахе
func (h *ReportHandler) findStored(ctx context.Context, runID string, format report.Format) *repository.StoredReport {
	stored, err := h.reports.GetByRunAndFormat(ctx, runID, string(format))

	m := metrics.Get()
	if err != nil {
		if !errors.Is(err, repository.ErrReportNotFound) {
			logger.Log.Warn("Stored report lookup failed", "run_id", runID, "error", err)
		}
		if m != nil {
			m.RecordCacheMiss("report")
		}
		return nil
	}
	if m != nil {
		m.RecordCacheHit("report")
	}
	return stored
}

// buildReportData восстанавливает сеть запуска и решает её заново с записью
// путей. DurationMs остаётся временем исходного вычисления.
func (h *ReportHandler) buildReportData(ctx context.Context, run *repository.Run, title string) (*report.ReportData, error) {
	var spec domain.NetworkSpec
	if err := json.Unmarshal(run.Network, &spec); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "stored network is corrupted")
	}
	if spec.MaxNodes <= 0 {
		spec.MaxNodes = h.config.Solver.MaxNodes
	}

	net, err := domain.NewNetwork(spec)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "stored network failed validation")
	}

	opts := engine.DefaultOptions().
		WithMaxIterations(h.config.Solver.MaxIterations).
		WithTimeout(h.config.Solver.Timeout).
		WithRecordPaths(true).
		WithScratchPool(h.pool)

	result := engine.Solve(ctx, net, opts)
	switch result.Status {
	case engine.StatusFailed, engine.StatusCanceled:
		return nil, apperror.Wrap(result.Err, apperror.CodeInternal, "failed to recompute flow for report")
	}

	if title == "" && h.config.Report.DefaultCompanyName != "" {
		title = h.config.Report.DefaultCompanyName + " Flow Report"
	}

	data := &report.ReportData{
		Title:       title,
		RunID:       run.ID,
		GeneratedAt: time.Now().UTC(),
		Network:     spec,
		Statistics:  domain.CalculateNetworkStatistics(net),
		MaxFlow:     result.MaxFlow,
		Status:      string(result.Status),
		Iterations:  result.Iterations,
		DurationMs:  run.DurationMs,
		Flows:       analysis.FlowDetails(net, result.Residual),
		MinCut:      analysis.ComputeMinCut(net, result.Residual),
		Summary:     analysis.Summarize(net, result.Residual, result.Iterations),
		Paths:       toReportPaths(net, result.Paths),
	}

	// Таблицы ограничены, чтобы отчёт по большой сети не разрастался
	if max := h.config.Report.MaxEdgesInTable; max > 0 && len(data.Flows) > max {
		data.Flows = data.Flows[:max]
	}
	if max := h.config.Report.MaxPathsInTable; max > 0 && len(data.Paths) > max {
		data.Paths = data.Paths[:max]
	}

	return data, nil
}

// serveReport отдаёт файл отчёта с заголовками скачивания
func serveReport(w http.ResponseWriter, content []byte, contentType, filename, reportID string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	if reportID != "" {
		w.Header().Set("X-Report-Id", reportID)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		logger.Log.Error("Failed to write report content", "error", err)
	}
}

// toReportMeta переводит запись хранилища в метаданные API (без контента)
func toReportMeta(stored *repository.StoredReport) v1.Report {
	return v1.Report{
		ID:               stored.ID.String(),
		RunID:            stored.RunID,
		Format:           stored.Format,
		ContentType:      stored.ContentType,
		Filename:         stored.Filename,
		SizeBytes:        stored.SizeBytes,
		GenerationTimeMs: stored.GenerationTimeMs,
		Tags:             stored.Tags,
		CreatedAt:        stored.CreatedAt,
		ExpiresAt:        stored.ExpiresAt,
	}
}

// toReportPaths переводит пути движка в формат генераторов отчётов
func toReportPaths(net *domain.Network, paths []engine.PathFlow) []report.Path {
	out := make([]report.Path, 0, len(paths))
	for _, p := range paths {
		nodes := make([]string, 0, len(p.Nodes))
		for _, idx := range p.Nodes {
			nodes = append(nodes, net.Name(idx))
		}
		out = append(out, report.Path{Nodes: nodes, Flow: p.Flow})
	}
	return out
}

// parseReportID достаёт идентификатор отчёта из пути
func parseReportID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("invalid report id %q", raw), "id")
	}
	return id, nil
}

// parseReportListParams разбирает query string списка отчётов
func parseReportListParams(r *http.Request) (*repository.ReportListParams, error) {
	q := r.URL.Query()
	params := &repository.ReportListParams{
		Limit:     20,
		RunID:     q.Get("run_id"),
		Tags:      parseTags(q.Get("tags")),
		OrderDesc: q.Get("order") != "asc",
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("invalid limit %q", raw), "limit")
		}
		params.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("invalid offset %q", raw), "offset")
		}
		params.Offset = n
	}

	if params.RunID != "" {
		if _, err := uuid.Parse(params.RunID); err != nil {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("invalid run_id %q", params.RunID), "run_id")
		}
	}

	// Пустой формат значит «все форматы», поэтому ParseFormat с его
	// дефолтом здесь вызывается только для непустого значения
	if raw := q.Get("format"); raw != "" {
		format, err := report.ParseFormat(raw)
		if err != nil {
			return nil, err
		}
		params.Format = string(format)
	}

	switch raw := q.Get("order_by"); raw {
	case "", "created_at", "size_bytes":
		params.OrderBy = raw
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown order_by %q", raw), "order_by")
	}

	after, err := parseTimeParam(r, "created_after")
	if err != nil {
		return nil, err
	}
	params.CreatedAfter = after

	before, err := parseTimeParam(r, "created_before")
	if err != nil {
		return nil, err
	}
	params.CreatedBefore = before

	return params, nil
}

// parseTTLParam читает ttl_seconds из query; отсутствие — значение по умолчанию
func parseTTLParam(r *http.Request, def time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get("ttl_seconds")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("invalid ttl_seconds %q", raw), "ttl_seconds")
	}
	return time.Duration(n) * time.Second, nil
}

// parseTags разбирает список тегов через запятую
func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}

	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// reportLookupError переводит ошибки хранилища отчётов в ошибки API
func reportLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrReportNotFound) {
		return apperror.New(apperror.CodeNotFound,
			fmt.Sprintf("report %s not found", id))
	}
	return apperror.Wrap(err, apperror.CodeInternal, "failed to load report")
}

// errReportStorageDisabled единый ответ для маршрутов хранилища отчётов
func errReportStorageDisabled() error {
	return apperror.New(apperror.CodeUnavailable, "report storage is not configured")
}
