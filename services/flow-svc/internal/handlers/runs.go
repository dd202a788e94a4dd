package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/domain"
	"flownet/pkg/logger"
	"flownet/pkg/middleware"
	"flownet/pkg/telemetry"
	"flownet/services/flow-svc/internal/repository"
)

// RunsHandler обработчики истории запусков
type RunsHandler struct {
	runs repository.RunRepository
}

// NewRunsHandler создаёт handler
func NewRunsHandler(runs repository.RunRepository) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// List обрабатывает GET /v1/solves
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "RunsHandler.List")
	defer span.End()

	if h.runs == nil {
		middleware.WriteError(w, r, errPersistenceDisabled())
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	opts := &repository.ListOptions{
		Limit:  params.Limit,
		Offset: params.Offset,
		Sort:   repository.ParseSort(params.Sort, params.Order),
	}
	if params.Status != "" || params.MinFlow > 0 {
		opts.Filter = &repository.ListFilter{Status: params.Status}
		if params.MinFlow > 0 {
			opts.Filter.MinFlow = &params.MinFlow
		}
	}

	summaries, total, err := h.runs.List(ctx, opts)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to list runs"))
		return
	}

	span.SetAttributes(
		attribute.Int("returned", len(summaries)),
		attribute.Int64("total", total),
	)

	resp := v1.RunList{
		Runs:   make([]v1.Run, 0, len(summaries)),
		Total:  int(total),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, s := range summaries {
		resp.Runs = append(resp.Runs, v1.Run{
			ID:         s.ID,
			MaxFlow:    s.MaxFlow,
			Status:     s.Status,
			Iterations: s.Iterations,
			NodeCount:  s.NodeCount,
			EdgeCount:  s.EdgeCount,
			DurationMs: s.DurationMs,
			CreatedAt:  s.CreatedAt,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Get обрабатывает GET /v1/solves/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "RunsHandler.Get")
	defer span.End()

	if h.runs == nil {
		middleware.WriteError(w, r, errPersistenceDisabled())
		return
	}

	id, err := parseRunID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("run_id", id))

	run, err := h.runs.GetByID(ctx, id)
	if err != nil {
		middleware.WriteError(w, r, runLookupError(id, err))
		return
	}

	out := v1.Run{
		ID:         run.ID,
		MaxFlow:    run.MaxFlow,
		Status:     run.Status,
		Iterations: run.Iterations,
		NodeCount:  run.NodeCount,
		EdgeCount:  run.EdgeCount,
		DurationMs: run.DurationMs,
		CreatedAt:  run.CreatedAt,
	}

	// Сеть и результат хранятся как JSON документы; битые записи не должны
	// прятать остальные поля запуска
	var spec domain.NetworkSpec
	if err := json.Unmarshal(run.Network, &spec); err != nil {
		logger.Log.Warn("Failed to unmarshal stored network", "run_id", id, "error", err)
	} else {
		out.Network = &spec
	}
	var result v1.SolveResponse
	if err := json.Unmarshal(run.Result, &result); err != nil {
		logger.Log.Warn("Failed to unmarshal stored result", "run_id", id, "error", err)
	} else {
		out.Result = &result
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// Delete обрабатывает DELETE /v1/solves/{id}
func (h *RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "RunsHandler.Delete")
	defer span.End()

	if h.runs == nil {
		middleware.WriteError(w, r, errPersistenceDisabled())
		return
	}

	id, err := parseRunID(r)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("run_id", id))

	if err := h.runs.Delete(ctx, id); err != nil {
		middleware.WriteError(w, r, runLookupError(id, err))
		return
	}

	logger.Log.Info("Run deleted", "run_id", id)
	writeNoContent(w)
}

// Statistics обрабатывает GET /v1/solves/stats
func (h *RunsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "RunsHandler.Statistics")
	defer span.End()

	if h.runs == nil {
		middleware.WriteError(w, r, errPersistenceDisabled())
		return
	}

	startTime, err := parseTimeParam(r, "start_time")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	endTime, err := parseTimeParam(r, "end_time")
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	stats, err := h.runs.Statistics(ctx, startTime, endTime)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to compute run statistics"))
		return
	}

	out := v1.RunStats{
		TotalRuns:         stats.TotalRuns,
		AverageMaxFlow:    stats.AverageMaxFlow,
		AverageIterations: stats.AverageIterations,
		AverageDurationMs: stats.AverageDurationMs,
		RunsByStatus:      stats.RunsByStatus,
		Daily:             make([]v1.DailyRunStats, 0, len(stats.DailyStats)),
	}
	for _, d := range stats.DailyStats {
		out.Daily = append(out.Daily, v1.DailyRunStats{
			Date:      d.Date,
			Count:     d.Count,
			TotalFlow: d.TotalFlow,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// === Разбор параметров ===

// parseRunID достаёт и проверяет идентификатор запуска из пути
func parseRunID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("invalid run id %q", id), "id")
	}
	return id, nil
}

// parseListParams разбирает query string списка запусков
func parseListParams(r *http.Request) (*v1.ListRunsParams, error) {
	q := r.URL.Query()
	params := &v1.ListRunsParams{
		Limit:  20,
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
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
	if raw := q.Get("min_flow"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("invalid min_flow %q", raw), "min_flow")
		}
		params.MinFlow = f
	}

	switch params.Status {
	case "", v1.StatusOptimal, v1.StatusNotConverged, v1.StatusFailed:
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown status %q", params.Status), "status")
	}

	return params, nil
}

// parseTimeParam разбирает RFC3339 параметр времени; отсутствие — nil
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("invalid %s, expected RFC3339 timestamp", name), name)
	}
	return &t, nil
}

// runLookupError переводит ошибки репозитория в ошибки API
func runLookupError(id string, err error) error {
	if errors.Is(err, repository.ErrRunNotFound) {
		return apperror.New(apperror.CodeNotFound,
			fmt.Sprintf("run %s not found", id))
	}
	return apperror.Wrap(err, apperror.CodeInternal, "failed to load run")
}

// errPersistenceDisabled единый ответ для маршрутов, требующих базу
func errPersistenceDisabled() error {
	return apperror.New(apperror.CodeUnavailable, "run persistence is not configured")
}
