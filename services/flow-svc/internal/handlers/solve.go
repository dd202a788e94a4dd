package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/cache"
	"flownet/pkg/config"
	"flownet/pkg/domain"
	"flownet/pkg/logger"
	"flownet/pkg/metrics"
	"flownet/pkg/middleware"
	"flownet/pkg/telemetry"
	"flownet/services/flow-svc/internal/analysis"
	"flownet/services/flow-svc/internal/engine"
	"flownet/services/flow-svc/internal/graph"
	"flownet/services/flow-svc/internal/repository"
)

// SolveHandler обработчики вычисления максимального потока
type SolveHandler struct {
	config *config.Config
	cache  *cache.SolveCache
	runs   repository.RunRepository
	pool   *graph.ScratchPool
}

// NewSolveHandler создаёт handler
func NewSolveHandler(cfg *config.Config, solveCache *cache.SolveCache, runs repository.RunRepository, pool *graph.ScratchPool) *SolveHandler {
	return &SolveHandler{
		config: cfg,
		cache:  solveCache,
		runs:   runs,
		pool:   pool,
	}
}

// Solve обрабатывает POST /v1/flow/solve
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "SolveHandler.Solve",
		trace.WithAttributes(
			attribute.String("algorithm", engine.AlgorithmName),
		),
	)
	defer span.End()

	var req v1.SolveRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	spec := req.Network
	if spec.MaxNodes <= 0 {
		spec.MaxNodes = h.config.Solver.MaxNodes
	}

	telemetry.SetAttributes(ctx,
		telemetry.NetworkAttributes(len(spec.Nodes), len(spec.Edges), spec.Source, spec.Sink)...)

	// Проверяем кэш. Детальные запросы всегда считаются заново: кэшированная
	// запись не содержит разбиения разреза и путей.
	if h.cacheable(req.Options) && !noCacheRequested(r) {
		if resp, ok := h.fromCache(ctx, &spec); ok {
			telemetry.AddEvent(ctx, "cache_hit",
				attribute.Float64(telemetry.AttrMaxFlow, resp.MaxFlow),
			)
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			middleware.WriteJSON(w, http.StatusOK, resp)
			return
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	// Конструктор выполняет все проверки входных данных
	net, err := domain.NewNetwork(spec)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, err)
		return
	}

	opts := h.buildOptions(req.Options)
	result := engine.Solve(ctx, net, opts)

	if m := metrics.Get(); m != nil {
		m.RecordSolveOperation(engine.AlgorithmName, result.Err == nil, result.Duration, result.MaxFlow, result.Iterations)
		m.RecordNetworkSize("solve", net.NodeCount(), net.EdgeCount())
	}

	switch result.Status {
	case engine.StatusFailed, engine.StatusCanceled:
		telemetry.SetError(ctx, result.Err)
		middleware.WriteError(w, r, result.Err)
		return
	}

	// Законы потока проверяются только на оптимальном остаточном состоянии:
	// при остановке по лимиту итераций разрез ещё не сформирован, и
	// двойственность max-flow/min-cut не обязана выполняться
	if h.config.Solver.VerifyResults && result.Status == engine.StatusOptimal {
		if err := analysis.Check(net, result.Residual); err != nil {
			telemetry.SetError(ctx, err)
			middleware.WriteError(w, r, err)
			return
		}
	}

	resp := h.buildResponse(net, result, req.Options)

	telemetry.SetAttributes(ctx,
		telemetry.AlgorithmAttributes(engine.AlgorithmName, resp.Iterations, resp.MaxFlow, resp.Status)...)
	if resp.MinCut != nil {
		telemetry.SetAttributes(ctx,
			telemetry.CutAttributes(resp.MinCut.Capacity, len(resp.MinCut.Edges))...)
	}

	// Сохраняем запуск; отказ персистентности не роняет ответ
	if h.runs != nil && h.config.Solver.SaveRuns {
		if runID, err := h.persistRun(ctx, &spec, resp); err != nil {
			logger.Log.Warn("Failed to persist solve run", "error", err)
		} else {
			resp.RunID = runID
		}
	}

	if h.cache != nil && result.Status == engine.StatusOptimal {
		if err := h.storeInCache(ctx, &spec, resp); err != nil {
			logger.Log.Warn("Failed to cache solve result", "error", err)
		}
	}

	// Частичный результат отдаётся клиенту целиком, но со статусом 422:
	// лимит итераций достигнут до схождения, поток не максимален
	status := http.StatusOK
	if result.Status == engine.StatusNotConverged {
		status = http.StatusUnprocessableEntity
	}
	middleware.WriteJSON(w, status, resp)
}

// Info обрабатывает GET /v1/solver/info
func (h *SolveHandler) Info(w http.ResponseWriter, r *http.Request) {
	infos := engine.Algorithms()

	out := v1.SolverInfo{Algorithms: make([]v1.AlgorithmInfo, 0, len(infos))}
	for _, info := range infos {
		out.Algorithms = append(out.Algorithms, toAlgorithmInfo(info))
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// InvalidateCache обрабатывает DELETE /v1/cache
func (h *SolveHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "SolveHandler.InvalidateCache")
	defer span.End()

	if h.cache == nil {
		middleware.WriteError(w, r, apperror.New(apperror.CodeUnavailable, "cache is not configured"))
		return
	}

	removed, err := h.cache.InvalidateAll(ctx)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to invalidate cache"))
		return
	}

	logger.Log.Info("Solve cache invalidated", "removed", removed)
	middleware.WriteJSON(w, http.StatusOK, map[string]int64{"invalidated": removed})
}

// buildOptions собирает опции движка: лимиты сервиса, поверх них запрос.
// Клиент может только ужесточить лимит итераций, не ослабить.
func (h *SolveHandler) buildOptions(reqOpts *v1.SolveOptions) *engine.Options {
	opts := engine.DefaultOptions().
		WithMaxIterations(h.config.Solver.MaxIterations).
		WithTimeout(h.config.Solver.Timeout).
		WithRecordPaths(h.config.Solver.RecordPaths).
		WithScratchPool(h.pool)

	if reqOpts == nil {
		return opts
	}

	if reqOpts.MaxIterations > 0 && reqOpts.MaxIterations < h.config.Solver.MaxIterations {
		opts = opts.WithMaxIterations(reqOpts.MaxIterations)
	}
	if reqOpts.RecordPaths {
		opts = opts.WithRecordPaths(true)
	}

	return opts
}

// cacheable сообщает, можно ли ответить на запрос из кэша
func (h *SolveHandler) cacheable(reqOpts *v1.SolveOptions) bool {
	if h.cache == nil {
		return false
	}
	if reqOpts == nil {
		return true
	}
	return !reqOpts.IncludeDetails && !reqOpts.RecordPaths
}

// noCacheRequested проверяет заголовок Cache-Control
func noCacheRequested(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache")
}

// fromCache строит ответ из кэшированного результата
func (h *SolveHandler) fromCache(ctx context.Context, spec *domain.NetworkSpec) (*v1.SolveResponse, bool) {
	cached, found, err := h.cache.Get(ctx, spec, engine.AlgorithmName)
	if err != nil {
		logger.Log.Warn("Solve cache lookup failed", "error", err)
		return nil, false
	}

	m := metrics.Get()
	if !found {
		if m != nil {
			m.RecordCacheMiss("solve")
		}
		return nil, false
	}
	if m != nil {
		m.RecordCacheHit("solve")
	}

	return &v1.SolveResponse{
		MaxFlow:    cached.MaxFlow,
		Maximal:    cached.Status == v1.StatusOptimal,
		Status:     cached.Status,
		Iterations: cached.Iterations,
		DurationMs: int64(cached.ComputationTimeMs),
		Cached:     true,
	}, true
}

// storeInCache кладёт результат в кэш. Детали сохраняются, если были
// вычислены: запись кэша остаётся самодостаточным слепком результата.
func (h *SolveHandler) storeInCache(ctx context.Context, spec *domain.NetworkSpec, resp *v1.SolveResponse) error {
	entry := &cache.CachedSolveResult{
		MaxFlow:           resp.MaxFlow,
		Status:            resp.Status,
		Iterations:        resp.Iterations,
		ComputationTimeMs: float64(resp.DurationMs),
	}

	for _, fe := range resp.FlowDetails {
		entry.FlowEdges = append(entry.FlowEdges, &cache.FlowEdgeCache{
			From:        fe.From,
			To:          fe.To,
			Flow:        fe.Flow,
			Capacity:    fe.Capacity,
			Utilization: fe.Utilization,
			Saturated:   fe.Saturated,
		})
	}
	if resp.MinCut != nil {
		entry.MinCutCapacity = resp.MinCut.Capacity
		for _, ce := range resp.MinCut.Edges {
			entry.CutEdges = append(entry.CutEdges, &cache.CutEdgeCache{
				From:     ce.From,
				To:       ce.To,
				Capacity: ce.Capacity,
			})
		}
	}

	return h.cache.Set(ctx, spec, engine.AlgorithmName, entry, h.config.Cache.DefaultTTL)
}

// buildResponse переводит результат движка в контракт API
func (h *SolveHandler) buildResponse(net *domain.Network, result *engine.Result, reqOpts *v1.SolveOptions) *v1.SolveResponse {
	resp := &v1.SolveResponse{
		MaxFlow:    result.MaxFlow,
		Maximal:    result.Status == engine.StatusOptimal,
		Status:     string(result.Status),
		Iterations: result.Iterations,
		DurationMs: result.Duration.Milliseconds(),
	}

	if reqOpts != nil && reqOpts.IncludeDetails {
		resp.FlowDetails = toFlowEdges(analysis.FlowDetails(net, result.Residual))
		resp.MinCut = toMinCut(analysis.ComputeMinCut(net, result.Residual))
		resp.Summary = toSummary(analysis.Summarize(net, result.Residual, result.Iterations))

		if m := metrics.Get(); m != nil {
			m.RecordCutEdges("solve", len(resp.MinCut.Edges))
		}
	}

	if len(result.Paths) > 0 {
		resp.Paths = toPaths(net, result.Paths)
	}

	return resp
}

// persistRun сохраняет запуск и возвращает его идентификатор
func (h *SolveHandler) persistRun(ctx context.Context, spec *domain.NetworkSpec, resp *v1.SolveResponse) (string, error) {
	networkJSON, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	resultJSON, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}

	run := &repository.Run{
		Network:    networkJSON,
		Result:     resultJSON,
		MaxFlow:    resp.MaxFlow,
		Status:     resp.Status,
		Iterations: resp.Iterations,
		NodeCount:  len(spec.Nodes),
		EdgeCount:  len(spec.Edges),
		DurationMs: resp.DurationMs,
	}

	// Персистентность не должна зависать вместе с запросом клиента
	persistCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.runs.Create(persistCtx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// === Конвертация в типы API ===

func toFlowEdges(rows []analysis.EdgeFlow) []v1.FlowEdge {
	out := make([]v1.FlowEdge, 0, len(rows))
	for _, row := range rows {
		out = append(out, v1.FlowEdge{
			From:        row.From,
			To:          row.To,
			Capacity:    row.Capacity,
			Flow:        row.Flow,
			Residual:    row.Residual,
			Utilization: row.Utilization,
			Saturated:   row.Saturated,
			CutEdge:     row.CutEdge,
		})
	}
	return out
}

func toMinCut(cut *analysis.MinCut) *v1.MinCut {
	out := &v1.MinCut{
		Edges:      make([]v1.CutEdge, 0, len(cut.Edges)),
		Capacity:   cut.Capacity,
		SourceSide: cut.SourceSide,
		SinkSide:   cut.SinkSide,
	}
	for _, e := range cut.Edges {
		out.Edges = append(out.Edges, v1.CutEdge{From: e.From, To: e.To, Capacity: e.Capacity})
	}
	return out
}

func toSummary(s *analysis.FlowSummary) *v1.Summary {
	return &v1.Summary{
		MaxFlow:            s.MaxFlow,
		Augmentations:      s.Augmentations,
		NodeCount:          s.NodeCount,
		EdgeCount:          s.EdgeCount,
		SaturatedEdges:     s.SaturatedEdges,
		SourceOutCapacity:  s.SourceOutCapacity,
		SinkInCapacity:     s.SinkInCapacity,
		AverageUtilization: s.AverageUtilization,
		SourceEfficiency:   s.SourceEfficiency,
		SinkEfficiency:     s.SinkEfficiency,
	}
}

// toPaths переводит пути из индексов узлов в имена
func toPaths(net *domain.Network, paths []engine.PathFlow) []v1.PathFlow {
	out := make([]v1.PathFlow, 0, len(paths))
	for _, p := range paths {
		nodes := make([]string, 0, len(p.Nodes))
		for _, idx := range p.Nodes {
			nodes = append(nodes, net.Name(idx))
		}
		out = append(out, v1.PathFlow{Nodes: nodes, Flow: p.Flow})
	}
	return out
}
