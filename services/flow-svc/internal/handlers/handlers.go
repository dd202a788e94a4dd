// Package handlers содержит HTTP обработчики API flow-svc.
//
// Каждая группа маршрутов живёт в своём файле: solve.go (вычисление потока),
// network.go (валидация и генерация сетей), runs.go (история запусков),
// report.go (выгрузка отчётов), auth.go (выдача токенов). FlowHandler
// объединяет их и регистрирует маршруты на общем mux.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/cache"
	"flownet/pkg/config"
	"flownet/pkg/passhash"
	"flownet/services/flow-svc/internal/engine"
	"flownet/services/flow-svc/internal/generator"
	"flownet/services/flow-svc/internal/graph"
	"flownet/services/flow-svc/internal/repository"
)

// FlowHandler объединяет обработчики API и знает все маршруты сервиса
type FlowHandler struct {
	config *config.Config

	// Sub-handlers
	solve   *SolveHandler
	network *NetworkHandler
	runs    *RunsHandler
	report  *ReportHandler
	auth    *AuthHandler
}

// Deps зависимости обработчиков. Cache, Runs и Reports могут быть nil:
// сервис работает в деградированном режиме без кэша и персистентности.
type Deps struct {
	Config  *config.Config
	Cache   *cache.SolveCache
	Runs    repository.RunRepository
	Reports repository.ReportRepository
	Tokens  *passhash.JWTManager
}

// NewFlowHandler создаёт handler со всеми под-обработчиками
func NewFlowHandler(deps Deps) *FlowHandler {
	cfg := deps.Config

	// Один пул рабочих буферов на процесс: solve и report делят его,
	// чтобы повторные вычисления не аллоцировали матрицы заново
	pool := graph.NewScratchPool()

	h := &FlowHandler{config: cfg}
	h.solve = NewSolveHandler(cfg, deps.Cache, deps.Runs, pool)
	h.network = NewNetworkHandler(cfg, generator.New(cfg.Generator))
	h.runs = NewRunsHandler(deps.Runs)
	h.report = NewReportHandler(cfg, deps.Runs, deps.Reports, pool)
	h.auth = NewAuthHandler(cfg, deps.Tokens)

	return h
}

// RegisterRoutes регистрирует маршруты API на mux.
// Паттерны используют метод и wildcard сегменты (Go 1.22 ServeMux);
// literal-сегмент stats имеет приоритет над {id}.
func (h *FlowHandler) RegisterRoutes(mux *http.ServeMux) {
	// Вычисления
	mux.HandleFunc("POST /v1/flow/solve", h.solve.Solve)
	mux.HandleFunc("GET /v1/solver/info", h.solve.Info)
	mux.HandleFunc("DELETE /v1/cache", h.solve.InvalidateCache)

	// Сети
	mux.HandleFunc("POST /v1/networks/validate", h.network.Validate)
	mux.HandleFunc("POST /v1/networks/generate", h.network.Generate)

	// История запусков
	mux.HandleFunc("GET /v1/solves", h.runs.List)
	mux.HandleFunc("GET /v1/solves/stats", h.runs.Statistics)
	mux.HandleFunc("GET /v1/solves/{id}", h.runs.Get)
	mux.HandleFunc("DELETE /v1/solves/{id}", h.runs.Delete)

	// Отчёты
	mux.HandleFunc("GET /v1/solves/{id}/report", h.report.Download)
	mux.HandleFunc("GET /v1/reports", h.report.ListStored)
	mux.HandleFunc("GET /v1/reports/{id}", h.report.GetStored)
	mux.HandleFunc("GET /v1/reports/{id}/content", h.report.DownloadStored)
	mux.HandleFunc("DELETE /v1/reports/{id}", h.report.DeleteStored)

	// Аутентификация
	mux.HandleFunc("POST /v1/auth/token", h.auth.Token)
	mux.HandleFunc("POST /v1/auth/refresh", h.auth.Refresh)
}

// PublicPaths маршруты, доступные без токена
func PublicPaths() map[string]bool {
	return map[string]bool{
		"/healthz":         true,
		"/readyz":          true,
		"/metrics":         true,
		"/v1/auth/token":   true,
		"/v1/auth/refresh": true,
		"/v1/solver/info":  true,
	}
}

// RequiredScopes требуемый scope по нормализованному маршруту.
// Маршруты без записи требуют только валидный токен.
func RequiredScopes() map[string]string {
	return map[string]string{
		"POST /v1/flow/solve":         passhash.ScopeSolve,
		"POST /v1/networks/validate":  passhash.ScopeSolve,
		"POST /v1/networks/generate":  passhash.ScopeSolve,
		"GET /v1/solves":              passhash.ScopeReports,
		"GET /v1/solves/stats":        passhash.ScopeReports,
		"GET /v1/solves/:id":          passhash.ScopeReports,
		"GET /v1/solves/:id/report":   passhash.ScopeReports,
		"GET /v1/reports":             passhash.ScopeReports,
		"GET /v1/reports/:id":         passhash.ScopeReports,
		"GET /v1/reports/:id/content": passhash.ScopeReports,
		"DELETE /v1/solves/:id":       passhash.ScopeAdmin,
		"DELETE /v1/reports/:id":      passhash.ScopeAdmin,
		"DELETE /v1/cache":            passhash.ScopeAdmin,
	}
}

// decodeJSON читает тело запроса в v. Пустое тело и синтаксический мусор
// превращаются в INVALID_ARGUMENT, а не в 500.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperror.New(apperror.CodeInvalidArgument, "request body is required")
	}

	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperror.New(apperror.CodeInvalidArgument, "request body is required")
	default:
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "malformed JSON in request body")
	}
}

// toAlgorithmInfo переводит метаданные движка в типы API
func toAlgorithmInfo(info *engine.AlgorithmInfo) v1.AlgorithmInfo {
	return v1.AlgorithmInfo{
		Name:            info.Name,
		DisplayName:     info.DisplayName,
		Description:     info.Description,
		TimeComplexity:  info.TimeComplexity,
		SpaceComplexity: info.SpaceComplexity,
		MaxNodes:        info.MaxNodes,
		Deterministic:   info.Deterministic,
		BestFor:         info.BestFor,
		Caveats:         info.Caveats,
	}
}

// writeNoContent отвечает 204 без тела
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
