package handlers

import (
	"net/http"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/config"
	"flownet/pkg/domain"
	"flownet/pkg/metrics"
	"flownet/pkg/middleware"
	"flownet/pkg/telemetry"
	"flownet/services/flow-svc/internal/generator"
	"flownet/services/flow-svc/internal/validators"
)

// NetworkHandler обработчики валидации и генерации сетей
type NetworkHandler struct {
	config    *config.Config
	generator *generator.Generator
}

// NewNetworkHandler создаёт handler
func NewNetworkHandler(cfg *config.Config, gen *generator.Generator) *NetworkHandler {
	return &NetworkHandler{
		config:    cfg,
		generator: gen,
	}
}

// Validate обрабатывает POST /v1/networks/validate
func (h *NetworkHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "NetworkHandler.Validate")
	defer span.End()

	var req v1.ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	level, err := validators.ParseLevel(req.Level)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	result := validators.Validate(req.Network, level)

	telemetry.SetAttributes(ctx,
		telemetry.ValidationAttributes(string(result.Level), len(result.Errors), result.Valid)...)
	if m := metrics.Get(); m != nil {
		m.RecordNetworkSize("validate", len(req.Network.Nodes), len(req.Network.Edges))
	}

	middleware.WriteJSON(w, http.StatusOK, toValidateResponse(result))
}

// Generate обрабатывает POST /v1/networks/generate
func (h *NetworkHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "NetworkHandler.Generate")
	defer span.End()

	var req v1.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	spec, err := h.generator.Generate(generator.Params{
		Layers:           req.Layers,
		NodesPerLayerMin: req.NodesPerLayerMin,
		NodesPerLayerMax: req.NodesPerLayerMax,
		CapacityMin:      req.CapacityMin,
		CapacityMax:      req.CapacityMax,
		Density:          req.Density,
		Seed:             req.Seed,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, err)
		return
	}

	telemetry.SetAttributes(ctx,
		telemetry.NetworkAttributes(len(spec.Nodes), len(spec.Edges), spec.Source, spec.Sink)...)
	if m := metrics.Get(); m != nil {
		m.RecordNetworkSize("generate", len(spec.Nodes), len(spec.Edges))
	}

	resp := v1.GenerateResponse{Network: spec}

	// Генератор выдаёт только корректные сети, конструктор здесь не падает
	if net, err := domain.NewNetwork(spec); err == nil {
		resp.Statistics = domain.CalculateNetworkStatistics(net)
	} else {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "generated network failed validation"))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// toValidateResponse переводит вердикт валидации в контракт API.
// Списки оставляем пустыми, не nil: клиенты различают [] и отсутствие поля.
func toValidateResponse(result *validators.Result) v1.ValidateResponse {
	return v1.ValidateResponse{
		Valid:      result.Valid,
		Level:      string(result.Level),
		Errors:     toIssues(result.Errors),
		Warnings:   toIssues(result.Warnings),
		Statistics: result.Statistics,
	}
}

func toIssues(errs []*apperror.Error) []v1.ValidationIssue {
	out := make([]v1.ValidationIssue, 0, len(errs))
	for _, e := range errs {
		out = append(out, v1.ValidationIssue{
			Code:    string(e.Code),
			Message: e.Message,
			Field:   e.Field,
		})
	}
	return out
}
