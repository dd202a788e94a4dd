package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"flownet/pkg/apperror"
	"flownet/pkg/logger"
)

// ErrorBody тело ошибки в JSON ответе
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// ErrorResponse обёртка ошибки для единообразия API
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON сериализует значение в тело ответа
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("Failed to encode response", "error", err)
	}
}

// WriteError преобразует ошибку в JSON ответ с корректным HTTP статусом.
// Не-application ошибки маппятся в 500 без раскрытия внутренних деталей.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatusOf(err)

	body := ErrorBody{
		Code:      string(apperror.CodeInternal),
		Message:   "internal server error",
		RequestID: GetRequestID(r.Context()),
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body.Code = string(appErr.Code)
		body.Message = appErr.Message
		body.Field = appErr.Field
		body.Details = appErr.Details
	}

	WriteJSON(w, status, ErrorResponse{Error: body})
}
