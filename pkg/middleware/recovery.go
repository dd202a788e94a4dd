package middleware

import (
	"net/http"
	"runtime/debug"

	"flownet/pkg/apperror"
	"flownet/pkg/logger"
)

// Recovery перехватывает паники в обработчиках и возвращает 500.
// Всегда первый в цепочке: паника ниже не должна ронять процесс.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Log.Error("Panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
						"stack", string(debug.Stack()),
					)
					WriteError(w, r, apperror.NewCritical(apperror.CodeInternal, "internal server error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
