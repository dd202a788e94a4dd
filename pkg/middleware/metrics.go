package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"flownet/pkg/metrics"
)

// Metrics записывает метрики запросов
func Metrics() func(http.Handler) http.Handler {
	m := metrics.Get()
	tracker := metrics.NewRequestTracker(m.HTTPRequestsInFlight)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := NormalizeRoute(r.URL.Path)

			tracker.Start(route)
			defer tracker.End(route)

			start := time.Now()

			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			duration := time.Since(start)

			m.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), duration)
		})
	}
}

// NormalizeRoute заменяет идентификаторы в пути на плейсхолдер,
// иначе кардинальность лейблов растёт с каждым run ID.
func NormalizeRoute(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) == 36 && strings.Count(seg, "-") == 4 {
		return true
	}
	if seg == "" {
		return false
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
