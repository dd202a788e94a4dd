package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"flownet/pkg/apperror"
	"flownet/pkg/logger"
	"flownet/pkg/ratelimit"
)

// RateLimit ограничивает частоту запросов по ключу.
// Ошибка backend'а пропускает запрос (fail open): недоступный Redis
// не должен превращаться в отказ всего API.
func RateLimit(limiter ratelimit.Limiter, keyExtractor ratelimit.KeyExtractor) func(http.Handler) http.Handler {
	if keyExtractor == nil {
		keyExtractor = ratelimit.IPKeyExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Log.Warn("Rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				limitInfo, infoErr := limiter.GetInfo(r.Context(), key)
				if infoErr != nil {
					logger.Log.Warn("Failed to get rate limit info", "error", infoErr, "key", key)
					limitInfo = &ratelimit.LimitInfo{
						ResetAt: time.Now().Add(time.Minute),
					}
				}

				logger.Log.Warn("Rate limit exceeded",
					"key", key,
					"limit", limitInfo.Limit,
				)

				setRateLimitHeaders(w, limitInfo)

				WriteError(w, r, apperror.New(apperror.CodeRateLimited,
					fmt.Sprintf("rate limit exceeded: %d requests per window", limitInfo.Limit)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, info *ratelimit.LimitInfo) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
	w.Header().Set("X-RateLimit-Reset", info.ResetAt.Format(time.RFC3339))

	if info.RetryAfter > 0 {
		seconds := int(math.Ceil(info.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}
}
