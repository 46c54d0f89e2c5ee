package gateway

import (
	"log/slog"
	"net/http"

	"github.com/akyaiy/rpcnode/internal/core/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once the shared token bucket is
// empty. A non-positive limit disables it.
func RateLimit(limit float64, burst int, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(limit), burst)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Debug("rate limit exceeded", slog.String("ip", r.RemoteAddr))
				_ = utils.WriteJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type RouterOptions struct {
	Route     string
	RateLimit float64
	RateBurst int
}

// NewRouter mounts gs on o.Route behind CORS and the rate limiter.
func NewRouter(gs *GatewayServer, o RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(RateLimit(o.RateLimit, o.RateBurst, gs.log))
	r.HandleFunc(o.Route, gs.Handle)
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}
