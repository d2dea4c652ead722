package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/seovimalraj/cnc-quote-sub009/internal/config"
)

// CORS creates a middleware enforcing the configured cross-origin policy
// with github.com/rs/cors. Quote dashboards call the pricing API from other
// origins, so this runs on every route.
func CORS(cfg *config.CORSConfig) Middleware {
	// A nil config (tests wiring routes directly) disables the policy.
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
