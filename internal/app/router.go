package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/assembly-hq/assembly/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	GraphQLHandler http.Handler
	// AuthMiddleware resolves the request principal from the bearer token
	// and stores it in context before the GraphQL handler runs.
	AuthMiddleware func(http.Handler) http.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Assembly defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/graphql", func(r chi.Router) {
		limit, window := 120, time.Minute
		if params.Config != nil && params.Config.GraphQLRateLimit > 0 {
			limit = params.Config.GraphQLRateLimit
		}
		if params.Config != nil && params.Config.GraphQLRateLimitWindow > 0 {
			window = params.Config.GraphQLRateLimitWindow
		}
		r.Use(httprate.Limit(limit, window, httprate.WithKeyFuncs(httprate.KeyByIP)))
		if params.AuthMiddleware != nil {
			r.Use(params.AuthMiddleware)
		}
		r.Handle("/", params.GraphQLHandler)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
