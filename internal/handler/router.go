package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhouzirui/investor-interview/backend/internal/handler/catalog"
	"github.com/zhouzirui/investor-interview/backend/internal/handler/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/handler/session"
	portfolioModel "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	sessionService "github.com/zhouzirui/investor-interview/backend/internal/service/session"
)

// Deps collects what the router needs. Store and Metrics may be nil.
type Deps struct {
	Engine         *interviewService.Engine
	Portfolios     portfolioModel.Catalog
	Store          sessionService.Store
	Connections    interview.ConnectionObserver
	Metrics        prometheus.Gatherer
	AllowedOrigins []string
	TurnTimeout    time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(deps.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	interviewHandler := interview.New(deps.Engine, interview.NewTurnGuard(), deps.TurnTimeout, deps.Connections)
	catalogHandler := catalog.New(deps.Portfolios)

	r.Route("/api", func(api chi.Router) {
		interviewHandler.RegisterRoutes(api)
		catalogHandler.RegisterRoutes(api)

		if deps.Store != nil {
			session.New(deps.Store).RegisterRoutes(api)
		}
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
