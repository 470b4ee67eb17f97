package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/docsage/docsage/internal/api/handlers"
	"github.com/docsage/docsage/internal/api/middleware"
	"github.com/docsage/docsage/internal/cache"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/ingest"
	"github.com/docsage/docsage/internal/metrics"
	"github.com/docsage/docsage/internal/rag"
	"github.com/docsage/docsage/internal/storage"
)

// Deps carries the constructed services the router exposes. Everything is
// injected; the router only builds handlers and wires routes.
type Deps struct {
	Config      *config.Config
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Documents   *document.Service
	Storage     storage.Storage
	Coordinator *ingest.Coordinator
	Answerer    *rag.Answerer
	Cache       *cache.Cache     // nil disables answer caching
	Metrics     *metrics.Metrics // nil disables the /metrics endpoint
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(d.DB, d.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	if d.Metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	docH := handlers.NewDocumentHandler(d.Documents, d.Storage, d.Coordinator, d.Config.Storage.MaxFileSize)
	queryH := handlers.NewQueryHandler(d.Answerer, d.Cache, time.Duration(d.Config.Query.CacheTTLSecs)*time.Second)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docH.Upload)
			r.Get("/", docH.List)
			r.Get("/{id}", docH.Get)
			r.Delete("/{id}", docH.Delete)
			r.Get("/{id}/status", docH.Status)
			r.Post("/{id}/reprocess", docH.Reprocess)
			r.Post("/{id}/reindex", docH.Reindex)
		})

		r.Post("/query", queryH.Query)
	})

	return r
}
