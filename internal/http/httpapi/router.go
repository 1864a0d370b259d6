package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Tdill1980/wrapdash/internal/http/handlers"
	"github.com/Tdill1980/wrapdash/internal/infra/geoip"
	"github.com/Tdill1980/wrapdash/internal/middleware"
)

// NewRouter assembles the API surface consumed by the dashboard frontend.
func NewRouter(app *handlers.App, logger zerolog.Logger, geo geoip.CountryResolver, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(allowedOrigins),
		middleware.Logger(logger, geo),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/renders", func(r chi.Router) {
		r.Get("/plans", app.RenderPlans)
		r.Post("/", app.RenderStart)
		r.Get("/{run_id}", app.RenderStatus)
		r.Post("/{run_id}/artifact", app.RenderPersist)
	})

	r.Route("/v1/artifacts", func(r chi.Router) {
		r.Get("/", app.ArtifactList)
		r.Get("/{artifact_id}", app.ArtifactGet)
		r.Get("/{artifact_id}/versions", app.ArtifactVersions)
		r.Post("/{artifact_id}/versions", app.ArtifactCreateVersion)
	})

	r.Route("/v1/designs", func(r chi.Router) {
		r.Post("/", app.DesignUpload)
		r.Get("/download", app.DesignDownload)
	})

	return r
}
