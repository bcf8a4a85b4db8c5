package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"importer/internal/http/handlers"
	"importer/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/admin/menu-importer", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", app.CreateJob)
			r.Get("/", app.ListJobs)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetJob)
				r.Post("/cancel", app.CancelJob)
				r.Post("/retry", app.RetryJob)
				r.Get("/download", app.DownloadResult)
			})
		})
	})

	return r
}
