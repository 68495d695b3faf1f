package analysis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes registers the analysis routes on router.
func SetupRoutes(router chi.Router, h *Handler) {
	router.Route("/api/analysis", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleAnalyze)
		r.Post("/upload", h.HandleUpload)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/acknowledge", h.HandleAcknowledge)
		r.Post("/{id}/commentary", h.HandleCommentary)
	})
	router.Get("/api/benchmarks/industries", h.HandleIndustries)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// NewRouter builds the full HTTP handler.
func NewRouter(h *Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer, cors)
	SetupRoutes(router, h)
	return router
}

// cors allows the local dev frontend.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
