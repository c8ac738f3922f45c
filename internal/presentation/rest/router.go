package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter assembles the HTTP surface. metrics may be nil. Without a
// verifier the caller's identity is taken from the X-Actor-Email header.
func NewRouter(
	api *OriginationHandler,
	health *HealthHandler,
	metrics http.Handler,
	verifier TokenVerifier,
	logger *slog.Logger,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger))
	if verifier != nil {
		r.Use(AuthMiddleware(verifier, logger))
	}

	health.RegisterRoutes(r)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	api.RegisterRoutes(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found", Kind: "not_found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Kind: "invalid_input"})
	})
	return r
}
