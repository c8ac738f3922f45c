package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bibbank/loan-origination/pkg/auth"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthMiddleware attaches the claims of a valid bearer token to the request.
// With a verifier configured a client-supplied X-Actor-Email header is
// discarded and replaced by the token's email, so a request without a token
// reaches the handlers with no identity.
func AuthMiddleware(verifier TokenVerifier, logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(actorHeader)

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authorization must be a bearer token", Kind: "unauthorized"})
				return
			}
			claims, err := verifier.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected token", "path", r.URL.Path, "error", err)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token", Kind: "unauthorized"})
				return
			}
			r.Header.Set(actorHeader, claims.ActorEmail())
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}
