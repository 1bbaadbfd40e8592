package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
)

// authMiddleware requires a valid bearer ID token when an OIDC audience is
// configured. Without one every request is let through.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.oidcVerifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Ctx(ctx).WarnContext(ctx, "no auth header found")
			writeJSONError(w, "missing auth token", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}

		idToken, err := s.oidcVerifier(ctx, token)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}

		ctx = log.WithAttrs(ctx, slog.String("subject", idToken.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
