package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	verifier := func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
		if rawIDToken == "good-token" {
			return &oidc.IDToken{Subject: "user-1"}, nil
		}
		return nil, errors.New("invalid token")
	}

	tests := []struct {
		name     string
		path     string
		header   string
		verifier tokenVerifier
		want     int
	}{
		{name: "Disabled", path: "/api/history/telemetry", verifier: nil, want: http.StatusOK},
		{name: "Missing Header", path: "/api/history/telemetry", verifier: verifier, want: http.StatusUnauthorized},
		{name: "Not Bearer", path: "/api/history/decisions", header: "Basic abc", verifier: verifier, want: http.StatusBadRequest},
		{name: "Empty Bearer", path: "/api/history/decisions", header: "Bearer ", verifier: verifier, want: http.StatusBadRequest},
		{name: "Invalid Token", path: "/api/schedule", header: "Bearer bad-token", verifier: verifier, want: http.StatusUnauthorized},
		{name: "Valid Token", path: "/api/schedule", header: "Bearer good-token", verifier: verifier, want: http.StatusOK},
		{name: "Public Route", path: "/api/cities", verifier: verifier, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockWeather{}, storage.NewMemory())
			srv.oidcVerifier = tt.verifier

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.setupHandler().ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
