package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dograga/compliance-checks/internal/domain"
)

func TestRouter_AuthProtectsMutatingEndpoints(t *testing.T) {
	secret := "router-test-secret"
	rec := &mockRecordsService{
		deleteFn: func(_ context.Context, _ string) error { return nil },
		listFn: func(_ context.Context, _ domain.RecordFilter) ([]domain.Record, int64, error) {
			return nil, 0, nil
		},
	}
	h := NewHandler(&mockCollectorService{}, rec, &mockCheckerService{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := testConfig()
	cfg.JWTSecret = secret
	router := NewRouter(h, cfg)

	t.Run("delete without token is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/compliance-data/doc-1", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("delete with token succeeds", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "auditor",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(secret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/compliance-data/doc-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("read endpoints stay open", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/compliance-data", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRouter_RateLimitHeaders(t *testing.T) {
	router := newTestRouter(&mockCollectorService{}, &mockRecordsService{}, &mockCheckerService{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.9:4321"
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
}
