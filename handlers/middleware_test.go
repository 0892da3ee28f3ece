package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veshop-backend/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWTRoundtrip(t *testing.T) {
	token, err := generateJWT(testSecret, "user-123", time.Hour)
	require.NoError(t, err)

	userID, err := parseJWT(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := generateJWT(testSecret, "user-123", time.Hour)
	require.NoError(t, err)

	_, err = parseJWT("other-secret", token)
	assert.Error(t, err)
}

func TestParseJWT_Expired(t *testing.T) {
	token, err := generateJWT(testSecret, "user-123", -time.Minute)
	require.NoError(t, err)

	_, err = parseJWT(testSecret, token)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(requestUserID(r)))
	}
	protected := JWTMiddleware(testSecret, next)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		protected(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := generateJWT(testSecret, "user-42", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", rec.Body.String())
	})

	t.Run("spoofed user header is overwritten", func(t *testing.T) {
		token, err := generateJWT(testSecret, "user-42", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-User-ID", "someone-else")
		rec := httptest.NewRecorder()
		protected(rec, req)

		assert.Equal(t, "user-42", rec.Body.String())
	})
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(0.001, 2)
	handler := RateLimit(limiter, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i)
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	other := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run on preflight")
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/cancel/abc-123", nil)
	id, err := pathID(req, "/api/orders/cancel/")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	req = httptest.NewRequest(http.MethodPatch, "/api/orders/cancel/", nil)
	_, err = pathID(req, "/api/orders/cancel/")
	assert.Error(t, err)

	req = httptest.NewRequest(http.MethodPatch, "/api/orders/cancel/a/b", nil)
	_, err = pathID(req, "/api/orders/cancel/")
	assert.Error(t, err)
}
