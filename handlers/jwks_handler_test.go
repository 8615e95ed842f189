package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pizza-app/auth-service/internal/testkeys"
	"github.com/pizza-app/auth-service/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleJWKS(t *testing.T) {
	_, pemBytes := testkeys.PEM(t)
	provider, err := keys.NewStaticProvider(pemBytes)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	NewJWKSHandler(provider, zap.NewNop()).HandleJWKS(w, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=600", w.Header().Get("Cache-Control"))

	var set keys.JWKS
	require.NoError(t, json.NewDecoder(w.Body).Decode(&set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, keys.KeyID(pemBytes), set.Keys[0].Kid)
	assert.Equal(t, "RS256", set.Keys[0].Alg)
}

func TestHandleJWKS_KeyUnavailable(t *testing.T) {
	provider := keys.NewRemoteProvider("http://127.0.0.1:1/private.pem", 200*time.Millisecond, zap.NewNop())

	w := httptest.NewRecorder()
	NewJWKSHandler(provider, zap.NewNop()).HandleJWKS(w, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "127.0.0.1")
}

func TestHandleWelcome(t *testing.T) {
	w := httptest.NewRecorder()
	HandleWelcome(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome to Auth service", w.Body.String())
}
