package handlers

import (
	"net/http"

	"github.com/pizza-app/auth-service/keys"
	"github.com/pizza-app/auth-service/services"
	"github.com/pizza-app/auth-service/utils"
	"go.uber.org/zap"
)

// JWKSHandler publishes the public half of the signing key
type JWKSHandler struct {
	provider keys.Provider
	logger   *zap.Logger
}

// NewJWKSHandler creates a new JWKSHandler
func NewJWKSHandler(provider keys.Provider, logger *zap.Logger) *JWKSHandler {
	return &JWKSHandler{provider: provider, logger: logger}
}

// HandleJWKS handles GET /.well-known/jwks.json. The body is the bare key
// set, not an envelope, so standard JWKS clients can read it.
func (h *JWKSHandler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	set, err := keys.BuildJWKS(r.Context(), h.provider)
	if err != nil {
		HandleServiceError(w, r, services.WrapError(services.ErrKeyUnavailable, err), h.logger)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=600")
	if err := utils.WriteJSON(w, http.StatusOK, set); err != nil {
		h.logger.Error("failed to write jwks response", zap.Error(err))
	}
}

// HandleWelcome handles GET {base}/
func HandleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to Auth service"))
}
