package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pizza-app/auth-service/models"
	"github.com/pizza-app/auth-service/services/token"
	"github.com/pizza-app/auth-service/utils"
	"go.uber.org/zap"
)

const (
	// AccessTokenCookie carries the RS256 access token
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the HS256 refresh token
	RefreshTokenCookie = "refreshToken"
)

// AccessVerifier validates RS256 access tokens
type AccessVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*token.AccessClaims, error)
}

// RefreshParser validates HS256 refresh tokens
type RefreshParser interface {
	ParseRefreshToken(token string) (*token.RefreshClaims, error)
}

// RevocationChecker reports whether a refresh session is no longer usable
type RevocationChecker interface {
	IsRevoked(ctx context.Context, userID, sessionID int64) bool
}

// AuthMiddleware provides the access and refresh token stages
type AuthMiddleware struct {
	verifier    AccessVerifier
	refresh     RefreshParser
	revocations RevocationChecker
	logger      *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier AccessVerifier, refresh RefreshParser, revocations RevocationChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:    verifier,
		refresh:     refresh,
		revocations: revocations,
		logger:      logger,
	}
}

// RequireAuth requires a valid access token from the Authorization header or
// the accessToken cookie
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		raw := extractAccessToken(r)
		if raw == "" {
			m.logger.Warn("missing access token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, r, "Unauthorized")
			return
		}

		claims, err := m.verifier.VerifyAccessToken(ctx, raw)
		if err != nil {
			m.logger.Warn("access token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, r, "Unauthorized")
			return
		}

		auth, err := claims.AuthContext()
		if err != nil {
			m.logger.Warn("access token carries an invalid subject",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, r, "Unauthorized")
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.Int64("user_id", auth.UserID),
			zap.String("role", string(auth.Role)))

		next.ServeHTTP(w, r.WithContext(WithAuthContext(ctx, auth)))
	})
}

// RequireRefreshToken requires a valid refresh token cookie whose session
// is still stored and unexpired
func (m *AuthMiddleware) RequireRefreshToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		auth, ok := m.parseRefreshCookie(w, r)
		if !ok {
			return
		}

		if m.revocations.IsRevoked(ctx, auth.UserID, auth.SessionID) {
			m.logger.Warn("refresh session revoked",
				zap.String("request_id", requestID),
				zap.Int64("user_id", auth.UserID),
				zap.Int64("session_id", auth.SessionID))
			_ = utils.WriteUnauthorized(w, r, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAuthContext(ctx, auth)))
	})
}

// ParseRefreshToken reads the session id from the refresh token cookie
// without consulting the store. When an access stage ran first, both tokens
// must belong to the same user.
func (m *AuthMiddleware) ParseRefreshToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		auth, ok := m.parseRefreshCookie(w, r)
		if !ok {
			return
		}

		if current, found := AuthContextFrom(ctx); found {
			if current.UserID != auth.UserID {
				m.logger.Warn("refresh token belongs to another user",
					zap.String("request_id", GetRequestIDFromContext(ctx)),
					zap.Int64("user_id", current.UserID))
				_ = utils.WriteUnauthorized(w, r, "Unauthorized")
				return
			}
			current.SessionID = auth.SessionID
			auth = current
		}

		next.ServeHTTP(w, r.WithContext(WithAuthContext(ctx, auth)))
	})
}

func (m *AuthMiddleware) parseRefreshCookie(w http.ResponseWriter, r *http.Request) (AuthContext, bool) {
	requestID := GetRequestIDFromContext(r.Context())

	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		m.logger.Warn("missing refresh token",
			zap.String("request_id", requestID))
		_ = utils.WriteUnauthorized(w, r, "Unauthorized")
		return AuthContext{}, false
	}

	claims, err := m.refresh.ParseRefreshToken(cookie.Value)
	if err != nil {
		m.logger.Warn("refresh token validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, r, "Unauthorized")
		return AuthContext{}, false
	}

	auth, err := claims.AuthContext()
	if err != nil {
		_ = utils.WriteUnauthorized(w, r, "Unauthorized")
		return AuthContext{}, false
	}
	return auth, true
}

// RequireRole allows the request only when the caller's role is listed
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			auth, ok := AuthContextFrom(ctx)
			if !ok {
				m.logger.Error("auth context not found",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, r, "Unauthorized")
				return
			}

			for _, role := range roles {
				if auth.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.logger.Warn("insufficient permissions",
				zap.String("request_id", requestID),
				zap.Int64("user_id", auth.UserID),
				zap.String("role", string(auth.Role)))
			_ = utils.WriteForbidden(w, r, "You don't have enough permissions")
		})
	}
}

// extractAccessToken reads the bearer header first and falls back to the
// accessToken cookie. Browsers that lost their token send "Bearer undefined".
func extractAccessToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" && token != "undefined" {
		return token
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
