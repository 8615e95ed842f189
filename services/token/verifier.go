package token

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pizza-app/auth-service/config"
	"github.com/pizza-app/auth-service/keys"
	"github.com/pizza-app/auth-service/services"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrJWKSFetchFailed is returned when the key set cannot be downloaded
var ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

// JWKSVerifier validates RS256 access tokens against a remote JWKS document.
// The document is cached for JWKSCacheTTL. An unknown kid forces a re-fetch,
// bounded by JWKSRatePerMinute.
type JWKSVerifier struct {
	jwksURL    string
	issuer     string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	cacheMu      sync.RWMutex
	jwksCache    *keys.JWKS
	jwksCacheExp time.Time
	jwksCacheTTL time.Duration

	keyCacheMu sync.RWMutex
	keyCache   map[string]*rsa.PublicKey

	fetches singleflight.Group
	refetch *rate.Limiter
}

// NewJWKSVerifier creates a verifier from token configuration
func NewJWKSVerifier(cfg config.TokenConfig, logger *zap.Logger) *JWKSVerifier {
	perMinute := cfg.JWKSRatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	timeout := cfg.JWKSHTTPTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ttl := cfg.JWKSCacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	return &JWKSVerifier{
		jwksURL:      cfg.JWKSURI,
		issuer:       cfg.Issuer,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
		now:          time.Now,
		jwksCacheTTL: ttl,
		keyCache:     make(map[string]*rsa.PublicKey),
		refetch:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// VerifyAccessToken checks signature, algorithm, expiry and issuer and returns the claims
func (v *JWKSVerifier) VerifyAccessToken(ctx context.Context, tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("kid header not found")
		}
		return v.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, services.WrapError(services.ErrUnauthenticated, err)
	}
	return claims, nil
}

// FetchJWKS returns the cached key set, downloading it when the cache expired.
// Downloads share the re-fetch budget with unknown kids. Once the budget is
// spent the stale set is served, or ErrJWKSFetchFailed when there is none.
func (v *JWKSVerifier) FetchJWKS(ctx context.Context) (*keys.JWKS, error) {
	v.cacheMu.RLock()
	stale := v.jwksCache
	if stale != nil && v.now().Before(v.jwksCacheExp) {
		v.cacheMu.RUnlock()
		return stale, nil
	}
	v.cacheMu.RUnlock()

	if !v.refetch.Allow() {
		if stale != nil {
			v.logger.Debug("jwks re-fetch budget spent, serving stale key set")
			return stale, nil
		}
		return nil, fmt.Errorf("%w: re-fetch budget spent", ErrJWKSFetchFailed)
	}

	jwks, err := v.refresh(ctx)
	if err != nil && stale != nil {
		v.logger.Warn("serving stale jwks", zap.Error(err))
		return stale, nil
	}
	return jwks, err
}

// refresh downloads the key set. Concurrent callers share one request.
func (v *JWKSVerifier) refresh(ctx context.Context) (*keys.JWKS, error) {
	res, err, _ := v.fetches.Do(v.jwksURL, func() (interface{}, error) {
		// shared by every waiter, so one caller's cancellation must not fail the rest
		req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, v.jwksURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := v.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
		}

		var jwks keys.JWKS
		if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
			return nil, fmt.Errorf("failed to decode JWKS: %w", err)
		}

		v.cacheMu.Lock()
		v.jwksCache = &jwks
		v.jwksCacheExp = v.now().Add(v.jwksCacheTTL)
		v.cacheMu.Unlock()

		v.keyCacheMu.Lock()
		v.keyCache = make(map[string]*rsa.PublicKey, len(jwks.Keys))
		v.keyCacheMu.Unlock()

		v.logger.Debug("jwks refreshed", zap.Int("keys", len(jwks.Keys)))
		return &jwks, nil
	})
	if err != nil {
		v.logger.Warn("jwks fetch failed", zap.String("url", v.jwksURL), zap.Error(err))
		return nil, err
	}
	return res.(*keys.JWKS), nil
}

// publicKey resolves kid against the current key set. Parsed keys live only
// as long as the key set they came from.
func (v *JWKSVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	jwks, err := v.FetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	v.keyCacheMu.RLock()
	if key, ok := v.keyCache[kid]; ok {
		v.keyCacheMu.RUnlock()
		return key, nil
	}
	v.keyCacheMu.RUnlock()

	jwk, ok := jwks.Find(kid)
	if !ok {
		// a rotated key may not be in the cached set yet
		if !v.refetch.Allow() {
			return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
		}
		if jwks, err = v.refresh(ctx); err != nil {
			return nil, err
		}
		if jwk, ok = jwks.Find(kid); !ok {
			return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
		}
	}

	key, err := jwk.RSAPublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}

	v.keyCacheMu.Lock()
	v.keyCache[kid] = key
	v.keyCacheMu.Unlock()

	return key, nil
}

// InvalidateCache drops the cached key set and parsed keys
func (v *JWKSVerifier) InvalidateCache() {
	v.cacheMu.Lock()
	v.jwksCache = nil
	v.jwksCacheExp = time.Time{}
	v.cacheMu.Unlock()

	v.keyCacheMu.Lock()
	v.keyCache = make(map[string]*rsa.PublicKey)
	v.keyCacheMu.Unlock()
}
