package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pizza-app/auth-service/config"
	"github.com/pizza-app/auth-service/keys"
	"github.com/pizza-app/auth-service/services"
)

// Issuer signs access tokens with the provider's RSA key and refresh tokens
// with a shared HMAC secret.
type Issuer struct {
	keys          keys.Provider
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	refreshSecret []byte
	now           func() time.Time
}

// NewIssuer creates an issuer from token configuration
func NewIssuer(cfg config.TokenConfig, provider keys.Provider) *Issuer {
	return &Issuer{
		keys:          provider,
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		now:           time.Now,
	}
}

// Issuer returns the iss value stamped on every token
func (i *Issuer) Issuer() string {
	return i.issuer
}

// GenerateAccessToken signs an RS256 access token for id
func (i *Issuer) GenerateAccessToken(ctx context.Context, id Identity) (string, error) {
	if id.UserID <= 0 || id.Role == "" {
		return "", services.WrapError(services.ErrSigningFailure, errors.New("subject and role are required"))
	}

	material, err := i.keys.SigningKey(ctx)
	if err != nil {
		return "", services.WrapError(services.ErrKeyUnavailable, err)
	}

	now := i.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		Role:      id.Role,
		UserName:  id.UserName,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Email:     id.Email,
		Tenant:    id.Tenant,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = material.KeyID

	signed, err := tok.SignedString(material.PrivateKey)
	if err != nil {
		return "", services.WrapError(services.ErrSigningFailure, err)
	}
	return signed, nil
}

// GenerateRefreshToken signs an HS256 refresh token bound to sessionID
func (i *Issuer) GenerateRefreshToken(id Identity, sessionID int64) (string, error) {
	if id.UserID <= 0 || sessionID <= 0 {
		return "", services.WrapError(services.ErrSigningFailure, errors.New("subject and session id are required"))
	}

	now := i.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    i.issuer,
			ID:        strconv.FormatInt(sessionID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
		Role:     id.Role,
		UserName: id.UserName,
		ID:       sessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", services.WrapError(services.ErrSigningFailure, err)
	}
	return signed, nil
}

// ParseRefreshToken verifies signature, expiry and issuer of a refresh token
// and checks that jti and id name the same session.
func (i *Issuer) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.refreshSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, services.WrapError(services.ErrUnauthenticated, err)
	}

	jti, err := parseID(claims.RegisteredClaims.ID)
	if err != nil || jti != claims.ID {
		return nil, services.WrapError(services.ErrUnauthenticated, fmt.Errorf("session id mismatch: jti=%q id=%d", claims.RegisteredClaims.ID, claims.ID))
	}
	if _, err := parseID(claims.Subject); err != nil {
		return nil, services.WrapError(services.ErrUnauthenticated, err)
	}
	return claims, nil
}
