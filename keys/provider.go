package keys

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pizza-app/auth-service/config"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNoKey is returned when no private key could be obtained
var ErrNoKey = errors.New("private key not found")

// maxPEMSize bounds what a remote key source may return
const maxPEMSize = 64 << 10

// Material is a parsed RSA signing key together with its key id
type Material struct {
	PrivateKey *rsa.PrivateKey
	KeyID      string
}

// Public returns the public half of the signing key
func (m *Material) Public() *rsa.PublicKey {
	return &m.PrivateKey.PublicKey
}

// Provider supplies the RSA key used to sign access tokens
type Provider interface {
	SigningKey(ctx context.Context) (*Material, error)
}

// KeyID derives the kid of a PEM document: the first 10 hex characters of its SHA-256
func KeyID(pemBytes []byte) string {
	sum := sha256.Sum256(pemBytes)
	return hex.EncodeToString(sum[:])[:10]
}

// ParseMaterial parses a PKCS#1 or PKCS#8 RSA private key PEM
func ParseMaterial(pemBytes []byte) (*Material, error) {
	if len(pemBytes) == 0 {
		return nil, ErrNoKey
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &Material{PrivateKey: key, KeyID: KeyID(pemBytes)}, nil
}

// StaticProvider serves a key loaded once at startup
type StaticProvider struct {
	material *Material
}

// NewStaticProvider parses pemBytes into a provider
func NewStaticProvider(pemBytes []byte) (*StaticProvider, error) {
	material, err := ParseMaterial(pemBytes)
	if err != nil {
		return nil, err
	}
	return &StaticProvider{material: material}, nil
}

// SigningKey returns the loaded key
func (p *StaticProvider) SigningKey(context.Context) (*Material, error) {
	return p.material, nil
}

// RemoteProvider fetches the PEM from an HTTP endpoint on first use and keeps
// it for the life of the process. Failed fetches are not cached.
type RemoteProvider struct {
	url    string
	client *http.Client
	logger *zap.Logger

	mu       sync.RWMutex
	material *Material
	group    singleflight.Group
}

// NewRemoteProvider creates a provider that downloads the key from url
func NewRemoteProvider(url string, timeout time.Duration, logger *zap.Logger) *RemoteProvider {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RemoteProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// SigningKey returns the cached key, fetching it when absent
func (p *RemoteProvider) SigningKey(ctx context.Context) (*Material, error) {
	p.mu.RLock()
	if p.material != nil {
		defer p.mu.RUnlock()
		return p.material, nil
	}
	p.mu.RUnlock()

	v, err, _ := p.group.Do("key", func() (interface{}, error) {
		material, err := p.fetch(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.material = material
		p.mu.Unlock()
		p.logger.Info("signing key fetched", zap.String("kid", material.KeyID))
		return material, nil
	})
	if err != nil {
		p.logger.Error("failed to fetch signing key", zap.String("url", p.url), zap.Error(err))
		return nil, err
	}
	return v.(*Material), nil
}

func (p *RemoteProvider) fetch(ctx context.Context) (*Material, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch private key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch private key: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPEMSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return ParseMaterial(body)
}

// NewProvider builds the provider selected by cfg.Source
func NewProvider(cfg config.KeyConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Source {
	case "remote":
		return NewRemoteProvider(cfg.RemoteURL, cfg.RemoteTimeout, logger), nil
	case "static", "":
		pemBytes := []byte(cfg.PrivateKeyPEM)
		if len(pemBytes) == 0 {
			var err error
			pemBytes, err = os.ReadFile(cfg.PrivateKeyFile)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoKey, err)
			}
		}
		return NewStaticProvider(pemBytes)
	default:
		return nil, fmt.Errorf("unknown key source: %s", cfg.Source)
	}
}
