// Command jwks converts the RSA private key used for signing access tokens
// into the public JWKS document served to other services.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pizza-app/auth-service/internal/observability"
	"github.com/pizza-app/auth-service/keys"
	"go.uber.org/zap"
)

func main() {
	in := flag.String("in", "certs/private.pem", "PEM encoded RSA private key")
	out := flag.String("out", "public/.well-known/jwks.json", "output JWKS file")
	flag.Parse()

	logger, err := observability.NewLogger("info", "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "jwks: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	kid, err := convert(*in, *out)
	if err != nil {
		logger.Error("failed to write jwks", zap.String("in", *in), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("jwks written", zap.String("out", *out), zap.String("kid", kid))
}

// convert reads the private key at in and writes its public JWKS to out
func convert(in, out string) (string, error) {
	pemBytes, err := os.ReadFile(in)
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}

	material, err := keys.ParseMaterial(pemBytes)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(keys.JWKS{Keys: []keys.JWK{keys.NewJWK(material.Public(), material.KeyID)}}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode jwks: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write jwks: %w", err)
	}
	return material.KeyID, nil
}
