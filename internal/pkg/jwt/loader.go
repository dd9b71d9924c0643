// internal/pkg/jwt/loader.go
package jwt

import (
	"fmt"
	"time"
)

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

func LoadAndBuild(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("session secret must be at least 16 bytes")
	}
	secret := []byte(cfg.Secret)

	return &Manager{
		Generator: NewGenerator(secret, cfg.Issuer, cfg.Audience, cfg.TTL),
		Verifier:  NewVerifier(secret, cfg.Issuer, cfg.Audience),
	}, nil
}
