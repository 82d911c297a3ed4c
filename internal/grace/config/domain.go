package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/artmatsak/grace/common/spec/domain"
)

// LoadedDomain is a validated domain document and the digest of its source.
type LoadedDomain struct {
	*domain.Domain
	// Hash is the SHA-256 hex digest of the YAML it was parsed from.
	Hash string
}

// LoadDomain reads and validates domain.yaml.
func LoadDomain(path string) (*LoadedDomain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain file: %w", err)
	}
	d, err := domain.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid domain %s: %w", path, err)
	}

	h := sha256.Sum256(data)
	hash := hex.EncodeToString(h[:])
	slog.Info("domain loaded", "business", d.BusinessName, "answers", len(d.Answers), "hash", hash[:12])
	return &LoadedDomain{Domain: d, Hash: hash}, nil
}
