package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ecotally/ecotally/internal/lca"
)

// ErrEmptyFactorVersion guards against keys that could collide across
// factor-table versions.
var ErrEmptyFactorVersion = errors.New("cache key requires a factor-table version")

// keyPayload is the canonical content hashed into a cache key. Struct
// marshalling gives a deterministic field order, and lca.Normalize makes
// the inputs independent of the caller's field layout and optional-field
// presence order.
type keyPayload struct {
	Inputs        lca.StageInputs `json:"inputs"`
	Method        lca.Method      `json:"method"`
	FactorVersion string          `json:"factor_version"`
}

// GenerateKey derives the content-addressed cache key for a calculation:
// a SHA-256 hex digest over the normalized stage inputs, the requested
// method, and the factor-table version. Two semantically identical requests
// always produce the same key.
func GenerateKey(inputs lca.StageInputs, method lca.Method, factorVersion string) (string, error) {
	if factorVersion == "" {
		return "", ErrEmptyFactorVersion
	}

	payload := keyPayload{
		Inputs:        lca.Normalize(inputs),
		Method:        method,
		FactorVersion: factorVersion,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling cache key payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
