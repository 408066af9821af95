package server

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAPIKeyCost is the bcrypt cost used by HashAPIKey.
const DefaultAPIKeyCost = 12

// APIKeyValidator accepts bearer tokens matching one of a set of bcrypt hashes.
type APIKeyValidator struct {
	hashes [][]byte
}

// NewAPIKeyValidator creates a validator from bcrypt hashes.
func NewAPIKeyValidator(hashes []string) (*APIKeyValidator, error) {
	v := &APIKeyValidator{}
	for i, h := range hashes {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("api key hash %d is not a bcrypt hash: %w", i, err)
		}
		v.hashes = append(v.hashes, []byte(h))
	}
	if len(v.hashes) == 0 {
		return nil, fmt.Errorf("at least one api key hash is required")
	}
	return v, nil
}

// ValidateToken implements middleware.TokenValidator. The subject is the
// index of the matching hash.
func (v *APIKeyValidator) ValidateToken(token string) (string, error) {
	for i, h := range v.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(token)) == nil {
			return fmt.Sprintf("apikey-%d", i), nil
		}
	}
	return "", &AuthError{Message: "unknown API key"}
}

// HashAPIKey hashes key for use in auth.api_key_hashes.
func HashAPIKey(key string, cost int) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is empty")
	}
	if cost == 0 {
		cost = DefaultAPIKeyCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost out of range: %d", cost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}
