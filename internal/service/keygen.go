package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultKeyLength is the length of auto-generated short keys.
const DefaultKeyLength = 6

// generateKey draws a key uniformly from the alphanumeric alphabet using
// crypto/rand.
func generateKey(length int) (string, error) {
	key := make([]byte, length)
	max := big.NewInt(int64(len(keyAlphabet)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random key: %w", err)
		}
		key[i] = keyAlphabet[n.Int64()]
	}
	return string(key), nil
}

// allocateKey loops until it finds a key no row, active or soft-deleted,
// already holds. The loop is bounded only by actual collisions: with 62^6
// possible keys a retry is rare enough that no fixed ceiling is needed.
func (s *URLService) allocateKey(ctx context.Context, length int) (string, error) {
	for {
		key, err := generateKey(length)
		if err != nil {
			return "", err
		}
		exists, err := s.repo.KeyExists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
}

func isValidKey(key string) bool {
	if key == "" {
		return false
	}
	for _, char := range key {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}
