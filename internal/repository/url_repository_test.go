package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupCachedRepo(t *testing.T) (*PostgresURLRepository, *miniredis.Miniredis) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	// nil pool: any accidental database access panics the test.
	return NewPostgresURLRepository(nil, client), mr
}

func TestFindActiveByKey_CacheHitCarriesOwner(t *testing.T) {
	repo, mr := setupCachedRepo(t)
	owner := uuid.New()

	payload, err := json.Marshal(cachedURL{TargetURL: "https://example.com", UserID: owner})
	assert.NoError(t, err)
	assert.NoError(t, mr.Set(cacheKeyPrefix+"abc123", string(payload)))

	link, err := repo.FindActiveByKey(context.Background(), "abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", link.Key)
	assert.Equal(t, "https://example.com", link.TargetURL)
	assert.True(t, link.IsActive)
	// The owner must survive the cache round-trip so owner-only operations
	// authorize correctly on a warm cache.
	assert.Equal(t, owner, link.UserID)
}
