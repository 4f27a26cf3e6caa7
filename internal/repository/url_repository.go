package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scissor-io/scissor/internal/model"
	"go.uber.org/zap"
)

var (
	ErrURLNotFound   = errors.New("URL not found")
	ErrKeyExists     = errors.New("key already exists")
	ErrDatabaseError = errors.New("database error")
)

const (
	cacheTimeout   = 24 * time.Hour
	dbTimeout      = 5 * time.Second
	cacheKeyPrefix = "url:"
)

const urlColumns = `id, name, key, target_url, is_active, clicks, date_created, user_id`

// cachedURL is the redis payload for a key lookup. The owning user id is
// cached with the target so authorization decisions made on a cache hit see
// the real owner, not a zero value.
type cachedURL struct {
	TargetURL string    `json:"target_url"`
	UserID    uuid.UUID `json:"user_id"`
}

// URLRepository defines the interface for short-link data operations.
type URLRepository interface {
	Create(ctx context.Context, url *model.URL) error
	FindActiveByKey(ctx context.Context, key string) (*model.URL, error)
	KeyExists(ctx context.Context, key string) (bool, error)
	IncrementClicks(ctx context.Context, key string) error
	SoftDeleteByKey(ctx context.Context, key string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.URL, error)
}

// PostgresURLRepository implements URLRepository using PostgreSQL with a
// redis read-through cache on key lookups.
type PostgresURLRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewPostgresURLRepository(db *pgxpool.Pool, redisClient *redis.Client) *PostgresURLRepository {
	return &PostgresURLRepository{
		db:          db,
		redisClient: redisClient,
		logger:      zap.L().With(zap.String("component", "PostgresURLRepository")),
	}
}

// Create inserts a new short link. The unique index on key arbitrates
// concurrent inserts: a losing insert surfaces as ErrKeyExists.
func (r *PostgresURLRepository) Create(ctx context.Context, url *model.URL) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `INSERT INTO urls (name, key, target_url, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, clicks, date_created`

	err := r.db.QueryRow(ctx, query, url.Name, url.Key, url.TargetURL, url.UserID).
		Scan(&url.ID, &url.IsActive, &url.Clicks, &url.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrKeyExists
		}
		r.logger.Error("Failed to insert URL", zap.Error(err), zap.String("key", url.Key))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// FindActiveByKey retrieves an active short link, checking the cache first.
// The cache holds the target URL and the owner; callers needing fresh click
// counts read through to the database row returned on a miss.
func (r *PostgresURLRepository) FindActiveByKey(ctx context.Context, key string) (*model.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if r.redisClient != nil {
		val, err := r.redisClient.Get(ctx, cacheKeyPrefix+key).Result()
		if err == nil {
			var cached cachedURL
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				r.logger.Debug("URL found in cache", zap.String("key", key))
				return &model.URL{
					Key:       key,
					TargetURL: cached.TargetURL,
					UserID:    cached.UserID,
					IsActive:  true,
				}, nil
			}
			// Unreadable entry, fall through to the database and rewrite it.
			r.logger.Warn("Corrupt cache entry", zap.String("key", key))
		} else if err != redis.Nil {
			r.logger.Warn("Cache error", zap.Error(err), zap.String("key", key))
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM urls WHERE key = $1 AND is_active`, urlColumns)

	url := &model.URL{}
	err := r.db.QueryRow(ctx, query, key).Scan(
		&url.ID, &url.Name, &url.Key, &url.TargetURL, &url.IsActive,
		&url.Clicks, &url.CreatedAt, &url.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("URL not found", zap.String("key", key))
			return nil, ErrURLNotFound
		}
		r.logger.Error("Database query error", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if r.redisClient != nil {
		payload, err := json.Marshal(cachedURL{TargetURL: url.TargetURL, UserID: url.UserID})
		if err == nil {
			err = r.redisClient.Set(ctx, cacheKeyPrefix+key, payload, cacheTimeout).Err()
		}
		if err != nil {
			r.logger.Warn("Failed to cache URL", zap.Error(err), zap.String("key", key))
		}
	}

	return url, nil
}

// KeyExists reports whether any row, active or soft-deleted, holds the key.
// Keys are never reused, so deleted rows still count.
func (r *PostgresURLRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM urls WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check key existence", zap.Error(err), zap.String("key", key))
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

// IncrementClicks bumps the click counter in a single UPDATE so concurrent
// redirects rely on row-level locking rather than application locks.
func (r *PostgresURLRepository) IncrementClicks(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE urls SET clicks = clicks + 1 WHERE key = $1 AND is_active`, key)
	if err != nil {
		r.logger.Error("Failed to increment clicks", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrURLNotFound
	}
	return nil
}

// SoftDeleteByKey marks the link inactive and drops the cache entry so a
// deleted link stops redirecting immediately.
func (r *PostgresURLRepository) SoftDeleteByKey(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE urls SET is_active = FALSE WHERE key = $1 AND is_active`, key)
	if err != nil {
		r.logger.Error("Failed to soft-delete URL", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrURLNotFound
	}

	if r.redisClient != nil {
		if err := r.redisClient.Del(ctx, cacheKeyPrefix+key).Err(); err != nil {
			r.logger.Warn("Failed to invalidate cache", zap.Error(err), zap.String("key", key))
		}
	}
	return nil
}

// ListByUser returns every link, active or not, owned by the user.
func (r *PostgresURLRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM urls WHERE user_id = $1 ORDER BY date_created`, urlColumns)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Database query error", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var urls []model.URL
	for rows.Next() {
		var url model.URL
		if err := rows.Scan(
			&url.ID, &url.Name, &url.Key, &url.TargetURL, &url.IsActive,
			&url.Clicks, &url.CreatedAt, &url.UserID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return urls, nil
}
