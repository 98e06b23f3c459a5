package cache

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a quiz document from the source of truth (Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error)
}

// LoaderFunc adapts a plain function to the QuizLoader interface.
type LoaderFunc func(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error)

func (f LoaderFunc) LoadQuiz(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error) {
	return f(ctx, ownerID)
}

// QuizCache is a read-through cache for quiz documents keyed by owner id.
type QuizCache interface {
	GetQuiz(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error)
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// RedisQuizCache caches quiz documents as JSON strings in Redis and falls
// back to the loader on miss. Concurrent misses for the same owner are
// collapsed into one load via singleflight. Loader errors (quiz absent,
// document corrupted) are never cached.
type RedisQuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewRedisQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *RedisQuizCache {
	return &RedisQuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (c *RedisQuizCache) GetQuiz(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error) {
	key := quizKey(ownerID)

	if quiz, ok := c.fetch(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key meanwhile.
		if quiz, ok := c.fetch(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := c.loader.LoadQuiz(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(quiz); err == nil {
			c.client.Set(ctx, key, data, c.ttlWithJitter())
		}
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Quiz), nil
}

func (c *RedisQuizCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	return c.client.Del(ctx, quizKey(ownerID)).Err()
}

// fetch returns the cached document, treating any redis error or
// undecodable blob as a miss.
func (c *RedisQuizCache) fetch(ctx context.Context, key string) (*models.Quiz, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; anything else means Redis is
		// unavailable and reads degrade to the loader.
		return nil, false
	}
	var quiz models.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, false
	}
	return &quiz, true
}

// ttlWithJitter spreads expiries by up to 10% of the TTL. Fills for
// different owners run concurrently, so it draws from the locked
// top-level source.
func (c *RedisQuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	return c.ttl + rand.N(c.ttl/10+1)
}

func quizKey(ownerID uuid.UUID) string {
	return "quiz:" + ownerID.String()
}

// Passthrough satisfies QuizCache without caching anything; used when no
// Redis address is configured.
type Passthrough struct {
	loader QuizLoader
}

func NewPassthrough(loader QuizLoader) *Passthrough {
	return &Passthrough{loader: loader}
}

func (p *Passthrough) GetQuiz(ctx context.Context, ownerID uuid.UUID) (*models.Quiz, error) {
	return p.loader.LoadQuiz(ctx, ownerID)
}

func (p *Passthrough) Invalidate(_ context.Context, _ uuid.UUID) error {
	return nil
}
