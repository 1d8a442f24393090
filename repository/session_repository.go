package repository

import (
	"context"
	"encoding/json"
	"time"

	"checkout-service/models"

	"github.com/redis/go-redis/v9"
)

// SessionRepository stores checkout sessions and the completion
// idempotency records. Sessions expire server-side; an abandoned tab
// simply lets its session lapse.
type SessionRepository interface {
	SaveSession(ctx context.Context, session *models.CheckoutSession) error
	GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	// ClaimIdempotencyKey returns true when this caller is the first to
	// claim the key. A false return means a completion with the same key
	// already ran (or is running) and its order number is returned.
	ClaimIdempotencyKey(ctx context.Context, key string) (bool, string, error)
	// ReleaseIdempotencyKey frees a claim whose completion failed, so a
	// retry of the same attempt can claim it again.
	ReleaseIdempotencyKey(ctx context.Context, key string) error
	SetIdempotencyResult(ctx context.Context, key, orderNumber string) error
	// NextOrderSequence yields a monotonically increasing order number
	// suffix, starting above the seed.
	NextOrderSequence(ctx context.Context) (int64, error)
}

const orderSequenceSeed = 1000

type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSessionRepository) sessionKey(id string) string {
	return "checkout:session:" + id
}

func (r *RedisSessionRepository) idemKey(key string) string {
	return "idem:checkout:" + key
}

func (r *RedisSessionRepository) SaveSession(ctx context.Context, session *models.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.sessionKey(session.SessionID), data, r.ttl).Err()
}

func (r *RedisSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.CheckoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *RedisSessionRepository) ClaimIdempotencyKey(ctx context.Context, key string) (bool, string, error) {
	// SETNX marks the key as in-flight; the order number replaces the
	// placeholder once the completion finishes.
	ok, err := r.client.SetNX(ctx, r.idemKey(key), "pending", r.ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}
	existing, err := r.client.Get(ctx, r.idemKey(key)).Result()
	if err != nil && err != redis.Nil {
		return false, "", err
	}
	if existing == "pending" {
		existing = ""
	}
	return false, existing, nil
}

func (r *RedisSessionRepository) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.idemKey(key)).Err()
}

func (r *RedisSessionRepository) SetIdempotencyResult(ctx context.Context, key, orderNumber string) error {
	return r.client.Set(ctx, r.idemKey(key), orderNumber, r.ttl).Err()
}

func (r *RedisSessionRepository) NextOrderSequence(ctx context.Context) (int64, error) {
	seq, err := r.client.Incr(ctx, "checkout:order:seq").Result()
	if err != nil {
		return 0, err
	}
	return orderSequenceSeed + seq, nil
}
