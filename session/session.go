package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	cartKeyPrefix    = "cart:"
)

// ErrNoSession is returned when a token does not resolve to a live session.
var ErrNoSession = errors.New("session not found")

// RedisStore keeps sessions and their carts in redis, so carts survive
// process restarts and multi-instance deployments.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create opens a session for the customer and returns its token.
func (r *RedisStore) Create(ctx context.Context, customerID int64) (string, error) {
	token := uuid.NewString()
	if err := r.client.Set(ctx, sessionKeyPrefix+token, customerID, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// Customer resolves a session token into the customer id it was issued for.
func (r *RedisStore) Customer(ctx context.Context, token string) (int64, error) {
	id, err := r.client.Get(ctx, sessionKeyPrefix+token).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}
	return id, nil
}

// Destroy removes the session and its cart.
func (r *RedisStore) Destroy(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token, cartKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// SetCartLine stores the requested quantity for a product. Last write for a
// product wins.
func (r *RedisStore) SetCartLine(ctx context.Context, token string, productID int64, quantity int) error {
	key := cartKeyPrefix + token
	field := strconv.FormatInt(productID, 10)
	if err := r.client.HSet(ctx, key, field, quantity).Err(); err != nil {
		return fmt.Errorf("set cart line: %w", err)
	}
	// slide both expiries together so the cart never outlives its session
	if err := r.client.Expire(ctx, sessionKeyPrefix+token, r.ttl).Err(); err != nil {
		return fmt.Errorf("refresh session expiry: %w", err)
	}
	return r.client.Expire(ctx, key, r.ttl).Err()
}

// RemoveCartLine deletes a product from the cart.
func (r *RedisStore) RemoveCartLine(ctx context.Context, token string, productID int64) error {
	field := strconv.FormatInt(productID, 10)
	if err := r.client.HDel(ctx, cartKeyPrefix+token, field).Err(); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

// Cart returns the session's cart as a product id → quantity mapping. An
// empty cart yields an empty map.
func (r *RedisStore) Cart(ctx context.Context, token string) (map[int64]int, error) {
	fields, err := r.client.HGetAll(ctx, cartKeyPrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart := make(map[int64]int, len(fields))
	for field, value := range fields {
		productID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad cart key %q: %w", field, err)
		}
		quantity, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("bad cart quantity %q: %w", value, err)
		}
		cart[productID] = quantity
	}
	return cart, nil
}

// ClearCart empties the cart but leaves the session alive. Called after a
// successful checkout.
func (r *RedisStore) ClearCart(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
