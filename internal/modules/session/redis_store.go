// README: Context store backed by Redis (JSON values with TTL, per-key lease lock).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	contextKeyPrefix = "tripchat:ctx:%s"
	lockKeyPrefix    = "tripchat:lock:%s"
	// DefaultLockTTL bounds how long a crashed turn can hold a conversation.
	DefaultLockTTL = 90 * time.Second
	lockRetry      = 50 * time.Millisecond
	writeTimeout   = 2 * time.Second
)

// Deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisStore struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &RedisStore{redis: client, ttl: ttl, lockTTL: lockTTL}
}

func (s *RedisStore) Update(ctx context.Context, key Key, fn func(*Context) error) (Context, error) {
	token, err := s.lock(ctx, key)
	if err != nil {
		return Context{}, err
	}
	defer s.unlock(key, token)

	current, _, err := s.load(ctx, key)
	if err != nil {
		return Context{}, err
	}
	work := current.Clone()
	if err := fn(&work); err != nil {
		return Context{}, err
	}
	stored := work.Clone()
	stored.ClearIntents()
	// The turn may have spent its deadline on providers; its result is still kept.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.save(wctx, key, stored); err != nil {
		return Context{}, err
	}
	return work, nil
}

func (s *RedisStore) Reset(ctx context.Context, key Key) (Context, error) {
	token, err := s.lock(ctx, key)
	if err != nil {
		return Context{}, err
	}
	defer s.unlock(key, token)

	fresh := New()
	if err := s.save(ctx, key, fresh); err != nil {
		return Context{}, err
	}
	return fresh, nil
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Context, bool, error) {
	return s.load(ctx, key)
}

func (s *RedisStore) load(ctx context.Context, key Key) (Context, bool, error) {
	val, err := s.redis.Get(ctx, contextKey(key)).Bytes()
	if err == redis.Nil {
		return New(), false, nil
	}
	if err != nil {
		return Context{}, false, fmt.Errorf("%w: get: %v", ErrUnavailable, err)
	}
	var c Context
	if err := json.Unmarshal(val, &c); err != nil {
		// A corrupt value is replaced on the next save.
		return New(), false, nil
	}
	if c.NoRooms < 1 {
		c.NoRooms = 1
	}
	return c, true, nil
}

func (s *RedisStore) save(ctx context.Context, key Key, c Context) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("session: marshal context: %w", err)
	}
	if err := s.redis.Set(ctx, contextKey(key), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrUnavailable, err)
	}
	return nil
}

// lock spins on SET NX until the lease is ours or ctx is done.
func (s *RedisStore) lock(ctx context.Context, key Key) (string, error) {
	token := uuid.NewString()
	for {
		ok, err := s.redis.SetNX(ctx, lockKey(key), token, s.lockTTL).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", err
			}
			return "", fmt.Errorf("%w: lock: %v", ErrUnavailable, err)
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetry):
		}
	}
}

func (s *RedisStore) unlock(key Key, token string) {
	// Released on a fresh context so a cancelled turn still frees the key.
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = releaseScript.Run(ctx, s.redis, []string{lockKey(key)}, token).Err()
}

func contextKey(key Key) string {
	return fmt.Sprintf(contextKeyPrefix, key.String())
}

func lockKey(key Key) string {
	return fmt.Sprintf(lockKeyPrefix, key.String())
}
