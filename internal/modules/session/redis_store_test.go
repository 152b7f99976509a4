package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupRedisStore skips unless TRIPCHAT_TEST_REDIS_ADDR points at a disposable Redis.
func setupRedisStore(t *testing.T) (*RedisStore, *redis.Client) {
	t.Helper()
	addr := os.Getenv("TRIPCHAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TRIPCHAT_TEST_REDIS_ADDR not set; skipping Redis-backed tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Minute, 5*time.Second), client
}

func uniqueKey(t *testing.T, tag string) Key {
	return mustKey(t, fmt.Sprintf("%s%d", tag, time.Now().UnixNano()), "chat")
}

func TestRedisStoreRoundTripAndFlags(t *testing.T) {
	s, client := setupRedisStore(t)
	ctx := context.Background()
	key := uniqueKey(t, "rt")
	t.Cleanup(func() { client.Del(context.Background(), contextKey(key)) })

	snap, err := s.Update(ctx, key, func(c *Context) error {
		c.SetDestination("부산")
		c.FoodAsked = true
		c.AddHotelFilters("수영장")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !snap.FoodAsked {
		t.Fatalf("snapshot lost food flag")
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if got.FoodAsked || *got.Destination != "부산" || len(got.HotelFilter) != 1 {
		t.Fatalf("stored = %+v", got)
	}
	ttl, err := client.TTL(ctx, contextKey(key)).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("ttl = %v err=%v", ttl, err)
	}

	reset, err := s.Reset(ctx, key)
	if err != nil || reset.Destination != nil || reset.NoRooms != 1 {
		t.Fatalf("Reset = %+v err=%v", reset, err)
	}
}

func TestRedisStoreSameKeySerialized(t *testing.T) {
	s, client := setupRedisStore(t)
	ctx := context.Background()
	key := uniqueKey(t, "ser")
	t.Cleanup(func() { client.Del(context.Background(), contextKey(key)) })

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Update(ctx, key, func(c *Context) error {
				c.ChildrenNumber++
				return nil
			}); err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _, _ := s.Get(ctx, key)
	if got.ChildrenNumber != n {
		t.Fatalf("children = %d, want %d", got.ChildrenNumber, n)
	}
	if exists, _ := client.Exists(ctx, lockKey(key)).Result(); exists != 0 {
		t.Fatalf("lock key left behind")
	}
}

func TestRedisStoreSavesAfterTurnDeadline(t *testing.T) {
	s, client := setupRedisStore(t)
	key := uniqueKey(t, "late")
	t.Cleanup(func() { client.Del(context.Background(), contextKey(key)) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := s.Update(ctx, key, func(c *Context) error {
		<-ctx.Done()
		c.SetDestination("강릉")
		return nil
	})
	if err != nil {
		t.Fatalf("Update after deadline: %v", err)
	}
	got, ok, err := s.Get(context.Background(), key)
	if err != nil || !ok || got.Destination == nil || *got.Destination != "강릉" {
		t.Fatalf("stored = %+v ok=%v err=%v", got, ok, err)
	}
}
