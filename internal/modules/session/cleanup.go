// README: Periodic eviction of idle in-memory contexts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultCleanupInterval = time.Minute

// Sweeper is implemented by stores that need active expiry.
type Sweeper interface {
	CleanupExpired() int
	Len() int
}

// CleanupService runs CleanupExpired on a ticker until stopped.
type CleanupService struct {
	store    Sweeper
	interval time.Duration
	onSweep  func(remaining int)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewCleanupService(store Sweeper, interval time.Duration, onSweep func(remaining int)) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{store: store, interval: interval, onSweep: onSweep}
}

func (c *CleanupService) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	go c.run(runCtx, c.done)
}

// Stop cancels the loop and waits for it to exit.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *CleanupService) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		close(done)
		c.mu.Unlock()
	}()

	log := zerolog.Ctx(ctx).With().Str("component", "session.cleanup").Logger()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(log)
		}
	}
}

func (c *CleanupService) sweep(log zerolog.Logger) {
	start := time.Now()
	removed := c.store.CleanupExpired()
	remaining := c.store.Len()
	if removed > 0 {
		log.Info().Int("removed", removed).Int("remaining", remaining).Dur("took", time.Since(start)).Msg("expired contexts removed")
	}
	if c.onSweep != nil {
		c.onSweep(remaining)
	}
}
