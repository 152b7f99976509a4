// README: TextGenerator wrappers for timeouts, per-user quota and provider metrics.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrQuotaExceeded = errors.New("llm quota exceeded")

type userKey struct{}

// WithUser tags ctx with the user the model calls are billed to.
func WithUser(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userKey{}, uid)
}

func UserFrom(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userKey{}).(string)
	return uid, ok && uid != ""
}

type timeoutGenerator struct {
	next    TextGenerator
	timeout time.Duration
}

// WithTimeout bounds every call; a timeout surfaces as the call's error.
func WithTimeout(next TextGenerator, d time.Duration) TextGenerator {
	if d <= 0 {
		return next
	}
	return &timeoutGenerator{next: next, timeout: d}
}

func (t *timeoutGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Generate(ctx, system, user)
}

// QuotaChecker deducts one unit of allowance for uid.
type QuotaChecker interface {
	UseToken(ctx context.Context, uid string) error
}

type quotaGenerator struct {
	next  TextGenerator
	quota QuotaChecker
}

// WithQuota charges the ctx user before each call. Calls without a user pass through.
func WithQuota(next TextGenerator, q QuotaChecker) TextGenerator {
	if q == nil {
		return next
	}
	return &quotaGenerator{next: next, quota: q}
}

func (g *quotaGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	if uid, ok := UserFrom(ctx); ok {
		if err := g.quota.UseToken(ctx, uid); err != nil {
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
	}
	return g.next.Generate(ctx, system, user)
}

// Recorder receives one observation per provider call.
type Recorder interface {
	ObserveProvider(provider, status string, d time.Duration)
}

type instrumentedGenerator struct {
	next     TextGenerator
	provider string
	rec      Recorder
}

func Instrument(next TextGenerator, provider string, rec Recorder) TextGenerator {
	if rec == nil {
		return next
	}
	return &instrumentedGenerator{next: next, provider: provider, rec: rec}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := g.next.Generate(ctx, system, user)
	status := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case errors.Is(err, ErrQuotaExceeded):
		status = "quota"
	case err != nil:
		status = "error"
	}
	g.rec.ObserveProvider(g.provider, status, time.Since(start))
	return out, err
}
