package usage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type tokenStore interface {
	UseToken(ctx context.Context, uid string, allowance int) error
	EnsureUser(ctx context.Context, uid string, allowance int) error
	Remaining(ctx context.Context, uid string, allowance int) (int, error)
}

// Users at or below a tenth of their allowance are logged at warn level.
const lowQuotaDivisor = 10

// Service meters language model calls per user.
type Service struct {
	store     tokenStore
	allowance int
}

func NewService(store tokenStore, monthly int) *Service {
	if monthly <= 0 {
		monthly = DefaultMonthlyTokens
	}
	return &Service{store: store, allowance: monthly}
}

// UseToken deducts one token from the user's monthly allowance.
// A missing user row is initialised and the deduction retried once.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	if err := s.charge(ctx, uid); err != nil {
		return err
	}
	s.logRemaining(ctx, uid)
	return nil
}

func (s *Service) charge(ctx context.Context, uid string) error {
	err := s.store.UseToken(ctx, uid, s.allowance)
	if !errors.Is(err, ErrInsufficientTokens) {
		return err
	}
	if initErr := s.store.EnsureUser(ctx, uid, s.allowance); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid, s.allowance)
}

func (s *Service) logRemaining(ctx context.Context, uid string) {
	log := zerolog.Ctx(ctx)
	remaining, err := s.store.Remaining(ctx, uid, s.allowance)
	if err != nil {
		log.Debug().Err(err).Str("uid", uid).Msg("llm quota lookup failed")
		return
	}
	ev := log.Debug()
	if remaining*lowQuotaDivisor <= s.allowance {
		ev = log.Warn()
	}
	ev.Str("uid", uid).Int("remaining", remaining).Int("allowance", s.allowance).Msg("llm quota charged")
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
