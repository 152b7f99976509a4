// README: Postgres persistence for per-user monthly model-call allowance.
package usage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles llm_usage persistence.
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: time.Now}
}

// UseToken atomically checks the monthly quota and deducts one token.
// A row whose last_reset_month is behind the current month is refilled to allowance first.
// Returns ErrInsufficientTokens when 0 rows are updated (quota exhausted or user absent).
func (s *Store) UseToken(ctx context.Context, uid string, allowance int) error {
	month := s.now().UTC().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE llm_usage SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, month, allowance, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureUser inserts a row for uid with a full allowance; existing rows are untouched.
func (s *Store) EnsureUser(ctx context.Context, uid string, allowance int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO llm_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, allowance, s.now().UTC().Format("2006-01"))
	return err
}

// Remaining returns the tokens left for uid; absent users report the full allowance.
func (s *Store) Remaining(ctx context.Context, uid string, allowance int) (int, error) {
	var remaining int
	var month string
	err := s.db.QueryRow(ctx, `SELECT tokens_remaining, last_reset_month FROM llm_usage WHERE uid = $1`, uid).Scan(&remaining, &month)
	if err != nil {
		if isNoRows(err) {
			return allowance, nil
		}
		return 0, err
	}
	if month < s.now().UTC().Format("2006-01") {
		return allowance, nil
	}
	return remaining, nil
}
