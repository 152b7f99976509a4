// README: Usage module tests (lazy user creation, monthly reset and quota boundary).
package usage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type memTokens struct {
	rows      map[string]int
	ensureErr error
}

func (m *memTokens) UseToken(ctx context.Context, uid string, allowance int) error {
	n, ok := m.rows[uid]
	if !ok || n == 0 {
		return ErrInsufficientTokens
	}
	m.rows[uid] = n - 1
	return nil
}

func (m *memTokens) Remaining(ctx context.Context, uid string, allowance int) (int, error) {
	if n, ok := m.rows[uid]; ok {
		return n, nil
	}
	return allowance, nil
}

func (m *memTokens) EnsureUser(ctx context.Context, uid string, allowance int) error {
	if m.ensureErr != nil {
		return m.ensureErr
	}
	if _, ok := m.rows[uid]; !ok {
		m.rows[uid] = allowance
	}
	return nil
}

func TestServiceCreatesMissingUser(t *testing.T) {
	store := &memTokens{rows: map[string]int{}}
	svc := NewService(store, 3)
	if err := svc.UseToken(context.Background(), "new"); err != nil {
		t.Fatalf("UseToken: %v", err)
	}
	if store.rows["new"] != 2 {
		t.Fatalf("remaining = %d, want 2", store.rows["new"])
	}
}

func TestServiceWarnsWhenQuotaRunsLow(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	svc := NewService(&memTokens{rows: map[string]int{"u": 10}}, 100)

	if err := svc.UseToken(ctx, "u"); err != nil {
		t.Fatalf("UseToken: %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"remaining":9`) {
		t.Fatalf("log = %s", buf.String())
	}

	buf.Reset()
	svc = NewService(&memTokens{rows: map[string]int{"v": 50}}, 100)
	if err := svc.UseToken(ctx, "v"); err != nil {
		t.Fatalf("UseToken: %v", err)
	}
	if strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("warned with plenty left: %s", buf.String())
	}
}

func TestServiceExhausted(t *testing.T) {
	store := &memTokens{rows: map[string]int{"u": 0}}
	svc := NewService(store, 3)
	if err := svc.UseToken(context.Background(), "u"); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("err = %v, want ErrInsufficientTokens", err)
	}
}

func TestServiceEnsureFailure(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&memTokens{rows: map[string]int{}, ensureErr: boom}, 3)
	if err := svc.UseToken(context.Background(), "u"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

// TestUseTokenCrossMonthReset verifies that a user with 0 tokens left from a previous month
// is refilled and the call succeeds.
func TestUseTokenCrossMonthReset(t *testing.T) {
	store, db := setupTestStore(t)
	svc := NewService(store, 10)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "INSERT INTO llm_usage VALUES ('user_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.UseToken(ctx, "user_reset"); err != nil {
		t.Fatalf("UseToken after cross-month reset: %v", err)
	}
	remaining, err := store.Remaining(ctx, "user_reset", 10)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 9 {
		t.Fatalf("expected 9 tokens remaining, got %d", remaining)
	}
}

// TestUseTokenInsufficientCheck verifies that a user with 0 tokens in the current month is blocked.
func TestUseTokenInsufficientCheck(t *testing.T) {
	store, db := setupTestStore(t)
	svc := NewService(store, 10)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "INSERT INTO llm_usage (uid, tokens_remaining, last_reset_month) VALUES ('user_zero', 0, TO_CHAR(NOW() AT TIME ZONE 'UTC', 'YYYY-MM'))"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.UseToken(ctx, "user_zero"); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

func TestUseTokenNewUser(t *testing.T) {
	store, _ := setupTestStore(t)
	svc := NewService(store, 10)
	ctx := context.Background()

	if remaining, err := store.Remaining(ctx, "user_new", 10); err != nil || remaining != 10 {
		t.Fatalf("Remaining before first use = %d, %v", remaining, err)
	}
	if err := svc.UseToken(ctx, "user_new"); err != nil {
		t.Fatalf("UseToken for new user: %v", err)
	}
	if remaining, err := store.Remaining(ctx, "user_new", 10); err != nil || remaining != 9 {
		t.Fatalf("Remaining after first use = %d, %v", remaining, err)
	}
}

// setupTestStore creates a real postgres-backed Store.
// It skips the test when TRIPCHAT_TEST_DSN is not set.
func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TRIPCHAT_TEST_DSN")
	if dsn == "" {
		t.Skip("TRIPCHAT_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE llm_usage"); err != nil {
		t.Fatalf("truncate llm_usage: %v", err)
	}
	return NewStore(db), db
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_llm_usage.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
