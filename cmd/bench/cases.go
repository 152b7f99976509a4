// README: Benchmark checks: stores, HTTP contract, per-conversation isolation, throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

// isolationCities are assigned round-robin to concurrent conversations.
var isolationCities = []string{"부산", "제주", "강릉", "속초", "경주", "여수", "전주", "대구", "인천", "통영"}

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

type chatContext struct {
	Destination  *string `json:"destination"`
	AdultsNumber *int    `json:"adults_number"`
	HotelAsked   bool    `json:"hotel_asked"`
	FoodAsked    bool    `json:"food_asked"`
}

type chatResponse struct {
	Recommendation string      `json:"recommendation"`
	Context        chatContext `json:"context"`
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: checkPostgres},
		{Name: "Env: Redis connect", Run: checkRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: llm_usage exists", Run: checkUsageTable},
		{Name: "API: health", Run: checkHealth},
		{Name: "API: gathering asks for missing slots", Run: checkGathering},
		{Name: "API: malformed json is 400", Run: checkMalformed},
		{Name: "API: reset restores a fresh context", Run: checkReset},
		{Name: "Concurrency: conversations are isolated", Run: checkIsolation},
		{Name: "Perf: chat throughput", Run: chatThroughput},
	}
}

func checkPostgres(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: StatusSkip, Note: "dsn not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	return Result{Status: StatusPass}
}

func checkRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: StatusSkip, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	n, err := r.redis.Keys(ctx, "tripchat:ctx:*").Result()
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	return Result{Status: StatusPass, Note: fmt.Sprintf("stored contexts=%d", len(n))}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: StatusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: StatusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: StatusFail, Note: err.Error()}
		}
	}
	return Result{Status: StatusPass}
}

func checkUsageTable(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: StatusSkip, Note: "dsn not configured"}
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT to_regclass('public.llm_usage') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if !exists {
		return Result{Status: StatusFail, Note: "llm_usage missing"}
	}
	return Result{Status: StatusPass}
}

func checkHealth(ctx context.Context, r *Runner) Result {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/health", nil)
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	return Result{Status: StatusPass, Latency: time.Since(start)}
}

func checkGathering(ctx context.Context, r *Runner) Result {
	chatID := benchID("gather", 0)
	defer r.reset(ctx, chatID)
	start := time.Now()
	out, status, err := r.chat(ctx, chatID, "부산 맛집 추천해줘")
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d", status)}
	}
	if !strings.Contains(out.Recommendation, "부산") || !out.Context.FoodAsked {
		return Result{Status: StatusFail, Note: "no acknowledgment: " + out.Recommendation}
	}
	return Result{Status: StatusPass, Latency: time.Since(start)}
}

func checkMalformed(ctx context.Context, r *Runner) Result {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat", strings.NewReader(`{"user_input":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		return Result{Status: StatusFail, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	return Result{Status: StatusPass}
}

func checkReset(ctx context.Context, r *Runner) Result {
	chatID := benchID("reset", 0)
	if _, _, err := r.chat(ctx, chatID, "제주 가고 싶어"); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if err := r.reset(ctx, chatID); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	out, _, err := r.chat(ctx, chatID, "안녕하세요")
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if out.Context.Destination != nil {
		return Result{Status: StatusFail, Note: "destination survived reset"}
	}
	return Result{Status: StatusPass}
}

// checkIsolation runs Concurrency conversations in parallel, each with its
// own destination and party size, and verifies no turn sees another's slots.
func checkIsolation(ctx context.Context, r *Runner) Result {
	var leaks atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < r.cfg.Concurrency; i++ {
		city := isolationCities[i%len(isolationCities)]
		adults := i%9 + 1
		chatID := benchID("iso", i)
		g.Go(func() error {
			defer r.reset(context.Background(), chatID)
			for n := 0; n < r.cfg.Turns; n++ {
				out, status, err := r.chat(ctx, chatID, fmt.Sprintf("%s 여행 성인 %d명", city, adults))
				if err != nil {
					return err
				}
				if status != http.StatusOK {
					return fmt.Errorf("%s: status=%d", chatID, status)
				}
				c := out.Context
				if c.Destination == nil || *c.Destination != city || c.AdultsNumber == nil || *c.AdultsNumber != adults {
					leaks.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if n := leaks.Load(); n > 0 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("leaked turns=%d", n)}
	}
	return Result{Status: StatusPass, Latency: time.Since(start), Note: fmt.Sprintf("conversations=%d turns=%d", r.cfg.Concurrency, r.cfg.Concurrency*r.cfg.Turns)}
}

func chatThroughput(ctx context.Context, r *Runner) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		chatID := benchID("perf", i)
		go func() {
			defer wg.Done()
			defer r.reset(context.Background(), chatID)
			for time.Now().Before(end) && ctx.Err() == nil {
				_, status, err := r.chat(ctx, chatID, "부산 2박 3일 성인 2명")
				mu.Lock()
				if err != nil || status != http.StatusOK {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: StatusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func (r *Runner) chat(ctx context.Context, chatID, msg string) (chatResponse, int, error) {
	var out chatResponse
	b, _ := json.Marshal(map[string]string{"user_input": msg, "user_id": "bench", "chat_id": chatID})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return out, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return out, resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, resp.StatusCode, fmt.Errorf("decode: %w", err)
	}
	return out, resp.StatusCode, nil
}

func (r *Runner) reset(ctx context.Context, chatID string) error {
	b, _ := json.Marshal(map[string]string{"user_id": "bench", "chat_id": chatID})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat/reset", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset status=%d", resp.StatusCode)
	}
	return nil
}

func benchID(kind string, i int) string {
	return fmt.Sprintf("%s-%d-%d", kind, os.Getpid(), i)
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
