package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIGenerateSendsSystemAndUser(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  부산 \n"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI("test-key", "").WithEndpoint(srv.URL)
	out, err := o.Generate(context.Background(), "sys", "부산 가자")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "부산" {
		t.Fatalf("out = %q", out)
	}
	if got.Model != DefaultOpenAIModel || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "부산 가자" {
		t.Fatalf("request = %+v", got)
	}
}

func TestOpenAIGenerateErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "bad key"},
		{"empty choices", http.StatusOK, `{"choices":[]}`, "empty choices"},
		{"malformed", http.StatusBadGateway, `<html>`, "unmarshal"},
		{"status", http.StatusServiceUnavailable, `{}`, "status 503"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI("k", "m").WithEndpoint(srv.URL).Generate(context.Background(), "", "hi")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	if _, err := NewOpenAI("", "").Generate(context.Background(), "", "hi"); err == nil {
		t.Fatalf("expected missing key error")
	}
}
