package flowise

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsk(t *testing.T) {
	t.Run("sends question with session override and bearer token", func(t *testing.T) {
		var got map[string]any
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text": "hi there"}`))
		}))
		defer srv.Close()

		client := New(Config{URL: srv.URL, APIKey: "k3y"}, nil)
		reply, err := client.Ask(context.Background(), "hello", "user-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if auth != "Bearer k3y" {
			t.Errorf("expected bearer auth, got %q", auth)
		}
		if got["question"] != "hello" {
			t.Errorf("expected question forwarded, got %v", got["question"])
		}
		oc, _ := got["overrideConfig"].(map[string]any)
		if oc == nil || oc["sessionId"] != "user-123" {
			t.Errorf("expected session override, got %v", got["overrideConfig"])
		}
		if reply.Content() != "hi there" {
			t.Errorf("unexpected reply: %q", reply.Content())
		}
	})

	t.Run("answer field used when text absent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"answer": "from answer"}`))
		}))
		defer srv.Close()

		client := New(Config{URL: srv.URL}, nil)
		reply, err := client.Ask(context.Background(), "q", "s")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Content() != "from answer" {
			t.Errorf("unexpected reply: %q", reply.Content())
		}
	})

	t.Run("empty reply has empty content", func(t *testing.T) {
		var r *Reply
		if r.Content() != "" {
			t.Error("nil reply must have empty content")
		}
		if (&Reply{}).Content() != "" {
			t.Error("empty reply must have empty content")
		}
	})

	t.Run("non-200 is ErrBackend", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := New(Config{URL: srv.URL}, nil)
		if _, err := client.Ask(context.Background(), "q", "s"); !errors.Is(err, ErrBackend) {
			t.Errorf("expected ErrBackend, got %v", err)
		}
	})

	t.Run("transport failure is ErrBackend", func(t *testing.T) {
		client := New(Config{URL: "http://127.0.0.1:1/nope"}, nil)
		if _, err := client.Ask(context.Background(), "q", "s"); !errors.Is(err, ErrBackend) {
			t.Errorf("expected ErrBackend, got %v", err)
		}
	})
}
