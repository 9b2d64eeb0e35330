package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{AutomationURL: srv.URL, TradeSummaryURL: srv.URL + "/trades"}, nil), srv
}

func TestSend(t *testing.T) {
	t.Run("injects action and decodes json", func(t *testing.T) {
		var got map[string]any
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json content type, got %s", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("decoding request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"is_subscriber": true}`))
		})

		resp, err := client.Send(context.Background(), "check_subscriber",
			map[string]any{"discord_id": "123"}, TargetAutomation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["action"] != "check_subscriber" {
			t.Errorf("expected action injected, got %v", got["action"])
		}
		if got["discord_id"] != "123" {
			t.Errorf("expected discord_id forwarded, got %v", got["discord_id"])
		}
		if !resp.Bool("is_subscriber") {
			t.Error("expected is_subscriber true")
		}
	})

	t.Run("action overwrites caller-set value", func(t *testing.T) {
		var got map[string]any
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.Write([]byte("ok"))
		})

		_, err := client.Send(context.Background(), "log_chat",
			map[string]any{"action": "bogus"}, TargetAutomation)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["action"] != "log_chat" {
			t.Errorf("expected action log_chat, got %v", got["action"])
		}
	})

	t.Run("plain text response returned as text", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("trade summary here"))
		})

		resp, err := client.Send(context.Background(), "get_trade_summary", nil, TargetTradeSummary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.AsText() != "trade summary here" {
			t.Errorf("unexpected text: %q", resp.AsText())
		}
		if resp.Data != nil {
			t.Error("expected no decoded data for plain text")
		}
	})

	t.Run("trade summary target hits trade URL", func(t *testing.T) {
		var path string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Write([]byte("ok"))
		})

		client.Send(context.Background(), "get_trade_summary", nil, TargetTradeSummary)
		if path != "/trades" {
			t.Errorf("expected /trades, got %s", path)
		}
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		resp, err := client.Send(context.Background(), "check_subscriber", nil, TargetAutomation)
		if !errors.Is(err, ErrGateway) {
			t.Errorf("expected ErrGateway, got %v", err)
		}
		if resp != nil {
			t.Error("expected nil response on failure")
		}
	})

	t.Run("transport error is an error", func(t *testing.T) {
		client := New(Config{AutomationURL: "http://127.0.0.1:1/nope"}, nil)
		_, err := client.Send(context.Background(), "check_subscriber", nil, TargetAutomation)
		if !errors.Is(err, ErrGateway) {
			t.Errorf("expected ErrGateway, got %v", err)
		}
	})
}

func TestResponseAccessors(t *testing.T) {
	resp := &Response{Data: map[string]any{
		"is_subscriber": true,
		"summary":       "all good",
		"chat_history":  []any{map[string]any{"message": "hi"}},
	}}

	if !resp.Bool("is_subscriber") {
		t.Error("expected true")
	}
	if resp.Bool("missing") {
		t.Error("expected false for missing key")
	}
	if resp.String("summary") != "all good" {
		t.Error("unexpected summary")
	}
	if len(resp.List("chat_history")) != 1 {
		t.Error("expected one history entry")
	}
	if resp.AsText() != "all good" {
		t.Errorf("expected summary fallback, got %q", resp.AsText())
	}

	var nilResp *Response
	if nilResp.Bool("x") || nilResp.String("x") != "" || nilResp.List("x") != nil || nilResp.AsText() != "" {
		t.Error("nil response accessors must return zero values")
	}
}
