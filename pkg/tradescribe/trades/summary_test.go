package trades

import (
	"context"
	"errors"
	"testing"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/identity"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/transcript"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/webhook"
)

type fakeGateway struct {
	calls       int
	lastAction  string
	lastTarget  webhook.Target
	lastPayload map[string]any
	resp        *webhook.Response
	err         error
}

func (f *fakeGateway) Send(ctx context.Context, action string, payload map[string]any, target webhook.Target) (*webhook.Response, error) {
	f.calls++
	f.lastAction = action
	f.lastTarget = target
	f.lastPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type recordingStore struct {
	transcript.NopStore
	summaries []string
	fail      bool
}

func (s *recordingStore) AppendTradeSummary(ctx context.Context, userID, summary string) error {
	if s.fail {
		return errors.New("store down")
	}
	s.summaries = append(s.summaries, summary)
	return nil
}

var alice = identity.User{ID: "123", Name: "alice"}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches from the trade-summary endpoint", func(t *testing.T) {
		gw := &fakeGateway{resp: &webhook.Response{Text: "you made trades"}}
		c := New(gw, transcript.NopStore{}, nil)

		summary, ok := c.Get(ctx, alice, alice.SessionID())
		if !ok || summary != "you made trades" {
			t.Fatalf("unexpected result: (%q, %v)", summary, ok)
		}
		if gw.lastAction != "get_trade_summary" || gw.lastTarget != webhook.TargetTradeSummary {
			t.Errorf("unexpected call: %s to target %d", gw.lastAction, gw.lastTarget)
		}
		if gw.lastPayload["discord_id"] != "123" {
			t.Errorf("unexpected payload: %v", gw.lastPayload)
		}
	})

	t.Run("two consecutive gets issue exactly one fetch", func(t *testing.T) {
		gw := &fakeGateway{resp: &webhook.Response{Text: "summary"}}
		c := New(gw, transcript.NopStore{}, nil)

		c.Get(ctx, alice, alice.SessionID())
		c.Get(ctx, alice, alice.SessionID())
		if gw.calls != 1 {
			t.Errorf("expected one gateway call, got %d", gw.calls)
		}
	})

	t.Run("json summary field accepted", func(t *testing.T) {
		gw := &fakeGateway{resp: &webhook.Response{Data: map[string]any{"summary": "from json"}}}
		c := New(gw, transcript.NopStore{}, nil)

		summary, ok := c.Get(ctx, alice, alice.SessionID())
		if !ok || summary != "from json" {
			t.Errorf("unexpected result: (%q, %v)", summary, ok)
		}
	})

	t.Run("failure is not cached", func(t *testing.T) {
		gw := &fakeGateway{err: webhook.ErrGateway}
		c := New(gw, transcript.NopStore{}, nil)

		if _, ok := c.Get(ctx, alice, alice.SessionID()); ok {
			t.Fatal("expected miss on failure")
		}

		gw.err = nil
		gw.resp = &webhook.Response{Text: "recovered"}
		summary, ok := c.Get(ctx, alice, alice.SessionID())
		if !ok || summary != "recovered" {
			t.Errorf("expected retry after failure, got (%q, %v)", summary, ok)
		}
		if gw.calls != 2 {
			t.Errorf("expected 2 calls, got %d", gw.calls)
		}
	})

	t.Run("empty response is a failure", func(t *testing.T) {
		gw := &fakeGateway{resp: &webhook.Response{}}
		c := New(gw, transcript.NopStore{}, nil)
		if _, ok := c.Get(ctx, alice, alice.SessionID()); ok {
			t.Error("expected miss on empty response")
		}
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		gw := &fakeGateway{resp: &webhook.Response{Text: "v1"}}
		c := New(gw, transcript.NopStore{}, nil)

		c.Get(ctx, alice, alice.SessionID())
		c.Invalidate(alice.SessionID())

		gw.resp = &webhook.Response{Text: "v2"}
		summary, _ := c.Get(ctx, alice, alice.SessionID())
		if summary != "v2" {
			t.Errorf("expected overwrite on refetch, got %q", summary)
		}
	})
}

func TestPersist(t *testing.T) {
	ctx := context.Background()

	t.Run("appends to the transcript store", func(t *testing.T) {
		store := &recordingStore{}
		c := New(&fakeGateway{}, store, nil)

		c.Persist(ctx, alice, "the summary")
		if len(store.summaries) != 1 || store.summaries[0] != "the summary" {
			t.Errorf("unexpected store state: %v", store.summaries)
		}
	})

	t.Run("store failure is absorbed", func(t *testing.T) {
		store := &recordingStore{fail: true}
		c := New(&fakeGateway{}, store, nil)
		c.Persist(ctx, alice, "s") // must not panic
	})
}
