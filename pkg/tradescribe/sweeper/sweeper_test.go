package sweeper

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingTarget struct {
	name   string
	sweeps atomic.Int64
}

func (c *countingTarget) Name() string { return c.name }
func (c *countingTarget) Sweep()       { c.sweeps.Add(1) }

func TestRunOnce(t *testing.T) {
	t.Run("sweeps every target", func(t *testing.T) {
		a := &countingTarget{name: "a"}
		b := &countingTarget{name: "b"}
		s := New(DefaultInterval, []Target{a, b}, nil)

		s.runOnce()
		if a.sweeps.Load() != 1 || b.sweeps.Load() != 1 {
			t.Errorf("expected both targets swept, got %d and %d", a.sweeps.Load(), b.sweeps.Load())
		}
	})

	t.Run("a panicking target does not kill the cycle loop", func(t *testing.T) {
		bad := Func{TargetName: "bad", Fn: func() { panic("boom") }}
		s := New(DefaultInterval, []Target{bad}, nil)

		s.runOnce() // must not propagate
		s.runOnce() // next cycle still runs
	})
}

func TestScheduling(t *testing.T) {
	target := &countingTarget{name: "fast"}
	s := New(50*time.Millisecond, []Target{target}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for target.sweeps.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweep never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFuncAdapter(t *testing.T) {
	ran := false
	f := Func{TargetName: "adapter", Fn: func() { ran = true }}
	if f.Name() != "adapter" {
		t.Errorf("unexpected name %q", f.Name())
	}
	f.Sweep()
	if !ran {
		t.Error("expected wrapped function to run")
	}
}
