package kv

import (
	"context"
	"testing"

	"chronicle/internal/leader"
)

type fakeGate struct {
	info leader.Info
	err  error
}

func (g fakeGate) GetLeader() (leader.Info, error) { return g.info, g.err }

func TestPutRejectedWhenNotLeader(t *testing.T) {
	s := NewStore("node-a", fakeGate{err: leader.ErrNoLeader})
	if err := s.Put(context.Background(), "k", "v"); err != ErrNotLeader {
		t.Fatalf("expected ErrNotLeader, got %v", err)
	}
}

func TestPutAcceptedWhenLeader(t *testing.T) {
	s := NewStore("node-a", fakeGate{info: leader.Info{Leader: "node-a", Status: leader.StatusEstablished}})
	if err := s.Put(context.Background(), "k", "v"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok, err := s.Get(context.Background(), "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("expected to read back 'v', got %q %v %v", v, ok, err)
	}
}

func TestPutRejectedWhenAnotherNodeIsLeader(t *testing.T) {
	s := NewStore("node-a", fakeGate{info: leader.Info{Leader: "node-b", Status: leader.StatusEstablished}})
	if err := s.Put(context.Background(), "k", "v"); err != ErrNotLeader {
		t.Fatalf("expected ErrNotLeader, got %v", err)
	}
}
