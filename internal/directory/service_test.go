package directory

import (
	"context"
	"testing"

	"github.com/1cedrus/squid-chat/internal/store"
)

// fakeClock hands out strictly increasing logical timestamps.
type fakeClock struct {
	now Timestamp
}

func (c *fakeClock) Now() Timestamp {
	c.now++
	return c.now
}

type captureSink struct {
	events []Event
}

func (s *captureSink) Emit(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) types() []EventType {
	out := make([]EventType, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func newTestService(t *testing.T) (*Service, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	return New(store.NewMemoryStore(), sink, &fakeClock{}), sink
}

func mustCreateChannel(t *testing.T, svc *Service, owner AccountID, name string) ChannelID {
	t.Helper()
	id, err := svc.NewChannel(context.Background(), owner, name, nil)
	if err != nil {
		t.Fatalf("NewChannel(%s): %v", name, err)
	}
	return id
}

// joinChannel walks an account through the request/approval flow.
func joinChannel(t *testing.T, svc *Service, owner, who AccountID, channelID ChannelID) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.SendRequest(ctx, who, channelID); err != nil {
		t.Fatalf("SendRequest(%s): %v", who, err)
	}
	result, err := svc.ApproveRequests(ctx, owner, channelID, []RequestDecision{{Account: who, Approved: true}})
	if err != nil {
		t.Fatalf("ApproveRequests(%s): %v", who, err)
	}
	if result.Approved != 1 {
		t.Fatalf("expected 1 approval for %s, got %+v", who, result)
	}
}
