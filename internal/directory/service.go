package directory

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/1cedrus/squid-chat/internal/rbac"
	"github.com/1cedrus/squid-chat/internal/store"
)

// Clock supplies the logical timestamp recorded on requests and messages.
type Clock interface {
	Now() Timestamp
}

// SystemClock reads the wall clock in milliseconds.
type SystemClock struct{}

func (SystemClock) Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}

// EventType identifies a domain event.
type EventType string

const (
	EventChannelCreated    EventType = "ChannelCreated"
	EventChannelUpdated    EventType = "ChannelUpdated"
	EventMemberJoined      EventType = "MemberJoined"
	EventMemberLeft        EventType = "MemberLeft"
	EventRequestSent       EventType = "RequestSent"
	EventApprovalSubmitted EventType = "ApprovalSubmitted"
	EventMessageSent       EventType = "MessageSent"
	EventMessageDeleted    EventType = "MessageDeleted"
)

// Event is emitted once per successful mutation. Payloads carry identifiers
// only, never record contents.
type Event struct {
	Type      EventType       `json:"type"`
	ChannelID ChannelID       `json:"channelId"`
	AccountID AccountID       `json:"accountId,omitempty"`
	RequestID *RequestID      `json:"requestId,omitempty"`
	MessageID *MessageID      `json:"messageId,omitempty"`
	Result    *ApprovalResult `json:"result,omitempty"`
}

// Sink receives domain events after the mutation that produced them has
// committed.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) error { return nil }

// Service is the directory core. A single mutex serializes calls so every
// operation is one atomic step: either all of its writes commit together
// with its events, or none do.
type Service struct {
	mu    sync.RWMutex
	store store.Store
	sink  Sink
	clock Clock
}

func New(st store.Store, sink Sink, clock Clock) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{store: st, sink: sink, clock: clock}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// events collects the events of one call; they reach the sink only after
// the surrounding transaction commits.
type events struct {
	pending []Event
}

func (e *events) add(ev Event) {
	e.pending = append(e.pending, ev)
}

func (s *Service) mutate(ctx context.Context, fn func(kv store.KV, ev *events) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf events
	err := s.store.Update(ctx, func(kv store.KV) error {
		buf.pending = buf.pending[:0]
		return fn(kv, &buf)
	})
	if err != nil {
		return err
	}

	for _, ev := range buf.pending {
		if emitErr := s.sink.Emit(ctx, ev); emitErr != nil {
			log.Printf("event emit failed (type=%s channel=%d): %v", ev.Type, ev.ChannelID, emitErr)
		}
	}
	return nil
}

func (s *Service) view(ctx context.Context, fn func(kv store.KV) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.View(ctx, fn)
}

// Authorization predicates. Operations compose these instead of inlining
// equality checks.

func isOwner(ch Channel, who AccountID) bool {
	return ch.Owner == who
}

// roleOf derives the account's channel role. Membership is passed in since
// callers have usually read the member list already.
func roleOf(ch Channel, member bool, who AccountID) rbac.Role {
	switch {
	case isOwner(ch, who):
		return rbac.RoleOwner
	case member:
		return rbac.RoleMember
	default:
		return rbac.RoleStranger
	}
}

func isSelf(caller, subject AccountID) bool {
	return caller == subject
}

func isAuthor(m Message, who AccountID) bool {
	return m.Sender == who
}
