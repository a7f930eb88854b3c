package directory

import (
	"context"
	"errors"
	"testing"
)

func messageIDs(page Page[MessageRecord]) []MessageID {
	ids := make([]MessageID, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.MessageID
	}
	return ids
}

func equalIDs(a, b []MessageID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSendMessage(t *testing.T) {
	svc, sink := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")

	messageID, err := svc.SendMessage(ctx, "alice", id, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if messageID != 0 {
		t.Fatalf("first message id = %d, want 0", messageID)
	}

	nonce, err := svc.MessageNonce(ctx, id)
	if err != nil {
		t.Fatalf("MessageNonce: %v", err)
	}
	if nonce != 1 {
		t.Fatalf("nonce = %d, want 1", nonce)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != EventMessageSent || last.MessageID == nil || *last.MessageID != messageID {
		t.Fatalf("last event = %+v, want MessageSent for message %d", last, messageID)
	}
}

func TestSendMessageRequiresMembership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")

	if _, err := svc.SendMessage(ctx, "mallory", id, "hi"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
	if _, err := svc.SendMessage(ctx, "alice", 99, "hi"); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("err = %v, want ErrChannelNotFound", err)
	}
}

func TestListMessagesMostRecentFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")

	for _, content := range []string{"first", "second", "third"} {
		if _, err := svc.SendMessage(ctx, "alice", id, content); err != nil {
			t.Fatalf("SendMessage(%s): %v", content, err)
		}
	}

	page, err := svc.ListMessages(ctx, id, 0, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if !equalIDs(messageIDs(page), []MessageID{2, 1, 0}) {
		t.Fatalf("ids = %v, want [2 1 0]", messageIDs(page))
	}
	if page.HasNextPage || page.Total != 3 {
		t.Fatalf("page = %+v, want no next page and total 3", page)
	}
	if page.Items[0].Message.Content != "third" {
		t.Fatalf("newest message = %+v, want 'third'", page.Items[0])
	}

	// tombstone the newest entry and list again
	if err := svc.RemoveMessage(ctx, "alice", id, 2); err != nil {
		t.Fatalf("RemoveMessage: %v", err)
	}
	page, err = svc.ListMessages(ctx, id, 0, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if !equalIDs(messageIDs(page), []MessageID{1, 0}) {
		t.Fatalf("ids after delete = %v, want [1 0]", messageIDs(page))
	}
	if page.Total != 2 || page.HasNextPage {
		t.Fatalf("page after delete = %+v, want total 2 and no next page", page)
	}
}

func TestListMessagesPaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")

	for i := 0; i < 5; i++ {
		if _, err := svc.SendMessage(ctx, "alice", id, "msg"); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	cases := []struct {
		from    uint32
		wantIDs []MessageID
		hasNext bool
	}{
		{from: 0, wantIDs: []MessageID{4, 3}, hasNext: true},
		{from: 2, wantIDs: []MessageID{2, 1}, hasNext: true},
		{from: 4, wantIDs: []MessageID{0}, hasNext: false},
		{from: 6, wantIDs: []MessageID{}, hasNext: false},
	}
	for _, tc := range cases {
		page, err := svc.ListMessages(ctx, id, tc.from, 2)
		if err != nil {
			t.Fatalf("ListMessages(from=%d): %v", tc.from, err)
		}
		if !equalIDs(messageIDs(page), tc.wantIDs) {
			t.Fatalf("from=%d: ids = %v, want %v", tc.from, messageIDs(page), tc.wantIDs)
		}
		if page.HasNextPage != tc.hasNext {
			t.Fatalf("from=%d: hasNext = %v, want %v", tc.from, page.HasNextPage, tc.hasNext)
		}
	}
}

func TestRemoveMessageAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")
	joinChannel(t, svc, "alice", "bob", id)
	joinChannel(t, svc, "alice", "carol", id)

	messageID, err := svc.SendMessage(ctx, "bob", id, "mine")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// carol is a member but neither author nor owner
	if err := svc.RemoveMessage(ctx, "carol", id, messageID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	// the owner may remove another member's message
	if err := svc.RemoveMessage(ctx, "alice", id, messageID); err != nil {
		t.Fatalf("owner RemoveMessage: %v", err)
	}
	// the id is retired; removing again is a caller error
	if err := svc.RemoveMessage(ctx, "alice", id, messageID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("err = %v, want ErrMessageNotFound", err)
	}
}

// An owner who left their own channel keeps owner rights over the channel
// record but is no longer a member, so posting is refused.
func TestSendMessageOwnerLeftChannel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")
	joinChannel(t, svc, "alice", "bob", id)

	if err := svc.LeaveChannel(ctx, "alice", id); err != nil {
		t.Fatalf("LeaveChannel: %v", err)
	}
	member, err := svc.IsMember(ctx, "alice", id)
	if err != nil {
		t.Fatalf("IsMember: %v", err)
	}
	if member {
		t.Fatal("alice still a member after leaving")
	}

	if _, err := svc.SendMessage(ctx, "alice", id, "hello"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}

	// ownership of the channel record itself is unaffected
	if err := svc.UpdateChannel(ctx, "alice", id, "renamed", nil); err != nil {
		t.Fatalf("UpdateChannel after leaving: %v", err)
	}
}

func TestRemoveMessageNonMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")
	messageID, err := svc.SendMessage(ctx, "alice", id, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if err := svc.RemoveMessage(ctx, "mallory", id, messageID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
}

func TestMessageIDsNeverReused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")

	first, err := svc.SendMessage(ctx, "alice", id, "one")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := svc.RemoveMessage(ctx, "alice", id, first); err != nil {
		t.Fatalf("RemoveMessage: %v", err)
	}

	second, err := svc.SendMessage(ctx, "alice", id, "two")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if second != first+1 {
		t.Fatalf("second message id = %d, want %d", second, first+1)
	}

	nonce, err := svc.MessageNonce(ctx, id)
	if err != nil {
		t.Fatalf("MessageNonce: %v", err)
	}
	if nonce != 2 {
		t.Fatalf("nonce = %d, want 2", nonce)
	}
}
