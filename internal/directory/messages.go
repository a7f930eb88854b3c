package directory

import (
	"context"

	"github.com/1cedrus/squid-chat/internal/rbac"
	"github.com/1cedrus/squid-chat/internal/store"
)

// The ledger keeps two numbers per channel: the nonce (next id, defines the
// id space and never goes down) and the live count (existing messages,
// decremented on removal). Windows are computed over the id space; the
// count is what list responses report as total.

// SendMessage appends to the channel's ledger. Members only.
func (s *Service) SendMessage(ctx context.Context, caller AccountID, channelID ChannelID, content string) (MessageID, error) {
	now := s.clock.Now()
	var id MessageID
	err := s.mutate(ctx, func(kv store.KV, ev *events) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		member, err := memberOf(ctx, kv, channelID, caller)
		if err != nil {
			return err
		}
		// Posting flows from membership alone; ownership does not stand in
		// for it, so an owner who left the channel cannot post.
		role := rbac.RoleStranger
		if member {
			role = rbac.RoleMember
		}
		if !rbac.Can(role, rbac.ActionPost) {
			return ErrNotMember
		}

		messageID, err := allocate(ctx, kv, messageNonceKey(channelID))
		if err != nil {
			return err
		}
		msg := Message{Sender: caller, Content: content, SentAt: now}
		if err := putJSON(ctx, kv, messageKey(channelID, messageID), msg); err != nil {
			return err
		}
		count, err := getUint32(ctx, kv, messageCountKey(channelID))
		if err != nil {
			return err
		}
		if err := putJSON(ctx, kv, messageCountKey(channelID), count+1); err != nil {
			return err
		}

		ev.add(Event{Type: EventMessageSent, ChannelID: channelID, MessageID: &messageID})
		id = messageID
		return nil
	})
	return id, err
}

// RemoveMessage tombstones a ledger entry. The id is retired for good; only
// the author or the channel owner may remove, and removing an id that does
// not exist (never issued or already removed) is a caller error.
func (s *Service) RemoveMessage(ctx context.Context, caller AccountID, channelID ChannelID, messageID MessageID) error {
	return s.mutate(ctx, func(kv store.KV, ev *events) error {
		ch, err := getChannel(ctx, kv, channelID)
		if err != nil {
			return err
		}
		member, err := memberOf(ctx, kv, channelID, caller)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotMember
		}

		var msg Message
		found, err := getJSON(ctx, kv, messageKey(channelID, messageID), &msg)
		if err != nil {
			return err
		}
		if !found {
			return ErrMessageNotFound
		}
		if !isAuthor(msg, caller) && !rbac.Can(roleOf(ch, member, caller), rbac.ActionModerate) {
			return ErrUnauthorized
		}

		if err := kv.Delete(ctx, messageKey(channelID, messageID)); err != nil {
			return err
		}
		count, err := getUint32(ctx, kv, messageCountKey(channelID))
		if err != nil {
			return err
		}
		if err := putJSON(ctx, kv, messageCountKey(channelID), saturatingSub(count, 1)); err != nil {
			return err
		}

		ev.add(Event{Type: EventMessageDeleted, ChannelID: channelID, MessageID: &messageID})
		return nil
	})
}

// ListMessages pages over the ledger most recent first; from counts back
// from the newest message. Tombstoned ids inside the window are skipped
// silently, so a page may carry fewer items than per-page even on the last
// page.
func (s *Service) ListMessages(ctx context.Context, channelID ChannelID, from, perPage uint32) (Page[MessageRecord], error) {
	perPage = clampPerPage(perPage)
	var page Page[MessageRecord]
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		nonce, err := getUint32(ctx, kv, messageNonceKey(channelID))
		if err != nil {
			return err
		}
		count, err := getUint32(ctx, kv, messageCountKey(channelID))
		if err != nil {
			return err
		}
		start, end, hasNext := reverseWindow(nonce, from, perPage)

		items := make([]MessageRecord, 0, end-start)
		for id := end; id > start; id-- {
			messageID := id - 1
			var msg Message
			found, err := getJSON(ctx, kv, messageKey(channelID, messageID), &msg)
			if err != nil {
				return err
			}
			if found {
				items = append(items, MessageRecord{MessageID: messageID, Message: msg})
			}
		}

		page = Page[MessageRecord]{Items: items, From: from, PerPage: perPage, HasNextPage: hasNext, Total: count}
		return nil
	})
	return page, err
}

// MessageNonce returns the channel's next message id, i.e. how many ids
// have ever been issued.
func (s *Service) MessageNonce(ctx context.Context, channelID ChannelID) (uint32, error) {
	var nonce uint32
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		var err error
		nonce, err = getUint32(ctx, kv, messageNonceKey(channelID))
		return err
	})
	return nonce, err
}
