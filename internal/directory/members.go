package directory

import (
	"context"

	"github.com/1cedrus/squid-chat/internal/rbac"
	"github.com/1cedrus/squid-chat/internal/store"
)

// The membership relation is materialized twice: channel→members and
// member→channels. addMember and removeMember are the only writers of
// either index and always write both, which is what keeps the two
// directions consistent. Callers are responsible for authorization.

func addMember(ctx context.Context, kv store.KV, ev *events, channelID ChannelID, who AccountID) error {
	var members []AccountID
	if _, err := getJSON(ctx, kv, channelMembersKey(channelID), &members); err != nil {
		return err
	}
	var channels []ChannelID
	if _, err := getJSON(ctx, kv, memberChannelsKey(who), &channels); err != nil {
		return err
	}
	if containsAccount(members, who) || containsChannel(channels, channelID) {
		return ErrAlreadyMember
	}

	members = append(members, who)
	channels = append(channels, channelID)
	if err := putJSON(ctx, kv, channelMembersKey(channelID), members); err != nil {
		return err
	}
	if err := putJSON(ctx, kv, memberChannelsKey(who), channels); err != nil {
		return err
	}

	ev.add(Event{Type: EventMemberJoined, ChannelID: channelID, AccountID: who})
	return nil
}

func removeMember(ctx context.Context, kv store.KV, ev *events, channelID ChannelID, who AccountID) error {
	var members []AccountID
	if _, err := getJSON(ctx, kv, channelMembersKey(channelID), &members); err != nil {
		return err
	}
	var channels []ChannelID
	if _, err := getJSON(ctx, kv, memberChannelsKey(who), &channels); err != nil {
		return err
	}
	if !containsAccount(members, who) || !containsChannel(channels, channelID) {
		return ErrNotMember
	}

	members = withoutAccount(members, who)
	channels = withoutChannel(channels, channelID)
	if err := putJSON(ctx, kv, channelMembersKey(channelID), members); err != nil {
		return err
	}
	if err := putJSON(ctx, kv, memberChannelsKey(who), channels); err != nil {
		return err
	}

	ev.add(Event{Type: EventMemberLeft, ChannelID: channelID, AccountID: who})
	return nil
}

func memberOf(ctx context.Context, kv store.KV, channelID ChannelID, who AccountID) (bool, error) {
	var members []AccountID
	if _, err := getJSON(ctx, kv, channelMembersKey(channelID), &members); err != nil {
		return false, err
	}
	return containsAccount(members, who), nil
}

// IsMember reports whether the account belongs to the channel.
func (s *Service) IsMember(ctx context.Context, who AccountID, channelID ChannelID) (bool, error) {
	var member bool
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		var err error
		member, err = memberOf(ctx, kv, channelID, who)
		return err
	})
	return member, err
}

// LeaveChannel removes the caller from the channel. Removing yourself needs
// no owner approval; membership is the only requirement.
func (s *Service) LeaveChannel(ctx context.Context, caller AccountID, channelID ChannelID) error {
	return s.removeMemberAs(ctx, caller, caller, channelID)
}

// KickMember removes another account from the channel. Owner only.
func (s *Service) KickMember(ctx context.Context, caller, who AccountID, channelID ChannelID) error {
	return s.removeMemberAs(ctx, caller, who, channelID)
}

// removeMemberAs is the shared removal path behind leave and kick: the
// subject may remove themselves, a moderator role may remove anyone.
func (s *Service) removeMemberAs(ctx context.Context, caller, subject AccountID, channelID ChannelID) error {
	return s.mutate(ctx, func(kv store.KV, ev *events) error {
		ch, err := getChannel(ctx, kv, channelID)
		if err != nil {
			return err
		}
		if !isSelf(caller, subject) {
			member, err := memberOf(ctx, kv, channelID, caller)
			if err != nil {
				return err
			}
			if !rbac.Can(roleOf(ch, member, caller), rbac.ActionModerate) {
				return ErrUnauthorized
			}
		}
		return removeMember(ctx, kv, ev, channelID, subject)
	})
}

// ListMembers pages over the channel's member list in join order.
func (s *Service) ListMembers(ctx context.Context, channelID ChannelID, from, perPage uint32) (Page[AccountID], error) {
	perPage = clampPerPage(perPage)
	var page Page[AccountID]
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		var members []AccountID
		if _, err := getJSON(ctx, kv, channelMembersKey(channelID), &members); err != nil {
			return err
		}
		total := uint32(len(members))
		start, end, hasNext := forwardWindow(total, from, perPage)

		items := make([]AccountID, end-start)
		copy(items, members[start:end])

		page = Page[AccountID]{Items: items, From: from, PerPage: perPage, HasNextPage: hasNext, Total: total}
		return nil
	})
	return page, err
}

// GetChannelMembers returns the full member list of a channel.
func (s *Service) GetChannelMembers(ctx context.Context, channelID ChannelID) ([]AccountID, error) {
	var members []AccountID
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		_, err := getJSON(ctx, kv, channelMembersKey(channelID), &members)
		return err
	})
	return members, err
}

// GetMemberChannels returns every channel the account belongs to, resolved
// to full records.
func (s *Service) GetMemberChannels(ctx context.Context, who AccountID) ([]ChannelRecord, error) {
	var records []ChannelRecord
	err := s.view(ctx, func(kv store.KV) error {
		var channels []ChannelID
		if _, err := getJSON(ctx, kv, memberChannelsKey(who), &channels); err != nil {
			return err
		}
		records = make([]ChannelRecord, 0, len(channels))
		for _, id := range channels {
			var ch Channel
			found, err := getJSON(ctx, kv, channelKey(id), &ch)
			if err != nil {
				return err
			}
			if found {
				records = append(records, ChannelRecord{ChannelID: id, Channel: ch})
			}
		}
		return nil
	})
	return records, err
}

func containsAccount(list []AccountID, who AccountID) bool {
	for _, a := range list {
		if a == who {
			return true
		}
	}
	return false
}

func containsChannel(list []ChannelID, id ChannelID) bool {
	for _, c := range list {
		if c == id {
			return true
		}
	}
	return false
}

func withoutAccount(list []AccountID, who AccountID) []AccountID {
	out := list[:0]
	for _, a := range list {
		if a != who {
			out = append(out, a)
		}
	}
	return out
}

func withoutChannel(list []ChannelID, id ChannelID) []ChannelID {
	out := list[:0]
	for _, c := range list {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}
