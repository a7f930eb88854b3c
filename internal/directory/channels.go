package directory

import (
	"context"

	"github.com/1cedrus/squid-chat/internal/rbac"
	"github.com/1cedrus/squid-chat/internal/store"
)

// getChannel is the single canonical existence check every channel-scoped
// operation goes through.
func getChannel(ctx context.Context, kv store.KV, id ChannelID) (Channel, error) {
	var ch Channel
	found, err := getJSON(ctx, kv, channelKey(id), &ch)
	if err != nil {
		return Channel{}, err
	}
	if !found {
		return Channel{}, ErrChannelNotFound
	}
	return ch, nil
}

// NewChannel creates a channel owned by the caller and adds the caller as
// its first member in the same atomic step.
func (s *Service) NewChannel(ctx context.Context, caller AccountID, name string, imgURL *string) (ChannelID, error) {
	var id ChannelID
	err := s.mutate(ctx, func(kv store.KV, ev *events) error {
		channelID, err := allocate(ctx, kv, channelNonceKey)
		if err != nil {
			return err
		}
		ch := Channel{Owner: caller, Name: name, ImgURL: imgURL}
		if err := putJSON(ctx, kv, channelKey(channelID), ch); err != nil {
			return err
		}
		if err := addMember(ctx, kv, ev, channelID, caller); err != nil {
			return err
		}
		ev.add(Event{Type: EventChannelCreated, ChannelID: channelID})
		id = channelID
		return nil
	})
	return id, err
}

// UpdateChannel replaces the channel's name and image reference. Both
// fields are always supplied; there is no partial update. Owner only.
func (s *Service) UpdateChannel(ctx context.Context, caller AccountID, id ChannelID, name string, imgURL *string) error {
	return s.mutate(ctx, func(kv store.KV, ev *events) error {
		ch, err := getChannel(ctx, kv, id)
		if err != nil {
			return err
		}
		member, err := memberOf(ctx, kv, id, caller)
		if err != nil {
			return err
		}
		if !rbac.Can(roleOf(ch, member, caller), rbac.ActionManage) {
			return ErrUnauthorized
		}
		ch.Name = name
		ch.ImgURL = imgURL
		if err := putJSON(ctx, kv, channelKey(id), ch); err != nil {
			return err
		}
		ev.add(Event{Type: EventChannelUpdated, ChannelID: id})
		return nil
	})
}

func (s *Service) GetChannelInfo(ctx context.Context, id ChannelID) (Channel, error) {
	var ch Channel
	err := s.view(ctx, func(kv store.KV) error {
		var err error
		ch, err = getChannel(ctx, kv, id)
		return err
	})
	return ch, err
}

// ListChannels pages over all channels in creation order. Channel ids are
// dense (channels are never deleted), so the nonce doubles as the total.
func (s *Service) ListChannels(ctx context.Context, from, perPage uint32) (Page[ChannelRecord], error) {
	perPage = clampPerPage(perPage)
	var page Page[ChannelRecord]
	err := s.view(ctx, func(kv store.KV) error {
		total, err := getUint32(ctx, kv, channelNonceKey)
		if err != nil {
			return err
		}
		start, end, hasNext := forwardWindow(total, from, perPage)

		items := make([]ChannelRecord, 0, end-start)
		for id := start; id < end; id++ {
			var ch Channel
			found, err := getJSON(ctx, kv, channelKey(id), &ch)
			if err != nil {
				return err
			}
			if found {
				items = append(items, ChannelRecord{ChannelID: id, Channel: ch})
			}
		}

		page = Page[ChannelRecord]{Items: items, From: from, PerPage: perPage, HasNextPage: hasNext, Total: total}
		return nil
	})
	return page, err
}
