package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewChannelCreatorIsSoleMember(t *testing.T) {
	svc, sink := newTestService(t)
	ctx := context.Background()

	id := mustCreateChannel(t, svc, "alice", "general")
	if id != 0 {
		t.Fatalf("first channel id = %d, want 0", id)
	}

	ch, err := svc.GetChannelInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetChannelInfo: %v", err)
	}
	if ch.Owner != "alice" || ch.Name != "general" {
		t.Fatalf("unexpected channel %+v", ch)
	}

	members, err := svc.GetChannelMembers(ctx, id)
	if err != nil {
		t.Fatalf("GetChannelMembers: %v", err)
	}
	if diff := cmp.Diff([]AccountID{"alice"}, members); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}

	records, err := svc.GetMemberChannels(ctx, "alice")
	if err != nil {
		t.Fatalf("GetMemberChannels: %v", err)
	}
	if len(records) != 1 || records[0].ChannelID != id {
		t.Fatalf("member channels = %+v, want channel %d", records, id)
	}

	want := []EventType{EventMemberJoined, EventChannelCreated}
	if diff := cmp.Diff(want, sink.types()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelIDsAreMonotonic(t *testing.T) {
	svc, _ := newTestService(t)

	for i := uint32(0); i < 3; i++ {
		if id := mustCreateChannel(t, svc, "alice", "ch"); id != i {
			t.Fatalf("channel id = %d, want %d", id, i)
		}
	}
}

func TestGetChannelInfoUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetChannelInfo(context.Background(), 42)
	if !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("err = %v, want ErrChannelNotFound", err)
	}
}

func TestUpdateChannel(t *testing.T) {
	svc, sink := newTestService(t)
	ctx := context.Background()
	id := mustCreateChannel(t, svc, "alice", "general")

	if err := svc.UpdateChannel(ctx, "bob", id, "hijacked", nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner update err = %v, want ErrUnauthorized", err)
	}
	if err := svc.UpdateChannel(ctx, "alice", 99, "nope", nil); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("unknown channel update err = %v, want ErrChannelNotFound", err)
	}

	img := "ipfs://Qm123"
	if err := svc.UpdateChannel(ctx, "alice", id, "announcements", &img); err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	ch, err := svc.GetChannelInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetChannelInfo: %v", err)
	}
	if ch.Name != "announcements" || ch.ImgURL == nil || *ch.ImgURL != img {
		t.Fatalf("unexpected channel after update: %+v", ch)
	}
	if ch.Owner != "alice" {
		t.Fatalf("owner changed on update: %+v", ch)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != EventChannelUpdated || last.ChannelID != id {
		t.Fatalf("last event = %+v, want ChannelUpdated for channel %d", last, id)
	}
}

func TestListChannels(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	names := []string{"one", "two", "three"}
	for _, name := range names {
		mustCreateChannel(t, svc, "alice", name)
	}

	page, err := svc.ListChannels(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(page.Items) != 2 || !page.HasNextPage || page.Total != 3 {
		t.Fatalf("page = %+v, want 2 items, hasNext, total 3", page)
	}
	if page.Items[0].Channel.Name != "one" || page.Items[1].Channel.Name != "two" {
		t.Fatalf("unexpected order: %+v", page.Items)
	}

	page, err = svc.ListChannels(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(page.Items) != 1 || page.HasNextPage {
		t.Fatalf("page = %+v, want 1 item and no next page", page)
	}
	if page.Items[0].Channel.Name != "three" {
		t.Fatalf("unexpected last item: %+v", page.Items[0])
	}
}

func TestListChannelsClampsPerPage(t *testing.T) {
	svc, _ := newTestService(t)

	page, err := svc.ListChannels(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if page.PerPage != 50 {
		t.Fatalf("perPage = %d, want 50", page.PerPage)
	}
}
