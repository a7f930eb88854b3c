package directory

import (
	"context"

	"github.com/1cedrus/squid-chat/internal/rbac"
	"github.com/1cedrus/squid-chat/internal/store"
)

// pendingRequestFor resolves the account's request against the channel's
// pending index. A settled request stays stored but is no longer pending,
// so it does not match here.
func pendingRequestFor(ctx context.Context, kv store.KV, who AccountID, channelID ChannelID, pending []RequestID) (RequestID, Request, bool, error) {
	var requestID RequestID
	found, err := getJSON(ctx, kv, registrantRequestKey(who, channelID), &requestID)
	if err != nil || !found {
		return 0, Request{}, false, err
	}
	if !containsRequest(pending, requestID) {
		return 0, Request{}, false, nil
	}
	var req Request
	if _, err := getJSON(ctx, kv, requestKey(requestID), &req); err != nil {
		return 0, Request{}, false, err
	}
	return requestID, req, true, nil
}

// SendRequest files a join request for the caller. A member cannot request,
// and only one pending request per (sender, channel) pair may exist; a
// settled prior request does not block a new one, which always gets a
// fresh id.
func (s *Service) SendRequest(ctx context.Context, caller AccountID, channelID ChannelID) (RequestID, error) {
	now := s.clock.Now()
	var id RequestID
	err := s.mutate(ctx, func(kv store.KV, ev *events) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		member, err := memberOf(ctx, kv, channelID, caller)
		if err != nil {
			return err
		}
		if member {
			return ErrAlreadyMember
		}

		var pending []RequestID
		if _, err := getJSON(ctx, kv, pendingRequestsKey(channelID), &pending); err != nil {
			return err
		}
		var prior RequestID
		if found, err := getJSON(ctx, kv, registrantRequestKey(caller, channelID), &prior); err != nil {
			return err
		} else if found && containsRequest(pending, prior) {
			return ErrDuplicateRequest
		}

		requestID, err := allocate(ctx, kv, requestNonceKey)
		if err != nil {
			return err
		}
		req := Request{Sender: caller, ChannelID: channelID, Approval: ApprovalUnset, RequestedAt: now}
		if err := putJSON(ctx, kv, requestKey(requestID), req); err != nil {
			return err
		}
		if err := putJSON(ctx, kv, registrantRequestKey(caller, channelID), requestID); err != nil {
			return err
		}
		if err := putJSON(ctx, kv, pendingRequestsKey(channelID), append(pending, requestID)); err != nil {
			return err
		}

		ev.add(Event{Type: EventRequestSent, ChannelID: channelID, AccountID: caller, RequestID: &requestID})
		id = requestID
		return nil
	})
	return id, err
}

// ApproveRequests settles a batch of decisions. Owner only. Each decision
// is handled independently: no matching pending request counts as not
// found, approval adds the member through the one membership primitive,
// rejection records the outcome and nothing else. The pending list is
// rewritten once at the end so the batch mutates it as a unit.
func (s *Service) ApproveRequests(ctx context.Context, caller AccountID, channelID ChannelID, decisions []RequestDecision) (ApprovalResult, error) {
	var result ApprovalResult
	err := s.mutate(ctx, func(kv store.KV, ev *events) error {
		result = ApprovalResult{}
		ch, err := getChannel(ctx, kv, channelID)
		if err != nil {
			return err
		}
		member, err := memberOf(ctx, kv, channelID, caller)
		if err != nil {
			return err
		}
		if !rbac.Can(roleOf(ch, member, caller), rbac.ActionModerate) {
			return ErrUnauthorized
		}

		var pending []RequestID
		if _, err := getJSON(ctx, kv, pendingRequestsKey(channelID), &pending); err != nil {
			return err
		}

		var settled []RequestID
		for _, decision := range decisions {
			requestID, req, found, err := pendingRequestFor(ctx, kv, decision.Account, channelID, pending)
			if err != nil {
				return err
			}
			if !found {
				result.NotFound++
				continue
			}
			settled = append(settled, requestID)

			if decision.Approved {
				if err := addMember(ctx, kv, ev, channelID, decision.Account); err != nil {
					return err
				}
				req.Approval = ApprovalApproved
				result.Approved++
			} else {
				req.Approval = ApprovalRejected
				result.Rejected++
			}
			if err := putJSON(ctx, kv, requestKey(requestID), req); err != nil {
				return err
			}
		}

		remaining := pending[:0]
		for _, id := range pending {
			if !containsRequest(settled, id) {
				remaining = append(remaining, id)
			}
		}
		if err := putJSON(ctx, kv, pendingRequestsKey(channelID), remaining); err != nil {
			return err
		}

		ev.add(Event{Type: EventApprovalSubmitted, ChannelID: channelID, Result: &result})
		return nil
	})
	return result, err
}

// PendingRequestsCount returns the size of the channel's pending index.
func (s *Service) PendingRequestsCount(ctx context.Context, channelID ChannelID) (uint32, error) {
	var count uint32
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		var pending []RequestID
		if _, err := getJSON(ctx, kv, pendingRequestsKey(channelID), &pending); err != nil {
			return err
		}
		count = uint32(len(pending))
		return nil
	})
	return count, err
}

// ListPendingRequests pages over the channel's pending requests in arrival
// order.
func (s *Service) ListPendingRequests(ctx context.Context, channelID ChannelID, from, perPage uint32) (Page[PendingRequestRecord], error) {
	perPage = clampPerPage(perPage)
	var page Page[PendingRequestRecord]
	err := s.view(ctx, func(kv store.KV) error {
		if _, err := getChannel(ctx, kv, channelID); err != nil {
			return err
		}
		var pending []RequestID
		if _, err := getJSON(ctx, kv, pendingRequestsKey(channelID), &pending); err != nil {
			return err
		}
		total := uint32(len(pending))
		start, end, hasNext := forwardWindow(total, from, perPage)

		items := make([]PendingRequestRecord, 0, end-start)
		for _, requestID := range pending[start:end] {
			var req Request
			found, err := getJSON(ctx, kv, requestKey(requestID), &req)
			if err != nil {
				return err
			}
			if found {
				items = append(items, PendingRequestRecord{ChannelID: channelID, RequestID: requestID, Request: req})
			}
		}

		page = Page[PendingRequestRecord]{Items: items, From: from, PerPage: perPage, HasNextPage: hasNext, Total: total}
		return nil
	})
	return page, err
}

func containsRequest(list []RequestID, id RequestID) bool {
	for _, r := range list {
		if r == id {
			return true
		}
	}
	return false
}
