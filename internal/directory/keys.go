package directory

import "fmt"

// Composite keys under which directory state lives in the KV store. The
// bidirectional membership indexes and the registrant index are only ever
// written through the primitives in members.go and requests.go.

const (
	channelNonceKey = "nonce/channel"
	requestNonceKey = "nonce/request"
)

func channelKey(id ChannelID) string {
	return fmt.Sprintf("channel/%d", id)
}

func channelMembersKey(id ChannelID) string {
	return fmt.Sprintf("channel_members/%d", id)
}

func memberChannelsKey(who AccountID) string {
	return fmt.Sprintf("member_channels/%s", who)
}

func requestKey(id RequestID) string {
	return fmt.Sprintf("request/%d", id)
}

func pendingRequestsKey(id ChannelID) string {
	return fmt.Sprintf("pending_requests/%d", id)
}

func registrantRequestKey(who AccountID, id ChannelID) string {
	return fmt.Sprintf("registrant_request/%s/%d", who, id)
}

func messageKey(channelID ChannelID, messageID MessageID) string {
	return fmt.Sprintf("message/%d/%d", channelID, messageID)
}

func messageNonceKey(id ChannelID) string {
	return fmt.Sprintf("nonce/message/%d", id)
}

func messageCountKey(id ChannelID) string {
	return fmt.Sprintf("count/message/%d", id)
}
