// Package directory implements the group-messaging directory: channels,
// membership, join requests and the per-channel message ledger. All state
// lives in a transactional key-value store; every exported operation is one
// atomic step.
package directory

// AccountID is the attested identity of a caller, supplied by the
// authentication layer. The directory never mints accounts itself.
type AccountID string

type ChannelID = uint32

type RequestID = uint32

type MessageID = uint32

// Timestamp is a logical timestamp in milliseconds, supplied per call by
// the Clock collaborator.
type Timestamp = uint64

// Channel is the metadata record for a group channel. The owner is set at
// creation and never changes.
type Channel struct {
	Owner  AccountID `json:"owner"`
	Name   string    `json:"name"`
	ImgURL *string   `json:"imgUrl,omitempty"`
}

// ChannelRecord pairs a channel with its identifier for list responses.
type ChannelRecord struct {
	ChannelID ChannelID `json:"channelId"`
	Channel   Channel   `json:"channel"`
}

// Approval is the tri-state outcome on a join request.
type Approval string

const (
	ApprovalUnset    Approval = "unset"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

// Request is a join request. A request is pending until an owner decision
// settles it; settled requests stay stored but leave the pending index.
type Request struct {
	Sender      AccountID `json:"sender"`
	ChannelID   ChannelID `json:"channelId"`
	Approval    Approval  `json:"approval"`
	RequestedAt Timestamp `json:"requestedAt"`
}

// RequestDecision is one item of a batch approval: approve or reject the
// pending request of the given account.
type RequestDecision struct {
	Account  AccountID `json:"account"`
	Approved bool      `json:"approved"`
}

// ApprovalResult tallies a batch approval. Decisions without a matching
// pending request are counted, never errored.
type ApprovalResult struct {
	Approved uint32 `json:"approved"`
	Rejected uint32 `json:"rejected"`
	NotFound uint32 `json:"notFound"`
}

// PendingRequestRecord is a pending request with its identifiers, as
// returned by ListPendingRequests.
type PendingRequestRecord struct {
	ChannelID ChannelID `json:"channelId"`
	RequestID RequestID `json:"requestId"`
	Request   Request   `json:"request"`
}

// Message is one ledger entry. Messages are append-only; removal tombstones
// the id permanently.
type Message struct {
	Sender  AccountID `json:"sender"`
	Content string    `json:"content"`
	SentAt  Timestamp `json:"sentAt"`
}

// MessageRecord pairs a message with its per-channel identifier.
type MessageRecord struct {
	MessageID MessageID `json:"messageId"`
	Message   Message   `json:"message"`
}
