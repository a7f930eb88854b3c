package directory

import "fmt"

// ErrorKind splits failures the way callers branch on them: authorization
// versus domain validation.
type ErrorKind int

const (
	// KindUnauthorized means the caller lacks the required relationship to
	// the entity (owner, member, or message author).
	KindUnauthorized ErrorKind = iota
	// KindCustom covers domain-validation failures, identified by Reason.
	KindCustom
)

// Error is the typed failure returned by every directory operation.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == KindUnauthorized {
		return "unauthorized: " + e.Message
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is matches on kind and reason so sentinel comparisons with errors.Is work
// across wrapped errors.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind && e.Reason == other.Reason
}

const (
	ReasonChannelNotFound  = "channel-not-found"
	ReasonAlreadyMember    = "already-member"
	ReasonNotMember        = "not-member"
	ReasonDuplicateRequest = "duplicate-pending-request"
	ReasonMessageNotFound  = "message-not-found"
)

var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Message: "caller lacks the required relationship"}
	ErrChannelNotFound  = &Error{Kind: KindCustom, Reason: ReasonChannelNotFound, Message: "channel does not exist"}
	ErrAlreadyMember    = &Error{Kind: KindCustom, Reason: ReasonAlreadyMember, Message: "account is already a member of the channel"}
	ErrNotMember        = &Error{Kind: KindCustom, Reason: ReasonNotMember, Message: "account is not a member of the channel"}
	ErrDuplicateRequest = &Error{Kind: KindCustom, Reason: ReasonDuplicateRequest, Message: "a pending request for this channel already exists"}
	ErrMessageNotFound  = &Error{Kind: KindCustom, Reason: ReasonMessageNotFound, Message: "message does not exist"}
)
