// Package rbac maps an account's role within a channel to the actions that
// role permits.
package rbac

type Role string
type Action string

const (
	RoleStranger Role = "stranger"
	RoleMember   Role = "member"
	RoleOwner    Role = "owner"
)

const (
	// ActionRead covers the public views: channel info, listings, counts.
	ActionRead Action = "read"
	// ActionPost covers appending messages to the channel ledger.
	ActionPost Action = "post"
	// ActionModerate covers settling join requests, kicking members, and
	// removing other members' messages.
	ActionModerate Action = "moderate"
	// ActionManage covers editing the channel record itself.
	ActionManage Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleMember:
		return action == ActionRead || action == ActionPost
	case RoleStranger:
		return action == ActionRead
	default:
		return false
	}
}
