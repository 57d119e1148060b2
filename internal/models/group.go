package models

// MemberStatus is the lifecycle state of a group membership.
type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberLeft   MemberStatus = "left"
)

// Group is a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Members lists every membership ever recorded, including people who left.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member links a user to a group.
type Member struct {
	UserID   string
	Status   MemberStatus
	JoinedAt int64
}

// ActiveMemberIDs returns the user IDs of active members in stored order.
func (g *Group) ActiveMemberIDs() []string {
	var ids []string
	for _, m := range g.Members {
		if m.Status == MemberActive {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// IsActiveMember reports whether userID currently belongs to the group.
func (g *Group) IsActiveMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID && m.Status == MemberActive {
			return true
		}
	}
	return false
}
