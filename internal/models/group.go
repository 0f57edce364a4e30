package models

// Group represents a set of users who share expenses.
// A group owns a pairwise debt ledger; every expense and settlement in the
// group mutates that ledger.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Japan Trip").
	Name string

	// CreatedBy is the user ID of the group's creator.
	CreatedBy string

	// ChatID optionally binds the group to an external chat
	// (e.g. a messenger group the notifier posts into). Zero when unset.
	ChatID int64

	// MemberIDs is the list of user IDs in this group.
	MemberIDs []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the given user belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
