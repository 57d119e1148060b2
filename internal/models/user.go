package models

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// DisplayName is shown in balances and transfers. May be empty.
	DisplayName string

	// Email is the user's email address (unique).
	Email string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}

// Name returns the best available label: display name, then email, then ID.
func (u *User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}
