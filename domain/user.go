package domain

import "time"

// User represents an account keyed by email. PasswordHash is empty for
// accounts created through Google sign-in until the user sets one.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Google       bool      `json:"google"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether a local password is set for this account.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
