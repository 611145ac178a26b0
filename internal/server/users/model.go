package users

import "time"

// User is the persisted account record. Email is the unique identity: at
// most one row per email ever exists, enforced by a unique index in storage.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the password-free view of a user returned by the signin and
// verification operations.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}
