package types

import "time"

// User represents an account in the task tracker.
// It carries the login identity and audit metadata.
type User struct {
	// ID is the unique identifier of the user. It is the subject of every
	// token issued for this account and the owner reference of its tasks.
	ID string `json:"id" db:"id"`

	// Email is the lowercase, unique login address of the user.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
