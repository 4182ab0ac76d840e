package model

import "time"

// User represents an application user record as stored in the `users`
// table.  IDs are application-assigned UUID strings so that the API never
// exposes sequential identifiers.  The password hash is a bcrypt digest;
// the plain password is never persisted.  Usernames are unique and
// case-sensitive (the table uses a binary collation).
type User struct {
	ID           string    `json:"id"`         // users.id
	Username     string    `json:"username"`   // users.username
	PasswordHash string    `json:"-"`          // users.password_hash, never serialized
	CreatedAt    time.Time `json:"created_at"` // users.created_at
}
