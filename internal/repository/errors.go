// Package repository contains data access logic separated from HTTP
// handlers.  Sentinel errors defined here let handlers map storage
// outcomes to HTTP statuses without inspecting driver errors themselves.
package repository

import "errors"

// ErrUserExists is returned when a register attempt collides with an
// existing username.  Handlers translate it into HTTP 409.
var ErrUserExists = errors.New("username already exists")

// ErrCredentialNotFound is returned when a credential does not exist under
// the requesting owner.  It deliberately covers both "no such row" and
// "row owned by someone else" so that the existence of another user's
// entry is never confirmed.  Handlers translate it into HTTP 404.
var ErrCredentialNotFound = errors.New("credential not found")
