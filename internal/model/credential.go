package model

import "time"

// Credential is a single named username/password entry in a user's vault.
// OwnerID references users.id, is fixed at creation time and is never
// serialized in API responses.  Folder is an optional label used by
// clients to group entries.
type Credential struct {
	ID        string    `json:"id"`               // credentials.id
	OwnerID   string    `json:"-"`                // credentials.owner_id, immutable
	Title     string    `json:"title"`            // credentials.title
	Username  string    `json:"username"`         // credentials.username
	Password  string    `json:"password"`         // credentials.password (the stored secret)
	Folder    string    `json:"folder,omitempty"` // credentials.folder, optional
	CreatedAt time.Time `json:"created_at"`       // credentials.created_at
	UpdatedAt time.Time `json:"updated_at"`       // credentials.updated_at
}

// CredentialPatch carries a partial update.  Nil fields are left untouched;
// there is deliberately no owner field, ownership cannot be reassigned.
type CredentialPatch struct {
	Title    *string
	Username *string
	Password *string
	Folder   *string
}

// Empty reports whether the patch carries no fields at all.
func (p CredentialPatch) Empty() bool {
	return p.Title == nil && p.Username == nil && p.Password == nil && p.Folder == nil
}
