// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// VaultActivityEvent is published whenever a user mutates their vault.
// It carries enough for downstream consumers to build an audit trail
// without querying the primary database.  The stored secret is never part
// of the payload.
type VaultActivityEvent struct {
	UserID       string `json:"user_id"`
	CredentialID string `json:"credential_id"`
	Action       string `json:"action"` // created | updated | deleted
	Title        string `json:"title,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}
