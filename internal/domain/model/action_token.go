package model

import "time"

type TokenPurpose string

const (
	TokenPurposePasswordReset TokenPurpose = "password_reset"
	TokenPurposeEmailVerify   TokenPurpose = "email_verify"
)

// ActionToken is a single-use, time-bound capability. Only the SHA-256 digest
// of the opaque token is stored; the raw value is handed to the subject once
// at issue time. Consuming marks the token used, so replays fail.
type ActionToken struct {
	ID        string // UUID
	SubjectID string // UUID of the user the token acts for
	Purpose   TokenPurpose
	Digest    string // hex SHA-256 of the raw token
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be consumed at the given instant.
func (t *ActionToken) Usable(at time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(at)
}
