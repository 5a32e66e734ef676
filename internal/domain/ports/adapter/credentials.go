package adapter

// PasswordHasher is the credential collaborator: one-way digest plus
// constant-time verification.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}
