package model

import "time"

// User is an account known to the platform. OrganizationID is empty for
// individual learners.
type User struct {
	ID             string // UUID
	Email          string // unique
	Name           string
	PasswordDigest string // bcrypt digest, never the raw secret
	OrganizationID string // UUID, optional
	CreatedAt      time.Time
}

// StudyGroup is a named set of users inside an organization, used for bulk
// enrollment.
type StudyGroup struct {
	ID             string // UUID
	OrganizationID string // UUID
	Name           string
	CreatedAt      time.Time
}
