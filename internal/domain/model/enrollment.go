package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusInactive EnrollmentStatus = "inactive"
)

// Enrollment is a user's access grant to a course. The (UserID, CourseID) pair
// is unique; re-enrollment returns the existing record instead of creating a
// duplicate. Enrollments are never hard-deleted in normal operation.
type Enrollment struct {
	ID        string // UUID
	UserID    string // UUID
	CourseID  string // UUID
	Status    EnrollmentStatus
	CreatedAt time.Time
}
