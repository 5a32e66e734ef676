package model

import "time"

// Course is purchasable learning content. Price is in minor currency units;
// a zero price means the course is free to enroll.
type Course struct {
	ID         string // UUID
	Title      string
	Topic      string
	Level      string // e.g. "beginner", "intermediate", "advanced"
	PriceMinor int64
	Currency   string
	CreatedAt  time.Time
}

// Lesson is one unit of course content. Position orders lessons within a course.
type Lesson struct {
	ID        string // UUID
	CourseID  string // UUID
	Title     string
	Body      string
	Position  int
	CreatedAt time.Time
}

// LessonCompletion marks a lesson as done by a user. The (UserID, LessonID)
// pair is unique; completing twice is a no-op.
type LessonCompletion struct {
	UserID      string
	LessonID    string
	CourseID    string
	CompletedAt time.Time
}
