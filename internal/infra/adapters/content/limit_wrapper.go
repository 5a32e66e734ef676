package content

import (
	"context"

	"course-commerce/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ContentGenerator = (*limitedGenerator)(nil)

type limitedGenerator struct {
	inner adapter.ContentGenerator
	sem   chan struct{}
}

// NewLimitedGenerator bounds concurrent provider calls with a semaphore.
func NewLimitedGenerator(inner adapter.ContentGenerator, maxConcurrent int) adapter.ContentGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGenerator) Name() string { return l.inner.Name() }

func (l *limitedGenerator) GenerateLessonText(ctx context.Context, topic, level, courseTitle string, referenceTexts []string) (string, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.GenerateLessonText(ctx, topic, level, courseTitle, referenceTexts)
}

func (l *limitedGenerator) GenerateQuizQuestions(ctx context.Context, lessonText string, count int) ([]adapter.GeneratedQuestion, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.GenerateQuizQuestions(ctx, lessonText, count)
}
