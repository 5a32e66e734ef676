package content

import (
	"context"
	"fmt"

	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/adapter"
)

var _ adapter.ContentGenerator = (*NoopGenerator)(nil)

// NoopGenerator returns deterministic placeholder content for local/dev
// environments without provider credentials. The seeder depends on it.
type NoopGenerator struct{}

func NewNoopGenerator() *NoopGenerator { return &NoopGenerator{} }

func (g *NoopGenerator) Name() string { return "noop" }

func (g *NoopGenerator) GenerateLessonText(ctx context.Context, topic, level, courseTitle string, _ []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Placeholder lesson on %s (%s) for the course %q.", topic, level, courseTitle), nil
}

func (g *NoopGenerator) GenerateQuizQuestions(ctx context.Context, _ string, count int) ([]adapter.GeneratedQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	out := make([]adapter.GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, adapter.GeneratedQuestion{
			Prompt:        fmt.Sprintf("Placeholder question %d: pick option A.", i+1),
			Type:          string(model.QuestionTypeSingleChoice),
			Options:       []string{"A", "B", "C"},
			CorrectSingle: "A",
		})
	}
	return out, nil
}
