// File: internal/infra/adapters/content/multi_generator.go
package content

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"course-commerce/internal/domain/ports/adapter"
)

var _ adapter.ContentGenerator = (*MultiGenerator)(nil)

// MultiGenerator tries each configured provider in order and returns the
// first success. A provider error is logged and the next provider takes over;
// only when every provider fails does the caller see an error.
type MultiGenerator struct {
	providers []adapter.ContentGenerator
	log       zerolog.Logger
}

func NewMultiGenerator(log zerolog.Logger, providers ...adapter.ContentGenerator) *MultiGenerator {
	return &MultiGenerator{
		providers: providers,
		log:       log.With().Str("component", "multi-generator").Logger(),
	}
}

func (m *MultiGenerator) Name() string { return "multi" }

func (m *MultiGenerator) GenerateLessonText(ctx context.Context, topic, level, courseTitle string, referenceTexts []string) (string, error) {
	var lastErr error
	for _, p := range m.providers {
		text, err := p.GenerateLessonText(ctx, topic, level, courseTitle, referenceTexts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		m.log.Warn().Err(err).Str("provider", p.Name()).Msg("lesson generation failed, trying next provider")
	}
	if lastErr == nil {
		lastErr = errors.New("no content providers configured")
	}
	return "", lastErr
}

func (m *MultiGenerator) GenerateQuizQuestions(ctx context.Context, lessonText string, count int) ([]adapter.GeneratedQuestion, error) {
	var lastErr error
	for _, p := range m.providers {
		questions, err := p.GenerateQuizQuestions(ctx, lessonText, count)
		if err == nil {
			return questions, nil
		}
		lastErr = err
		m.log.Warn().Err(err).Str("provider", p.Name()).Msg("quiz generation failed, trying next provider")
	}
	if lastErr == nil {
		lastErr = errors.New("no content providers configured")
	}
	return nil, lastErr
}
