// File: internal/infra/adapters/content/gemini_generator.go
package content

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"course-commerce/internal/domain/ports/adapter"
	"course-commerce/internal/infra/metrics"
)

var _ adapter.ContentGenerator = (*GeminiGenerator)(nil)

type GeminiGenerator struct {
	client *genai.Client
	model  string
	maxOut int
}

// NewGeminiGenerator creates a Gemini-backed generator using the official SDK.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxOut int) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: c, model: model, maxOut: maxOut}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) GenerateLessonText(ctx context.Context, topic, level, courseTitle string, referenceTexts []string) (string, error) {
	start := time.Now()
	reply, err := g.generate(ctx, lessonPrompt(topic, level, courseTitle, referenceTexts))
	metrics.ObserveContentGeneration(g.Name(), "lesson", err == nil, float64(time.Since(start).Milliseconds()))
	return reply, err
}

func (g *GeminiGenerator) GenerateQuizQuestions(ctx context.Context, lessonText string, count int) ([]adapter.GeneratedQuestion, error) {
	start := time.Now()
	reply, err := g.generate(ctx, quizPrompt(lessonText, count))
	if err != nil {
		metrics.ObserveContentGeneration(g.Name(), "quiz", false, float64(time.Since(start).Milliseconds()))
		return nil, err
	}
	questions, err := parseQuestions(reply, count)
	metrics.ObserveContentGeneration(g.Name(), "quiz", err == nil, float64(time.Since(start).Milliseconds()))
	return questions, err
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	}}
	var cfg *genai.GenerateContentConfig
	if g.maxOut > 0 {
		cfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxOut)}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if t := resp.Candidates[0].Content.Parts[0].Text; t != "" {
			return t, nil
		}
	}
	return "", errors.New("gemini: empty candidate")
}
