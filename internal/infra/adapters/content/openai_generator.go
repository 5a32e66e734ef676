package content

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"course-commerce/internal/domain/ports/adapter"
	"course-commerce/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ContentGenerator = (*OpenAIGenerator)(nil)

// referenceTokenBudget caps how much prior-lesson context rides along in a
// generation prompt. References beyond the budget are dropped oldest-first.
const referenceTokenBudget = 6000

// OpenAIGenerator implements the content port on the Chat Completions API.
type OpenAIGenerator struct {
	client openai.Client
	model  string
	enc    *tiktoken.Tiktoken
}

func NewOpenAIGenerator(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		enc:    enc,
	}, nil
}

func (o *OpenAIGenerator) Name() string { return "openai" }

func (o *OpenAIGenerator) GenerateLessonText(ctx context.Context, topic, level, courseTitle string, referenceTexts []string) (string, error) {
	start := time.Now()
	prompt := lessonPrompt(topic, level, courseTitle, o.trimReferences(referenceTexts))
	reply, err := o.complete(ctx, prompt)
	metrics.ObserveContentGeneration(o.Name(), "lesson", err == nil, float64(time.Since(start).Milliseconds()))
	return reply, err
}

func (o *OpenAIGenerator) GenerateQuizQuestions(ctx context.Context, lessonText string, count int) ([]adapter.GeneratedQuestion, error) {
	start := time.Now()
	reply, err := o.complete(ctx, quizPrompt(lessonText, count))
	if err != nil {
		metrics.ObserveContentGeneration(o.Name(), "quiz", false, float64(time.Since(start).Milliseconds()))
		return nil, err
	}
	questions, err := parseQuestions(reply, count)
	metrics.ObserveContentGeneration(o.Name(), "quiz", err == nil, float64(time.Since(start).Milliseconds()))
	return questions, err
}

func (o *OpenAIGenerator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a course author for an online learning platform."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("no choice content")
}

// trimReferences keeps the most recent references that fit the token budget.
func (o *OpenAIGenerator) trimReferences(refs []string) []string {
	budget := referenceTokenBudget
	kept := make([]string, 0, len(refs))
	for i := len(refs) - 1; i >= 0; i-- {
		n := len(o.enc.Encode(refs[i], nil, nil))
		if n > budget {
			break
		}
		budget -= n
		kept = append([]string{refs[i]}, kept...)
	}
	return kept
}
