package adapter

import "context"

// GeneratedQuestion is one question proposed by the content collaborator.
type GeneratedQuestion struct {
	Prompt        string
	Type          string // single_choice | multi_choice | free_text
	Options       []string
	CorrectSingle string
	CorrectMulti  []string
}

// ContentGenerator produces lesson text and quiz questions. It has no side
// effects on core state; failures never corrupt anything, they just surface.
type ContentGenerator interface {
	Name() string
	GenerateLessonText(ctx context.Context, topic, level, courseTitle string, referenceTexts []string) (string, error)
	GenerateQuizQuestions(ctx context.Context, lessonText string, count int) ([]GeneratedQuestion, error)
}

// SearchMatch is one ranked hit from the search index.
type SearchMatch struct {
	DocID string
	Score float64
}

// SearchIndex is the narrow contract towards the indexing collaborator.
// IndexText is fire-and-forget from the core's perspective: indexing failure
// must never fail the enclosing write.
type SearchIndex interface {
	IndexText(ctx context.Context, docID, text string, tags []string) error
	SearchSimilar(ctx context.Context, query string, k int, filterTags []string) ([]SearchMatch, error)
}
