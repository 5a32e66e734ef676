package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/adapter"
)

func lessonPrompt(topic, level, courseTitle string, referenceTexts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a self-contained lesson for the course %q.\n", courseTitle)
	fmt.Fprintf(&b, "Topic: %s\nAudience level: %s\n", topic, level)
	b.WriteString("Use plain prose with short sections. Do not include a quiz.\n")
	if len(referenceTexts) > 0 {
		b.WriteString("\nStay consistent with these earlier lessons:\n")
		for i, ref := range referenceTexts {
			fmt.Fprintf(&b, "--- reference %d ---\n%s\n", i+1, ref)
		}
	}
	return b.String()
}

func quizPrompt(lessonText string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d quiz questions for the lesson below.\n", count)
	b.WriteString(`Answer with a JSON array only, no prose. Each element:
{"prompt": string, "type": "single_choice"|"multi_choice"|"free_text",
 "options": [string], "correct_single": string, "correct_multi": [string]}
For single_choice, correct_single names one option. For multi_choice,
correct_multi names two or more options. For free_text, options is empty and
correct_single holds the expected answer.
`)
	b.WriteString("\n--- lesson ---\n")
	b.WriteString(lessonText)
	return b.String()
}

type rawQuestion struct {
	Prompt        string   `json:"prompt"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectSingle string   `json:"correct_single"`
	CorrectMulti  []string `json:"correct_multi"`
}

// parseQuestions tolerates a model wrapping the array in a markdown fence.
func parseQuestions(reply string, count int) ([]adapter.GeneratedQuestion, error) {
	reply = strings.TrimSpace(reply)
	if i := strings.Index(reply, "["); i >= 0 {
		if j := strings.LastIndex(reply, "]"); j > i {
			reply = reply[i : j+1]
		}
	}

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return nil, fmt.Errorf("parse generated questions: %w", err)
	}

	out := make([]adapter.GeneratedQuestion, 0, len(raw))
	for _, q := range raw {
		if q.Prompt == "" {
			continue
		}
		switch model.QuestionType(q.Type) {
		case model.QuestionTypeSingleChoice, model.QuestionTypeMultiChoice, model.QuestionTypeFreeText:
		default:
			continue
		}
		out = append(out, adapter.GeneratedQuestion{
			Prompt:        q.Prompt,
			Type:          q.Type,
			Options:       q.Options,
			CorrectSingle: q.CorrectSingle,
			CorrectMulti:  q.CorrectMulti,
		})
		if len(out) == count {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable questions in reply")
	}
	return out, nil
}
