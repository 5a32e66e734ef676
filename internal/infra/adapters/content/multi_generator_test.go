//go:build !integration

package content

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"course-commerce/internal/domain/ports/adapter"
)

type stubGenerator struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) GenerateLessonText(context.Context, string, string, string, []string) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *stubGenerator) GenerateQuizQuestions(context.Context, string, int) ([]adapter.GeneratedQuestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []adapter.GeneratedQuestion{{Prompt: s.name, Type: "free_text", CorrectSingle: "x"}}, nil
}

func TestMultiGeneratorFailover(t *testing.T) {
	ctx := context.Background()

	t.Run("first healthy provider wins", func(t *testing.T) {
		primary := &stubGenerator{name: "primary", text: "from primary"}
		backup := &stubGenerator{name: "backup", text: "from backup"}
		m := NewMultiGenerator(zerolog.Nop(), primary, backup)

		text, err := m.GenerateLessonText(ctx, "t", "l", "c", nil)
		if err != nil {
			t.Fatalf("GenerateLessonText() error = %v", err)
		}
		if text != "from primary" {
			t.Errorf("text = %q, want primary's", text)
		}
		if backup.calls != 0 {
			t.Errorf("backup called %d times, want 0", backup.calls)
		}
	})

	t.Run("falls over to the next provider", func(t *testing.T) {
		primary := &stubGenerator{name: "primary", err: errors.New("quota exceeded")}
		backup := &stubGenerator{name: "backup", text: "from backup"}
		m := NewMultiGenerator(zerolog.Nop(), primary, backup)

		text, err := m.GenerateLessonText(ctx, "t", "l", "c", nil)
		if err != nil {
			t.Fatalf("GenerateLessonText() error = %v", err)
		}
		if text != "from backup" {
			t.Errorf("text = %q, want backup's", text)
		}
	})

	t.Run("all providers failing returns the last error", func(t *testing.T) {
		a := &stubGenerator{name: "a", err: errors.New("first down")}
		b := &stubGenerator{name: "b", err: errors.New("second down")}
		m := NewMultiGenerator(zerolog.Nop(), a, b)

		_, err := m.GenerateLessonText(ctx, "t", "l", "c", nil)
		if err == nil {
			t.Fatal("GenerateLessonText() error = nil, want failure")
		}
		if a.calls != 1 || b.calls != 1 {
			t.Errorf("calls = %d/%d, want 1/1", a.calls, b.calls)
		}
	})

	t.Run("quiz generation fails over too", func(t *testing.T) {
		primary := &stubGenerator{name: "primary", err: errors.New("down")}
		backup := &stubGenerator{name: "backup"}
		m := NewMultiGenerator(zerolog.Nop(), primary, backup)

		qs, err := m.GenerateQuizQuestions(ctx, "lesson", 1)
		if err != nil {
			t.Fatalf("GenerateQuizQuestions() error = %v", err)
		}
		if len(qs) != 1 || qs[0].Prompt != "backup" {
			t.Errorf("questions = %+v, want backup's", qs)
		}
	})
}

func TestLimitedGenerator(t *testing.T) {
	inner := &stubGenerator{name: "inner", text: "ok"}

	t.Run("non-positive limit returns the inner generator", func(t *testing.T) {
		if got := NewLimitedGenerator(inner, 0); got != adapter.ContentGenerator(inner) {
			t.Error("limit 0 must not wrap")
		}
	})

	t.Run("wrapped generator passes calls through", func(t *testing.T) {
		g := NewLimitedGenerator(inner, 2)
		if g.Name() != "inner" {
			t.Errorf("Name() = %q", g.Name())
		}
		text, err := g.GenerateLessonText(context.Background(), "t", "l", "c", nil)
		if err != nil {
			t.Fatalf("GenerateLessonText() error = %v", err)
		}
		if text != "ok" {
			t.Errorf("text = %q", text)
		}
	})
}
