package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/adapter"
	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
	"course-commerce/internal/infra/worker"
)

// LessonUseCase covers lesson authoring, lesson completion and search. The
// content generator and search index are outside collaborators: generation
// failures surface, indexing failures are logged and swallowed.
type LessonUseCase struct {
	courses     repository.CourseRepository
	lessons     repository.LessonRepository
	completions repository.CompletionRepository
	quizzes     repository.QuizRepository
	generator   adapter.ContentGenerator
	index       adapter.SearchIndex
	pool        *worker.Pool
	progress    *ProgressUseCase
	tm          repository.TransactionManager
	log         zerolog.Logger
}

func NewLessonUseCase(
	courses repository.CourseRepository,
	lessons repository.LessonRepository,
	completions repository.CompletionRepository,
	quizzes repository.QuizRepository,
	generator adapter.ContentGenerator,
	index adapter.SearchIndex,
	pool *worker.Pool,
	progress *ProgressUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *LessonUseCase {
	return &LessonUseCase{
		courses:     courses,
		lessons:     lessons,
		completions: completions,
		quizzes:     quizzes,
		generator:   generator,
		index:       index,
		pool:        pool,
		progress:    progress,
		tm:          tm,
		log:         logger.With().Str("component", "LessonUC").Logger(),
	}
}

// CreateLesson generates lesson text for a course topic and persists it. The
// write succeeds even when search indexing is unavailable; the index task runs
// in the background and only logs on failure.
func (u *LessonUseCase) CreateLesson(ctx context.Context, courseID, title, topic string, position int, referenceTexts []string) (*model.Lesson, error) {
	course, err := u.courses.FindByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}

	body, err := u.generator.GenerateLessonText(ctx, topic, course.Level, course.Title, referenceTexts)
	if err != nil {
		return nil, err
	}

	l := &model.Lesson{
		ID:        uuid.NewString(),
		CourseID:  course.ID,
		Title:     title,
		Body:      body,
		Position:  position,
		CreatedAt: time.Now(),
	}
	if err := u.lessons.Save(ctx, nil, l); err != nil {
		return nil, err
	}

	u.submitIndex(l.ID, body, []string{"lesson", "course:" + course.ID})
	u.log.Info().Str("lesson_id", l.ID).Str("course_id", course.ID).Msg("lesson created")
	return l, nil
}

func (u *LessonUseCase) submitIndex(docID, text string, tags []string) {
	task := func(ctx context.Context) error {
		if err := u.index.IndexText(ctx, docID, text, tags); err != nil {
			metrics.IncIndexFailure()
			u.log.Warn().Err(err).Str("doc_id", docID).Msg("search indexing failed; lesson write unaffected")
		}
		return nil
	}
	if u.pool == nil || u.pool.Submit(task) != nil {
		// Pool unavailable or saturated: run inline, still best-effort.
		_ = task(context.Background())
	}
}

// GenerateQuiz asks the content collaborator for questions over a lesson's
// text and persists them as a quiz with the given passing score.
func (u *LessonUseCase) GenerateQuiz(ctx context.Context, lessonID string, count, passingScore int) (*model.Quiz, error) {
	lesson, err := u.lessons.FindByID(ctx, nil, lessonID)
	if err != nil {
		return nil, err
	}

	generated, err := u.generator.GenerateQuizQuestions(ctx, lesson.Body, count)
	if err != nil {
		return nil, err
	}

	quizID := uuid.NewString()
	questions := make([]model.Question, 0, len(generated))
	for i, g := range generated {
		questions = append(questions, model.Question{
			ID:            uuid.NewString(),
			QuizID:        quizID,
			Prompt:        g.Prompt,
			Type:          model.QuestionType(g.Type),
			Options:       g.Options,
			CorrectSingle: g.CorrectSingle,
			CorrectMulti:  g.CorrectMulti,
			Points:        1,
			Position:      i,
		})
	}
	quiz := &model.Quiz{
		ID:           quizID,
		CourseID:     lesson.CourseID,
		LessonID:     lesson.ID,
		Title:        lesson.Title,
		PassingScore: passingScore,
		Questions:    questions,
		CreatedAt:    time.Now(),
	}
	// The quiz row and its questions are separate inserts; one transaction
	// keeps a half-written quiz from ever being visible.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.quizzes.Save(ctx, tx, quiz)
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// CompleteLesson marks a lesson done for the user (idempotently) and refreshes
// course progress.
func (u *LessonUseCase) CompleteLesson(ctx context.Context, userID, lessonID string) (*model.Progress, error) {
	lesson, err := u.lessons.FindByID(ctx, nil, lessonID)
	if err != nil {
		return nil, err
	}
	created, err := u.completions.MarkComplete(ctx, nil, &model.LessonCompletion{
		UserID:      userID,
		LessonID:    lesson.ID,
		CourseID:    lesson.CourseID,
		CompletedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		metrics.IncLessonCompleted()
	}
	return u.progress.Recompute(ctx, userID, lesson.CourseID)
}

// SearchLessons queries the search collaborator for lessons similar to the
// query and resolves the hits to lesson records, dropping stale ones.
func (u *LessonUseCase) SearchLessons(ctx context.Context, query string, k int, filterTags []string) ([]*model.Lesson, error) {
	matches, err := u.index.SearchSimilar(ctx, query, k, filterTags)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Lesson, 0, len(matches))
	for _, m := range matches {
		l, err := u.lessons.FindByID(ctx, nil, m.DocID)
		if err != nil {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
