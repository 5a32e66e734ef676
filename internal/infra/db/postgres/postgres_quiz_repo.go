package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/repository"
)

var _ repository.QuizRepository = (*quizRepo)(nil)

type quizRepo struct{ pool *pgxpool.Pool }

func NewQuizRepo(pool *pgxpool.Pool) *quizRepo {
	return &quizRepo{pool: pool}
}

func (r *quizRepo) Save(ctx context.Context, tx repository.Tx, q *model.Quiz) error {
	const insertQuiz = `
INSERT INTO quizzes (id, course_id, lesson_id, title, passing_score, created_at)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET title=$4, passing_score=$5;`

	const insertQuestion = `
INSERT INTO quiz_questions (id, quiz_id, prompt, qtype, options, correct_single, correct_multi, points, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET prompt=$3, qtype=$4, options=$5, correct_single=$6, correct_multi=$7, points=$8, position=$9;`

	if _, err := execSQL(ctx, r.pool, tx, insertQuiz, q.ID, q.CourseID, q.LessonID, q.Title, q.PassingScore, q.CreatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	for _, qn := range q.Questions {
		if _, err := execSQL(ctx, r.pool, tx, insertQuestion,
			qn.ID, q.ID, qn.Prompt, qn.Type, qn.Options, qn.CorrectSingle, qn.CorrectMulti, qn.Points, qn.Position); err != nil {
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *quizRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Quiz, error) {
	const q = `SELECT id, course_id, COALESCE(lesson_id::text,''), title, passing_score, created_at FROM quizzes WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	quiz := &model.Quiz{}
	if err := row.Scan(&quiz.ID, &quiz.CourseID, &quiz.LessonID, &quiz.Title, &quiz.PassingScore, &quiz.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	questions, err := r.listQuestions(ctx, tx, quiz.ID)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return quiz, nil
}

func (r *quizRepo) listQuestions(ctx context.Context, tx repository.Tx, quizID string) ([]model.Question, error) {
	const q = `
SELECT id, quiz_id, prompt, qtype, options, correct_single, correct_multi, points, position
  FROM quiz_questions WHERE quiz_id=$1 ORDER BY position ASC;`

	rows, err := pickRows(ctx, r.pool, tx, q, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var qn model.Question
		if err := rows.Scan(&qn.ID, &qn.QuizID, &qn.Prompt, &qn.Type, &qn.Options, &qn.CorrectSingle, &qn.CorrectMulti, &qn.Points, &qn.Position); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, qn)
	}
	return out, rows.Err()
}

func (r *quizRepo) ListByCourse(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Quiz, error) {
	const q = `SELECT id, course_id, COALESCE(lesson_id::text,''), title, passing_score, created_at FROM quizzes WHERE course_id=$1 ORDER BY created_at ASC;`
	rows, err := pickRows(ctx, r.pool, tx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Quiz
	for rows.Next() {
		quiz := &model.Quiz{}
		if err := rows.Scan(&quiz.ID, &quiz.CourseID, &quiz.LessonID, &quiz.Title, &quiz.PassingScore, &quiz.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, quiz := range out {
		questions, err := r.listQuestions(ctx, tx, quiz.ID)
		if err != nil {
			return nil, err
		}
		quiz.Questions = questions
	}
	return out, nil
}

var _ repository.QuizAttemptRepository = (*quizAttemptRepo)(nil)

type quizAttemptRepo struct{ pool *pgxpool.Pool }

func NewQuizAttemptRepo(pool *pgxpool.Pool) *quizAttemptRepo {
	return &quizAttemptRepo{pool: pool}
}

func (r *quizAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.QuizAttempt) error {
	// Attempts are append-only; no upsert.
	const q = `
INSERT INTO quiz_attempts (id, user_id, quiz_id, course_id, raw_answers, score, passed, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.UserID, a.QuizID, a.CourseID, []byte(a.RawAnswers), a.Score, a.Passed, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *quizAttemptRepo) ListByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) ([]*model.QuizAttempt, error) {
	const q = `
SELECT id, user_id, quiz_id, course_id, raw_answers, score, passed, created_at
  FROM quiz_attempts WHERE user_id=$1 AND course_id=$2 ORDER BY created_at ASC;`

	rows, err := pickRows(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.QuizAttempt
	for rows.Next() {
		a := &model.QuizAttempt{}
		var raw []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.CourseID, &raw, &a.Score, &a.Passed, &a.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		a.RawAnswers = raw
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ repository.ProgressRepository = (*progressRepo)(nil)

type progressRepo struct{ pool *pgxpool.Pool }

func NewProgressRepo(pool *pgxpool.Pool) *progressRepo {
	return &progressRepo{pool: pool}
}

// Upsert replaces the whole record; progress is a derived cache and is always
// written in one statement.
func (r *progressRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Progress) error {
	const q = `
INSERT INTO progress (user_id, course_id, completed_lessons, total_lessons, best_quiz_ratio, percent, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, course_id) DO UPDATE SET
  completed_lessons=$3, total_lessons=$4, best_quiz_ratio=$5, percent=$6, updated_at=$7;`

	_, err := execSQL(ctx, r.pool, tx, q, p.UserID, p.CourseID, p.CompletedLessons, p.TotalLessons, p.BestQuizRatio, p.Percent, p.UpdatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *progressRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Progress, error) {
	const q = `
SELECT user_id, course_id, completed_lessons, total_lessons, best_quiz_ratio, percent, updated_at
  FROM progress WHERE user_id=$1 AND course_id=$2;`

	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	p := &model.Progress{}
	if err := row.Scan(&p.UserID, &p.CourseID, &p.CompletedLessons, &p.TotalLessons, &p.BestQuizRatio, &p.Percent, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
