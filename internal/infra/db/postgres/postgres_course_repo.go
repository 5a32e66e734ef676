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

var _ repository.CourseRepository = (*courseRepo)(nil)

type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, topic, level, price_minor, currency, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET title=$2, topic=$3, level=$4, price_minor=$5, currency=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Title, c.Topic, c.Level, c.PriceMinor, c.Currency, c.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT id, title, topic, level, price_minor, currency, created_at FROM courses WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c := &model.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.Topic, &c.Level, &c.PriceMinor, &c.Currency, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *courseRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	const q = `SELECT id, title, topic, level, price_minor, currency, created_at FROM courses ORDER BY created_at ASC;`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Course
	for rows.Next() {
		c := &model.Course{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Topic, &c.Level, &c.PriceMinor, &c.Currency, &c.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ repository.LessonRepository = (*lessonRepo)(nil)

type lessonRepo struct{ pool *pgxpool.Pool }

func NewLessonRepo(pool *pgxpool.Pool) *lessonRepo {
	return &lessonRepo{pool: pool}
}

func (r *lessonRepo) Save(ctx context.Context, tx repository.Tx, l *model.Lesson) error {
	const q = `
INSERT INTO lessons (id, course_id, title, body, position, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET title=$3, body=$4, position=$5;`

	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.CourseID, l.Title, l.Body, l.Position, l.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *lessonRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lesson, error) {
	const q = `SELECT id, course_id, title, body, position, created_at FROM lessons WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	l := &model.Lesson{}
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Body, &l.Position, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return l, nil
}

func (r *lessonRepo) ListByCourse(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Lesson, error) {
	const q = `SELECT id, course_id, title, body, position, created_at FROM lessons WHERE course_id=$1 ORDER BY position ASC;`
	rows, err := pickRows(ctx, r.pool, tx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Lesson
	for rows.Next() {
		l := &model.Lesson{}
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Body, &l.Position, &l.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *lessonRepo) CountByCourse(ctx context.Context, tx repository.Tx, courseID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM lessons WHERE course_id=$1;`, courseID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

var _ repository.CompletionRepository = (*completionRepo)(nil)

type completionRepo struct{ pool *pgxpool.Pool }

func NewCompletionRepo(pool *pgxpool.Pool) *completionRepo {
	return &completionRepo{pool: pool}
}

func (r *completionRepo) MarkComplete(ctx context.Context, tx repository.Tx, c *model.LessonCompletion) (bool, error) {
	const q = `
INSERT INTO lesson_completions (user_id, lesson_id, course_id, completed_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, lesson_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, c.UserID, c.LessonID, c.CourseID, c.CompletedAt)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *completionRepo) CountByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM lesson_completions WHERE user_id=$1 AND course_id=$2;`, userID, courseID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
