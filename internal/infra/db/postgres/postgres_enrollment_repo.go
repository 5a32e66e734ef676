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

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

func (r *enrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	const q = `
INSERT INTO enrollments (id, user_id, course_id, status, created_at)
VALUES ($1,$2,$3,$4,$5);`

	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.CourseID, e.Status, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// The (user_id, course_id) unique index is the last line of
			// defense against duplicate grants.
			return domain.ErrAlreadyExists
		}
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) SaveBatch(ctx context.Context, tx repository.Tx, es []*model.Enrollment) error {
	// One INSERT per row inside the caller's transaction keeps the batch
	// all-or-nothing; any failure rolls back everything.
	for _, e := range es {
		if err := r.Save(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *enrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	const q = `SELECT id, user_id, course_id, status, created_at FROM enrollments WHERE user_id=$1 AND course_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	e := &model.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

func (r *enrollmentRepo) ListByUsersAndCourse(ctx context.Context, tx repository.Tx, userIDs []string, courseID string) ([]*model.Enrollment, error) {
	const q = `SELECT id, user_id, course_id, status, created_at FROM enrollments WHERE user_id = ANY($1) AND course_id=$2;`
	rows, err := pickRows(ctx, r.pool, tx, q, userIDs, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Enrollment
	for rows.Next() {
		e := &model.Enrollment{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *enrollmentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.EnrollmentStatus) error {
	const q = `UPDATE enrollments SET status=$2 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
