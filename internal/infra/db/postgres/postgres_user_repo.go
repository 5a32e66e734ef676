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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, name, password_digest, organization_id, created_at)
VALUES ($1,$2,$3,$4,NULLIF($5,''),$6)
ON CONFLICT (id) DO UPDATE SET email=$2, name=$3, password_digest=$4, organization_id=NULLIF($5,'');`

	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.Name, u.PasswordDigest, u.OrganizationID, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordDigest, &u.OrganizationID, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

// organization_id is a nullable uuid; cast before COALESCE so the fallback
// stays text instead of being parsed as a uuid literal.
const userColumns = `id, email, name, password_digest, COALESCE(organization_id::text,''), created_at`

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE email=$1;`, email)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

var _ repository.GroupRepository = (*groupRepo)(nil)

type groupRepo struct{ pool *pgxpool.Pool }

func NewGroupRepo(pool *pgxpool.Pool) *groupRepo {
	return &groupRepo{pool: pool}
}

func (r *groupRepo) Save(ctx context.Context, tx repository.Tx, g *model.StudyGroup) error {
	const q = `
INSERT INTO study_groups (id, organization_id, name, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=$3;`

	_, err := execSQL(ctx, r.pool, tx, q, g.ID, g.OrganizationID, g.Name, g.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *groupRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.StudyGroup, error) {
	const q = `SELECT id, organization_id, name, created_at FROM study_groups WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	g := &model.StudyGroup{}
	if err := row.Scan(&g.ID, &g.OrganizationID, &g.Name, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return g, nil
}

func (r *groupRepo) ListMemberIDs(ctx context.Context, tx repository.Tx, groupID string) ([]string, error) {
	const q = `SELECT user_id FROM study_group_members WHERE group_id=$1 ORDER BY user_id;`
	rows, err := pickRows(ctx, r.pool, tx, q, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *groupRepo) AddMember(ctx context.Context, tx repository.Tx, groupID, userID string) error {
	const q = `INSERT INTO study_group_members (group_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING;`
	if _, err := execSQL(ctx, r.pool, tx, q, groupID, userID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

var _ repository.TokenRepository = (*tokenRepo)(nil)

type tokenRepo struct{ pool *pgxpool.Pool }

func NewTokenRepo(pool *pgxpool.Pool) *tokenRepo {
	return &tokenRepo{pool: pool}
}

func (r *tokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.ActionToken) error {
	const q = `
INSERT INTO action_tokens (id, subject_id, purpose, digest, expires_at, used_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.SubjectID, t.Purpose, t.Digest, t.ExpiresAt, t.UsedAt, t.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *tokenRepo) FindUsable(ctx context.Context, tx repository.Tx, subjectID string, purpose model.TokenPurpose) (*model.ActionToken, error) {
	const q = `
SELECT id, subject_id, purpose, digest, expires_at, used_at, created_at
  FROM action_tokens
 WHERE subject_id=$1 AND purpose=$2 AND used_at IS NULL AND expires_at > NOW()
 ORDER BY created_at DESC
 LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, subjectID, purpose)
	if err != nil {
		return nil, err
	}
	t := &model.ActionToken{}
	if err := row.Scan(&t.ID, &t.SubjectID, &t.Purpose, &t.Digest, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *tokenRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE action_tokens SET used_at=NOW() WHERE id=$1 AND used_at IS NULL;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `DELETE FROM action_tokens WHERE expires_at <= NOW() OR used_at IS NOT NULL;`
	cmd, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}
