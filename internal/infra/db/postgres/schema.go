package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schemaDDL creates every table the repositories expect. Statements are
// idempotent so the seeder and local setups can run it repeatedly.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_digest TEXT NOT NULL,
		organization_id UUID,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS study_groups (
		id UUID PRIMARY KEY,
		organization_id UUID,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS study_group_members (
		group_id UUID NOT NULL REFERENCES study_groups(id),
		user_id UUID NOT NULL REFERENCES users(id),
		PRIMARY KEY (group_id, user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS courses (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		topic TEXT NOT NULL,
		level TEXT NOT NULL,
		price_minor BIGINT NOT NULL,
		currency TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id),
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		position INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS lesson_completions (
		user_id UUID NOT NULL REFERENCES users(id),
		lesson_id UUID NOT NULL REFERENCES lessons(id),
		course_id UUID NOT NULL REFERENCES courses(id),
		completed_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, lesson_id)
	);`,
	`CREATE TABLE IF NOT EXISTS plans (
		name TEXT PRIMARY KEY,
		price_minor BIGINT NOT NULL,
		currency TEXT NOT NULL,
		period_days INT NOT NULL,
		seats INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		access_code TEXT NOT NULL DEFAULT '',
		authorization_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		intent JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		paid_at TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY,
		organization_id UUID NOT NULL,
		plan TEXT NOT NULL REFERENCES plans(name),
		status TEXT NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		course_id UUID NOT NULL REFERENCES courses(id),
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, course_id)
	);`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id),
		lesson_id UUID REFERENCES lessons(id),
		title TEXT NOT NULL,
		passing_score INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS quiz_questions (
		id UUID PRIMARY KEY,
		quiz_id UUID NOT NULL REFERENCES quizzes(id),
		prompt TEXT NOT NULL,
		qtype TEXT NOT NULL,
		options TEXT[] NOT NULL DEFAULT '{}',
		correct_single TEXT NOT NULL DEFAULT '',
		correct_multi TEXT[] NOT NULL DEFAULT '{}',
		points INT NOT NULL,
		position INT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		quiz_id UUID NOT NULL REFERENCES quizzes(id),
		course_id UUID NOT NULL REFERENCES courses(id),
		raw_answers JSONB NOT NULL,
		score INT NOT NULL,
		passed BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS progress (
		user_id UUID NOT NULL REFERENCES users(id),
		course_id UUID NOT NULL REFERENCES courses(id),
		completed_lessons INT NOT NULL,
		total_lessons INT NOT NULL,
		best_quiz_ratio DOUBLE PRECISION NOT NULL,
		percent DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, course_id)
	);`,
	`CREATE TABLE IF NOT EXISTS action_tokens (
		id UUID PRIMARY KEY,
		subject_id UUID NOT NULL REFERENCES users(id),
		purpose TEXT NOT NULL,
		digest TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		used_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status_created ON payments (status, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_org ON subscriptions (organization_id, status, period_end);`,
	`CREATE INDEX IF NOT EXISTS idx_action_tokens_subject ON action_tokens (subject_id, purpose, created_at);`,
}

// Migrate applies the schema. Safe to call on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaDDL {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
