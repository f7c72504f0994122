package identityd

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"tournament-client/pkg/utils"
)

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE users (
//	    id            uuid PRIMARY KEY,
//	    email         text NOT NULL UNIQUE,
//	    password_hash text NOT NULL,
//	    role          text NOT NULL,
//	    created_at    timestamptz NOT NULL
//	);
//
// Emails are stored lowercased; the UNIQUE constraint backs ErrEmailTaken.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, email, password_hash, role, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO NOTHING
`
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.CreatedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEmailTaken
		}
		return nil
	})
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, email, password_hash, role, created_at
FROM users
WHERE email = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, strings.ToLower(email)))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, email, password_hash, role, created_at
FROM users
WHERE id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) scanOne(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}
