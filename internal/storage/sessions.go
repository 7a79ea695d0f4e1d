package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/EnguerranCA/HabitHisson/internal/auth"
)

type SessionRepo struct {
	db *sql.DB
}

func (r *SessionRepo) Create(ctx context.Context, s auth.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, created_at, last_seen, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TokenHash,
		s.CreatedAt.Format(time.RFC3339), s.LastSeen.Format(time.RFC3339), s.ExpiresAt.Format(time.RFC3339))
	return err
}

func (r *SessionRepo) GetByTokenHash(ctx context.Context, hash string) (auth.Session, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, created_at, last_seen, expires_at
		 FROM sessions WHERE token_hash = ?`, hash)

	var s auth.Session
	var createdAt, lastSeen, expiresAt string
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &createdAt, &lastSeen, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, false, nil
	}
	if err != nil {
		return auth.Session{}, false, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.LastSeen, _ = time.Parse(time.RFC3339, lastSeen)
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	return s, true, nil
}

func (r *SessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *SessionRepo) DeleteByTokenHash(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hash)
	return err
}

func (r *SessionRepo) Touch(ctx context.Context, id string, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen = ? WHERE id = ?`, t.Format(time.RFC3339), id)
	return err
}
