package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/user"
)

type UserRepo struct {
	db *sql.DB
}

func (r *UserRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Level < 1 {
		u.Level = 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, xp, level, public, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.XP, u.Level, boolToInt(u.Public), u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, last_login_date, best_streak) VALUES (?, '', 0)`, u.ID)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (user.User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getWhere(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg any) (user.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, xp, level, public, created_at
		 FROM users WHERE `+cond, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (r *UserRepo) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Public != nil {
		u.Public = *p.Public
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, public = ? WHERE id = ?`,
		u.Name, boolToInt(u.Public), id)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UserRepo) SetXP(ctx context.Context, id string, xp, level int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET xp = ?, level = ? WHERE id = ?`, xp, level, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, password_hash, xp, level, public, created_at
		 FROM users ORDER BY xp DESC, level DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) GetProgress(ctx context.Context, userID string) (user.Progress, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, last_login_date, best_streak FROM user_progress WHERE user_id = ?`, userID)

	var p user.Progress
	var last string
	err := row.Scan(&p.UserID, &last, &p.BestStreak)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.Get(ctx, userID); err != nil {
			return user.Progress{}, err
		}
		return user.Progress{UserID: userID}, nil
	}
	if err != nil {
		return user.Progress{}, err
	}
	p.LastLoginDate = dates.DayKey(last)
	return p, nil
}

func (r *UserRepo) SetLastLogin(ctx context.Context, userID string, day dates.DayKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, last_login_date, best_streak) VALUES (?, ?, 0)
		 ON CONFLICT (user_id) DO UPDATE SET last_login_date = excluded.last_login_date`,
		userID, string(day))
	return err
}

func (r *UserRepo) SetBestStreak(ctx context.Context, userID string, streak int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, last_login_date, best_streak) VALUES (?, '', ?)
		 ON CONFLICT (user_id) DO UPDATE SET best_streak = excluded.best_streak`,
		userID, streak)
	return err
}

func scanUser(row scanner) (user.User, error) {
	var u user.User
	var public int
	var createdAt string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.XP, &u.Level, &public, &createdAt); err != nil {
		return user.User{}, err
	}
	u.Public = public != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = t
	}
	return u, nil
}
