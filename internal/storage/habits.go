package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
)

type HabitRepo struct {
	db *sql.DB
}

func (r *HabitRepo) Create(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	if err := h.Validate(); err != nil {
		return habit.Habit{}, err
	}

	h.ID = uuid.NewString()
	h.Name = strings.TrimSpace(h.Name)
	h.Active = true
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO habits (id, user_id, name, emoji, kind, cadence, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		h.ID, h.UserID, h.Name, h.Emoji, string(h.Kind), string(h.Cadence), h.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return habit.Habit{}, err
	}
	return h, nil
}

func (r *HabitRepo) Get(ctx context.Context, id string) (habit.Habit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, emoji, kind, cadence, active, created_at
		 FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Habit{}, habit.ErrNotFound
	}
	return h, err
}

func (r *HabitRepo) Update(ctx context.Context, id string, p habit.Patch) (habit.Habit, error) {
	h, err := r.Get(ctx, id)
	if err != nil {
		return habit.Habit{}, err
	}
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Emoji != nil {
		h.Emoji = *p.Emoji
	}
	if p.Active != nil {
		h.Active = *p.Active
	}
	if err := h.Validate(); err != nil {
		return habit.Habit{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE habits SET name = ?, emoji = ?, active = ? WHERE id = ?`,
		h.Name, h.Emoji, boolToInt(h.Active), id)
	if err != nil {
		return habit.Habit{}, err
	}
	return h, nil
}

func (r *HabitRepo) List(ctx context.Context, filter habit.ListFilter) ([]habit.Habit, error) {
	query := `SELECT id, user_id, name, emoji, kind, cadence, active, created_at FROM habits`
	var conds []string
	var args []any
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []habit.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (habit.Habit, error) {
	var h habit.Habit
	var kind, cadence, createdAt string
	var active int
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Emoji, &kind, &cadence, &active, &createdAt); err != nil {
		return habit.Habit{}, err
	}
	h.Kind = habit.Kind(kind)
	h.Cadence = habit.Cadence(cadence)
	h.Active = active != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		h.CreatedAt = t
	}
	return h, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type LogRepo struct {
	db *sql.DB
}

func (r *LogRepo) Get(ctx context.Context, habitID string, day dates.DayKey) (habit.Log, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, habit_id, user_id, day, completed FROM habit_logs
		 WHERE habit_id = ? AND day = ?`, habitID, string(day))
	l, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Log{}, false, nil
	}
	if err != nil {
		return habit.Log{}, false, err
	}
	return l, true, nil
}

func (r *LogRepo) Upsert(ctx context.Context, l habit.Log) (habit.Log, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO habit_logs (id, habit_id, user_id, day, completed)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (habit_id, day) DO UPDATE SET completed = excluded.completed`,
		l.ID, l.HabitID, l.UserID, string(l.Day), boolToInt(l.Completed))
	if err != nil {
		return habit.Log{}, err
	}
	stored, _, err := r.Get(ctx, l.HabitID, l.Day)
	return stored, err
}

func (r *LogRepo) ListByHabit(ctx context.Context, habitID string, from, to dates.DayKey) ([]habit.Log, error) {
	return r.list(ctx,
		`SELECT id, habit_id, user_id, day, completed FROM habit_logs
		 WHERE habit_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`,
		habitID, string(from), string(to))
}

func (r *LogRepo) ListCompletedByHabit(ctx context.Context, habitID string) ([]habit.Log, error) {
	return r.list(ctx,
		`SELECT id, habit_id, user_id, day, completed FROM habit_logs
		 WHERE habit_id = ? AND completed = 1 ORDER BY day ASC`,
		habitID)
}

func (r *LogRepo) ListByUser(ctx context.Context, userID string, from, to dates.DayKey) ([]habit.Log, error) {
	return r.list(ctx,
		`SELECT id, habit_id, user_id, day, completed FROM habit_logs
		 WHERE user_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`,
		userID, string(from), string(to))
}

func (r *LogRepo) list(ctx context.Context, query string, args ...any) ([]habit.Log, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []habit.Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLog(row scanner) (habit.Log, error) {
	var l habit.Log
	var day string
	var completed int
	if err := row.Scan(&l.ID, &l.HabitID, &l.UserID, &day, &completed); err != nil {
		return habit.Log{}, err
	}
	l.Day = dates.DayKey(day)
	l.Completed = completed != 0
	return l, nil
}
